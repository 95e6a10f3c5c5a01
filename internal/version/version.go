package version

// Version is the current release of bluesky-network.
var Version = "0.1.0"

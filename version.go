package dicetree

// Version is the release of the dicetree module. Overridden at link time by release builds.
var Version = "0.4.0"

// Package version contains information on the current version of the
// program. It is split from the main program for easy use.
package version

// Current is the string representing the current version of backchain.
const Current = "0.1.0"

// ServerCurrent is the version string reported by the HTTP service, tracked
// separately from Current so the CLI and the service can diverge.
const ServerCurrent = "0.1.0"

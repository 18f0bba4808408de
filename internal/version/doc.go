// Package version exposes build metadata for trainpi.
//
// Version, Commit and BuildTime are injected with -ldflags at build time and
// keep placeholder values in local builds.
package version

// Package stopwatch tracks cumulative running time across start, stop and
// reset cycles.
//
// Timer reads a monotonic clock, so elapsed time never regresses when the
// wall clock is adjusted. The clock is injectable to keep tests deterministic.
package stopwatch

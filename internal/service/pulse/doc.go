// Package pulse runs the motor once for a fixed duration and stops it.
//
// It is the scripted, non-interactive way to check the wiring: connect,
// start, wait, stop, report how long the motor ran.
package pulse

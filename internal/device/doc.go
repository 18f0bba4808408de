// Package device discovers the motor actuator for the current host.
//
// Probe turns the configured driver into a Device. The "auto" driver follows
// the host platform: Linux hosts are expected to carry a Build HAT, every
// other platform runs without a device.
package device

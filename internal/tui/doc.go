// Package tui is the terminal front end of the control panel.
//
// Keys are read from a raw-mode terminal and decoded into actions; Loop
// applies the actions to the motor controller and redraws the panel at a
// fixed rate. Every controller call happens on the Loop goroutine.
package tui

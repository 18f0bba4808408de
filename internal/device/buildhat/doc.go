// Package buildhat drives a passive motor attached to a Raspberry Pi Build HAT.
//
// The board is controlled over a serial line with a text protocol: commands
// are terminated by a carriage return and the board answers with lines of
// text. Only the commands a passive (unencoded) motor needs are implemented:
// power limit, PWM setpoint, coast and the port listing used to detect
// whether the motor is plugged in.
package buildhat

// Package motor contains the run/speed state machine for a single passive
// DC motor.
//
// Controller gates start, stop and speed commands behind a connectivity check,
// clamps the setpoint to a safe range and runs a stopwatch in lockstep with the
// motor. The hardware is reached through the Actuator interface; a nil
// actuator puts the controller into no-device mode, where speed and timer
// logic still work for demonstration.
package motor

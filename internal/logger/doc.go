// Package logger wraps zap to provide:
//   - a global sugared logger with a console encoder,
//   - a rotating file logger for when the terminal belongs to the control panel,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and level-scoped helpers (Infof, ErrorKV, ...).
//
// Services and the motor controller take a context and extract the logger
// from it, so log lines carry the name of the component that wrote them.
package logger

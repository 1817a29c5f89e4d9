package logger

import corelogger "github.com/fraudops/fieldkit/core/logger"

// Logger aliases the core interface so adapters and callers share one type.
type Logger = corelogger.Logger

// NopLogger discards all output.
type NopLogger = corelogger.Nop

// New returns the zerolog-backed Logger for the given component. Output
// format follows the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}

package common

import "log"

// Reporter receives diagnostics for logical errors that are absorbed rather than returned,
// such as double-destroying an object or removing a light that was never added.
type Reporter func(format string, args ...any)

// LogReporter reports through the standard logger.
func LogReporter(format string, args ...any) {
	log.Printf(format, args...)
}

// Report calls r, falling back to LogReporter when r is nil.
func (r Reporter) Report(format string, args ...any) {
	if r == nil {
		LogReporter(format, args...)
		return
	}
	r(format, args...)
}

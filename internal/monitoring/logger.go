// Package monitoring holds the process-wide diagnostic loggers used by the
// refinement driver, the mass estimators and the run store.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger so tests can capture or mute output.
var Logf func(format string, v ...interface{}) = log.Printf

// Debugf receives per-round refinement detail. It is a no-op until
// SetDebug(true) routes it to Logf.
var Debugf func(format string, v ...interface{}) = noop

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
// Debug output, when enabled, follows the new logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = noop
	}
	Logf = f
	if debug {
		Debugf = f
	}
}

var debug bool

// SetDebug enables or disables Debugf.
func SetDebug(on bool) {
	debug = on
	if on {
		Debugf = Logf
		return
	}
	Debugf = noop
}

func noop(string, ...interface{}) {}

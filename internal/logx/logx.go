// Package logx provides the bracket-tagged logging used throughout this
// repository (info and warnings to stdout, errors to stderr), matching the style the rest of the codebase already uses
// for subsystem logs (e.g. "[FFmpeg] ...", "[Session] ...").
package logx

import (
	"fmt"
	"os"
)

// Infof prints an informational line tagged with the given subsystem.
func Infof(tag, format string, args ...interface{}) {
	fmt.Printf("[%s] %s\n", tag, fmt.Sprintf(format, args...))
}

// Errorf prints an error line tagged with the given subsystem to stderr.
func Errorf(tag, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[%s] ERROR: %s\n", tag, fmt.Sprintf(format, args...))
}

// Warnf prints a warning line tagged with the given subsystem.
func Warnf(tag, format string, args ...interface{}) {
	fmt.Printf("[%s] WARN: %s\n", tag, fmt.Sprintf(format, args...))
}

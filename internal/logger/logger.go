// Package logger provides verbose logging for the airportai CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users follow the reasoning pipeline.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "[DEBUG] "+format+"\n", args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "[INFO] "+format+"\n", args...)
	}
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "[WARN] "+format+"\n", args...)
	}
}

// Error prints an error message. Errors are printed even when verbose mode is off.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(output, "[ERROR] "+format+"\n", args...)
}

// KV is a structured logger backed by the package-level verbose logger.
// Key/value pairs are rendered as "key=value" after the message.
type KV struct{}

// Std returns the structured logger backed by the verbose logger.
func Std() KV { return KV{} }

// Debug logs at debug level.
func (KV) Debug(msg string, keyvals ...any) { Debug("%s", render(msg, keyvals)) }

// Info logs at info level.
func (KV) Info(msg string, keyvals ...any) { Info("%s", render(msg, keyvals)) }

// Warn logs at warn level.
func (KV) Warn(msg string, keyvals ...any) { Warn("%s", render(msg, keyvals)) }

// Error logs at error level.
func (KV) Error(msg string, keyvals ...any) { Error("%s", render(msg, keyvals)) }

func render(msg string, keyvals []any) string {
	if len(keyvals) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(keyvals); i += 2 {
		sb.WriteByte(' ')
		if i+1 < len(keyvals) {
			fmt.Fprintf(&sb, "%v=%v", keyvals[i], keyvals[i+1])
		} else {
			fmt.Fprintf(&sb, "%v=?", keyvals[i])
		}
	}
	return sb.String()
}

// Nop discards everything.
type Nop struct{}

// Debug discards the message.
func (Nop) Debug(string, ...any) {}

// Info discards the message.
func (Nop) Info(string, ...any) {}

// Warn discards the message.
func (Nop) Warn(string, ...any) {}

// Error discards the message.
func (Nop) Error(string, ...any) {}

// Package logging provides the Logger used across sitefs and its
// implementations.
//
// Available implementations:
//   - ConsoleLogger: writes level-prefixed lines to an io.Writer, colored on a terminal
//   - NullLogger: discards all messages (useful for testing)
//
// All implementations are safe for concurrent use by multiple goroutines.
package logging

// Logger is the pluggable logging interface for sitefs operations.
// Implementations must be safe for concurrent use by multiple goroutines;
// the tree walker logs from several goroutines at once.
type Logger interface {
	// Verbose logs detailed diagnostic information.
	// Only logged when verbose mode is enabled.
	Verbose(format string, args ...any)

	// Info logs informational messages about normal operations.
	Info(format string, args ...any)

	// Error logs error messages.
	Error(format string, args ...any)
}

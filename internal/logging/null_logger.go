package logging

// NullLogger is a no-op logger that discards all log messages.
type NullLogger struct{}

// NewNullLogger creates a new NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

// Verbose is a no-op.
func (l *NullLogger) Verbose(format string, args ...any) {}

// Info is a no-op.
func (l *NullLogger) Info(format string, args ...any) {}

// Error is a no-op.
func (l *NullLogger) Error(format string, args ...any) {}

var (
	_ Logger = (*NullLogger)(nil)
	_ Logger = (*ConsoleLogger)(nil)
)

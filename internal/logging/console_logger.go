package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ConsoleLogger writes log messages to a writer, one line per call.
// Level prefixes are colored only when the writer is a terminal.
type ConsoleLogger struct {
	out     io.Writer
	verbose bool

	verbosePrefix string
	errorPrefix   string

	mu sync.Mutex
}

// NewConsoleLogger creates a ConsoleLogger writing to stderr.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stderr, verbose)
}

// NewConsoleLoggerTo creates a ConsoleLogger writing to out.
func NewConsoleLoggerTo(out io.Writer, verbose bool) *ConsoleLogger {
	dim := color.New(color.FgHiBlack)
	red := color.New(color.FgRed, color.Bold)
	if isTerminal(out) {
		dim.EnableColor()
		red.EnableColor()
	} else {
		dim.DisableColor()
		red.DisableColor()
	}

	return &ConsoleLogger{
		out:           out,
		verbose:       verbose,
		verbosePrefix: dim.Sprint("[VERBOSE]") + " ",
		errorPrefix:   red.Sprint("[ERROR]") + " ",
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l *ConsoleLogger) write(prefix, format string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(args) > 0 {
		fmt.Fprintf(l.out, prefix+format+"\n", args...)
	} else {
		fmt.Fprint(l.out, prefix+format+"\n")
	}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.write(l.verbosePrefix, format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...any) {
	l.write("", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...any) {
	l.write(l.errorPrefix, format, args)
}

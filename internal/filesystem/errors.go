package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Kind classifies a failed operation.
type Kind int

const (
	// KindIO is any storage failure without a more specific kind.
	KindIO Kind = iota
	KindMissingArgument
	KindNotFound
	KindAlreadyExists
	KindNotADirectory
	KindIsADirectory
	KindPermission
)

func (k Kind) String() string {
	switch k {
	case KindMissingArgument:
		return "missing argument"
	case KindNotFound:
		return "not found"
	case KindAlreadyExists:
		return "already exists"
	case KindNotADirectory:
		return "not a directory"
	case KindIsADirectory:
		return "is a directory"
	case KindPermission:
		return "permission denied"
	default:
		return "io"
	}
}

// ErrMissingArgument matches every *MissingArgumentError with errors.Is.
var ErrMissingArgument = errors.New("missing argument")

// MissingArgumentError reports an empty required path argument. It is
// returned before any storage call is made.
type MissingArgumentError struct {
	Name string // "path", "src" or "dest"
}

func (e *MissingArgumentError) Error() string {
	return e.Name + " is required!"
}

// Is reports whether target is ErrMissingArgument.
func (e *MissingArgumentError) Is(target error) bool {
	return target == ErrMissingArgument
}

func missing(name string) error {
	return &MissingArgumentError{Name: name}
}

// PathError records a storage failure together with the operation and path
// that caused it. It unwraps to the underlying error, so errors.Is against
// the io/fs sentinels keeps working.
type PathError struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// wrap attaches op and path to a storage error. Errors that are already
// classified and context errors pass through unchanged.
func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &PathError{Op: op, Path: path, Kind: KindOf(err), Err: err}
}

// KindOf classifies err. Unknown errors are KindIO.
func KindOf(err error) Kind {
	var pe *PathError
	switch {
	case err == nil:
		return KindIO
	case errors.Is(err, ErrMissingArgument):
		return KindMissingArgument
	case errors.As(err, &pe):
		return pe.Kind
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrExist):
		return KindAlreadyExists
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	case errors.Is(err, syscall.ENOTDIR):
		return KindNotADirectory
	case errors.Is(err, syscall.EISDIR):
		return KindIsADirectory
	default:
		return KindIO
	}
}

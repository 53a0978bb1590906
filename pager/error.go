package pager

import "github.com/pkg/errors"

var (
	ErrIO              = errors.New("pager: i/o error")
	ErrBadMagic        = errors.New("pager: bad magic")
	ErrBadVersion      = errors.New("pager: bad version")
	ErrBadPageSize     = errors.New("pager: bad page size")
	ErrBadMetadata     = errors.New("pager: bad metadata")
	ErrTruncated       = errors.New("pager: truncated file")
	ErrOutOfRange      = errors.New("pager: page out of range")
	ErrInvalidArgument = errors.New("pager: invalid argument")
)

// IOError reports a failed operation on the underlying sink. It matches
// ErrIO with errors.Is and unwraps to the OS error.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return "pager: " + e.Op + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

func ioError(op string, err error) error {
	return &IOError{Op: op, Err: err}
}

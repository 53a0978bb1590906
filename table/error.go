package table

import "github.com/pkg/errors"

var (
	ErrInvalidArgument = errors.New("table: invalid argument")
	ErrBadKind         = errors.New("table: bad page kind")
	ErrLayout          = errors.New("table: bad page layout")
	ErrBitmap          = errors.New("table: bitmap mismatch")
	ErrFull            = errors.New("table: page full")
)

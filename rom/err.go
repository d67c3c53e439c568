package rom

import (
	"errors"

	"github.com/ezrec/boneless/translate"
)

var f = translate.From

var (
	// Image errors
	ErrHexWord   = errors.New(f("not a 16-bit hex word"))
	ErrOddLength = errors.New(f("binary image has an odd number of bytes"))
)

// ErrLine indicates the line of a malformed hex image.
type ErrLine struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrLine) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrLine) Unwrap() error {
	return err.Err
}

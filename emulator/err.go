package emulator

import (
	"errors"

	"github.com/dis16/dis16/translate"
)

var f = translate.From

var (
	ErrImageTooLarge = errors.New(f("image does not fit in memory"))
)

// ErrRuntime indicates the location of a runtime fault.
type ErrRuntime struct {
	Pc  uint16
	Err error
}

func (err *ErrRuntime) Error() string {
	return f("pc 0x%04x %v", err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

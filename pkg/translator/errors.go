package translator

import (
	"errors"
	"fmt"

	"hackvm/pkg/vm"
)

var (
	ErrUnknownCommand  = errors.New("unknown command kind")
	ErrUnknownSegment  = errors.New("unknown segment")
	ErrUnknownOperator = errors.New("unknown arithmetic operator")
	ErrIndexOutOfRange = errors.New("segment index out of range")
	ErrPopConstant     = errors.New("cannot pop into the constant segment")
	ErrInvalidName     = errors.New("invalid symbol name")
	ErrFinished        = errors.New("emitter already finished")
	ErrBootstrap       = errors.New("invalid bootstrap entry function")

	ErrUndefinedFunction = errors.New("call to undefined function")
)

// Error ties a translation failure to the command that caused it.
type Error struct {
	Unit    string
	Line    int
	Command vm.Command
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Unit != "" && e.Line > 0:
		return fmt.Sprintf("%s.vm:%d: %s: %v", e.Unit, e.Line, e.Command, e.Err)
	case e.Unit != "":
		return fmt.Sprintf("%s.vm: %s: %v", e.Unit, e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

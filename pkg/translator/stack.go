package translator

import (
	"fmt"

	"hackvm/pkg/vm"
)

// pushD writes D to the stack top, then increments SP.
var pushD = []string{
	"@SP",
	"A=M",
	"M=D",
	"@SP",
	"M=M+1",
}

// popD decrements SP, then reads the old top into D.
var popD = []string{
	"@SP",
	"AM=M-1",
	"D=M",
}

func (e *Emitter) translatePush(segName string, index int) ([]string, error) {
	loc, err := e.resolve(segName, index)
	if err != nil {
		return nil, err
	}

	var code []string
	switch loc.Mode {
	case Immediate:
		code = []string{fmt.Sprintf("@%d", loc.Value), "D=A"}
	case Indirect:
		code = []string{
			"@" + loc.Base,
			"D=M",
			fmt.Sprintf("@%d", loc.Offset),
			"A=D+A",
			"D=M",
		}
	default:
		code = []string{loc.address(), "D=M"}
	}
	return append(code, pushD...), nil
}

func (e *Emitter) translatePop(segName string, index int) ([]string, error) {
	loc, err := e.resolve(segName, index)
	if err != nil {
		return nil, err
	}

	switch loc.Mode {
	case Immediate:
		return nil, ErrPopConstant
	case Indirect:
		code := []string{
			"@" + loc.Base,
			"D=M",
			fmt.Sprintf("@%d", loc.Offset),
			"D=D+A",
			"@R13",
			"M=D",
		}
		code = append(code, popD...)
		return append(code, "@R13", "A=M", "M=D"), nil
	default:
		code := append([]string{}, popD...)
		return append(code, loc.address(), "M=D"), nil
	}
}

func (e *Emitter) resolve(segName string, index int) (Location, error) {
	seg, ok := vm.ParseSegment(segName)
	if !ok {
		return Location{}, fmt.Errorf("%w %q", ErrUnknownSegment, segName)
	}
	return Resolve(seg, index, e.unit)
}

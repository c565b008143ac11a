package translator

import (
	"fmt"
	"strings"

	"hackvm/pkg/vm"
)

// Mode is the addressing strategy of a resolved segment slot.
type Mode int

const (
	// Indirect: RAM[RAM[Base] + Offset].
	Indirect Mode = iota
	// Direct: a fixed absolute RAM address.
	Direct
	// Symbol: a named variable allocated by the assembler.
	Symbol
	// Immediate: a literal value, no memory access.
	Immediate
)

// Location is a resolved segment slot.
type Location struct {
	Mode    Mode
	Base    string // Indirect
	Offset  int    // Indirect
	Address int    // Direct
	Symbol  string // Symbol
	Value   int    // Immediate
}

const (
	tempBase    = 5
	tempSize    = 8
	pointerBase = 3
	pointerSize = 2
	maxConstant = 0x7FFF
)

type segmentRule struct {
	mode  Mode
	base  string
	fixed int
	limit int // exclusive upper bound on the index, 0 when unbounded
}

var segmentRules = map[vm.Segment]segmentRule{
	vm.Local:    {mode: Indirect, base: "LCL"},
	vm.Argument: {mode: Indirect, base: "ARG"},
	vm.This:     {mode: Indirect, base: "THIS"},
	vm.That:     {mode: Indirect, base: "THAT"},
	vm.Temp:     {mode: Direct, fixed: tempBase, limit: tempSize},
	vm.Pointer:  {mode: Direct, fixed: pointerBase, limit: pointerSize},
	vm.Static:   {mode: Symbol},
	vm.Constant: {mode: Immediate, limit: maxConstant + 1},
}

// Resolve maps a segment slot to its addressing strategy. unit names the
// source unit that owns static variables.
func Resolve(seg vm.Segment, index int, unit string) (Location, error) {
	rule, ok := segmentRules[seg]
	if !ok {
		return Location{}, fmt.Errorf("%w %v", ErrUnknownSegment, seg)
	}
	if index < 0 || (rule.limit > 0 && index >= rule.limit) {
		return Location{}, fmt.Errorf("%w: %s %d", ErrIndexOutOfRange, seg, index)
	}

	switch rule.mode {
	case Indirect:
		return Location{Mode: Indirect, Base: rule.base, Offset: index}, nil
	case Direct:
		return Location{Mode: Direct, Address: rule.fixed + index}, nil
	case Symbol:
		return Location{Mode: Symbol, Symbol: StaticName(unit, index)}, nil
	default:
		return Location{Mode: Immediate, Value: index}, nil
	}
}

// StaticName is the assembler symbol backing static slot index of unit.
func StaticName(unit string, index int) string {
	return fmt.Sprintf("%s.%d", unit, index)
}

// isStaticSymbol reports whether name has the "<unit>.<index>" shape of a
// static variable, which a function label must not take.
func isStaticSymbol(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return false
	}
	for _, r := range name[i+1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// address returns the A-instruction operand selecting a Direct or Symbol slot.
func (l Location) address() string {
	if l.Mode == Symbol {
		return "@" + l.Symbol
	}
	switch l.Address {
	case pointerBase:
		return "@THIS"
	case pointerBase + 1:
		return "@THAT"
	}
	return fmt.Sprintf("@R%d", l.Address)
}

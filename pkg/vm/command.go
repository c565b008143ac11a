// Package vm defines the command model of the stack-based VM language:
// command kinds, memory segments and arithmetic operators.
package vm

import (
	"fmt"
	"unicode"
)

// Kind identifies the category of a VM command.
type Kind int

const (
	Arithmetic Kind = iota
	Push
	Pop
	Label
	Goto
	IfGoto
	Function
	Call
	Return
)

var kindNames = [...]string{
	Arithmetic: "arithmetic",
	Push:       "push",
	Pop:        "pop",
	Label:      "label",
	Goto:       "goto",
	IfGoto:     "if-goto",
	Function:   "function",
	Call:       "call",
	Return:     "return",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the defined command kinds.
func (k Kind) Valid() bool {
	return k >= Arithmetic && k <= Return
}

// HasIndex reports whether commands of kind k carry a numeric second operand.
func (k Kind) HasIndex() bool {
	switch k {
	case Push, Pop, Function, Call:
		return true
	}
	return false
}

// Command is one parsed VM instruction.
//
// Arg1 holds the segment name (push/pop), the operator name (arithmetic),
// the label name (label/goto/if-goto) or the function name (function/call).
// Arg2 holds the index (push/pop), the local count (function) or the
// argument count (call). Line is the 1-based source line, 0 if unknown.
type Command struct {
	Kind Kind
	Arg1 string
	Arg2 int
	Line int
}

// String renders c in VM source syntax.
func (c Command) String() string {
	switch c.Kind {
	case Arithmetic:
		return c.Arg1
	case Return:
		return "return"
	case Label, Goto, IfGoto:
		return c.Kind.String() + " " + c.Arg1
	case Push, Pop, Function, Call:
		return fmt.Sprintf("%s %s %d", c.Kind, c.Arg1, c.Arg2)
	}
	return c.Kind.String()
}

// IsIdentifier reports whether s is a legal VM symbol: a non-empty run of
// letters, digits, '_', '.' and ':' that does not start with a digit.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '.' || r == ':':
		case unicode.IsLetter(r) && r < unicode.MaxASCII:
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

package vm

import "fmt"

// Op is an arithmetic or logical stack operator.
type Op int

const (
	Add Op = iota
	Sub
	Neg
	Eq
	Gt
	Lt
	And
	Or
	Not
)

var opNames = [...]string{
	Add: "add",
	Sub: "sub",
	Neg: "neg",
	Eq:  "eq",
	Gt:  "gt",
	Lt:  "lt",
	And: "and",
	Or:  "or",
	Not: "not",
}

var opsByName = map[string]Op{
	"add": Add,
	"sub": Sub,
	"neg": Neg,
	"eq":  Eq,
	"gt":  Gt,
	"lt":  Lt,
	"and": And,
	"or":  Or,
	"not": Not,
}

// ParseOp maps an operator name to its Op.
func ParseOp(name string) (Op, bool) {
	op, ok := opsByName[name]
	return op, ok
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opNames[o]
}

// Unary reports whether o consumes a single operand.
func (o Op) Unary() bool { return o == Neg || o == Not }

// Comparison reports whether o is a relational operator producing a boolean.
func (o Op) Comparison() bool { return o == Eq || o == Gt || o == Lt }

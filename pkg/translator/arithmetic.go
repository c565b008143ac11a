package translator

import (
	"fmt"

	"hackvm/pkg/vm"
)

// binaryComp is the C-instruction computing "left op right" with the left
// operand in M and the right operand in D.
var binaryComp = map[vm.Op]string{
	vm.Add: "M=D+M",
	vm.Sub: "M=M-D",
	vm.And: "M=D&M",
	vm.Or:  "M=D|M",
}

var unaryComp = map[vm.Op]string{
	vm.Neg: "M=-M",
	vm.Not: "M=!M",
}

var comparisonJump = map[vm.Op]string{
	vm.Eq: "JEQ",
	vm.Gt: "JGT",
	vm.Lt: "JLT",
}

func (e *Emitter) translateArithmetic(name string) ([]string, error) {
	op, ok := vm.ParseOp(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownOperator, name)
	}

	switch {
	case op.Unary():
		return []string{"@SP", "A=M-1", unaryComp[op]}, nil
	case op.Comparison():
		return e.translateComparison(op), nil
	default:
		return []string{
			"@SP",
			"AM=M-1",
			"D=M",
			"A=A-1",
			binaryComp[op],
		}, nil
	}
}

// translateComparison leaves -1 (true) or 0 (false) in the slot that held
// the left operand, branching on left-right. For gt and lt, operands of
// opposite sign are decided by sign alone since their difference can
// overflow 16 bits.
func (e *Emitter) translateComparison(op vm.Op) []string {
	n := e.cmpCount
	e.cmpCount++
	isTrue := fmt.Sprintf("$CMP_TRUE.%d", n)
	isFalse := fmt.Sprintf("$CMP_FALSE.%d", n)
	end := fmt.Sprintf("$CMP_END.%d", n)

	code := []string{
		"@SP",
		"AM=M-1",
		"D=M",
		"A=A-1",
	}
	if op != vm.Eq {
		code = append(code, signSplit(op, n, isTrue, isFalse)...)
	}
	code = append(code,
		"D=M-D",
		"@"+isTrue,
		"D;"+comparisonJump[op],
	)
	if op != vm.Eq {
		code = append(code, "("+isFalse+")")
	}
	return append(code,
		"@SP",
		"A=M-1",
		"M=0",
		"@"+end,
		"0;JMP",
		"("+isTrue+")",
		"@SP",
		"A=M-1",
		"M=-1",
		"("+end+")",
	)
}

// signSplit expects the right operand in D and A on the left operand. It
// jumps straight to the result when the signs differ, otherwise it restores
// D and A for the subtraction.
func signSplit(op vm.Op, n int, isTrue, isFalse string) []string {
	leftNeg := fmt.Sprintf("$CMP_LNEG.%d", n)
	same := fmt.Sprintf("$CMP_SAME.%d", n)

	// Result when left >= 0 > right, and when left < 0 <= right.
	leftWins, rightWins := isTrue, isFalse
	if op == vm.Lt {
		leftWins, rightWins = isFalse, isTrue
	}

	return []string{
		"@R13",
		"M=D",
		"@SP",
		"A=M-1",
		"D=M",
		"@" + leftNeg,
		"D;JLT",
		"@R13",
		"D=M",
		"@" + leftWins,
		"D;JLT",
		"@" + same,
		"0;JMP",
		"(" + leftNeg + ")",
		"@R13",
		"D=M",
		"@" + rightWins,
		"D;JGE",
		"(" + same + ")",
		"@R13",
		"D=M",
		"@SP",
		"A=M-1",
	}
}

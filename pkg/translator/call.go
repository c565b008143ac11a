package translator

import (
	"fmt"

	"hackvm/pkg/vm"
)

// frameSize is the number of words a call saves below the callee's locals:
// the return address plus LCL, ARG, THIS and THAT.
const frameSize = 5

// savedPointers lists the caller's segment bases in the order call pushes them.
var savedPointers = []string{"LCL", "ARG", "THIS", "THAT"}

// checkFunctionName rejects names that are not identifiers or that would
// shadow a static variable symbol.
func checkFunctionName(name string) error {
	if !vm.IsIdentifier(name) {
		return ErrInvalidName
	}
	if isStaticSymbol(name) {
		return fmt.Errorf("%w: %s collides with a static variable", ErrInvalidName, name)
	}
	return nil
}

func (e *Emitter) translateFunction(name string, nLocals int) ([]string, error) {
	if err := checkFunctionName(name); err != nil {
		return nil, err
	}
	if nLocals < 0 {
		return nil, fmt.Errorf("%w: %d locals", ErrIndexOutOfRange, nLocals)
	}
	e.function = name
	e.defined[name] = true

	code := []string{
		"(" + name + ")",
		"@SP",
		"D=M",
		"@LCL",
		"M=D",
	}
	for i := 0; i < nLocals; i++ {
		code = append(code, "@SP", "A=M", "M=0", "@SP", "M=M+1")
	}
	return code, nil
}

func (e *Emitter) translateCall(name string, nArgs int) ([]string, error) {
	if err := checkFunctionName(name); err != nil {
		return nil, err
	}
	if nArgs < 0 {
		return nil, fmt.Errorf("%w: %d arguments", ErrIndexOutOfRange, nArgs)
	}
	return e.callSequence(name, nArgs), nil
}

// callSequence saves the caller's frame, repositions ARG and jumps to name.
// Control resumes at a fresh return label declared right after the jump.
func (e *Emitter) callSequence(name string, nArgs int) []string {
	ret := fmt.Sprintf("$RET.%d", e.callCount)
	e.callCount++
	e.called[name] = true

	code := []string{"@" + ret, "D=A"}
	code = append(code, pushD...)
	for _, p := range savedPointers {
		code = append(code, "@"+p, "D=M")
		code = append(code, pushD...)
	}
	code = append(code,
		"@SP",
		"D=M",
		fmt.Sprintf("@%d", nArgs+frameSize),
		"D=D-A",
		"@ARG",
		"M=D",
		"@"+name,
		"0;JMP",
		"("+ret+")",
	)
	return code
}

// translateReturn moves the return value to ARG[0], collapses the stack to
// just above it and restores the caller's frame. R13 holds the frame base
// and R14 the return address, which is read first because ARG[0] and the
// return address share a slot when the callee took no arguments.
func (e *Emitter) translateReturn() []string {
	code := []string{
		"@LCL",
		"D=M",
		"@R13",
		"M=D",
		fmt.Sprintf("@%d", frameSize),
		"A=D-A",
		"D=M",
		"@R14",
		"M=D",
	}
	code = append(code, popD...)
	code = append(code,
		"@ARG",
		"A=M",
		"M=D",
		"@ARG",
		"D=M+1",
		"@SP",
		"M=D",
	)
	for i := len(savedPointers) - 1; i >= 0; i-- {
		code = append(code,
			"@R13",
			"AM=M-1",
			"D=M",
			"@"+savedPointers[i],
			"M=D",
		)
	}
	return append(code, "@R14", "A=M", "0;JMP")
}

// bootstrapCode initializes SP and calls the entry function. An entry
// function that returns lands on the halt loop.
func (e *Emitter) bootstrapCode() []string {
	code := []string{
		fmt.Sprintf("@%d", e.opts.StackBase),
		"D=A",
		"@SP",
		"M=D",
	}
	code = append(code, e.callSequence(e.opts.Entry, 0)...)
	return append(code, "@"+haltLabel, "0;JMP")
}

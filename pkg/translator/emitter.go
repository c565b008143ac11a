// Package translator generates Hack assembly from VM commands.
//
// An Emitter consumes commands one at a time, in program order, and appends
// the equivalent Hack instructions to a Sink. It owns the two label counters
// of a run (comparison branches and call return addresses) so one Emitter
// must be used per program.
package translator

import (
	"fmt"
	"sort"
	"strings"

	"hackvm/pkg/vm"
)

const (
	DefaultEntry     = "Sys.init"
	DefaultStackBase = 256
	DefaultUnit      = "Main"

	// haltLabel marks the terminating self-loop appended by Finish.
	haltLabel = "$END"
)

// Options controls program-level code generation.
type Options struct {
	// Bootstrap emits SP initialization and a call to Entry before the
	// first command.
	Bootstrap bool
	// Entry is the function called by the bootstrap code.
	Entry string
	// StackBase is the initial stack pointer set by the bootstrap code.
	StackBase int
	// Comments echoes each VM command as a "//" comment before its code.
	Comments bool
}

// DefaultOptions returns the options used for whole-program builds.
func DefaultOptions() Options {
	return Options{
		Bootstrap: true,
		Entry:     DefaultEntry,
		StackBase: DefaultStackBase,
	}
}

// Emitter translates a stream of VM commands into Hack assembly.
type Emitter struct {
	sink Sink
	opts Options

	unit     string
	function string

	cmpCount  int
	callCount int

	// Functions declared so far and call targets, including the entry.
	defined map[string]bool
	called  map[string]bool

	started  bool
	finished bool
}

func NewEmitter(sink Sink, opts Options) *Emitter {
	if opts.Entry == "" {
		opts.Entry = DefaultEntry
	}
	if opts.StackBase == 0 {
		opts.StackBase = DefaultStackBase
	}
	return &Emitter{
		sink:    sink,
		opts:    opts,
		unit:    DefaultUnit,
		defined: make(map[string]bool),
		called:  make(map[string]bool),
	}
}

// SetUnit starts a new source unit. Static variables and labels outside a
// function are named after the unit.
func (e *Emitter) SetUnit(name string) error {
	if !vm.IsIdentifier(name) {
		return fmt.Errorf("%w: unit %q", ErrInvalidName, name)
	}
	e.unit = name
	e.function = ""
	return nil
}

// Unit returns the current unit name.
func (e *Emitter) Unit() string { return e.unit }

// Translate appends the code for one command.
func (e *Emitter) Translate(cmd vm.Command) error {
	if e.finished {
		return e.fail(cmd, ErrFinished)
	}
	if err := e.begin(); err != nil {
		return err
	}

	code, err := e.translate(cmd)
	if err != nil {
		return e.fail(cmd, err)
	}
	if e.opts.Comments {
		if err := e.sink.WriteLine("// " + cmd.String()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return e.write(code)
}

// Finish appends the terminating halt loop. It fails with
// ErrUndefinedFunction when a call target, or the bootstrap entry, was never
// declared. The Emitter accepts no further commands afterwards.
func (e *Emitter) Finish() error {
	if e.finished {
		return ErrFinished
	}
	if err := e.begin(); err != nil {
		return err
	}
	if missing := e.undefined(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUndefinedFunction, strings.Join(missing, ", "))
	}
	e.finished = true
	return e.write([]string{"(" + haltLabel + ")", "@" + haltLabel, "0;JMP"})
}

// undefined lists the called functions that no "function" command declared.
func (e *Emitter) undefined() []string {
	var missing []string
	for name := range e.called {
		if !e.defined[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// translate dispatches on the command kind.
func (e *Emitter) translate(cmd vm.Command) ([]string, error) {
	switch cmd.Kind {
	case vm.Arithmetic:
		return e.translateArithmetic(cmd.Arg1)
	case vm.Push:
		return e.translatePush(cmd.Arg1, cmd.Arg2)
	case vm.Pop:
		return e.translatePop(cmd.Arg1, cmd.Arg2)
	case vm.Label:
		return e.translateLabel(cmd.Arg1)
	case vm.Goto:
		return e.translateGoto(cmd.Arg1)
	case vm.IfGoto:
		return e.translateIfGoto(cmd.Arg1)
	case vm.Function:
		return e.translateFunction(cmd.Arg1, cmd.Arg2)
	case vm.Call:
		return e.translateCall(cmd.Arg1, cmd.Arg2)
	case vm.Return:
		return e.translateReturn(), nil
	}
	return nil, fmt.Errorf("%w %v", ErrUnknownCommand, cmd.Kind)
}

// begin emits the bootstrap code ahead of the first output, if enabled.
func (e *Emitter) begin() error {
	if e.started {
		return nil
	}
	e.started = true
	if !e.opts.Bootstrap {
		return nil
	}
	if checkFunctionName(e.opts.Entry) != nil {
		return fmt.Errorf("%w %q", ErrBootstrap, e.opts.Entry)
	}
	if e.opts.StackBase < 0 || e.opts.StackBase > maxConstant {
		return fmt.Errorf("%w: stack base %d", ErrBootstrap, e.opts.StackBase)
	}
	return e.write(e.bootstrapCode())
}

func (e *Emitter) write(code []string) error {
	for _, line := range code {
		if err := e.sink.WriteLine(line); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}

func (e *Emitter) fail(cmd vm.Command, err error) error {
	return &Error{Unit: e.unit, Line: cmd.Line, Command: cmd, Err: err}
}

// TranslateAll runs cmds through a fresh Emitter and returns the program text.
func TranslateAll(cmds []vm.Command, opts Options) (string, error) {
	var buf Buffer
	e := NewEmitter(&buf, opts)
	for _, cmd := range cmds {
		if err := e.Translate(cmd); err != nil {
			return "", err
		}
	}
	if err := e.Finish(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

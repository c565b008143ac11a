// Package parser turns VM source text into a stream of vm.Command values.
//
// Comments start with "//" and run to end of line. Each remaining non-blank
// line holds exactly one command.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hackvm/pkg/vm"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrArity          = errors.New("wrong number of operands")
	ErrBadIndex       = errors.New("operand must be a non-negative integer")
	ErrBadSegment     = errors.New("unknown segment")
	ErrBadSymbol      = errors.New("invalid symbol")
)

// keywords maps the leading word of a line to its command kind.
var keywords = map[string]vm.Kind{
	"push":     vm.Push,
	"pop":      vm.Pop,
	"label":    vm.Label,
	"goto":     vm.Goto,
	"if-goto":  vm.IfGoto,
	"function": vm.Function,
	"call":     vm.Call,
	"return":   vm.Return,
}

// Error reports a malformed source line.
type Error struct {
	Line int
	Text string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Parser reads commands one line at a time.
type Parser struct {
	sc   *bufio.Scanner
	line int
	cmd  vm.Command
	err  error
}

func New(r io.Reader) *Parser {
	return &Parser{sc: bufio.NewScanner(r)}
}

// Next advances to the next command. It returns false at end of input or on
// the first error; Err distinguishes the two.
func (p *Parser) Next() bool {
	if p.err != nil {
		return false
	}
	for p.sc.Scan() {
		p.line++
		text := StripComment(p.sc.Text())
		if text == "" {
			continue
		}
		cmd, err := ParseLine(text)
		if err != nil {
			p.err = &Error{Line: p.line, Text: text, Err: err}
			return false
		}
		cmd.Line = p.line
		p.cmd = cmd
		return true
	}
	if err := p.sc.Err(); err != nil {
		p.err = err
	}
	return false
}

// Command returns the command produced by the last successful Next.
func (p *Parser) Command() vm.Command { return p.cmd }

// Err returns the first error encountered, if any.
func (p *Parser) Err() error { return p.err }

// Parse parses a whole source text.
func Parse(src string) ([]vm.Command, error) {
	p := New(strings.NewReader(src))
	var cmds []vm.Command
	for p.Next() {
		cmds = append(cmds, p.Command())
	}
	return cmds, p.Err()
}

// StripComment removes a trailing "//" comment and surrounding whitespace.
func StripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// ParseLine classifies a single comment-free, non-empty line.
func ParseLine(text string) (vm.Command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return vm.Command{}, ErrUnknownCommand
	}

	word := fields[0]
	args := fields[1:]

	if _, ok := vm.ParseOp(word); ok {
		if len(args) != 0 {
			return vm.Command{}, fmt.Errorf("%s: %w", word, ErrArity)
		}
		return vm.Command{Kind: vm.Arithmetic, Arg1: word}, nil
	}

	kind, ok := keywords[word]
	if !ok {
		return vm.Command{}, fmt.Errorf("%w %q", ErrUnknownCommand, word)
	}

	arity := 1
	switch {
	case kind == vm.Return:
		arity = 0
	case kind.HasIndex():
		arity = 2
	}
	if len(args) != arity {
		return vm.Command{}, fmt.Errorf("%s: %w", word, ErrArity)
	}
	if arity == 0 {
		return vm.Command{Kind: kind}, nil
	}

	cmd := vm.Command{Kind: kind, Arg1: args[0]}
	switch kind {
	case vm.Push, vm.Pop:
		if _, ok := vm.ParseSegment(args[0]); !ok {
			return vm.Command{}, fmt.Errorf("%w %q", ErrBadSegment, args[0])
		}
	default:
		if !vm.IsIdentifier(args[0]) {
			return vm.Command{}, fmt.Errorf("%w %q", ErrBadSymbol, args[0])
		}
	}
	if kind.HasIndex() {
		n, err := parseIndex(args[1])
		if err != nil {
			return vm.Command{}, err
		}
		cmd.Arg2 = n
	}
	return cmd, nil
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadIndex, s)
	}
	return n, nil
}

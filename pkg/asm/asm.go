// Package asm assembles Hack assembly text into 16-bit machine words.
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// First RAM address handed out to assembler variables.
const VariableBase = 16

// MaxAddress is the largest literal an A-instruction can load.
const MaxAddress = 0x7FFF

var predefined = map[string]uint16{
	"SP":     0,
	"LCL":    1,
	"ARG":    2,
	"THIS":   3,
	"THAT":   4,
	"SCREEN": 0x4000,
	"KBD":    0x6000,
}

func init() {
	for i := 0; i < 16; i++ {
		predefined[fmt.Sprintf("R%d", i)] = uint16(i)
	}
}

// compBits maps a computation mnemonic to its a-bit and six ALU control bits.
var compBits = map[string]uint16{
	"0":   0b0101010,
	"1":   0b0111111,
	"-1":  0b0111010,
	"D":   0b0001100,
	"A":   0b0110000,
	"!D":  0b0001101,
	"!A":  0b0110001,
	"-D":  0b0001111,
	"-A":  0b0110011,
	"D+1": 0b0011111,
	"A+1": 0b0110111,
	"D-1": 0b0001110,
	"A-1": 0b0110010,
	"D+A": 0b0000010,
	"D-A": 0b0010011,
	"A-D": 0b0000111,
	"D&A": 0b0000000,
	"D|A": 0b0010101,
	"M":   0b1110000,
	"!M":  0b1110001,
	"-M":  0b1110011,
	"M+1": 0b1110111,
	"M-1": 0b1110010,
	"D+M": 0b1000010,
	"D-M": 0b1010011,
	"M-D": 0b1000111,
	"D&M": 0b1000000,
	"D|M": 0b1010101,

	// commuted forms
	"A+D": 0b0000010,
	"A&D": 0b0000000,
	"A|D": 0b0010101,
	"M+D": 0b1000010,
	"M&D": 0b1000000,
	"M|D": 0b1010101,
	"1+D": 0b0011111,
	"1+A": 0b0110111,
	"1+M": 0b1110111,
}

var jumpBits = map[string]uint16{
	"":    0b000,
	"JGT": 0b001,
	"JEQ": 0b010,
	"JGE": 0b011,
	"JLT": 0b100,
	"JNE": 0b101,
	"JLE": 0b110,
	"JMP": 0b111,
}

const (
	destA = 0b100
	destD = 0b010
	destM = 0b001
)

type lineKind int

const (
	lineEmpty lineKind = iota
	lineLabel
	lineAddress
	lineCompute
)

type parsedLine struct {
	lineNo int
	kind   lineKind
	symbol string // label name or A-instruction operand
	dest   string
	comp   string
	jump   string
}

// Assembler holds the symbol table of one assembly run.
type Assembler struct {
	symbols map[string]uint16
	nextVar uint16
}

func NewAssembler() *Assembler {
	symbols := make(map[string]uint16, len(predefined))
	for k, v := range predefined {
		symbols[k] = v
	}
	return &Assembler{symbols: symbols, nextVar: VariableBase}
}

// Assemble translates code into machine words and a source map from ROM
// address to 1-based source line.
func Assemble(code string) ([]uint16, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]uint16, map[uint16]int, error) {
	raw := strings.Split(code, "\n")
	lines := make([]parsedLine, 0, len(raw))
	for i, text := range raw {
		p, err := parseLine(text, i+1)
		if err != nil {
			return nil, nil, err
		}
		lines = append(lines, p)
	}

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}
	return a.pass2(lines)
}

// Symbol looks up a resolved label, variable or predefined symbol.
func (a *Assembler) Symbol(name string) (uint16, bool) {
	v, ok := a.symbols[name]
	return v, ok
}

// pass1 binds every label to the ROM address of the next instruction.
func (a *Assembler) pass1(lines []parsedLine) error {
	var address uint32
	labels := make(map[string]bool)

	for _, p := range lines {
		switch p.kind {
		case lineLabel:
			if labels[p.symbol] {
				return fmt.Errorf("duplicate label '%s' on line %d", p.symbol, p.lineNo)
			}
			if _, ok := predefined[p.symbol]; ok {
				return fmt.Errorf("label '%s' on line %d redefines a predefined symbol", p.symbol, p.lineNo)
			}
			if address > MaxAddress {
				return fmt.Errorf("label '%s' on line %d points past instruction memory", p.symbol, p.lineNo)
			}
			labels[p.symbol] = true
			a.symbols[p.symbol] = uint16(address)
		case lineAddress, lineCompute:
			address++
			if address > MaxAddress+1 {
				return fmt.Errorf("program too large near line %d", p.lineNo)
			}
		}
	}
	return nil
}

func (a *Assembler) pass2(lines []parsedLine) ([]uint16, map[uint16]int, error) {
	program := make([]uint16, 0, len(lines))
	sourceMap := make(map[uint16]int)

	for _, p := range lines {
		switch p.kind {
		case lineAddress:
			val, err := a.resolve(p.symbol, p.lineNo)
			if err != nil {
				return nil, nil, err
			}
			sourceMap[uint16(len(program))] = p.lineNo
			program = append(program, val)

		case lineCompute:
			word, err := encodeCompute(p)
			if err != nil {
				return nil, nil, err
			}
			sourceMap[uint16(len(program))] = p.lineNo
			program = append(program, word)
		}
	}
	return program, sourceMap, nil
}

// resolve returns the value of an A-instruction operand, allocating a new
// variable for unknown symbols.
func (a *Assembler) resolve(operand string, lineNo int) (uint16, error) {
	if operand[0] >= '0' && operand[0] <= '9' {
		v, err := strconv.ParseUint(operand, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid constant '%s' on line %d", operand, lineNo)
		}
		if v > MaxAddress {
			return 0, fmt.Errorf("constant out of range on line %d: %s", lineNo, operand)
		}
		return uint16(v), nil
	}

	if v, ok := a.symbols[operand]; ok {
		return v, nil
	}
	if a.nextVar > MaxAddress {
		return 0, fmt.Errorf("out of variable space at '%s' on line %d", operand, lineNo)
	}
	v := a.nextVar
	a.symbols[operand] = v
	a.nextVar++
	return v, nil
}

func encodeCompute(p parsedLine) (uint16, error) {
	comp, ok := compBits[p.comp]
	if !ok {
		return 0, fmt.Errorf("invalid computation '%s' on line %d", p.comp, p.lineNo)
	}
	jump, ok := jumpBits[p.jump]
	if !ok {
		return 0, fmt.Errorf("invalid jump '%s' on line %d", p.jump, p.lineNo)
	}
	dest, err := parseDest(p.dest, p.lineNo)
	if err != nil {
		return 0, err
	}
	return 0b111<<13 | comp<<6 | dest<<3 | jump, nil
}

func parseDest(s string, lineNo int) (uint16, error) {
	var bits uint16
	for _, r := range s {
		var b uint16
		switch r {
		case 'A':
			b = destA
		case 'D':
			b = destD
		case 'M':
			b = destM
		default:
			return 0, fmt.Errorf("invalid destination '%s' on line %d", s, lineNo)
		}
		if bits&b != 0 {
			return 0, fmt.Errorf("repeated destination '%c' on line %d", r, lineNo)
		}
		bits |= b
	}
	return bits, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := stripComments(raw)
	line = strings.Join(strings.Fields(line), "")
	if line == "" {
		return p, nil
	}

	switch line[0] {
	case '(':
		if !strings.HasSuffix(line, ")") {
			return p, fmt.Errorf("unterminated label on line %d", lineNo)
		}
		name := line[1 : len(line)-1]
		if !isSymbol(name) {
			return p, fmt.Errorf("invalid label '%s' on line %d", name, lineNo)
		}
		p.kind = lineLabel
		p.symbol = name
		return p, nil

	case '@':
		operand := line[1:]
		if operand == "" {
			return p, fmt.Errorf("missing operand on line %d", lineNo)
		}
		if !isNumber(operand) && !isSymbol(operand) {
			return p, fmt.Errorf("invalid operand '%s' on line %d", operand, lineNo)
		}
		p.kind = lineAddress
		p.symbol = operand
		return p, nil
	}

	p.kind = lineCompute
	if eq := strings.IndexByte(line, '='); eq >= 0 {
		p.dest = line[:eq]
		line = line[eq+1:]
		if p.dest == "" {
			return p, fmt.Errorf("empty destination on line %d", lineNo)
		}
	}
	if semi := strings.IndexByte(line, ';'); semi >= 0 {
		p.jump = line[semi+1:]
		line = line[:semi]
		if p.jump == "" {
			return p, fmt.Errorf("empty jump on line %d", lineNo)
		}
	}
	p.comp = line
	return p, nil
}

func stripComments(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		return line[:i]
	}
	return line
}

func isNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// isSymbol reports whether s is a legal Hack symbol: letters, digits, '_',
// '.', '$' and ':' not starting with a digit.
func isSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && unicode.IsDigit(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("_.$:", r) {
			return false
		}
	}
	return true
}

// Format renders machine words as .hack text, one 16-digit binary word per line.
func Format(words []uint16) string {
	var b strings.Builder
	for _, w := range words {
		fmt.Fprintf(&b, "%016b\n", w)
	}
	return b.String()
}

// Package cpu emulates the Hack computer: a 16-bit machine with an A
// register, a D register, separate instruction (ROM) and data (RAM) memories,
// a memory-mapped screen and a memory-mapped keyboard.
package cpu

import (
	"errors"
	"fmt"
)

const (
	ROMSize = 32768
	RAMSize = 32768

	AddrSP   uint16 = 0
	AddrLCL  uint16 = 1
	AddrARG  uint16 = 2
	AddrTHIS uint16 = 3
	AddrTHAT uint16 = 4

	ScreenBase  uint16 = 0x4000
	ScreenWords        = 8192
	KBD         uint16 = 0x6000

	StackBase uint16 = 256

	addrMask = 0x7FFF
)

var (
	ErrCycleLimit      = errors.New("cycle limit reached before halt")
	ErrProgramTooLarge = errors.New("program too large for instruction memory")
)

type CPU struct {
	A  uint16
	D  uint16
	PC uint16

	RAM [RAMSize]uint16
	ROM [ROMSize]uint16

	Cycles uint64

	// Halted is set when the CPU enters the "@X / (X) 0;JMP" self-loop that
	// terminates Hack programs.
	Halted bool

	programSize int
}

func NewCPU() *CPU {
	return &CPU{}
}

// Load copies program into ROM and resets the registers. RAM is preserved so
// callers may seed it before running.
func (c *CPU) Load(program []uint16) error {
	if len(program) > ROMSize {
		return fmt.Errorf("%w: %d words > %d", ErrProgramTooLarge, len(program), ROMSize)
	}
	c.ROM = [ROMSize]uint16{}
	copy(c.ROM[:], program)
	c.programSize = len(program)
	c.Reset()
	return nil
}

// Reset clears the registers, the cycle count and the halt flag.
func (c *CPU) Reset() {
	c.A, c.D, c.PC = 0, 0, 0
	c.Cycles = 0
	c.Halted = false
}

// ProgramSize returns the number of words loaded by Load.
func (c *CPU) ProgramSize() int { return c.programSize }

// ALU computes the Hack ALU function selected by the six control bits
// zx nx zy ny f no (most significant first).
func ALU(x, y, ctrl uint16) uint16 {
	if ctrl&0b100000 != 0 {
		x = 0
	}
	if ctrl&0b010000 != 0 {
		x = ^x
	}
	if ctrl&0b001000 != 0 {
		y = 0
	}
	if ctrl&0b000100 != 0 {
		y = ^y
	}
	var out uint16
	if ctrl&0b000010 != 0 {
		out = x + y
	} else {
		out = x & y
	}
	if ctrl&0b000001 != 0 {
		out = ^out
	}
	return out
}

func jumps(out uint16, cond uint16) bool {
	v := int16(out)
	switch cond {
	case 0b001:
		return v > 0
	case 0b010:
		return v == 0
	case 0b011:
		return v >= 0
	case 0b100:
		return v < 0
	case 0b101:
		return v != 0
	case 0b110:
		return v <= 0
	case 0b111:
		return true
	}
	return false
}

// Step executes one instruction.
func (c *CPU) Step() {
	if c.Halted {
		return
	}

	pc := c.PC & addrMask
	instr := c.ROM[pc]
	c.Cycles++

	if instr&0x8000 == 0 {
		c.A = instr
		c.PC = pc + 1
		return
	}

	ctrl := (instr >> 6) & 0x3F
	dest := (instr >> 3) & 0x07
	cond := instr & 0x07

	addr := c.A & addrMask
	y := c.A
	if instr&0x1000 != 0 {
		y = c.RAM[addr]
	}
	out := ALU(c.D, y, ctrl)

	if dest&0b001 != 0 {
		c.RAM[addr] = out
	}
	if dest&0b010 != 0 {
		c.D = out
	}
	if dest&0b100 != 0 {
		c.A = out
	}

	if !jumps(out, cond) {
		c.PC = pc + 1
		return
	}
	// A jump with no side effects back onto "@addr" loops forever.
	if dest == 0 && addr+1 == pc && c.ROM[addr] == addr {
		c.Halted = true
	}
	c.PC = addr
}

// Run steps until the CPU halts or maxCycles instructions have executed.
// A zero maxCycles means no limit.
func (c *CPU) Run(maxCycles uint64) error {
	start := c.Cycles
	for !c.Halted {
		if maxCycles > 0 && c.Cycles-start >= maxCycles {
			return fmt.Errorf("%w (%d cycles, PC=%d)", ErrCycleLimit, maxCycles, c.PC)
		}
		c.Step()
	}
	return nil
}

// Word reads RAM[addr] as a signed value.
func (c *CPU) Word(addr uint16) int16 {
	return int16(c.RAM[addr&addrMask])
}

// SetWord writes a signed value to RAM[addr].
func (c *CPU) SetWord(addr uint16, v int16) {
	c.RAM[addr&addrMask] = uint16(v)
}

// SP returns the VM stack pointer held in RAM[0].
func (c *CPU) SP() uint16 { return c.RAM[AddrSP] }

// Stack returns the VM stack contents from StackBase up to SP.
func (c *CPU) Stack() []int16 {
	sp := c.SP()
	if sp <= StackBase || sp > ScreenBase {
		return nil
	}
	out := make([]int16, 0, sp-StackBase)
	for a := StackBase; a < sp; a++ {
		out = append(out, int16(c.RAM[a]))
	}
	return out
}

// Top returns the value just below SP.
func (c *CPU) Top() int16 {
	return c.Word(c.SP() - 1)
}

// PushKey sets the keyboard register to a Hack key code.
func (c *CPU) PushKey(code uint16) {
	c.RAM[KBD] = code
}

// ReleaseKey clears the keyboard register.
func (c *CPU) ReleaseKey() {
	c.RAM[KBD] = 0
}

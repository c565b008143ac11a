package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"

	"hackvm/pkg/build"
	"hackvm/pkg/config"
	"hackvm/pkg/cpu"
	"hackvm/pkg/utils"
)

// maxStackDump limits how many stack entries printState shows.
const maxStackDump = 16

func main() {
	showAsm := flag.Bool("show-asm", false, "print the generated assembly")
	cycles := flag.Uint64("cycles", config.DefaultMaxCycles, "cycle limit")
	snapshot := flag.String("snapshot", "", "write a machine snapshot here after the run")
	resume := flag.String("resume", "", "resume from a machine snapshot instead of building")
	screenshot := flag.String("screenshot", "", "save the screen as PNG after the run")
	scale := flag.Int("scale", 1, "screenshot scale")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	utils.SetupLogging(os.Stderr, level, false)

	vm := cpu.NewCPU()
	switch {
	case *resume != "":
		if err := vm.RestoreFromFile(*resume); err != nil {
			fatal("resume failed", err)
		}
		slog.Info("resumed", "snapshot", *resume, "pc", vm.PC, "cycles", vm.Cycles)

	case flag.NArg() == 1:
		res, err := build.Build(flag.Arg(0), config.Default())
		if err != nil {
			fatal("build failed", err)
		}
		if *showAsm {
			fmt.Print("Generated Assembly:\n", res.Asm, "\n")
		}
		if err := vm.Load(res.Words); err != nil {
			fatal("load failed", err)
		}
		slog.Info("loaded", "input", res.Program.Input, "words", len(res.Words))

	default:
		fmt.Fprintln(os.Stderr, "usage: console [flags] <file.vm|dir>  |  console -resume <snapshot>")
		flag.PrintDefaults()
		atexit.Exit(2)
	}

	err := vm.Run(*cycles)
	printState(os.Stdout, vm)
	if err != nil && !errors.Is(err, cpu.ErrCycleLimit) {
		fatal("run failed", err)
	}
	if err != nil {
		slog.Warn("cycle limit reached", "cycles", *cycles)
	}

	if *snapshot != "" {
		if err := vm.HibernateToFile(*snapshot); err != nil {
			fatal("snapshot failed", err)
		}
		slog.Info("snapshot written", "path", *snapshot)
	}
	if *screenshot != "" {
		if err := vm.SaveScreenshot(*screenshot, *scale); err != nil {
			fatal("screenshot failed", err)
		}
		slog.Info("screenshot written", "path", *screenshot)
	}
	atexit.Exit(0)
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	atexit.Exit(1)
}

// printState dumps registers, segment pointers and the top of the VM stack.
func printState(w io.Writer, vm *cpu.CPU) {
	fmt.Fprintf(w, "halted=%t cycles=%d\n", vm.Halted, vm.Cycles)
	fmt.Fprintf(w, "PC=%d A=%d D=%d\n", vm.PC, int16(vm.A), int16(vm.D))
	fmt.Fprintf(w, "SP=%d LCL=%d ARG=%d THIS=%d THAT=%d\n",
		vm.RAM[cpu.AddrSP], vm.RAM[cpu.AddrLCL], vm.RAM[cpu.AddrARG],
		vm.RAM[cpu.AddrTHIS], vm.RAM[cpu.AddrTHAT])

	stack := vm.Stack()
	fmt.Fprintf(w, "stack (%d):", len(stack))
	start := 0
	if len(stack) > maxStackDump {
		start = len(stack) - maxStackDump
		fmt.Fprint(w, " ...")
	}
	for _, v := range stack[start:] {
		fmt.Fprintf(w, " %d", v)
	}
	fmt.Fprintln(w)
}

//go:build !js

package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tebeka/atexit"

	"hackvm/pkg/asm"
	"hackvm/pkg/build"
	"hackvm/pkg/config"
	"hackvm/pkg/cpu"
	"hackvm/pkg/utils"
)

func main() {
	inPath := flag.String("in", "", "input .vm file or directory of .vm files")
	outPath := flag.String("out", "", "output .asm path (default: <file>.asm or <dir>/<dir>.asm)")
	configPath := flag.String("config", "", "YAML config file")
	bootstrap := flag.Bool("bootstrap", true, "emit bootstrap code calling the entry function")
	entry := flag.String("entry", config.Default().Entry, "entry function called by the bootstrap code")
	comments := flag.Bool("comments", false, "echo each VM command as a comment in the output")
	hack := flag.Bool("hack", false, "also write assembled machine code as .hack")
	runProgram := flag.Bool("run", false, "run the translated program on the Hack emulator")
	cycles := flag.Uint64("cycles", 0, "cycle limit for -run (default from config)")
	verbose := flag.Bool("v", false, "debug logging")
	logJSON := flag.Bool("log-json", false, "log as JSON")
	flag.Parse()

	if *inPath == "" && flag.NArg() > 0 {
		*inPath = flag.Arg(0)
	}
	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in <file.vm|dir>")
		flag.Usage()
		atexit.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			atexit.Exit(2)
		}
	}

	// Flags given on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bootstrap":
			cfg.Bootstrap = *bootstrap
		case "entry":
			cfg.Entry = *entry
		case "comments":
			cfg.Comments = *comments
		case "hack":
			cfg.Hack = *hack
		case "cycles":
			cfg.MaxCycles = *cycles
		case "v":
			if *verbose {
				cfg.LogLevel = "debug"
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(2)
	}
	level, _ := cfg.Level()
	utils.SetupLogging(os.Stderr, level, *logJSON)

	res, err := build.Build(*inPath, cfg)
	if err != nil {
		fail("build failed", err)
	}

	output := *outPath
	if output == "" {
		output = res.Program.Output
	}
	if err := writeOutput(output, []byte(res.Asm)); err != nil {
		fail("write failed", err)
	}
	slog.Info("translated", "units", len(res.Program.Units), "words", len(res.Words), "out", output)

	if cfg.Hack {
		hackPath := hackOutputPath(output)
		if err := writeOutput(hackPath, []byte(asm.Format(res.Words))); err != nil {
			fail("write failed", err)
		}
		slog.Info("assembled", "out", hackPath)
	}

	if *runProgram {
		if err := run(res.Words, cfg.MaxCycles); err != nil {
			fail("run failed", err)
		}
	}
	atexit.Exit(0)
}

func fail(msg string, err error) {
	slog.Error(msg, "err", err)
	atexit.Exit(1)
}

func hackOutputPath(asmPath string) string {
	ext := filepath.Ext(asmPath)
	return asmPath[:len(asmPath)-len(ext)] + build.HackExt
}

// writeOutput writes data to a temporary file beside path and renames it
// into place, so a failed run never leaves a truncated output behind.
func writeOutput(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	committed := false
	atexit.Register(func() {
		if !committed {
			os.Remove(name)
		}
	})

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(name, path); err != nil {
		return err
	}
	committed = true
	return nil
}

func run(words []uint16, maxCycles uint64) error {
	vm := cpu.NewCPU()
	if err := vm.Load(words); err != nil {
		return err
	}

	err := vm.Run(maxCycles)
	fmt.Printf(
		"run complete: halted=%t cycles=%d PC=%d A=%d D=%d SP=%d LCL=%d ARG=%d THIS=%d THAT=%d\n",
		vm.Halted,
		vm.Cycles,
		vm.PC,
		int16(vm.A),
		int16(vm.D),
		vm.RAM[cpu.AddrSP],
		vm.RAM[cpu.AddrLCL],
		vm.RAM[cpu.AddrARG],
		vm.RAM[cpu.AddrTHIS],
		vm.RAM[cpu.AddrTHAT],
	)
	if errors.Is(err, cpu.ErrCycleLimit) {
		slog.Warn("program did not halt", "cycles", maxCycles)
	}
	return err
}

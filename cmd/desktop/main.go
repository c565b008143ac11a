package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tebeka/atexit"

	"hackvm/pkg/build"
	"hackvm/pkg/config"
	"hackvm/pkg/cpu"
	"hackvm/pkg/utils"
)

type Game struct {
	vm             *cpu.CPU
	screenImg      *ebiten.Image // reused 512×256 canvas
	kb             keyboard
	cyclesPerFrame int
	showRegs       bool
}

func (g *Game) Update() error {
	g.kb.pressed = inpututil.AppendPressedKeys(g.kb.pressed[:0])
	g.kb.chars = ebiten.AppendInputChars(g.kb.chars[:0])
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.showRegs = !g.showRegs
	}
	if code := g.kb.update(g.kb.pressed, g.kb.chars); code != 0 {
		g.vm.PushKey(code)
	} else {
		g.vm.ReleaseKey()
	}

	g.stepFrame()
	return nil
}

// stepFrame runs up to cyclesPerFrame instructions, stopping on halt.
func (g *Game) stepFrame() {
	for i := 0; i < g.cyclesPerFrame && !g.vm.Halted; i++ {
		g.vm.Step()
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screenImg == nil {
		g.screenImg = ebiten.NewImage(cpu.ScreenWidth, cpu.ScreenHeight)
	}
	g.screenImg.WritePixels(g.vm.ScreenRGBA())
	screen.DrawImage(g.screenImg, nil)

	if g.showRegs {
		msg := fmt.Sprintf("PC=%d SP=%d LCL=%d ARG=%d KBD=%d cycles=%d halted=%t",
			g.vm.PC, g.vm.RAM[cpu.AddrSP], g.vm.RAM[cpu.AddrLCL], g.vm.RAM[cpu.AddrARG],
			g.vm.RAM[cpu.KBD], g.vm.Cycles, g.vm.Halted)
		ebitenutil.DebugPrintAt(screen, msg, 4, cpu.ScreenHeight-16)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cpu.ScreenWidth, cpu.ScreenHeight
}

func main() {
	cyclesPerFrame := flag.Int("cycles-per-frame", 200000, "instructions executed per frame")
	scale := flag.Int("scale", 2, "window scale")
	resume := flag.String("resume", "", "resume from a machine snapshot")
	snapshot := flag.String("snapshot", "", "write a machine snapshot on exit")
	flag.Parse()

	utils.SetupLogging(os.Stderr, slog.LevelInfo, false)

	vm := cpu.NewCPU()
	switch {
	case *resume != "":
		if err := vm.RestoreFromFile(*resume); err != nil {
			fatal("resume failed", err)
		}
	case flag.NArg() == 1:
		res, err := build.Build(flag.Arg(0), config.Default())
		if err != nil {
			fatal("build failed", err)
		}
		if err := vm.Load(res.Words); err != nil {
			fatal("load failed", err)
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: desktop [flags] <file.vm|dir>")
		flag.PrintDefaults()
		atexit.Exit(2)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cpu.ScreenWidth**scale, cpu.ScreenHeight**scale)
	ebiten.SetWindowTitle("Hack VM")

	game := &Game{vm: vm, cyclesPerFrame: *cyclesPerFrame}
	if err := ebiten.RunGame(game); err != nil {
		fatal("run failed", err)
	}

	if *snapshot != "" {
		if err := vm.HibernateToFile(*snapshot); err != nil {
			fatal("snapshot failed", err)
		}
	}
	atexit.Exit(0)
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	atexit.Exit(1)
}

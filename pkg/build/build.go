// Package build drives whole-program translation: it discovers the .vm units
// of a program, streams them through one translator.Emitter and assembles
// the result.
package build

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hackvm/pkg/asm"
	"hackvm/pkg/config"
	"hackvm/pkg/parser"
	"hackvm/pkg/translator"
	"hackvm/pkg/utils"
	"hackvm/pkg/vm"
)

const (
	SourceExt = ".vm"
	AsmExt    = ".asm"
	HackExt   = ".hack"
)

var (
	ErrNoUnits  = errors.New("no .vm files found")
	ErrNotVM    = errors.New("input is not a .vm file")
	ErrUnitName = errors.New("file name is not a valid unit name")
)

// Unit is one source file. Its name qualifies static variables.
type Unit struct {
	Name string
	Path string
}

// Program is the set of units translated into one assembly file.
type Program struct {
	Input  string
	Output string
	Units  []Unit
}

// HackOutput is the path of the assembled machine code.
func (p *Program) HackOutput() string {
	return strings.TrimSuffix(p.Output, AsmExt) + HackExt
}

// Discover resolves path to a Program. A file is a single unit and is
// written next to itself; a directory contributes every .vm file inside it
// and is written to <dir>/<dir>.asm. Units are sorted by name, except that
// the unit defining entry comes last.
func Discover(path, entry string) (*Program, error) {
	fullPath, parentDir, err := utils.GetPathInfo(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if filepath.Ext(fullPath) != SourceExt {
			return nil, fmt.Errorf("%w: %s", ErrNotVM, path)
		}
		u, err := newUnit(fullPath)
		if err != nil {
			return nil, err
		}
		slog.Debug("discovered unit", "unit", u.Name, "path", u.Path)
		return &Program{
			Input:  fullPath,
			Output: filepath.Join(parentDir, u.Name+AsmExt),
			Units:  []Unit{u},
		}, nil
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, err
	}
	var units []Unit
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != SourceExt {
			continue
		}
		u, err := newUnit(filepath.Join(fullPath, de.Name()))
		if err != nil {
			return nil, err
		}
		slog.Debug("discovered unit", "unit", u.Name, "path", u.Path)
		units = append(units, u)
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoUnits, path)
	}

	owner := entryUnit(entry)
	sort.SliceStable(units, func(i, j int) bool {
		li, lj := units[i].Name == owner, units[j].Name == owner
		if li != lj {
			return lj
		}
		return units[i].Name < units[j].Name
	})

	base := filepath.Base(fullPath)
	return &Program{
		Input:  fullPath,
		Output: filepath.Join(fullPath, base+AsmExt),
		Units:  units,
	}, nil
}

func newUnit(path string) (Unit, error) {
	name := strings.TrimSuffix(filepath.Base(path), SourceExt)
	if !vm.IsIdentifier(name) {
		return Unit{}, fmt.Errorf("%w: %s", ErrUnitName, path)
	}
	return Unit{Name: name, Path: path}, nil
}

// entryUnit is the unit an entry function such as "Sys.init" belongs to.
func entryUnit(entry string) string {
	if i := strings.IndexByte(entry, '.'); i > 0 {
		return entry[:i]
	}
	return entry
}

// Translate streams every unit of prog through a single Emitter into w.
func Translate(w io.Writer, prog *Program, opts translator.Options) error {
	bw := bufio.NewWriter(w)
	e := translator.NewEmitter(translator.NewWriterSink(bw), opts)

	for _, u := range prog.Units {
		if err := translateUnit(e, u); err != nil {
			return err
		}
	}
	if err := e.Finish(); err != nil {
		return err
	}
	return bw.Flush()
}

func translateUnit(e *translator.Emitter, u Unit) error {
	f, err := os.Open(u.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := e.SetUnit(u.Name); err != nil {
		return err
	}

	n := 0
	p := parser.New(f)
	for p.Next() {
		if err := e.Translate(p.Command()); err != nil {
			return err
		}
		n++
	}
	if err := p.Err(); err != nil {
		return fmt.Errorf("%s: %w", u.Path, err)
	}
	slog.Debug("translated unit", "unit", u.Name, "commands", n)
	return nil
}

// Result is the in-memory output of Build.
type Result struct {
	Program   *Program
	Asm       string
	Words     []uint16
	SourceMap map[uint16]int
}

// Build translates and assembles the program at path.
func Build(path string, cfg config.Config) (*Result, error) {
	prog, err := Discover(path, cfg.Entry)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := Translate(&buf, prog, cfg.TranslatorOptions()); err != nil {
		return nil, err
	}
	code := buf.String()

	words, sourceMap, err := asm.Assemble(code)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", prog.Output, err)
	}
	slog.Debug("assembled program", "units", len(prog.Units), "words", len(words))

	return &Result{
		Program:   prog,
		Asm:       code,
		Words:     words,
		SourceMap: sourceMap,
	}, nil
}

// Command vmdump prints each command of a VM file next to the Hack
// assembly generated for it.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tebeka/atexit"

	"hackvm/pkg/build"
	"hackvm/pkg/parser"
	"hackvm/pkg/translator"
)

const testSource = `push constant 7
push constant 8
add
`

func main() {
	bootstrap := flag.Bool("bootstrap", false, "include bootstrap code")
	flag.Parse()

	src := io.Reader(strings.NewReader(testSource))
	unit := translator.DefaultUnit
	if flag.NArg() > 0 {
		var err error
		src, unit, err = readSource(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			atexit.Exit(1)
		}
	}

	opts := translator.DefaultOptions()
	opts.Bootstrap = *bootstrap
	if err := dump(os.Stdout, unit, src, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// readSource loads a .vm file and names the unit after it.
func readSource(path string) (io.Reader, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), strings.TrimSuffix(filepath.Base(path), build.SourceExt), nil
}

// dump translates src command by command, writing the source line followed
// by the indented code it produced.
func dump(w io.Writer, unit string, src io.Reader, opts translator.Options) error {
	var buf translator.Buffer
	em := translator.NewEmitter(&buf, opts)
	if err := em.SetUnit(unit); err != nil {
		return err
	}

	p := parser.New(src)
	seen := 0
	flush := func(header string) {
		lines := buf.Lines()[seen:]
		seen = len(buf.Lines())
		fmt.Fprintln(w, header)
		for _, l := range lines {
			fmt.Fprintln(w, "    "+l)
		}
	}
	for p.Next() {
		cmd := p.Command()
		if err := em.Translate(cmd); err != nil {
			return err
		}
		flush(fmt.Sprintf("%4d: %s", cmd.Line, cmd))
	}
	if err := p.Err(); err != nil {
		return err
	}
	if err := em.Finish(); err != nil {
		return err
	}
	flush("end:")
	return nil
}

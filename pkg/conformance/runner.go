// Package conformance runs YAML-described VM programs end to end: translate,
// assemble, execute on the Hack emulator and compare the resulting memory.
package conformance

import (
	"fmt"
	"strings"

	"hackvm/pkg/asm"
	"hackvm/pkg/cpu"
	"hackvm/pkg/parser"
	"hackvm/pkg/translator"
)

// DefaultMaxCycles bounds a test that does not set max_cycles.
const DefaultMaxCycles = 1_000_000

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner executes conformance tests
type Runner struct {
	maxCycles uint64
}

func NewRunner() *Runner {
	return &Runner{maxCycles: DefaultMaxCycles}
}

// RunAll executes every test in order.
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, 0, len(tests))
	for _, t := range tests {
		results = append(results, r.Run(t))
	}
	return results
}

// Run executes a single test.
func (r *Runner) Run(t LoadedTest) TestResult {
	result := TestResult{Test: t}
	if skip, reason := t.Test.IsSkipped(); skip {
		result.Skipped = true
		result.SkipReason = reason
		return result
	}
	result.Error = r.run(t)
	result.Passed = result.Error == nil
	return result
}

func (r *Runner) run(t LoadedTest) error {
	tc := t.Test
	code, err := translate(tc.Sources(), bootstrapFor(t))
	if tc.Expect.Error != "" {
		if err == nil {
			return fmt.Errorf("expected error containing %q, build succeeded", tc.Expect.Error)
		}
		if !strings.Contains(err.Error(), tc.Expect.Error) {
			return fmt.Errorf("expected error containing %q, got %v", tc.Expect.Error, err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	a := asm.NewAssembler()
	words, _, err := a.Assemble(code)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}
	c := cpu.NewCPU()
	if err := c.Load(words); err != nil {
		return err
	}
	if err := applySetup(c, a, t.Suite.Setup); err != nil {
		return err
	}
	if err := applySetup(c, a, tc.Setup); err != nil {
		return err
	}

	limit := r.maxCycles
	if tc.MaxCycles > 0 {
		limit = tc.MaxCycles
	}
	if err := c.Run(limit); err != nil {
		return err
	}
	return check(c, a, tc.Expect)
}

func bootstrapFor(t LoadedTest) bool {
	if t.Test.Bootstrap != nil {
		return *t.Test.Bootstrap
	}
	return t.Suite.Bootstrap
}

func translate(units []UnitSource, bootstrap bool) (string, error) {
	var buf translator.Buffer
	opts := translator.DefaultOptions()
	opts.Bootstrap = bootstrap
	e := translator.NewEmitter(&buf, opts)

	for _, u := range units {
		if err := e.SetUnit(u.Name); err != nil {
			return "", err
		}
		cmds, err := parser.Parse(u.Code)
		if err != nil {
			return "", fmt.Errorf("%s: %w", u.Name, err)
		}
		for _, cmd := range cmds {
			if err := e.Translate(cmd); err != nil {
				return "", err
			}
		}
	}
	if err := e.Finish(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func applySetup(c *cpu.CPU, a *asm.Assembler, preset RAMPreset) error {
	for addr, v := range preset {
		if addr < 0 || addr >= cpu.RAMSize {
			return fmt.Errorf("setup address %d out of range", addr)
		}
		switch val := v.(type) {
		case int:
			c.RAM[addr] = uint16(val)
		case string:
			sym, ok := a.Symbol(val)
			if !ok {
				return fmt.Errorf("setup RAM[%d]: unknown symbol %q", addr, val)
			}
			c.RAM[addr] = sym
		default:
			return fmt.Errorf("setup RAM[%d]: unsupported value %v", addr, v)
		}
	}
	return nil
}

func check(c *cpu.CPU, a *asm.Assembler, want Expectation) error {
	var diffs []string
	for addr, v := range want.RAM {
		if got := c.Word(uint16(addr)); got != int16(v) {
			diffs = append(diffs, fmt.Sprintf("RAM[%d] = %d, want %d", addr, got, v))
		}
	}
	if want.Stack != nil {
		got := c.Stack()
		if len(got) != len(want.Stack) {
			diffs = append(diffs, fmt.Sprintf("stack = %v, want %v", got, want.Stack))
		} else {
			for i := range got {
				if got[i] != int16(want.Stack[i]) {
					diffs = append(diffs, fmt.Sprintf("stack = %v, want %v", got, want.Stack))
					break
				}
			}
		}
	}
	for name, v := range want.Statics {
		addr, ok := a.Symbol(name)
		if !ok {
			diffs = append(diffs, fmt.Sprintf("static %s not allocated", name))
			continue
		}
		if got := c.Word(addr); got != int16(v) {
			diffs = append(diffs, fmt.Sprintf("%s = %d, want %d", name, got, v))
		}
	}
	if len(diffs) > 0 {
		return fmt.Errorf("%s", strings.Join(diffs, "; "))
	}
	return nil
}

// Stats summarizes a run.
type Stats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

func ComputeStats(results []TestResult) Stats {
	var s Stats
	for _, r := range results {
		s.Total++
		switch {
		case r.Skipped:
			s.Skipped++
		case r.Passed:
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}

func FormatStats(s Stats) string {
	return fmt.Sprintf("Total: %d\nPassed: %d\nFailed: %d\nSkipped: %d\n", s.Total, s.Passed, s.Failed, s.Skipped)
}

package conformance

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Bootstrap   bool       `yaml:"bootstrap,omitempty"`
	Setup       RAMPreset  `yaml:"setup,omitempty"`
	Tests       []TestCase `yaml:"tests"`
}

// RAMPreset assigns initial RAM values. A value is either an integer or the
// name of an assembler symbol whose address is stored.
type RAMPreset map[int]interface{}

// UnitSource is one named VM source unit.
type UnitSource struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// TestCase represents a single test within a suite
type TestCase struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Skip        interface{}  `yaml:"skip,omitempty"`      // bool or string
	Code        string       `yaml:"code,omitempty"`      // single unit named Main
	Units       []UnitSource `yaml:"units,omitempty"`     // translated in order
	Bootstrap   *bool        `yaml:"bootstrap,omitempty"` // overrides the suite
	Setup       RAMPreset    `yaml:"setup,omitempty"`     // merged over the suite
	MaxCycles   uint64       `yaml:"max_cycles,omitempty"`
	Expect      Expectation  `yaml:"expect"`
}

// Expectation defines what result is expected from a test
type Expectation struct {
	RAM     map[int]int    `yaml:"ram,omitempty"`
	Stack   []int          `yaml:"stack,omitempty"`
	Statics map[string]int `yaml:"statics,omitempty"` // assembler symbol -> value
	Error   string         `yaml:"error,omitempty"`   // substring of the build error
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
	case string:
		return true, v
	}
	return false, ""
}

// Sources returns the units to translate.
func (tc *TestCase) Sources() []UnitSource {
	if len(tc.Units) > 0 {
		return tc.Units
	}
	return []UnitSource{{Name: "Main", Code: tc.Code}}
}

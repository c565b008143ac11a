package conformance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// TestPath is the directory holding the YAML suites, relative to this package.
const TestPath = "testdata"

// LoadedTest represents a test with its source file path
type LoadedTest struct {
	File  string
	Suite TestSuite
	Test  TestCase
}

// LoadAllTests walks dir and loads every test case of every .yaml file.
func LoadAllTests(dir string) ([]LoadedTest, error) {
	var loaded []LoadedTest

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		tests, err := loadTestFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		relPath, _ := filepath.Rel(dir, path)
		for _, test := range tests {
			test.File = relPath
			loaded = append(loaded, test)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(loaded, func(i, j int) bool { return loaded[i].File < loaded[j].File })
	return loaded, nil
}

// loadTestFile parses a single YAML file and returns all test cases
func loadTestFile(path string) ([]LoadedTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, err
	}
	if suite.Name == "" {
		return nil, fmt.Errorf("suite has no name")
	}

	var tests []LoadedTest
	for _, test := range suite.Tests {
		tests = append(tests, LoadedTest{
			Suite: suite,
			Test:  test,
		})
	}
	return tests, nil
}

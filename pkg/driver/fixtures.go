package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"bril/interpreter-go/pkg/diag"
)

const (
	// FixtureFile marks a fixture directory and holds its expectations.
	FixtureFile = "fixture.yml"
	// FixtureProgram is the program file used when fixture.yml names none.
	FixtureProgram = "program.json"
)

// Fixture is one program with the outcome it must produce.
type Fixture struct {
	Name         string
	Dir          string
	Program      string
	Args         []string
	Profile      bool
	CheckLeaks   bool
	Entry        string
	MaxCallDepth int
	Expect       Expectation
}

// Expectation describes a fixture's required outcome. Error names a
// diagnostic kind; when it is set, Exit is ignored.
type Expectation struct {
	Stdout  []string `yaml:"stdout"`
	Exit    int      `yaml:"exit"`
	Profile string   `yaml:"profile"`
	Error   string   `yaml:"error"`
}

type fixtureFile struct {
	Program      string      `yaml:"program"`
	Args         stringList  `yaml:"args"`
	Profile      bool        `yaml:"profile"`
	CheckLeaks   bool        `yaml:"check_leaks"`
	Entry        string      `yaml:"entry"`
	MaxCallDepth int         `yaml:"max_call_depth"`
	Expect       Expectation `yaml:"expect"`
}

// LoadFixture reads dir/fixture.yml.
func LoadFixture(dir string) (*Fixture, error) {
	path := filepath.Join(dir, FixtureFile)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: open %s: %w", path, err)
	}
	defer file.Close()

	var raw fixtureFile
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("fixture: parse %s: %w", path, err)
	}
	program := strings.TrimSpace(raw.Program)
	if program == "" {
		program = FixtureProgram
	}
	return &Fixture{
		Name:         filepath.Base(dir),
		Dir:          dir,
		Program:      filepath.Join(dir, program),
		Args:         []string(raw.Args),
		Profile:      raw.Profile,
		CheckLeaks:   raw.CheckLeaks,
		Entry:        strings.TrimSpace(raw.Entry),
		MaxCallDepth: raw.MaxCallDepth,
		Expect:       raw.Expect,
	}, nil
}

// DiscoverFixtures returns every directory under root that holds a
// fixture.yml, sorted.
func DiscoverFixtures(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	var dirs []string
	var walk func(string) error
	walk = func(current string) error {
		entries, err := os.ReadDir(current)
		if err != nil {
			return fmt.Errorf("fixture: read %s: %w", current, err)
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() && entry.Name() == FixtureFile {
				dirs = append(dirs, current)
				break
			}
		}
		for _, entry := range entries {
			if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
				if err := walk(filepath.Join(current, entry.Name())); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	sort.Strings(dirs)
	return dirs, nil
}

// FixtureResult is the observed outcome of one fixture and every way it
// diverged from its expectation.
type FixtureResult struct {
	Name     string
	Stdout   []string
	Profile  string
	Exit     int
	Err      error
	Failures []string
}

// Passed reports whether the fixture met its expectation.
func (r FixtureResult) Passed() bool { return len(r.Failures) == 0 }

// RunFixture executes f and compares the outcome with f.Expect.
func RunFixture(f *Fixture, logger *zerolog.Logger) FixtureResult {
	result := FixtureResult{Name: f.Name}
	prog, err := LoadProgram(f.Program, nil)
	if err != nil {
		result.Err = err
		result.Failures = append(result.Failures, fmt.Sprintf("load: %v", err))
		return result
	}

	var out, prof bytes.Buffer
	res, err := Run(prog, Config{
		Entry:        f.Entry,
		Args:         f.Args,
		Profiling:    f.Profile,
		CheckLeaks:   f.CheckLeaks,
		MaxCallDepth: f.MaxCallDepth,
		Out:          &out,
		ProfileOut:   &prof,
		Logger:       logger,
	})
	result.Stdout = splitLines(out.String())
	result.Profile = strings.TrimSpace(prof.String())
	result.Exit = res.ExitCode
	result.Err = err

	want := f.Expect
	if !equalLines(result.Stdout, want.Stdout) {
		result.Failures = append(result.Failures, fmt.Sprintf("stdout got=%q want=%q", result.Stdout, want.Stdout))
	}
	switch {
	case want.Error != "":
		if got := diag.KindOf(err); string(got) != want.Error {
			result.Failures = append(result.Failures, fmt.Sprintf("error got=%q want=%q (%v)", got, want.Error, err))
		}
	case err != nil:
		result.Failures = append(result.Failures, fmt.Sprintf("unexpected error: %v", err))
	default:
		if result.Exit != want.Exit {
			result.Failures = append(result.Failures, fmt.Sprintf("exit got=%d want=%d", result.Exit, want.Exit))
		}
		if f.Profile && want.Profile != "" && result.Profile != want.Profile {
			result.Failures = append(result.Failures, fmt.Sprintf("profile got=%q want=%q", result.Profile, want.Profile))
		}
	}
	return result
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

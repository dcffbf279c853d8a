package driver

import (
	"os"
	"path/filepath"
	"testing"
)

func fixturesRoot(t *testing.T) string {
	t.Helper()
	root := filepath.Join("..", "..", "fixtures")
	if _, err := os.Stat(root); err != nil {
		t.Skipf("fixtures directory not found: %v", err)
	}
	return root
}

func TestFixtures(t *testing.T) {
	root := fixturesRoot(t)
	dirs, err := DiscoverFixtures(root)
	if err != nil {
		t.Fatalf("discover fixtures: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatalf("no fixtures found under %s", root)
	}
	for _, dir := range dirs {
		dir := dir
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			t.Fatalf("relative path for %s: %v", dir, err)
		}
		t.Run(filepath.ToSlash(rel), func(t *testing.T) {
			fixture, err := LoadFixture(dir)
			if err != nil {
				t.Fatalf("load fixture: %v", err)
			}
			result := RunFixture(fixture, nil)
			for _, failure := range result.Failures {
				t.Errorf("%s", failure)
			}
		})
	}
}

func TestRunFixtureReportsMismatch(t *testing.T) {
	dir := filepath.Join(fixturesRoot(t), "factorial")
	fixture, err := LoadFixture(dir)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	fixture.Expect.Exit = 7
	fixture.Expect.Stdout = []string{"nope"}
	result := RunFixture(fixture, nil)
	if result.Passed() {
		t.Fatalf("fixture with wrong expectation should fail")
	}
	if len(result.Failures) != 2 {
		t.Fatalf("failures got=%d want=2: %v", len(result.Failures), result.Failures)
	}
}

func TestLoadFixtureDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FixtureFile), []byte("expect:\n  exit: 3\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	fixture, err := LoadFixture(dir)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	if got, want := fixture.Program, filepath.Join(dir, FixtureProgram); got != want {
		t.Fatalf("program got=%q want=%q", got, want)
	}
	if fixture.Expect.Exit != 3 || fixture.Name != filepath.Base(dir) {
		t.Fatalf("unexpected fixture %+v", fixture)
	}

	if err := os.WriteFile(filepath.Join(dir, FixtureFile), []byte("unknown: 1\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadFixture(dir); err == nil {
		t.Fatalf("unknown fixture keys should be rejected")
	}
}

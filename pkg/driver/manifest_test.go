package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(strings.TrimLeft(contents, "\n")), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifestBasic(t *testing.T) {
	path := writeManifest(t, `
name: bril-demo
entry: start
max_call_depth: 512
check_leaks: true
targets:
  fact:
    program: programs/fact.json
    args: ["5"]
    profile: true
  loop: programs/loop.json
suites:
  core:
    git: https://example.com/bril-fixtures.git
    tag: v1.2.0
    path: fixtures
  local: ./fixtures
`)

	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest returned error: %v", err)
	}
	if got, want := manifest.Name, "bril_demo"; got != want {
		t.Fatalf("Name = %q, want %q", got, want)
	}
	if manifest.Entry != "start" || manifest.MaxCallDepth != 512 || !manifest.CheckLeaks {
		t.Fatalf("engine settings not parsed: %+v", manifest)
	}
	if got := strings.Join(manifest.TargetOrder, ","); got != "fact,loop" {
		t.Fatalf("TargetOrder = %q, want fact,loop", got)
	}
	fact, ok := manifest.FindTarget("fact")
	if !ok {
		t.Fatalf("fact target missing")
	}
	if fact.Program != "programs/fact.json" || len(fact.Args) != 1 || fact.Args[0] != "5" || !fact.Profile {
		t.Fatalf("fact target unexpected: %+v", fact)
	}
	if got, want := manifest.ProgramPath(fact), filepath.Join(filepath.Dir(path), "programs", "fact.json"); got != want {
		t.Fatalf("ProgramPath = %q, want %q", got, want)
	}
	loop, _ := manifest.FindTarget("loop")
	if loop.Program != "programs/loop.json" {
		t.Fatalf("shorthand target not parsed: %+v", loop)
	}
	def, err := manifest.DefaultTarget()
	if err != nil || def.Name != "fact" {
		t.Fatalf("DefaultTarget = %+v, %v", def, err)
	}

	core := manifest.Suites["core"]
	if core == nil || !core.IsGit() || core.Ref() != "v1.2.0" || core.Path != "fixtures" {
		t.Fatalf("core suite unexpected: %+v", core)
	}
	local := manifest.Suites["local"]
	if local == nil || local.IsGit() || local.Path != "./fixtures" {
		t.Fatalf("local suite unexpected: %+v", local)
	}

	cfg := manifest.RunConfig(fact)
	if cfg.Entry != "start" || !cfg.Profiling || !cfg.CheckLeaks || cfg.MaxCallDepth != 512 || cfg.Args[0] != "5" {
		t.Fatalf("RunConfig unexpected: %+v", cfg)
	}
}

func TestLoadManifestValidation(t *testing.T) {
	path := writeManifest(t, `
targets:
  broken:
    args: ["1"]
suites:
  nowhere: {}
  confused:
    git: https://example.com/x.git
    tag: v1
    branch: main
  localref:
    path: ./x
    rev: abc
`)
	_, err := LoadManifest(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	want := []string{
		"name must be provided",
		`target "broken" requires a program`,
		"suites.nowhere: must specify git or path",
		"suites.confused: specify at most one of tag, branch or rev",
		"suites.localref: tag, branch and rev apply only to git suites",
	}
	if len(verr.Issues) != len(want) {
		t.Fatalf("issues got=%v want=%v", verr.Issues, want)
	}
	for i := range want {
		if verr.Issues[i] != want[i] {
			t.Fatalf("issue %d got=%q want=%q", i, verr.Issues[i], want[i])
		}
	}
}

func TestLoadManifestRejectsUnknownKeys(t *testing.T) {
	path := writeManifest(t, `
name: demo
targets:
  fact:
    program: fact.json
    argz: ["5"]
`)
	if _, err := LoadManifest(path); err == nil || !strings.Contains(err.Error(), "argz") {
		t.Fatalf("expected unknown key error, got %v", err)
	}

	path = writeManifest(t, "name: demo\nflavour: spicy\n")
	if _, err := LoadManifest(path); err == nil {
		t.Fatalf("expected unknown top-level key error")
	}
}

func TestLoadManifestEmpty(t *testing.T) {
	path := writeManifest(t, "")
	if _, err := LoadManifest(path); err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty manifest error, got %v", err)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	path := writeManifest(t, "name: demo\n")
	nested := filepath.Join(filepath.Dir(path), "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	found, err := FindManifest(nested)
	if err != nil {
		t.Fatalf("FindManifest: %v", err)
	}
	if found != path {
		t.Fatalf("FindManifest = %q, want %q", found, path)
	}
}

func TestManifestSuiteDir(t *testing.T) {
	path := writeManifest(t, `
name: demo
suites:
  core-suite:
    git: https://example.com/bril-fixtures.git
    branch: main
    path: fixtures
  local: ./fixtures
`)
	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	local, ok := manifest.FindSuite("local")
	if !ok {
		t.Fatalf("expected local suite")
	}
	dir, err := manifest.SuiteDir(local, nil)
	if err != nil {
		t.Fatalf("SuiteDir(local): %v", err)
	}
	if want := filepath.Join(manifest.Dir, "fixtures"); dir != want {
		t.Fatalf("local dir = %q, want %q", dir, want)
	}

	core, ok := manifest.FindSuite("core-suite")
	if !ok {
		t.Fatalf("expected core-suite to resolve through sanitized name")
	}
	if _, err := manifest.SuiteDir(core, nil); err == nil || !strings.Contains(err.Error(), "not been fetched") {
		t.Fatalf("expected unfetched error, got %v", err)
	}
	lock := NewLockfile(manifest.Name, "test")
	lock.Put(&LockedSuite{Name: "core_suite", Source: "git+https://example.com/bril-fixtures.git", Commit: "abc", Path: "/cache/core_suite/abc"})
	dir, err = manifest.SuiteDir(core, lock)
	if err != nil {
		t.Fatalf("SuiteDir(core): %v", err)
	}
	if want := filepath.Join("/cache/core_suite/abc", "fixtures"); dir != want {
		t.Fatalf("core dir = %q, want %q", dir, want)
	}
}

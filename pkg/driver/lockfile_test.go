package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLockfileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LockfileName)

	lock := NewLockfile("bril-demo", "brili test")
	lock.Put(&LockedSuite{Name: "zeta", Source: "https://example.com/z.git", Ref: "main", Commit: "abc"})
	lock.Put(&LockedSuite{Name: "alpha", Source: "https://example.com/a.git", Ref: "v1", Commit: "def", Path: "fixtures"})
	lock.Put(&LockedSuite{Name: "zeta", Source: "https://example.com/z.git", Ref: "main", Commit: "123"})
	if err := WriteLockfile(lock, path); err != nil {
		t.Fatalf("WriteLockfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read lockfile: %v", err)
	}
	if !strings.Contains(string(data), "root: bril_demo") {
		t.Fatalf("lockfile missing root:\n%s", data)
	}

	loaded, err := LoadLockfile(path)
	if err != nil {
		t.Fatalf("LoadLockfile: %v", err)
	}
	if len(loaded.Suites) != 2 || loaded.Suites[0].Name != "alpha" || loaded.Suites[1].Name != "zeta" {
		t.Fatalf("suites not sorted/deduplicated: %+v", loaded.Suites)
	}
	zeta, ok := loaded.Find("zeta")
	if !ok || zeta.Commit != "123" {
		t.Fatalf("Put should replace existing entries, got %+v", zeta)
	}
	if alpha, _ := loaded.Find("alpha"); alpha.Path != "fixtures" || alpha.Ref != "v1" {
		t.Fatalf("alpha entry unexpected: %+v", alpha)
	}
	if loaded.Generated == "" || loaded.Tool != "brili test" {
		t.Fatalf("metadata not preserved: %+v", loaded)
	}
}

func TestLoadLockfileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockfileName)
	if err := os.WriteFile(path, []byte("root: x\npackages: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadLockfile(path); err == nil {
		t.Fatalf("expected parse error for unknown key")
	}
}

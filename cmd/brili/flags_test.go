package main

import (
	"testing"

	"bril/interpreter-go/pkg/driver"
	"github.com/go-git/go-git/v5/plumbing"
)

func TestParseGlobalFlags(t *testing.T) {
	opts, rest, err := parseGlobalFlags([]string{"--verbose", "--trace", "run", "--trace"})
	if err != nil {
		t.Fatalf("parseGlobalFlags: %v", err)
	}
	if !opts.verbose || !opts.trace {
		t.Fatalf("expected verbose and trace, got %#v", opts)
	}
	if len(rest) != 2 || rest[0] != "run" || rest[1] != "--trace" {
		t.Fatalf("flags after the subcommand must be left alone, got %v", rest)
	}

	_, rest, err = parseGlobalFlags([]string{"--", "--verbose"})
	if err != nil || len(rest) != 1 || rest[0] != "--verbose" {
		t.Fatalf("expected -- to end global flags, got %v (%v)", rest, err)
	}
}

func TestParseRunArgs(t *testing.T) {
	opts, err := parseRunArgs([]string{"prog.json", "-3", "--profile", "--entry=start", "true", "--max-call-depth", "9", "--", "-p"}, false)
	if err != nil {
		t.Fatalf("parseRunArgs: %v", err)
	}
	if opts.candidate != "prog.json" || !opts.profile || opts.entry != "start" || opts.maxCallDepth != 9 {
		t.Fatalf("unexpected options %#v", opts)
	}
	want := []string{"-3", "true", "-p"}
	if len(opts.args) != len(want) {
		t.Fatalf("args = %v, want %v", opts.args, want)
	}
	for i := range want {
		if opts.args[i] != want[i] {
			t.Fatalf("args = %v, want %v", opts.args, want)
		}
	}

	if _, err := parseRunArgs([]string{"prog.json", "--all"}, false); err == nil {
		t.Fatalf("expected --all to be rejected by run")
	}
	if _, err := parseRunArgs([]string{"prog.json", "--profile"}, true); err == nil {
		t.Fatalf("expected --profile to be rejected by check")
	}
	if _, err := parseRunArgs([]string{"prog.json", "--entry"}, false); err == nil {
		t.Fatalf("expected missing --entry value to fail")
	}
}

func TestLooksLikeFlag(t *testing.T) {
	cases := map[string]bool{
		"-p":        true,
		"--src":     true,
		"-":         false,
		"-12":       false,
		"-1.5e3":    false,
		"-Infinity": false,
		"5":         false,
	}
	for arg, want := range cases {
		if got := looksLikeFlag(arg); got != want {
			t.Fatalf("looksLikeFlag(%q) = %v, want %v", arg, got, want)
		}
	}
}

func TestSuiteRevision(t *testing.T) {
	cases := []struct {
		spec driver.SuiteSpec
		want plumbing.Revision
	}{
		{driver.SuiteSpec{Rev: "abc123", Tag: "v1"}, "abc123"},
		{driver.SuiteSpec{Tag: "v1"}, "refs/tags/v1"},
		{driver.SuiteSpec{Branch: "dev"}, "refs/remotes/origin/dev"},
		{driver.SuiteSpec{}, "HEAD"},
	}
	for _, tc := range cases {
		spec := tc.spec
		if got := suiteRevision(&spec); got != tc.want {
			t.Fatalf("suiteRevision(%#v) = %q, want %q", tc.spec, got, tc.want)
		}
	}
}

func TestSanitizePathSegment(t *testing.T) {
	if got := sanitizePathSegment("core/v1 beta"); got != "core_v1_beta" {
		t.Fatalf("sanitizePathSegment = %q", got)
	}
	if got := sanitizePathSegment("  "); got != "suite" {
		t.Fatalf("empty segment = %q", got)
	}
}

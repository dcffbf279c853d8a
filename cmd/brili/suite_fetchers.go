package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bril/interpreter-go/pkg/driver"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog"
)

// briliHome is where fetched suites are cached: $BRILI_HOME, else ~/.brili.
func briliHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv("BRILI_HOME")); home != "" {
		return home, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(dir, ".brili"), nil
}

type suiteFetcher struct {
	cacheDir string
	logger   zerolog.Logger
}

func newSuiteFetcher(cacheDir string, logger *zerolog.Logger) *suiteFetcher {
	if cacheDir == "" {
		return nil
	}
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "suite").Logger()
	}
	return &suiteFetcher{cacheDir: cacheDir, logger: log}
}

// Fetch checks out a git suite under the cache, one directory per commit. A
// previous lock entry for the same source and ref is reused when its
// checkout is still on disk.
func (f *suiteFetcher) Fetch(spec *driver.SuiteSpec, previous *driver.LockedSuite) (*driver.LockedSuite, error) {
	if f == nil {
		return nil, errors.New("suite fetcher unavailable")
	}
	url := strings.TrimSpace(spec.Git)
	if url == "" {
		return nil, fmt.Errorf("suite %q: git URL required", spec.Name)
	}
	source := "git+" + url
	baseDir := filepath.Join(f.cacheDir, "suites", sanitizePathSegment(spec.Name))

	if previous != nil && previous.Source == source && previous.Ref == spec.Ref() && previous.Commit != "" {
		if info, err := os.Stat(previous.Path); err == nil && info.IsDir() {
			f.logger.Debug().Str("suite", spec.Name).Str("commit", previous.Commit).Msg("reusing locked checkout")
			return previous, nil
		}
	}

	commit, dir, err := f.checkout(baseDir, url, spec)
	if err != nil {
		return nil, err
	}
	return &driver.LockedSuite{
		Name:   spec.Name,
		Source: source,
		Ref:    spec.Ref(),
		Commit: commit,
		Path:   dir,
	}, nil
}

func (f *suiteFetcher) checkout(baseDir, url string, spec *driver.SuiteSpec) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}
	tmpDir, err := os.MkdirTemp(baseDir, "fetch-*")
	if err != nil {
		return "", "", err
	}
	// PlainClone wants to create the directory itself.
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}

	f.logger.Info().Str("suite", spec.Name).Str("url", url).Msg("cloning suite")
	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}

	revision := suiteRevision(spec)
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}
	commit := hash.String()
	targetDir := filepath.Join(baseDir, commit)
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return commit, targetDir, nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git checkout %s: %w", revision, err)
	}
	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	f.logger.Debug().Str("suite", spec.Name).Str("commit", commit).Str("dir", targetDir).Msg("suite checked out")
	return commit, targetDir, nil
}

// suiteRevision maps the manifest ref to a revision in a fresh clone, where
// branches other than the default exist only as remote-tracking refs.
func suiteRevision(spec *driver.SuiteSpec) plumbing.Revision {
	switch {
	case spec.Rev != "":
		return plumbing.Revision(spec.Rev)
	case spec.Tag != "":
		return plumbing.Revision("refs/tags/" + spec.Tag)
	case spec.Branch != "":
		return plumbing.Revision("refs/remotes/origin/" + spec.Branch)
	default:
		return plumbing.Revision(plumbing.HEAD)
	}
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	var b strings.Builder
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "suite"
	}
	return b.String()
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}

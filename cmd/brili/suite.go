package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bril/interpreter-go/pkg/driver"
	"github.com/rs/zerolog"
)

func runSuite(args []string, logger *zerolog.Logger) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "brili suite expects a subcommand (fetch or run)")
		return exitUsage
	}
	manifest, err := loadManifestFrom(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "brili suite: failed to load manifest: %v\n", err)
		return exitUsage
	}
	names, err := selectSuites(manifest, args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "brili suite: %v\n", err)
		return exitUsage
	}
	lockPath := filepath.Join(manifest.Dir, driver.LockfileName)
	lock, err := loadLockfile(manifest, lockPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitUsage
	}

	switch args[0] {
	case "fetch":
		return fetchSuites(manifest, lock, lockPath, names, logger)
	case "run":
		return runSuites(manifest, lock, names, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown suite command %q (expected fetch or run)\n", args[0])
		return exitUsage
	}
}

func selectSuites(manifest *driver.Manifest, requested []string) ([]string, error) {
	if len(requested) == 0 {
		if len(manifest.SuiteOrder) == 0 {
			return nil, fmt.Errorf("%s defines no suites", manifest.Path)
		}
		return manifest.SuiteOrder, nil
	}
	names := make([]string, 0, len(requested))
	for _, name := range requested {
		suite, ok := manifest.FindSuite(name)
		if !ok {
			return nil, fmt.Errorf("unknown suite %q", name)
		}
		names = append(names, suite.Name)
	}
	return names, nil
}

func loadLockfile(manifest *driver.Manifest, path string) (*driver.Lockfile, error) {
	lock, err := driver.LoadLockfile(path)
	if err == nil {
		return lock, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return driver.NewLockfile(manifest.Name, cliToolVersion), nil
	}
	return nil, fmt.Errorf("failed to read %s: %w", driver.LockfileName, err)
}

func fetchSuites(manifest *driver.Manifest, lock *driver.Lockfile, lockPath string, names []string, logger *zerolog.Logger) int {
	home, err := briliHome()
	if err != nil {
		fmt.Fprintf(os.Stderr, "brili suite fetch: %v\n", err)
		return exitUsage
	}
	fetcher := newSuiteFetcher(home, logger)
	changed := false
	for _, name := range names {
		spec := manifest.Suites[name]
		if !spec.IsGit() {
			fmt.Fprintf(os.Stdout, "%s: local suite, nothing to fetch\n", name)
			continue
		}
		previous, _ := lock.Find(name)
		locked, err := fetcher.Fetch(spec, previous)
		if err != nil {
			fmt.Fprintf(os.Stderr, "suite %s: %v\n", name, err)
			return exitUsage
		}
		if previous == nil || *previous != *locked {
			changed = true
		}
		lock.Put(locked)
		fmt.Fprintf(os.Stdout, "%s: %s @ %s\n", name, locked.Source, shortCommit(locked.Commit))
	}
	if !changed {
		return 0
	}
	lock.Tool = cliToolVersion
	if err := driver.WriteLockfile(lock, lockPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", driver.LockfileName, err)
		return exitUsage
	}
	return 0
}

func runSuites(manifest *driver.Manifest, lock *driver.Lockfile, names []string, logger *zerolog.Logger) int {
	totalFailed := 0
	for _, name := range names {
		root, err := manifest.SuiteDir(manifest.Suites[name], lock)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v (run brili suite fetch)\n", err)
			return exitUsage
		}
		dirs, err := driver.DiscoverFixtures(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "suite %s: %v\n", name, err)
			return exitUsage
		}
		passed, failed := 0, 0
		for _, dir := range dirs {
			label := fixtureLabel(root, dir)
			fixture, err := driver.LoadFixture(dir)
			if err != nil {
				failed++
				fmt.Fprintf(os.Stdout, "FAIL %s\n    %v\n", label, err)
				continue
			}
			result := driver.RunFixture(fixture, logger)
			if result.Passed() {
				passed++
				fmt.Fprintf(os.Stdout, "ok   %s\n", label)
				continue
			}
			failed++
			fmt.Fprintf(os.Stdout, "FAIL %s\n", label)
			for _, failure := range result.Failures {
				fmt.Fprintf(os.Stdout, "    %s\n", failure)
			}
		}
		fmt.Fprintf(os.Stdout, "suite %s: %d passed, %d failed\n", name, passed, failed)
		totalFailed += failed
	}
	if totalFailed > 0 {
		return 1
	}
	return 0
}

func fixtureLabel(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return filepath.Base(dir)
	}
	return filepath.ToSlash(rel)
}

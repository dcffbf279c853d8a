package main

import (
	"errors"
	"fmt"
	"os"
)

const cliToolVersion = "brili 0.1.0-dev"

var errManifestNotFound = errors.New("brili.yml not found")

// Exit statuses for failures that are not the program's own status.
const (
	exitUsage   = 1
	exitIRError = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return exitUsage
	}

	opts, remaining, err := parseGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if len(remaining) == 0 {
		printUsage()
		return exitUsage
	}
	logger := newLogger(os.Stderr, opts)

	switch remaining[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runEntry(remaining[1:], &logger)
	case "check":
		return runCheck(remaining[1:], &logger)
	case "graph":
		return runGraph(remaining[1:])
	case "suite":
		return runSuite(remaining[1:], &logger)
	default:
		return runEntry(remaining, &logger)
	}
}

package main

import (
	"fmt"
	"os"
)

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  brili [--verbose] [--trace] run [target] [args...]")
	fmt.Fprintln(os.Stderr, "  brili [--verbose] [--trace] run <file.json|-> [args...] [-p|--profile] [--check-leaks]")
	fmt.Fprintln(os.Stderr, "        [--entry NAME] [--max-call-depth N] [--src file.bril]")
	fmt.Fprintln(os.Stderr, "  brili <file.json> [args...]")
	fmt.Fprintln(os.Stderr, "  brili check [target|file.json|-] [--all] [--entry NAME]")
	fmt.Fprintln(os.Stderr, "  brili graph <file.json|-> [--func NAME] [--format yaml|dot]")
	fmt.Fprintln(os.Stderr, "  brili suite fetch [suite ...]")
	fmt.Fprintln(os.Stderr, "  brili suite run [suite ...]")
	fmt.Fprintln(os.Stderr, "  brili version")
}

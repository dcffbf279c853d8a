package main

import (
	"fmt"
	"strconv"
	"strings"
)

type globalOptions struct {
	verbose bool
	trace   bool
}

// parseGlobalFlags strips the flags accepted before the subcommand. Parsing
// stops at the first non-flag argument or at "--".
func parseGlobalFlags(args []string) (globalOptions, []string, error) {
	var opts globalOptions
	for i, arg := range args {
		switch {
		case arg == "--":
			return opts, args[i+1:], nil
		case arg == "--verbose" || arg == "-v":
			opts.verbose = true
		case arg == "--trace":
			opts.trace = true
		case strings.HasPrefix(arg, "--") && !isSubcommandFlag(arg):
			return opts, nil, fmt.Errorf("unknown global flag %s", arg)
		default:
			return opts, args[i:], nil
		}
	}
	return opts, nil, nil
}

func isSubcommandFlag(arg string) bool {
	return arg == "--help" || arg == "--version"
}

// flagValue handles "--name value" and "--name=value" forms. It reports the
// number of extra arguments consumed.
func flagValue(args []string, i int, name string) (string, int, bool, error) {
	arg := args[i]
	if arg == name {
		if i+1 >= len(args) {
			return "", 0, true, fmt.Errorf("%s expects a value", name)
		}
		return args[i+1], 1, true, nil
	}
	if value, ok := strings.CutPrefix(arg, name+"="); ok {
		if value == "" {
			return "", 0, true, fmt.Errorf("%s expects a value", name)
		}
		return value, 0, true, nil
	}
	return "", 0, false, nil
}

// looksLikeFlag separates flags from program arguments such as "-5" or
// "-0.25", which Bril programs take as int and float inputs.
func looksLikeFlag(arg string) bool {
	if !strings.HasPrefix(arg, "-") || arg == "-" {
		return false
	}
	if _, err := strconv.ParseFloat(arg, 64); err == nil {
		return false
	}
	return true
}

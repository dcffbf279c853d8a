package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"bril/interpreter-go/pkg/diag"
	"bril/interpreter-go/pkg/driver"
	"github.com/rs/zerolog"
)

type runOptions struct {
	candidate    string
	args         []string
	profile      bool
	checkLeaks   bool
	all          bool
	entry        string
	maxCallDepth int
	srcPath      string
}

// programSource is a resolved program file plus the manifest settings that
// apply to it.
type programSource struct {
	path     string
	manifest *driver.Manifest
	target   *driver.TargetSpec
}

func runEntry(args []string, logger *zerolog.Logger) int {
	opts, err := parseRunArgs(args, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	source, err := resolveProgram(opts.candidate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "brili run: %v\n", err)
		return exitUsage
	}
	prog, err := driver.LoadProgram(source.path, os.Stdin)
	if err != nil {
		return reportError(err, opts.srcPath)
	}

	cfg := source.config()
	if len(opts.args) > 0 || source.target == nil {
		cfg.Args = opts.args
	}
	if opts.profile {
		cfg.Profiling = true
	}
	if opts.checkLeaks {
		cfg.CheckLeaks = true
	}
	if opts.entry != "" {
		cfg.Entry = opts.entry
	}
	if opts.maxCallDepth > 0 {
		cfg.MaxCallDepth = opts.maxCallDepth
	}
	out := bufio.NewWriter(os.Stdout)
	cfg.Out = out
	cfg.ProfileOut = os.Stderr
	cfg.Logger = logger

	logger.Debug().Str("program", source.path).Strs("args", cfg.Args).Msg("running program")
	result, err := driver.Run(prog, cfg)
	flushErr := out.Flush()
	if err != nil {
		return reportError(err, opts.srcPath)
	}
	if flushErr != nil {
		fmt.Fprintf(os.Stderr, "failed to write program output: %v\n", flushErr)
		return exitUsage
	}
	logger.Debug().
		Uint64("instructions", result.Stats.Instructions).
		Int("max_depth", result.Stats.MaxDepth).
		Int("allocations", result.Stats.Allocations).
		Int("status", result.ExitCode).
		Msg("program finished")
	return result.ExitCode
}

func runCheck(args []string, logger *zerolog.Logger) int {
	opts, err := parseRunArgs(args, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if len(opts.args) > 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(opts.args, " "))
		return exitUsage
	}
	source, err := resolveProgram(opts.candidate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "brili check: %v\n", err)
		return exitUsage
	}
	prog, err := driver.LoadProgram(source.path, os.Stdin)
	if err != nil {
		return reportError(err, opts.srcPath)
	}
	entry := source.config().Entry
	if opts.entry != "" {
		entry = opts.entry
	}

	if !opts.all {
		checked, err := driver.Prepare(prog, entry)
		if err != nil {
			return reportError(err, opts.srcPath)
		}
		fmt.Fprintf(os.Stdout, "%s: ok (%d functions, entry @%s)\n", source.label(), len(checked.Program.Functions), checked.Entry.Name)
		return 0
	}

	result := driver.CheckAll(prog, entry)
	src := readSource(opts.srcPath)
	for _, perr := range result.Errors {
		describeError(perr, opts.srcPath, src)
	}
	for _, note := range result.Notes {
		fmt.Fprintf(os.Stderr, "note: %s\n", formatNote(note.Span.Start.Line, note.Span.Start.Column, note.Message, note.Function, note.Block))
	}
	logger.Debug().Int("errors", len(result.Errors)).Int("notes", len(result.Notes)).Msg("check finished")
	if !result.OK() {
		fmt.Fprintf(os.Stderr, "%s: %d error(s)\n", source.label(), len(result.Errors))
		return exitIRError
	}
	fmt.Fprintf(os.Stdout, "%s: ok (%d functions, entry @%s)\n", source.label(), len(result.Checked.Program.Functions), result.Checked.Entry.Name)
	return 0
}

func formatNote(line, col int, message, fn, block string) string {
	var b strings.Builder
	if line > 0 {
		fmt.Fprintf(&b, "line %d, column %d: ", line, col)
	}
	b.WriteString(message)
	fmt.Fprintf(&b, " (in @%s, block .%s)", fn, block)
	return b.String()
}

// parseRunArgs splits flags from positionals. The first positional names the
// program; the rest are program arguments. check accepts --all and rejects
// the execution-only flags.
func parseRunArgs(args []string, check bool) (runOptions, error) {
	var opts runOptions
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !looksLikeFlag(arg) {
			positional = append(positional, arg)
			continue
		}
		switch {
		case !check && (arg == "-p" || arg == "--profile"):
			opts.profile = true
			continue
		case !check && arg == "--check-leaks":
			opts.checkLeaks = true
			continue
		case check && arg == "--all":
			opts.all = true
			continue
		}
		if value, skip, ok, err := flagValue(args, i, "--entry"); ok {
			if err != nil {
				return opts, err
			}
			opts.entry = value
			i += skip
			continue
		}
		if value, skip, ok, err := flagValue(args, i, "--src"); ok {
			if err != nil {
				return opts, err
			}
			opts.srcPath = value
			i += skip
			continue
		}
		if value, skip, ok, err := flagValue(args, i, "--max-call-depth"); ok && !check {
			if err != nil {
				return opts, err
			}
			depth, convErr := strconv.Atoi(value)
			if convErr != nil || depth <= 0 {
				return opts, fmt.Errorf("--max-call-depth expects a positive integer, got %q", value)
			}
			opts.maxCallDepth = depth
			i += skip
			continue
		}
		return opts, fmt.Errorf("unknown flag %s", arg)
	}
	if len(positional) > 0 {
		opts.candidate = positional[0]
		opts.args = positional[1:]
	}
	return opts, nil
}

func loadManifestFrom(start string) (*driver.Manifest, error) {
	path, err := driver.FindManifest(start)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errManifestNotFound
	}
	return driver.LoadManifest(path)
}

// resolveProgram maps a command's first positional to a program file. A
// manifest target takes precedence over a file of the same name; with no
// positional the manifest's first target is used.
func resolveProgram(candidate string) (*programSource, error) {
	manifest, err := loadManifestFrom(".")
	if err != nil {
		switch {
		case errors.Is(err, errManifestNotFound):
			manifest = nil
		case candidate != "" && looksLikePathCandidate(candidate):
			fmt.Fprintf(os.Stderr, "warning: unable to load manifest (%v); falling back to direct file execution\n", err)
			manifest = nil
		default:
			return nil, fmt.Errorf("failed to load manifest: %w", err)
		}
	}

	if candidate == "" {
		if manifest == nil {
			return nil, fmt.Errorf("a manifest target or program file is required (%w)", errManifestNotFound)
		}
		target, err := manifest.DefaultTarget()
		if err != nil {
			return nil, fmt.Errorf("manifest error: %w", err)
		}
		return &programSource{path: manifest.ProgramPath(target), manifest: manifest, target: target}, nil
	}
	if candidate != driver.StdinPath {
		if target, ok := manifest.FindTarget(candidate); ok {
			return &programSource{path: manifest.ProgramPath(target), manifest: manifest, target: target}, nil
		}
	}
	return &programSource{path: candidate, manifest: manifest}, nil
}

func looksLikePathCandidate(s string) bool {
	return s == driver.StdinPath || strings.HasSuffix(s, ".json") || strings.ContainsRune(s, filepath.Separator)
}

func (s *programSource) config() driver.Config {
	if s.manifest == nil {
		return driver.Config{}
	}
	return s.manifest.RunConfig(s.target)
}

func (s *programSource) label() string {
	if s.path == driver.StdinPath {
		return "<stdin>"
	}
	return s.path
}

// reportError prints err and returns the matching exit status. Positions in
// a Bril program refer to its text form, so srcPath names that file when the
// caller has it.
func reportError(err error, srcPath string) int {
	describeError(err, srcPath, readSource(srcPath))
	if _, ok := diag.As(err); ok {
		return exitIRError
	}
	return exitUsage
}

func describeError(err error, srcPath, src string) {
	fmt.Fprintln(os.Stderr, diag.Describe(err, srcPath))
	if src == "" {
		return
	}
	if snippet := diag.Snippet(err, src, isTerminal(os.Stderr)); snippet != "" {
		fmt.Fprint(os.Stderr, snippet)
	}
}

func readSource(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: unable to read %s: %v\n", path, err)
		return ""
	}
	return string(data)
}

// Package driver wires the stages together: it loads programs, builds and
// checks them, runs them, and reads the project manifest, lockfile and
// fixture expectations that the CLI and tests drive runs from.
package driver

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"bril/interpreter-go/pkg/ast"
	"bril/interpreter-go/pkg/blocks"
	"bril/interpreter-go/pkg/diag"
	"bril/interpreter-go/pkg/interpreter"
	"bril/interpreter-go/pkg/typechecker"
)

// StdinPath selects standard input as the program source.
const StdinPath = "-"

// Config carries the settings of one run.
type Config struct {
	Entry         string
	Args          []string
	Profiling     bool
	CheckLeaks    bool
	MaxCallDepth  int
	MaxAllocation int64
	Out           io.Writer
	ProfileOut    io.Writer
	Logger        *zerolog.Logger
}

func (c Config) logger() zerolog.Logger {
	if c.Logger == nil {
		return zerolog.Nop()
	}
	return c.Logger.With().Str("component", "driver").Logger()
}

// LoadProgram decodes a JSON program from path, or from stdin when path is "-".
func LoadProgram(path string, stdin io.Reader) (*ast.Program, error) {
	var r io.Reader
	if path == StdinPath {
		if stdin == nil {
			stdin = os.Stdin
		}
		r = stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("loader: open %s: %w", path, err)
		}
		defer file.Close()
		r = file
	}
	prog, err := ast.DecodeProgram(r)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	return prog, nil
}

// Prepare builds blocks for prog and type-checks it, failing on the first error.
func Prepare(prog *ast.Program, entry string) (*typechecker.Checked, error) {
	built, err := blocks.Build(prog)
	if err != nil {
		return nil, err
	}
	return typechecker.Check(built, entry)
}

// CheckAll reports every static problem in prog. Construction errors abort
// before type checking, so they appear alone.
func CheckAll(prog *ast.Program, entry string) typechecker.Result {
	built, err := blocks.Build(prog)
	if err != nil {
		perr, ok := diag.As(err)
		if !ok {
			perr = diag.New(diag.MalformedInstruction, "%v", err)
		}
		return typechecker.Result{Errors: []*diag.PositionalError{perr}}
	}
	return typechecker.CheckAll(built, entry)
}

// Run checks prog and executes it with cfg.
func Run(prog *ast.Program, cfg Config) (interpreter.Result, error) {
	log := cfg.logger()
	checked, err := Prepare(prog, cfg.Entry)
	if err != nil {
		log.Debug().Err(err).Msg("static check failed")
		return interpreter.Result{}, err
	}
	log.Debug().
		Int("functions", len(checked.Program.Functions)).
		Str("entry", checked.Entry.Name).
		Msg("program checked")
	return interpreter.Run(checked, interpreter.Options{
		Args:          cfg.Args,
		Out:           cfg.Out,
		ProfileOut:    cfg.ProfileOut,
		Profiling:     cfg.Profiling,
		MaxCallDepth:  cfg.MaxCallDepth,
		CheckLeaks:    cfg.CheckLeaks,
		MaxAllocation: cfg.MaxAllocation,
		Logger:        cfg.Logger,
	})
}

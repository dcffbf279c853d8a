package interpreter

import (
	"io"

	"github.com/rs/zerolog"

	"bril/interpreter-go/pkg/runtime"
)

// DefaultMaxCallDepth bounds the frame stack when Options.MaxCallDepth is zero.
const DefaultMaxCallDepth = 1 << 16

// Options configures one run.
type Options struct {
	// Args are the raw entry-function arguments, parsed against its parameter types.
	Args []string
	// Out receives print output. Nil discards it.
	Out io.Writer
	// ProfileOut receives the dynamic instruction count when Profiling is set.
	ProfileOut io.Writer
	Profiling  bool
	// MaxCallDepth caps the number of live frames; zero selects DefaultMaxCallDepth.
	MaxCallDepth int
	// CheckLeaks turns unfreed allocations at normal completion into MemoryLeak.
	CheckLeaks bool
	// MaxAllocation caps the cells of one allocation; zero selects runtime.DefaultMaxAllocation.
	MaxAllocation int64
	// Logger receives debug events and, at trace level, one event per instruction.
	Logger *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.Out == nil {
		o.Out = io.Discard
	}
	if o.ProfileOut == nil {
		o.ProfileOut = io.Discard
	}
	if o.MaxCallDepth <= 0 {
		o.MaxCallDepth = DefaultMaxCallDepth
	}
	if o.MaxAllocation <= 0 {
		o.MaxAllocation = runtime.DefaultMaxAllocation
	}
	return o
}

// Stats summarises a finished or failed run.
type Stats struct {
	Instructions uint64
	MaxDepth     int
	Allocations  int
}

// Result is the outcome of a successful run.
type Result struct {
	ExitCode int
	Stats    Stats
}

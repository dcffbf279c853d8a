package interpreter

import (
	"fmt"

	"github.com/rs/zerolog"

	"bril/interpreter-go/pkg/ast"
	"bril/interpreter-go/pkg/blocks"
	"bril/interpreter-go/pkg/diag"
	"bril/interpreter-go/pkg/runtime"
	"bril/interpreter-go/pkg/typechecker"
)

// frame is one activation record. prev is the block control arrived from,
// used by phi; it is -1 before the first transfer.
type frame struct {
	fn      *blocks.Function
	block   int
	ip      int
	prev    int
	env     []runtime.Value
	retDest int
}

// Machine is the execution state of a single run.
type Machine struct {
	prog   *typechecker.Checked
	opts   Options
	heap   *runtime.Heap
	frames []frame
	log    zerolog.Logger
	stats  Stats
	exit   int64
	done   bool
}

// New prepares a run of prog. A Machine runs at most once.
func New(prog *typechecker.Checked, opts Options) *Machine {
	opts = opts.withDefaults()
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Machine{
		prog: prog,
		opts: opts,
		heap: runtime.NewHeap(opts.MaxAllocation),
		log:  logger.With().Str("component", "engine").Logger(),
	}
}

// Run executes prog's entry function with opts.
func Run(prog *typechecker.Checked, opts Options) (Result, error) {
	return New(prog, opts).Run()
}

// Stats reports counters accumulated so far; valid after Run returns, even
// when it failed.
func (m *Machine) Stats() Stats {
	s := m.stats
	s.Allocations = m.heap.Allocations()
	return s
}

// Run executes the entry function to completion.
func (m *Machine) Run() (Result, error) {
	if m.done {
		return Result{}, fmt.Errorf("interpreter: machine already ran")
	}
	m.done = true
	if m.prog == nil || m.prog.Entry == nil {
		return Result{}, diag.New(diag.BadMain, "program has no checked entry function")
	}
	entry := m.prog.Entry
	env, err := m.bindEntryArgs(entry)
	if err != nil {
		return Result{}, err
	}
	m.log.Debug().Str("entry", entry.Name).Int("args", len(m.opts.Args)).Msg("run started")
	m.push(entry, env, blocks.NoSlot)

	if err := m.loop(); err != nil {
		m.log.Debug().Err(err).Uint64("instructions", m.stats.Instructions).Msg("run failed")
		return Result{}, err
	}
	if m.opts.CheckLeaks {
		if live := m.heap.Live(); len(live) > 0 {
			return Result{}, diag.New(diag.MemoryLeak, "%d allocation(s) never freed, first is #%d of %d %s cell(s)",
				len(live), live[0].ID, len(live[0].Data), live[0].Elem).Dynamic()
		}
	}
	if m.opts.Profiling {
		if _, err := fmt.Fprintf(m.opts.ProfileOut, "%d\n", m.stats.Instructions); err != nil {
			return Result{}, diag.New(diag.OutputFailure, "write profile: %v", err).Wrap(err).Dynamic()
		}
	}
	stats := m.Stats()
	m.log.Debug().
		Int64("exit", m.exit).
		Uint64("instructions", stats.Instructions).
		Int("max_depth", stats.MaxDepth).
		Int("allocations", stats.Allocations).
		Msg("run finished")
	return Result{ExitCode: int(m.exit), Stats: stats}, nil
}

func (m *Machine) bindEntryArgs(entry *blocks.Function) ([]runtime.Value, error) {
	args := m.opts.Args
	if len(args) != len(entry.Params) {
		return nil, diag.New(diag.BadInputArguments, "@%s expects %d argument(s), got %d",
			entry.Name, len(entry.Params), len(args)).Dynamic()
	}
	env := make([]runtime.Value, len(entry.Vars))
	for i, param := range entry.Params {
		v, err := runtime.Parse(args[i], param.Type)
		if err != nil {
			return nil, diag.New(diag.BadInputArguments, "argument %s: %v", param.Name, err).Wrap(err).Dynamic()
		}
		env[param.Slot] = v
	}
	return env, nil
}

func (m *Machine) push(fn *blocks.Function, env []runtime.Value, retDest int) {
	m.frames = append(m.frames, frame{fn: fn, prev: -1, env: env, retDest: retDest})
	if depth := len(m.frames); depth > m.stats.MaxDepth {
		m.stats.MaxDepth = depth
	}
}

func (m *Machine) loop() error {
	for len(m.frames) > 0 {
		fr := &m.frames[len(m.frames)-1]
		blk := &fr.fn.Blocks[fr.block]
		if fr.ip >= len(blk.Instrs) {
			// Only non-final blocks can run out; the builder terminates the last one.
			fr.prev = fr.block
			fr.block++
			fr.ip = 0
			continue
		}
		in := &blk.Instrs[fr.ip]
		fr.ip++
		m.stats.Instructions++
		if ev := m.log.Trace(); ev.Enabled() {
			ev.Str("func", fr.fn.Name).
				Str("block", blk.Name()).
				Int("offset", fr.ip-1).
				Str("op", in.Op.String()).
				Int("depth", len(m.frames)).
				Bool("implicit", in.Implicit).
				Msg("step")
		}
		if err := m.step(fr, in); err != nil {
			return m.locate(fr, in, err)
		}
	}
	return nil
}

func (m *Machine) locate(fr *frame, in *blocks.Instr, err error) error {
	perr, ok := diag.As(err)
	if !ok {
		return err
	}
	return perr.Located(in.Span).InFunction(fr.fn.Name).Dynamic()
}

func (m *Machine) jump(fr *frame, target int) {
	fr.prev = fr.block
	fr.block = target
	fr.ip = 0
}

func (m *Machine) get(fr *frame, slot int) (runtime.Value, error) {
	v := fr.env[slot]
	if !v.Bound() {
		return runtime.Value{}, diag.New(diag.UndefinedVariable, "variable %s is unbound", fr.fn.VarName(slot)).Dynamic()
	}
	return v, nil
}

func (m *Machine) args(fr *frame, in *blocks.Instr) ([]runtime.Value, error) {
	vals := make([]runtime.Value, len(in.Args))
	for i, slot := range in.Args {
		v, err := m.get(fr, slot)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (m *Machine) call(fr *frame, in *blocks.Instr) error {
	if len(m.frames) >= m.opts.MaxCallDepth {
		return diag.New(diag.StackOverflow, "call depth exceeds %d", m.opts.MaxCallDepth).Dynamic()
	}
	vals, err := m.args(fr, in)
	if err != nil {
		return err
	}
	callee := m.prog.Program.Functions[in.Callee]
	env := make([]runtime.Value, len(callee.Vars))
	for i, p := range callee.Params {
		env[p.Slot] = vals[i]
	}
	m.push(callee, env, in.Dest)
	return nil
}

func (m *Machine) ret(fr *frame, in *blocks.Instr) error {
	var result runtime.Value
	if len(in.Args) == 1 {
		v, err := m.get(fr, in.Args[0])
		if err != nil {
			return err
		}
		result = v
	}
	retDest := fr.retDest
	m.frames = m.frames[:len(m.frames)-1]
	if len(m.frames) == 0 {
		if result.Kind == runtime.KindInt {
			m.exit = result.Int
		}
		return nil
	}
	if retDest != blocks.NoSlot {
		m.frames[len(m.frames)-1].env[retDest] = result
	}
	return nil
}

func (m *Machine) phi(fr *frame, in *blocks.Instr) error {
	for i, target := range in.Targets {
		if target != fr.prev {
			continue
		}
		// An unbound incoming value leaves the destination unbound.
		fr.env[in.Dest] = fr.env[in.Args[i]]
		return nil
	}
	from := "function entry"
	if fr.prev >= 0 {
		from = "." + fr.fn.Blocks[fr.prev].Name()
	}
	return diag.New(diag.PhiNoMatch, "phi for %s has no incoming value from %s", in.DestName, from).Dynamic()
}

func (m *Machine) print(fr *frame, in *blocks.Instr) error {
	vals, err := m.args(fr, in)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(m.opts.Out, runtime.FormatLine(vals)); err != nil {
		return diag.New(diag.OutputFailure, "write output: %v", err).Wrap(err).Dynamic()
	}
	return nil
}

func elemType(in *blocks.Instr) ast.Type {
	elem, _ := in.Type.Elem()
	return elem
}

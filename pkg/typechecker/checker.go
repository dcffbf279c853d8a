package typechecker

import (
	"bril/interpreter-go/pkg/ast"
	"bril/interpreter-go/pkg/blocks"
	"bril/interpreter-go/pkg/cfg"
	"bril/interpreter-go/pkg/diag"
)

// DefaultEntry is the entry function used when none is configured.
const DefaultEntry = "main"

// Checked is a program that passed every static rule. It is the only input
// the execution engine accepts.
type Checked struct {
	Program *blocks.Program
	Entry   *blocks.Function
	// Types holds the type of every variable slot, indexed by function index.
	Types [][]ast.Type
}

// SlotType returns the declared type of a variable slot in function fn.
func (c *Checked) SlotType(fn, slot int) ast.Type {
	if fn < 0 || fn >= len(c.Types) || slot < 0 || slot >= len(c.Types[fn]) {
		return ast.Void
	}
	return c.Types[fn][slot]
}

// Note is an advisory finding that does not reject the program.
type Note struct {
	Function string
	Block    string
	Span     ast.Span
	Message  string
}

// Result collects everything CheckAll found.
type Result struct {
	Checked *Checked
	Errors  []*diag.PositionalError
	Notes   []Note
}

// OK reports whether the program was accepted.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Check validates prog and returns the first violation found.
func Check(prog *blocks.Program, entry string) (*Checked, error) {
	result := CheckAll(prog, entry)
	if len(result.Errors) > 0 {
		return nil, result.Errors[0]
	}
	return result.Checked, nil
}

// CheckAll validates prog, reporting at most one error per instruction, and
// adds a note for each block no path from the function entry reaches.
func CheckAll(prog *blocks.Program, entry string) Result {
	if prog == nil {
		return Result{Errors: []*diag.PositionalError{diag.New(diag.MalformedInstruction, "nil program")}}
	}
	if entry == "" {
		entry = DefaultEntry
	}
	c := &Checker{prog: prog, entry: entry, types: make([][]ast.Type, len(prog.Functions))}
	for _, fn := range prog.Functions {
		c.checkFunction(fn)
		c.collectNotes(fn)
	}
	entryFn := c.checkEntry()
	result := Result{Errors: c.errors, Notes: c.notes}
	if len(c.errors) == 0 {
		result.Checked = &Checked{Program: prog, Entry: entryFn, Types: c.types}
	}
	return result
}

// Checker accumulates diagnostics for one program.
type Checker struct {
	prog   *blocks.Program
	entry  string
	types  [][]ast.Type
	errors []*diag.PositionalError
	notes  []Note
}

// funcEnv is the per-function typing state.
type funcEnv struct {
	fn       *blocks.Function
	types    []ast.Type
	declared []bool
	assigned []bool
}

func (c *Checker) report(fn *blocks.Function, span ast.Span, err *diag.PositionalError) {
	c.errors = append(c.errors, err.Located(span).InFunction(fn.Name))
}

func (c *Checker) checkFunction(fn *blocks.Function) {
	env := &funcEnv{
		fn:       fn,
		types:    make([]ast.Type, len(fn.Vars)),
		declared: make([]bool, len(fn.Vars)),
		assigned: make([]bool, len(fn.Vars)),
	}
	for _, p := range fn.Params {
		env.types[p.Slot] = p.Type
		env.declared[p.Slot] = true
		env.assigned[p.Slot] = true
	}

	// Every variable has exactly one type per function.
	for bi := range fn.Blocks {
		for ii := range fn.Blocks[bi].Instrs {
			in := &fn.Blocks[bi].Instrs[ii]
			if !in.HasDest() {
				continue
			}
			if env.declared[in.Dest] && env.types[in.Dest] != in.Type {
				c.report(fn, in.Span, diag.New(diag.TypeMismatch,
					"variable %s assigned type %s, previously %s", in.DestName, in.Type, env.types[in.Dest]))
				continue
			}
			env.types[in.Dest] = in.Type
			env.declared[in.Dest] = true
		}
	}

	for bi := range fn.Blocks {
		for ii := range fn.Blocks[bi].Instrs {
			in := &fn.Blocks[bi].Instrs[ii]
			if err := c.checkInstr(env, in); err != nil {
				c.report(fn, in.Span, err)
			}
			if in.HasDest() {
				env.assigned[in.Dest] = true
			}
		}
	}
	c.types[fn.Index] = env.types
}

func (c *Checker) checkInstr(env *funcEnv, in *blocks.Instr) *diag.PositionalError {
	if in.Implicit {
		return nil
	}
	sig, ok := signatures[in.Op]
	if !ok {
		return diag.New(diag.MalformedInstruction, "unsupported opcode %s", in.Op)
	}
	ops := in.Source.Operands()
	switch sig.shape {
	case shapeValue:
		if !in.HasDest() {
			return diag.New(diag.MalformedInstruction, "%s requires a destination", in.Op)
		}
	case shapeEffect:
		if in.HasDest() {
			return diag.New(diag.MalformedInstruction, "%s does not produce a value", in.Op)
		}
	}
	if in.Op != ast.OpCall && len(ops.Funcs) > 0 {
		return diag.New(diag.MalformedInstruction, "%s takes no function operands", in.Op)
	}
	if want := expectsLabels(in.Op); want >= 0 && len(ops.Labels) != want {
		return diag.New(diag.MalformedInstruction, "%s expects %d label(s), got %d", in.Op, want, len(ops.Labels))
	}
	for _, slot := range in.Args {
		if in.Op == ast.OpPhi {
			if !env.declared[slot] {
				return diag.New(diag.UndefinedVariable, "phi argument %s is never assigned", env.fn.VarName(slot))
			}
			continue
		}
		if !env.assigned[slot] {
			return diag.New(diag.UndefinedVariable, "variable %s used before assignment", env.fn.VarName(slot))
		}
	}
	if !sig.special {
		if err := env.arity(in, len(sig.args)); err != nil {
			return err
		}
		for i, want := range sig.args {
			if err := env.expectArg(in, i, want); err != nil {
				return err
			}
		}
		return env.expectDest(in, sig.result)
	}
	return c.checkSpecial(env, in, ops)
}

func (c *Checker) checkSpecial(env *funcEnv, in *blocks.Instr, ops ast.Operands) *diag.PositionalError {
	switch in.Op {
	case ast.OpConst:
		lit := in.Literal
		if !in.Type.IsScalar() || lit.Kind != in.Type.Prim {
			return diag.New(diag.TypeMismatch, "constant %s of type %s cannot hold %s literal %s", in.DestName, in.Type, lit.Kind, lit)
		}
		return nil
	case ast.OpID:
		if err := env.arity(in, 1); err != nil {
			return err
		}
		return env.expectArg(in, 0, in.Type)
	case ast.OpPrint:
		return nil
	case ast.OpRet:
		return env.checkReturn(in)
	case ast.OpCall:
		return c.checkCall(env, in, ops)
	case ast.OpAlloc:
		if err := env.arity(in, 1); err != nil {
			return err
		}
		if err := env.expectArg(in, 0, ast.Int); err != nil {
			return err
		}
		if !in.Type.IsPointer() {
			return diag.New(diag.TypeMismatch, "alloc destination %s must be a pointer, got %s", in.DestName, in.Type)
		}
		return nil
	case ast.OpFree:
		if err := env.arity(in, 1); err != nil {
			return err
		}
		_, err := env.pointerArg(in, 0)
		return err
	case ast.OpStore:
		if err := env.arity(in, 2); err != nil {
			return err
		}
		elem, err := env.pointerArg(in, 0)
		if err != nil {
			return err
		}
		return env.expectArg(in, 1, elem)
	case ast.OpLoad:
		if err := env.arity(in, 1); err != nil {
			return err
		}
		elem, err := env.pointerArg(in, 0)
		if err != nil {
			return err
		}
		return env.expectDest(in, elem)
	case ast.OpPtrAdd:
		if err := env.arity(in, 2); err != nil {
			return err
		}
		if _, err := env.pointerArg(in, 0); err != nil {
			return err
		}
		if err := env.expectArg(in, 1, ast.Int); err != nil {
			return err
		}
		return env.expectDest(in, env.types[in.Args[0]])
	case ast.OpPhi:
		if len(ops.Args) != len(ops.Labels) {
			return diag.New(diag.MalformedInstruction, "phi has %d argument(s) but %d label(s)", len(ops.Args), len(ops.Labels))
		}
		for i := range in.Args {
			if err := env.expectArg(in, i, in.Type); err != nil {
				return err
			}
		}
		return nil
	}
	return diag.New(diag.MalformedInstruction, "unsupported opcode %s", in.Op)
}

func (c *Checker) checkCall(env *funcEnv, in *blocks.Instr, ops ast.Operands) *diag.PositionalError {
	if len(ops.Funcs) != 1 || in.Callee == blocks.NoSlot {
		return diag.New(diag.MalformedInstruction, "call expects exactly one function operand, got %d", len(ops.Funcs))
	}
	callee := c.prog.Functions[in.Callee]
	if len(in.Args) != len(callee.Params) {
		return diag.New(diag.ArityMismatch, "@%s expects %d argument(s), got %d", callee.Name, len(callee.Params), len(in.Args))
	}
	for i, param := range callee.Params {
		got := env.types[in.Args[i]]
		if got != param.Type {
			return diag.New(diag.TypeMismatch, "argument %s to @%s has type %s, parameter %s expects %s",
				env.fn.VarName(in.Args[i]), callee.Name, got, param.Name, param.Type)
		}
	}
	if !in.HasDest() {
		return nil
	}
	if callee.Return.IsVoid() {
		return diag.New(diag.TypeMismatch, "@%s returns no value but its result is bound to %s", callee.Name, in.DestName)
	}
	if in.Type != callee.Return {
		return diag.New(diag.TypeMismatch, "@%s returns %s but %s is declared %s", callee.Name, callee.Return, in.DestName, in.Type)
	}
	return nil
}

func (env *funcEnv) checkReturn(in *blocks.Instr) *diag.PositionalError {
	ret := env.fn.Return
	switch {
	case ret.IsVoid() && len(in.Args) > 0:
		return diag.New(diag.TypeMismatch, "@%s returns no value but ret has %d argument(s)", env.fn.Name, len(in.Args))
	case ret.IsVoid():
		return nil
	case len(in.Args) == 0:
		return diag.New(diag.MissingReturn, "@%s must return a value of type %s", env.fn.Name, ret)
	}
	if err := env.arity(in, 1); err != nil {
		return err
	}
	return env.expectArg(in, 0, ret)
}

func (env *funcEnv) arity(in *blocks.Instr, want int) *diag.PositionalError {
	if len(in.Args) != want {
		return diag.New(diag.ArityMismatch, "%s expects %d argument(s), got %d", in.Op, want, len(in.Args))
	}
	return nil
}

func (env *funcEnv) expectArg(in *blocks.Instr, i int, want ast.Type) *diag.PositionalError {
	got := env.types[in.Args[i]]
	if got != want {
		return diag.New(diag.TypeMismatch, "%s argument %s has type %s, expected %s", in.Op, env.fn.VarName(in.Args[i]), got, want)
	}
	return nil
}

func (env *funcEnv) expectDest(in *blocks.Instr, want ast.Type) *diag.PositionalError {
	if want.IsVoid() {
		return nil
	}
	if in.Type != want {
		return diag.New(diag.TypeMismatch, "%s produces %s but %s is declared %s", in.Op, want, in.DestName, in.Type)
	}
	return nil
}

func (env *funcEnv) pointerArg(in *blocks.Instr, i int) (ast.Type, *diag.PositionalError) {
	got := env.types[in.Args[i]]
	elem, ok := got.Elem()
	if !ok {
		return ast.Void, diag.New(diag.TypeMismatch, "%s argument %s must be a pointer, got %s", in.Op, env.fn.VarName(in.Args[i]), got)
	}
	return elem, nil
}

func (c *Checker) checkEntry() *blocks.Function {
	fn, ok := c.prog.Lookup(c.entry)
	if !ok {
		c.errors = append(c.errors, diag.New(diag.BadMain, "no entry function @%s", c.entry))
		return nil
	}
	for _, p := range fn.Params {
		if !p.Type.IsScalar() {
			c.report(fn, fn.Span, diag.New(diag.BadMain, "entry parameter %s has non-scalar type %s", p.Name, p.Type))
			return nil
		}
	}
	if !fn.Return.IsVoid() && fn.Return != ast.Int {
		c.report(fn, fn.Span, diag.New(diag.BadMain, "entry function must return nothing or int, got %s", fn.Return))
		return nil
	}
	return fn
}

func (c *Checker) collectNotes(fn *blocks.Function) {
	g := cfg.Build(fn)
	for _, idx := range g.Unreachable() {
		block := &fn.Blocks[idx]
		note := Note{Function: fn.Name, Block: block.Name(), Message: "block is unreachable"}
		if len(block.Instrs) > 0 {
			note.Span = block.Instrs[0].Span
		}
		c.notes = append(c.notes, note)
	}
}

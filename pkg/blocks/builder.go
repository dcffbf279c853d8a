package blocks

import (
	"fmt"

	"bril/interpreter-go/pkg/ast"
	"bril/interpreter-go/pkg/diag"
)

// Build converts every function of prog into block form. The first
// construction error aborts the build.
func Build(prog *ast.Program) (*Program, error) {
	if prog == nil {
		return nil, diag.New(diag.MalformedInstruction, "nil program")
	}
	out := &Program{
		Functions: make([]*Function, 0, len(prog.Functions)),
		Index:     make(map[string]int, len(prog.Functions)),
	}
	for i, fn := range prog.Functions {
		if fn == nil {
			return nil, diag.New(diag.MalformedInstruction, "function %d is nil", i)
		}
		if _, exists := out.Index[fn.Name]; exists {
			return nil, diag.At(fn.Span(), diag.DuplicateFunction, "duplicate function @%s", fn.Name)
		}
		out.Index[fn.Name] = i
	}
	for i, fn := range prog.Functions {
		built, err := buildFunction(fn, i, out.Index)
		if err != nil {
			return nil, err
		}
		out.Functions = append(out.Functions, built)
	}
	return out, nil
}

type functionBuilder struct {
	fn      *Function
	src     *ast.Function
	funcs   map[string]int
	pending []pendingLabels
}

type pendingLabels struct {
	block int
	instr int
	names []string
	span  ast.Span
}

func buildFunction(src *ast.Function, index int, funcs map[string]int) (*Function, error) {
	b := &functionBuilder{
		fn: &Function{
			Name:   src.Name,
			Index:  index,
			Return: src.Return,
			Labels: make(map[string]int),
			Span:   src.Span(),
			Source: src,
			slots:  make(map[string]int),
		},
		src:   src,
		funcs: funcs,
	}
	for _, arg := range src.Args {
		if _, dup := b.fn.slots[arg.Name]; dup {
			return nil, b.errorf(src.Span(), diag.MalformedInstruction, "duplicate parameter %s", arg.Name)
		}
		b.fn.Params = append(b.fn.Params, Param{Name: arg.Name, Type: arg.Type, Slot: b.slot(arg.Name)})
	}
	if err := b.partition(); err != nil {
		return nil, err
	}
	if err := b.resolveLabels(); err != nil {
		return nil, err
	}
	return b.fn, nil
}

// partition performs the single ordered scan that forms blocks.
func (b *functionBuilder) partition() error {
	var current *Block
	startBlock := func() *Block {
		b.fn.Blocks = append(b.fn.Blocks, Block{Index: len(b.fn.Blocks)})
		return &b.fn.Blocks[len(b.fn.Blocks)-1]
	}
	for _, code := range b.src.Body {
		switch el := code.(type) {
		case *ast.Label:
			if current == nil || len(current.Instrs) > 0 {
				current = startBlock()
			}
			if _, dup := b.fn.Labels[el.Name]; dup {
				return b.errorf(el.Span(), diag.DuplicateLabel, "duplicate label .%s", el.Name)
			}
			b.fn.Labels[el.Name] = current.Index
			current.Labels = append(current.Labels, el.Name)
		case ast.Instruction:
			if current == nil {
				current = startBlock()
			}
			instr, err := b.resolve(el, current.Index, len(current.Instrs))
			if err != nil {
				return err
			}
			current.Instrs = append(current.Instrs, instr)
			if instr.Op.IsTerminator() {
				current = nil
			}
		default:
			return b.errorf(ast.Span{}, diag.MalformedInstruction, "unexpected body element %T", code)
		}
	}
	if current == nil && len(b.fn.Blocks) > 0 {
		return nil
	}
	if current == nil {
		current = startBlock()
	}
	if !b.fn.Return.IsVoid() {
		span := b.src.Span()
		if n := len(current.Instrs); n > 0 {
			span = current.Instrs[n-1].Span
		}
		return b.errorf(span, diag.MissingReturn, "function @%s of type %s can reach its end without returning", b.fn.Name, b.fn.Return)
	}
	current.Instrs = append(current.Instrs, Instr{
		Op:       ast.OpRet,
		Dest:     NoSlot,
		Callee:   NoSlot,
		Implicit: true,
	})
	return nil
}

func (b *functionBuilder) resolve(src ast.Instruction, block, offset int) (Instr, error) {
	ops := src.Operands()
	instr := Instr{
		Op:     src.Opcode(),
		Source: src,
		Dest:   NoSlot,
		Callee: NoSlot,
		Span:   src.Span(),
	}
	if len(ops.Args) > 0 {
		instr.Args = make([]int, len(ops.Args))
		for i, name := range ops.Args {
			instr.Args[i] = b.slot(name)
		}
	}
	if dest, typ, ok := ast.Destination(src); ok {
		instr.Dest = b.slot(dest)
		instr.DestName = dest
		instr.Type = typ
	}
	if c, ok := src.(*ast.Constant); ok {
		instr.Literal = c.Value
	}
	if instr.Op == ast.OpCall && len(ops.Funcs) == 1 {
		idx, ok := b.funcs[ops.Funcs[0]]
		if !ok {
			return Instr{}, b.errorf(instr.Span, diag.UnknownFunction, "call to undefined function @%s", ops.Funcs[0])
		}
		instr.Callee = idx
	}
	if instr.Op.TakesLabels() && len(ops.Labels) > 0 {
		b.pending = append(b.pending, pendingLabels{block: block, instr: offset, names: ops.Labels, span: instr.Span})
	}
	return instr, nil
}

// resolveLabels rewrites label operands into block indices once every block exists.
func (b *functionBuilder) resolveLabels() error {
	for _, p := range b.pending {
		targets := make([]int, len(p.names))
		for i, name := range p.names {
			idx, ok := b.fn.Labels[name]
			if !ok {
				return b.errorf(p.span, diag.UnknownLabel, "undefined label .%s", name)
			}
			targets[i] = idx
		}
		b.fn.Blocks[p.block].Instrs[p.instr].Targets = targets
	}
	b.pending = nil
	return nil
}

func (b *functionBuilder) slot(name string) int {
	if slot, ok := b.fn.slots[name]; ok {
		return slot
	}
	slot := len(b.fn.Vars)
	b.fn.slots[name] = slot
	b.fn.Vars = append(b.fn.Vars, name)
	return slot
}

func (b *functionBuilder) errorf(span ast.Span, kind diag.Kind, format string, args ...any) error {
	return diag.At(span, kind, format, args...).InFunction(b.fn.Name)
}

func syntheticName(index int) string {
	return fmt.Sprintf("b%d", index)
}

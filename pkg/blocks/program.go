package blocks

import (
	"bril/interpreter-go/pkg/ast"
)

// NoSlot marks an instruction without a destination, or an unresolved callee.
const NoSlot = -1

// Instr is one instruction with its operands resolved.
type Instr struct {
	Op ast.Opcode
	// Source is the decoded instruction; nil for an inferred return.
	Source   ast.Instruction
	Dest     int
	DestName string
	Type     ast.Type
	Args     []int
	Callee   int
	Targets  []int
	Literal  ast.Literal
	Span     ast.Span
	Implicit bool
}

// HasDest reports whether the instruction binds a variable.
func (in *Instr) HasDest() bool { return in.Dest != NoSlot }

// Block is a maximal straight-line run of instructions. Labels lists every
// label that names the block; consecutive labels share one block.
type Block struct {
	Index  int
	Labels []string
	Instrs []Instr
}

// Terminated reports whether the block ends in jmp, br or ret.
func (b *Block) Terminated() bool {
	if len(b.Instrs) == 0 {
		return false
	}
	return b.Instrs[len(b.Instrs)-1].Op.IsTerminator()
}

// Name returns the block's first label, or a synthetic name when it has none.
func (b *Block) Name() string {
	if len(b.Labels) > 0 {
		return b.Labels[0]
	}
	return syntheticName(b.Index)
}

// Param is a resolved function parameter. Parameters occupy the first slots.
type Param struct {
	Name string
	Type ast.Type
	Slot int
}

// Function is a body split into blocks. Block 0 is the entry block.
type Function struct {
	Name   string
	Index  int
	Params []Param
	Return ast.Type
	Blocks []Block
	// Labels maps label names to block indices; kept for diagnostics and tooling.
	Labels map[string]int
	// Vars lists variable names by slot.
	Vars   []string
	Span   ast.Span
	Source *ast.Function

	slots map[string]int
}

// Slot returns the slot assigned to a variable name.
func (f *Function) Slot(name string) (int, bool) {
	slot, ok := f.slots[name]
	return slot, ok
}

// VarName returns the variable held in slot.
func (f *Function) VarName(slot int) string {
	if slot < 0 || slot >= len(f.Vars) {
		return ""
	}
	return f.Vars[slot]
}

// InstructionCount returns the number of static instructions, inferred returns included.
func (f *Function) InstructionCount() int {
	total := 0
	for i := range f.Blocks {
		total += len(f.Blocks[i].Instrs)
	}
	return total
}

// Program is the whole-program function table.
type Program struct {
	Functions []*Function
	Index     map[string]int
}

// Lookup finds a function by name.
func (p *Program) Lookup(name string) (*Function, bool) {
	if p == nil {
		return nil, false
	}
	idx, ok := p.Index[name]
	if !ok {
		return nil, false
	}
	return p.Functions[idx], true
}

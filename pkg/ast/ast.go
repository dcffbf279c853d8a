package ast

import (
	"strconv"
)

// Program is the parsed input handed to the block builder. It is produced by
// an external front end (the JSON decoder in this package or a text parser)
// and is never mutated afterwards.
type Program struct {
	Functions []*Function
}

// Argument is a named, typed function parameter.
type Argument struct {
	Name string
	Type Type
}

// Function is a named routine whose body is a flat sequence of labels and
// instructions.
type Function struct {
	node
	Name   string
	Args   []Argument
	Return Type
	Body   []Code
}

// Code is one element of a function body: either a *Label or an Instruction.
type Code interface {
	Span() Span
	isCode()
}

// Label marks the position preceding the next instruction in a body.
type Label struct {
	node
	Name string
}

func (*Label) isCode() {}

// Operands holds the argument, function and label lists shared by value and
// effect operations.
type Operands struct {
	Args   []string
	Funcs  []string
	Labels []string
}

// Instruction is the closed variant of executable body elements.
type Instruction interface {
	Code
	Opcode() Opcode
	Operands() Operands
}

// Constant binds Dest to a literal.
type Constant struct {
	node
	Dest  string
	Type  Type
	Value Literal
}

func (*Constant) isCode() {}
func (*Constant) Opcode() Opcode { return OpConst }
func (*Constant) Operands() Operands { return Operands{} }

// ValueOperation computes a value and binds it to Dest.
type ValueOperation struct {
	node
	Op     Opcode
	Dest   string
	Type   Type
	Args   []string
	Funcs  []string
	Labels []string
}

func (*ValueOperation) isCode() {}
func (v *ValueOperation) Opcode() Opcode { return v.Op }
func (v *ValueOperation) Operands() Operands {
	return Operands{Args: v.Args, Funcs: v.Funcs, Labels: v.Labels}
}

// EffectOperation runs for its side effect and has no destination.
type EffectOperation struct {
	node
	Op     Opcode
	Args   []string
	Funcs  []string
	Labels []string
}

func (*EffectOperation) isCode() {}
func (e *EffectOperation) Opcode() Opcode { return e.Op }
func (e *EffectOperation) Operands() Operands {
	return Operands{Args: e.Args, Funcs: e.Funcs, Labels: e.Labels}
}

// Destination returns the bound variable of instr, if it has one.
func Destination(instr Instruction) (string, Type, bool) {
	switch v := instr.(type) {
	case *Constant:
		return v.Dest, v.Type, true
	case *ValueOperation:
		return v.Dest, v.Type, true
	default:
		return "", Void, false
	}
}

// Literal is the value of a const instruction.
type Literal struct {
	Kind  Primitive
	Int   int64
	Bool  bool
	Float float64
}

func IntLit(v int64) Literal { return Literal{Kind: PrimInt, Int: v} }
func BoolLit(v bool) Literal { return Literal{Kind: PrimBool, Bool: v} }
func FloatLit(v float64) Literal { return Literal{Kind: PrimFloat, Float: v} }

func (l Literal) String() string {
	switch l.Kind {
	case PrimInt:
		return strconv.FormatInt(l.Int, 10)
	case PrimBool:
		return strconv.FormatBool(l.Bool)
	case PrimFloat:
		return strconv.FormatFloat(l.Float, 'g', -1, 64)
	default:
		return "<none>"
	}
}

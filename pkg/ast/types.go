package ast

import (
	"fmt"
	"strings"
)

// Primitive enumerates the scalar kinds of the IR.
type Primitive uint8

const (
	PrimNone Primitive = iota
	PrimInt
	PrimBool
	PrimFloat
)

func (p Primitive) String() string {
	switch p {
	case PrimInt:
		return "int"
	case PrimBool:
		return "bool"
	case PrimFloat:
		return "float"
	default:
		return "void"
	}
}

// Type is a primitive wrapped in Depth pointer constructors, so ptr<ptr<int>>
// is {PrimInt, 2}. The zero Type stands for "no type" and is used for
// functions without a return value.
type Type struct {
	Prim  Primitive
	Depth int
}

var (
	Void  = Type{}
	Int   = Type{Prim: PrimInt}
	Bool  = Type{Prim: PrimBool}
	Float = Type{Prim: PrimFloat}
)

// Ptr wraps elem in one pointer constructor.
func Ptr(elem Type) Type {
	return Type{Prim: elem.Prim, Depth: elem.Depth + 1}
}

func (t Type) IsVoid() bool    { return t.Prim == PrimNone }
func (t Type) IsPointer() bool { return t.Prim != PrimNone && t.Depth > 0 }
func (t Type) IsScalar() bool  { return t.Prim != PrimNone && t.Depth == 0 }

// Elem returns the pointee type of a pointer; ok is false for non-pointers.
func (t Type) Elem() (Type, bool) {
	if !t.IsPointer() {
		return Void, false
	}
	return Type{Prim: t.Prim, Depth: t.Depth - 1}, true
}

func (t Type) String() string {
	if t.IsVoid() {
		return "void"
	}
	var b strings.Builder
	for i := 0; i < t.Depth; i++ {
		b.WriteString("ptr<")
	}
	b.WriteString(t.Prim.String())
	for i := 0; i < t.Depth; i++ {
		b.WriteByte('>')
	}
	return b.String()
}

// ParsePrimitive maps a primitive type name onto its Type.
func ParsePrimitive(name string) (Type, error) {
	switch name {
	case "int":
		return Int, nil
	case "bool":
		return Bool, nil
	case "float":
		return Float, nil
	default:
		return Void, fmt.Errorf("unknown type %q", name)
	}
}

// Package runtime holds the value model and heap used by the execution engine.
package runtime

import (
	"fmt"
	"strconv"

	"bril/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind uint8

const (
	// KindUnbound is the zero Value: a slot that holds nothing yet, or an
	// uninitialised heap cell.
	KindUnbound Kind = iota
	KindInt
	KindBool
	KindFloat
	KindPointer
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindPointer:
		return "pointer"
	default:
		return "unbound"
	}
}

// AllocID identifies one heap allocation. Identities are never reused.
type AllocID int

// Pointer addresses one cell of an allocation. Elem is the pointee type, so
// the pointer itself has type ptr<Elem>.
type Pointer struct {
	Alloc  AllocID
	Elem   ast.Type
	Offset int64
}

// Value is a tagged union over the IR's runtime values. It is small enough to
// be copied freely.
type Value struct {
	Kind  Kind
	Int   int64
	Bool  bool
	Float float64
	Ptr   Pointer
}

func IntValue(v int64) Value     { return Value{Kind: KindInt, Int: v} }
func BoolValue(v bool) Value     { return Value{Kind: KindBool, Bool: v} }
func FloatValue(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func PointerValue(p Pointer) Value {
	return Value{Kind: KindPointer, Ptr: p}
}

// Bound reports whether v holds a value.
func (v Value) Bound() bool { return v.Kind != KindUnbound }

// FromLiteral converts a const literal.
func FromLiteral(lit ast.Literal) Value {
	switch lit.Kind {
	case ast.PrimInt:
		return IntValue(lit.Int)
	case ast.PrimBool:
		return BoolValue(lit.Bool)
	case ast.PrimFloat:
		return FloatValue(lit.Float)
	default:
		return Value{}
	}
}

// Parse converts a raw command-line argument into a value of type typ.
func Parse(raw string, typ ast.Type) (Value, error) {
	if !typ.IsScalar() {
		return Value{}, fmt.Errorf("cannot pass %s from the command line", typ)
	}
	switch typ.Prim {
	case ast.PrimInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%q is not a valid int", raw)
		}
		return IntValue(n), nil
	case ast.PrimBool:
		switch raw {
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		}
		return Value{}, fmt.Errorf("%q is not a valid bool", raw)
	case ast.PrimFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%q is not a valid float", raw)
		}
		return FloatValue(f), nil
	}
	return Value{}, fmt.Errorf("unsupported type %s", typ)
}

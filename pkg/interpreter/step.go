package interpreter

import (
	"math"

	"bril/interpreter-go/pkg/ast"
	"bril/interpreter-go/pkg/blocks"
	"bril/interpreter-go/pkg/diag"
	"bril/interpreter-go/pkg/runtime"
)

// step executes one instruction of the top frame.
func (m *Machine) step(fr *frame, in *blocks.Instr) error {
	switch in.Op {
	case ast.OpConst:
		fr.env[in.Dest] = runtime.FromLiteral(in.Literal)
		return nil
	case ast.OpID:
		v, err := m.get(fr, in.Args[0])
		if err != nil {
			return err
		}
		fr.env[in.Dest] = v
		return nil
	case ast.OpNop:
		return nil
	case ast.OpJmp:
		m.jump(fr, in.Targets[0])
		return nil
	case ast.OpBr:
		cond, err := m.get(fr, in.Args[0])
		if err != nil {
			return err
		}
		if cond.Bool {
			m.jump(fr, in.Targets[0])
		} else {
			m.jump(fr, in.Targets[1])
		}
		return nil
	case ast.OpCall:
		return m.call(fr, in)
	case ast.OpRet:
		return m.ret(fr, in)
	case ast.OpPrint:
		return m.print(fr, in)
	case ast.OpPhi:
		return m.phi(fr, in)
	case ast.OpAlloc, ast.OpFree, ast.OpStore, ast.OpLoad, ast.OpPtrAdd:
		return m.memory(fr, in)
	case ast.OpNot:
		v, err := m.get(fr, in.Args[0])
		if err != nil {
			return err
		}
		fr.env[in.Dest] = runtime.BoolValue(!v.Bool)
		return nil
	}

	vals, err := m.args(fr, in)
	if err != nil {
		return err
	}
	if len(vals) != 2 {
		return diag.New(diag.MalformedInstruction, "%s expects 2 arguments, got %d", in.Op, len(vals))
	}
	a, b := vals[0], vals[1]
	var out runtime.Value
	switch in.Op {
	case ast.OpAdd:
		out = runtime.IntValue(a.Int + b.Int)
	case ast.OpSub:
		out = runtime.IntValue(a.Int - b.Int)
	case ast.OpMul:
		out = runtime.IntValue(a.Int * b.Int)
	case ast.OpDiv:
		if b.Int == 0 {
			return diag.New(diag.DivideByZero, "division by zero").Dynamic()
		}
		if a.Int == math.MinInt64 && b.Int == -1 {
			out = runtime.IntValue(math.MinInt64)
		} else {
			out = runtime.IntValue(a.Int / b.Int)
		}
	case ast.OpEq:
		out = runtime.BoolValue(a.Int == b.Int)
	case ast.OpLt:
		out = runtime.BoolValue(a.Int < b.Int)
	case ast.OpGt:
		out = runtime.BoolValue(a.Int > b.Int)
	case ast.OpLe:
		out = runtime.BoolValue(a.Int <= b.Int)
	case ast.OpGe:
		out = runtime.BoolValue(a.Int >= b.Int)
	case ast.OpAnd:
		out = runtime.BoolValue(a.Bool && b.Bool)
	case ast.OpOr:
		out = runtime.BoolValue(a.Bool || b.Bool)
	case ast.OpFAdd:
		out = runtime.FloatValue(a.Float + b.Float)
	case ast.OpFSub:
		out = runtime.FloatValue(a.Float - b.Float)
	case ast.OpFMul:
		out = runtime.FloatValue(a.Float * b.Float)
	case ast.OpFDiv:
		out = runtime.FloatValue(a.Float / b.Float)
	case ast.OpFEq:
		out = runtime.BoolValue(a.Float == b.Float)
	case ast.OpFLt:
		out = runtime.BoolValue(a.Float < b.Float)
	case ast.OpFGt:
		out = runtime.BoolValue(a.Float > b.Float)
	case ast.OpFLe:
		out = runtime.BoolValue(a.Float <= b.Float)
	case ast.OpFGe:
		out = runtime.BoolValue(a.Float >= b.Float)
	default:
		return diag.New(diag.MalformedInstruction, "unsupported opcode %s", in.Op)
	}
	fr.env[in.Dest] = out
	return nil
}

func (m *Machine) memory(fr *frame, in *blocks.Instr) error {
	vals, err := m.args(fr, in)
	if err != nil {
		return err
	}
	switch in.Op {
	case ast.OpAlloc:
		p, err := m.heap.Alloc(elemType(in), vals[0].Int)
		if err != nil {
			return err
		}
		fr.env[in.Dest] = runtime.PointerValue(p)
	case ast.OpFree:
		return m.heap.Free(vals[0].Ptr)
	case ast.OpStore:
		return m.heap.Store(vals[0].Ptr, vals[1])
	case ast.OpLoad:
		v, err := m.heap.Load(vals[0].Ptr)
		if err != nil {
			return err
		}
		fr.env[in.Dest] = v
	case ast.OpPtrAdd:
		fr.env[in.Dest] = runtime.PointerValue(runtime.PtrAdd(vals[0].Ptr, vals[1].Int))
	}
	return nil
}

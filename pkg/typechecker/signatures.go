package typechecker

import "bril/interpreter-go/pkg/ast"

// shape says whether an opcode must, may or must not bind a destination.
type shape uint8

const (
	shapeEffect shape = iota
	shapeValue
	shapeEither
)

// signature is a fixed opcode contract. Opcodes whose operand types depend on
// the destination or the callee have special=true and are checked by hand.
type signature struct {
	shape   shape
	args    []ast.Type
	result  ast.Type
	labels  int
	special bool
}

func fixed(result ast.Type, args ...ast.Type) signature {
	s := signature{shape: shapeEffect, args: args, result: result}
	if !result.IsVoid() {
		s.shape = shapeValue
	}
	return s
}

var (
	intBinary    = fixed(ast.Int, ast.Int, ast.Int)
	intCompare   = fixed(ast.Bool, ast.Int, ast.Int)
	boolBinary   = fixed(ast.Bool, ast.Bool, ast.Bool)
	floatBinary  = fixed(ast.Float, ast.Float, ast.Float)
	floatCompare = fixed(ast.Bool, ast.Float, ast.Float)
)

var signatures = map[ast.Opcode]signature{
	ast.OpAdd: intBinary,
	ast.OpSub: intBinary,
	ast.OpMul: intBinary,
	ast.OpDiv: intBinary,

	ast.OpEq: intCompare,
	ast.OpLt: intCompare,
	ast.OpGt: intCompare,
	ast.OpLe: intCompare,
	ast.OpGe: intCompare,

	ast.OpNot: fixed(ast.Bool, ast.Bool),
	ast.OpAnd: boolBinary,
	ast.OpOr:  boolBinary,

	ast.OpFAdd: floatBinary,
	ast.OpFSub: floatBinary,
	ast.OpFMul: floatBinary,
	ast.OpFDiv: floatBinary,

	ast.OpFEq: floatCompare,
	ast.OpFLt: floatCompare,
	ast.OpFGt: floatCompare,
	ast.OpFLe: floatCompare,
	ast.OpFGe: floatCompare,

	ast.OpJmp: {shape: shapeEffect, labels: 1},
	ast.OpBr:  {shape: shapeEffect, args: []ast.Type{ast.Bool}, labels: 2},
	ast.OpNop: {shape: shapeEffect},

	ast.OpConst:  {shape: shapeValue, special: true},
	ast.OpID:     {shape: shapeValue, special: true},
	ast.OpPrint:  {shape: shapeEffect, special: true},
	ast.OpRet:    {shape: shapeEffect, special: true},
	ast.OpCall:   {shape: shapeEither, special: true},
	ast.OpAlloc:  {shape: shapeValue, special: true},
	ast.OpFree:   {shape: shapeEffect, special: true},
	ast.OpStore:  {shape: shapeEffect, special: true},
	ast.OpLoad:   {shape: shapeValue, special: true},
	ast.OpPtrAdd: {shape: shapeValue, special: true},
	ast.OpPhi:    {shape: shapeValue, special: true},
}

// expectsLabels returns how many label operands op takes; phi is variadic (-1).
func expectsLabels(op ast.Opcode) int {
	if op == ast.OpPhi {
		return -1
	}
	return signatures[op].labels
}

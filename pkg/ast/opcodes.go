package ast

import "fmt"

// Opcode identifies an IR operation. The set is closed; decoding rejects
// names outside opcodeNames.
type Opcode uint8

const (
	OpInvalid Opcode = iota
	OpConst
	OpID
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpEq
	OpLt
	OpGt
	OpLe
	OpGe
	OpNot
	OpAnd
	OpOr
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFEq
	OpFLt
	OpFGt
	OpFLe
	OpFGe
	OpJmp
	OpBr
	OpCall
	OpRet
	OpPrint
	OpNop
	OpAlloc
	OpFree
	OpStore
	OpLoad
	OpPtrAdd
	OpPhi

	opcodeCount
)

var opcodeNames = [opcodeCount]string{
	OpInvalid: "<invalid>",
	OpConst:   "const",
	OpID:      "id",
	OpAdd:     "add",
	OpSub:     "sub",
	OpMul:     "mul",
	OpDiv:     "div",
	OpEq:      "eq",
	OpLt:      "lt",
	OpGt:      "gt",
	OpLe:      "le",
	OpGe:      "ge",
	OpNot:     "not",
	OpAnd:     "and",
	OpOr:      "or",
	OpFAdd:    "fadd",
	OpFSub:    "fsub",
	OpFMul:    "fmul",
	OpFDiv:    "fdiv",
	OpFEq:     "feq",
	OpFLt:     "flt",
	OpFGt:     "fgt",
	OpFLe:     "fle",
	OpFGe:     "fge",
	OpJmp:     "jmp",
	OpBr:      "br",
	OpCall:    "call",
	OpRet:     "ret",
	OpPrint:   "print",
	OpNop:     "nop",
	OpAlloc:   "alloc",
	OpFree:    "free",
	OpStore:   "store",
	OpLoad:    "load",
	OpPtrAdd:  "ptradd",
	OpPhi:     "phi",
}

var opcodesByName = func() map[string]Opcode {
	out := make(map[string]Opcode, opcodeCount)
	for op := OpConst; op < opcodeCount; op++ {
		out[opcodeNames[op]] = op
	}
	return out
}()

func (op Opcode) String() string {
	if op < opcodeCount {
		return opcodeNames[op]
	}
	return fmt.Sprintf("opcode(%d)", uint8(op))
}

// ParseOpcode resolves an opcode by its textual name.
func ParseOpcode(name string) (Opcode, error) {
	if op, ok := opcodesByName[name]; ok {
		return op, nil
	}
	return OpInvalid, fmt.Errorf("unknown opcode %q", name)
}

// IsTerminator reports whether op ends a basic block.
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpJmp, OpBr, OpRet:
		return true
	default:
		return false
	}
}

// TakesLabels reports whether op carries label operands.
func (op Opcode) TakesLabels() bool {
	switch op {
	case OpJmp, OpBr, OpPhi:
		return true
	default:
		return false
	}
}

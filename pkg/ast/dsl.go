package ast

// Program and function helpers.

func Prog(fns ...*Function) *Program {
	return &Program{Functions: fns}
}

func Fn(name string, ret Type, args []Argument, body ...Code) *Function {
	return &Function{Name: name, Args: args, Return: ret, Body: body}
}

func Args(args ...Argument) []Argument {
	return args
}

func Arg(name string, typ Type) Argument {
	return Argument{Name: name, Type: typ}
}

func Lbl(name string) *Label {
	return &Label{Name: name}
}

// Instruction helpers.

func Const(dest string, typ Type, value Literal) *Constant {
	return &Constant{Dest: dest, Type: typ, Value: value}
}

func ConstInt(dest string, value int64) *Constant {
	return Const(dest, Int, IntLit(value))
}

func ConstBool(dest string, value bool) *Constant {
	return Const(dest, Bool, BoolLit(value))
}

func ConstFloat(dest string, value float64) *Constant {
	return Const(dest, Float, FloatLit(value))
}

func Op(op Opcode, dest string, typ Type, args ...string) *ValueOperation {
	return &ValueOperation{Op: op, Dest: dest, Type: typ, Args: args}
}

func Effect(op Opcode, args ...string) *EffectOperation {
	return &EffectOperation{Op: op, Args: args}
}

func Jmp(label string) *EffectOperation {
	return &EffectOperation{Op: OpJmp, Labels: []string{label}}
}

func Br(cond, ifTrue, ifFalse string) *EffectOperation {
	return &EffectOperation{Op: OpBr, Args: []string{cond}, Labels: []string{ifTrue, ifFalse}}
}

func Ret(args ...string) *EffectOperation {
	return Effect(OpRet, args...)
}

func Print(args ...string) *EffectOperation {
	return Effect(OpPrint, args...)
}

func Call(dest string, typ Type, callee string, args ...string) *ValueOperation {
	return &ValueOperation{Op: OpCall, Dest: dest, Type: typ, Args: args, Funcs: []string{callee}}
}

func CallEffect(callee string, args ...string) *EffectOperation {
	return &EffectOperation{Op: OpCall, Args: args, Funcs: []string{callee}}
}

func Phi(dest string, typ Type, args, labels []string) *ValueOperation {
	return &ValueOperation{Op: OpPhi, Dest: dest, Type: typ, Args: args, Labels: labels}
}

// Located attaches a line/column span to code and returns it.
func Located[T Code](code T, line, column int) T {
	SetSpan(code, At(line, column))
	return code
}

package blocks

import (
	"testing"

	"bril/interpreter-go/pkg/ast"
	"bril/interpreter-go/pkg/diag"
)

func mustBuild(t *testing.T, prog *ast.Program) *Program {
	t.Helper()
	built, err := Build(prog)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return built
}

func expectKind(t *testing.T, err error, want diag.Kind) *diag.PositionalError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	perr, ok := diag.As(err)
	if !ok {
		t.Fatalf("expected positional error, got %T: %v", err, err)
	}
	if perr.Kind != want {
		t.Fatalf("error kind got=%s want=%s (%v)", perr.Kind, want, err)
	}
	return perr
}

func TestPartitionStartsBlocksAtLabelsAndTerminators(t *testing.T) {
	prog := ast.Prog(ast.Fn("main", ast.Void, nil,
		ast.ConstInt("x", 1),
		ast.Jmp("next"),
		ast.Print("x"),
		ast.Lbl("next"),
		ast.Lbl("alias"),
		ast.Print("x"),
		ast.Ret(),
	))
	fn := mustBuild(t, prog).Functions[0]
	if got := len(fn.Blocks); got != 3 {
		t.Fatalf("block count got=%d want=3", got)
	}
	if got := len(fn.Blocks[0].Instrs); got != 2 {
		t.Fatalf("entry block instrs got=%d want=2", got)
	}
	if fn.Labels["next"] != 2 || fn.Labels["alias"] != 2 {
		t.Fatalf("consecutive labels should share block 2, got %v", fn.Labels)
	}
	jmp := fn.Blocks[0].Instrs[1]
	if len(jmp.Targets) != 1 || jmp.Targets[0] != 2 {
		t.Fatalf("jmp targets got=%v want=[2]", jmp.Targets)
	}
	if fn.Blocks[2].Name() != "next" || fn.Blocks[1].Name() != "b1" {
		t.Fatalf("unexpected block names %q %q", fn.Blocks[2].Name(), fn.Blocks[1].Name())
	}
}

func TestCallDoesNotEndBlock(t *testing.T) {
	prog := ast.Prog(
		ast.Fn("main", ast.Void, nil,
			ast.CallEffect("helper"),
			ast.Print(),
		),
		ast.Fn("helper", ast.Void, nil),
	)
	built := mustBuild(t, prog)
	main := built.Functions[0]
	if len(main.Blocks) != 1 {
		t.Fatalf("call should not split blocks, got %d blocks", len(main.Blocks))
	}
	if callee := main.Blocks[0].Instrs[0].Callee; callee != 1 {
		t.Fatalf("callee index got=%d want=1", callee)
	}
}

func TestImplicitReturnAppended(t *testing.T) {
	prog := ast.Prog(
		ast.Fn("main", ast.Void, nil, ast.ConstInt("x", 1)),
		ast.Fn("empty", ast.Void, nil),
	)
	built := mustBuild(t, prog)
	for _, fn := range built.Functions {
		last := fn.Blocks[len(fn.Blocks)-1]
		ret := last.Instrs[len(last.Instrs)-1]
		if ret.Op != ast.OpRet || !ret.Implicit {
			t.Fatalf("@%s: expected implicit ret, got %v", fn.Name, ret.Op)
		}
	}
	if got := built.Functions[0].InstructionCount(); got != 2 {
		t.Fatalf("instruction count got=%d want=2", got)
	}
}

func TestTrailingLabelGetsImplicitReturn(t *testing.T) {
	prog := ast.Prog(ast.Fn("main", ast.Void, nil,
		ast.Jmp("end"),
		ast.Lbl("end"),
	))
	fn := mustBuild(t, prog).Functions[0]
	if len(fn.Blocks) != 2 || !fn.Blocks[1].Instrs[0].Implicit {
		t.Fatalf("expected labelled trailing block with implicit ret, got %+v", fn.Blocks)
	}
}

func TestMissingReturn(t *testing.T) {
	prog := ast.Prog(ast.Fn("f", ast.Int, nil, ast.ConstInt("x", 1)))
	_, err := Build(prog)
	perr := expectKind(t, err, diag.MissingReturn)
	if perr.Function != "f" {
		t.Fatalf("function got=%q want=f", perr.Function)
	}

	empty := ast.Prog(ast.Fn("g", ast.Bool, nil))
	_, err = Build(empty)
	expectKind(t, err, diag.MissingReturn)
}

func TestUnknownLabelCarriesPosition(t *testing.T) {
	prog := ast.Prog(ast.Fn("main", ast.Void, nil,
		ast.ConstBool("c", true),
		ast.Located(ast.Br("c", "yes", "missing"), 4, 3),
		ast.Lbl("yes"),
		ast.Ret(),
	))
	_, err := Build(prog)
	perr := expectKind(t, err, diag.UnknownLabel)
	if perr.Span.Start.Line != 4 || perr.Span.Start.Column != 3 {
		t.Fatalf("span got=%v want=4:3", perr.Span)
	}
	if perr.Function != "main" {
		t.Fatalf("function got=%q want=main", perr.Function)
	}
}

func TestDuplicatesRejected(t *testing.T) {
	_, err := Build(ast.Prog(
		ast.Fn("main", ast.Void, nil),
		ast.Fn("main", ast.Void, nil),
	))
	expectKind(t, err, diag.DuplicateFunction)

	_, err = Build(ast.Prog(ast.Fn("main", ast.Void, nil,
		ast.Lbl("a"), ast.Print(), ast.Lbl("a"), ast.Ret(),
	)))
	expectKind(t, err, diag.DuplicateLabel)
}

func TestUnknownFunction(t *testing.T) {
	_, err := Build(ast.Prog(ast.Fn("main", ast.Void, nil, ast.CallEffect("nowhere"))))
	expectKind(t, err, diag.UnknownFunction)
}

func TestSlotsPutParametersFirst(t *testing.T) {
	prog := ast.Prog(ast.Fn("add", ast.Int, ast.Args(ast.Arg("a", ast.Int), ast.Arg("b", ast.Int)),
		ast.Op(ast.OpAdd, "sum", ast.Int, "a", "b"),
		ast.Ret("sum"),
	))
	fn := mustBuild(t, prog).Functions[0]
	for i, want := range []string{"a", "b", "sum"} {
		if got := fn.VarName(i); got != want {
			t.Fatalf("slot %d got=%q want=%q", i, got, want)
		}
	}
	add := fn.Blocks[0].Instrs[0]
	if add.Dest != 2 || add.Args[0] != 0 || add.Args[1] != 1 {
		t.Fatalf("unexpected slots dest=%d args=%v", add.Dest, add.Args)
	}
	if slot, ok := fn.Slot("sum"); !ok || slot != 2 {
		t.Fatalf("Slot(sum) got=%d,%v", slot, ok)
	}
}

func TestPhiLabelsResolved(t *testing.T) {
	prog := ast.Prog(ast.Fn("main", ast.Void, nil,
		ast.Lbl("a"),
		ast.ConstInt("x", 1),
		ast.Jmp("join"),
		ast.Lbl("b"),
		ast.ConstInt("y", 2),
		ast.Lbl("join"),
		ast.Phi("z", ast.Int, []string{"x", "y"}, []string{"a", "b"}),
		ast.Print("z"),
	))
	fn := mustBuild(t, prog).Functions[0]
	phi := fn.Blocks[2].Instrs[0]
	if len(phi.Targets) != 2 || phi.Targets[0] != 0 || phi.Targets[1] != 1 {
		t.Fatalf("phi targets got=%v want=[0 1]", phi.Targets)
	}
}

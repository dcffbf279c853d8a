package diag

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"bril/interpreter-go/pkg/ast"
)

func TestPositionalErrorFormatting(t *testing.T) {
	unpositioned := New(DivideByZero, "division by zero")
	if got, want := unpositioned.Error(), "division by zero"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	positioned := At(ast.At(3, 7), UnknownLabel, "unknown label .%s", "done")
	if got, want := positioned.Error(), "line 3, column 7: unknown label .done"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestKindOfUnwrapsChains(t *testing.T) {
	base := New(UseAfterFree, "load through freed pointer").Dynamic()
	wrapped := fmt.Errorf("run: %w", base)
	if got := KindOf(wrapped); got != UseAfterFree {
		t.Fatalf("KindOf = %q, want %q", got, UseAfterFree)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Fatalf("KindOf(plain) = %q, want empty", got)
	}
}

func TestKindPhase(t *testing.T) {
	cases := map[Kind]Phase{
		UnknownLabel:            PhaseStatic,
		BadMain:                 PhaseStatic,
		DivideByZero:            PhaseDynamic,
		MemoryAccessOutOfBounds: PhaseDynamic,
		StackOverflow:           PhaseDynamic,
	}
	for kind, want := range cases {
		if got := kind.Phase(); got != want {
			t.Fatalf("%s.Phase() = %v, want %v", kind, got, want)
		}
	}
}

func TestLocatedKeepsExistingSpan(t *testing.T) {
	err := At(ast.At(1, 2), TypeMismatch, "x").Located(ast.At(9, 9))
	if err.Span.Start.Line != 1 {
		t.Fatalf("Located overwrote span: %+v", err.Span)
	}
	err = New(TypeMismatch, "y").Located(ast.At(4, 5))
	if err.Span.Start.Line != 4 || err.Span.Start.Column != 5 {
		t.Fatalf("Located did not fill span: %+v", err.Span)
	}
}

func TestDescribe(t *testing.T) {
	err := At(ast.At(2, 5), DivideByZero, "division by zero").Dynamic().InFunction("main")
	got := Describe(err, "prog.bril")
	want := "runtime: prog.bril:2:5 DivideByZero: division by zero (in @main)"
	if got != want {
		t.Fatalf("Describe = %q, want %q", got, want)
	}
	static := New(BadMain, "no main function")
	if got, want := Describe(static, ""), "error: BadMain: no main function"; got != want {
		t.Fatalf("Describe = %q, want %q", got, want)
	}
}

func TestSnippetPlacesCaret(t *testing.T) {
	src := "@main {\n  v: int = div a b;\n  print v;\n}"
	err := At(ast.At(2, 12), DivideByZero, "division by zero")
	got := Snippet(err, src, false)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 snippet lines, got %d:\n%s", len(lines), got)
	}
	if lines[1] != "   2 |   v: int = div a b;" {
		t.Fatalf("unexpected source line %q", lines[1])
	}
	if lines[2] != "     | "+strings.Repeat(" ", 11)+"^" {
		t.Fatalf("unexpected caret line %q", lines[2])
	}
	if Snippet(New(DivideByZero, "x"), src, false) != "" {
		t.Fatalf("unpositioned errors must not render a snippet")
	}
}

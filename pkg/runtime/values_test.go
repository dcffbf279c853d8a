package runtime

import (
	"math"
	"testing"

	"bril/interpreter-go/pkg/ast"
)

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.00000000000000000"},
		{1.5, "1.50000000000000000"},
		{-0.25, "-0.25000000000000000"},
		{1e10, "1.00000000000000000e+10"},
		{-2.5e12, "-2.50000000000000000e+12"},
		{math.Ldexp(1, -40), "9.09494701772928238e-13"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{math.NaN(), "NaN"},
	}
	for _, tc := range cases {
		if got := FormatFloat(tc.in); got != tc.want {
			t.Fatalf("FormatFloat(%v) got=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestFormatLine(t *testing.T) {
	line := FormatLine([]Value{
		IntValue(-7),
		BoolValue(true),
		PointerValue(Pointer{Alloc: 3, Elem: ast.Ptr(ast.Int), Offset: 2}),
	})
	if want := "-7 true ptr<ptr<int>>(#3+2)"; line != want {
		t.Fatalf("FormatLine got=%q want=%q", line, want)
	}
}

func TestParse(t *testing.T) {
	if v, err := Parse("-12", ast.Int); err != nil || v.Int != -12 {
		t.Fatalf("Parse int got=%+v err=%v", v, err)
	}
	if v, err := Parse("false", ast.Bool); err != nil || v.Kind != KindBool || v.Bool {
		t.Fatalf("Parse bool got=%+v err=%v", v, err)
	}
	if v, err := Parse("2.5e1", ast.Float); err != nil || v.Float != 25 {
		t.Fatalf("Parse float got=%+v err=%v", v, err)
	}
	for _, bad := range []struct {
		raw string
		typ ast.Type
	}{
		{"1.5", ast.Int},
		{"True", ast.Bool},
		{"abc", ast.Float},
		{"1", ast.Ptr(ast.Int)},
	} {
		if _, err := Parse(bad.raw, bad.typ); err == nil {
			t.Fatalf("Parse(%q, %s) should fail", bad.raw, bad.typ)
		}
	}
}

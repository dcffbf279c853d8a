package ast

import "fmt"

// Position is a 1-based line/column pair in the original program text.
type Position struct {
	Line   int `json:"row"`
	Column int `json:"col"`
}

func (p Position) IsZero() bool { return p.Line == 0 && p.Column == 0 }

// Span covers a source range. A zero Span means the position is unknown.
type Span struct {
	Start Position
	End   Position
}

func (s Span) IsZero() bool { return s.Start.IsZero() }

func (s Span) String() string {
	if s.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
}

type node struct {
	span Span
}

func (n node) Span() Span { return n.span }
func (n *node) setSpan(span Span) { n.span = span }

// SetSpan annotates the element with the provided span.
func SetSpan(code any, span Span) {
	if setter, ok := code.(interface{ setSpan(Span) }); ok {
		setter.setSpan(span)
	}
}

// ZeroSpan returns an empty span value.
func ZeroSpan() Span {
	return Span{}
}

// At builds a span that starts at line:column.
func At(line, column int) Span {
	return Span{Start: Position{Line: line, Column: column}}
}

package diag

import (
	"fmt"
	"strings"

	"bril/interpreter-go/pkg/ast"
)

// Describe formats err for CLI output. path, when non-empty, names the source
// the span refers to.
func Describe(err error, path string) string {
	perr, ok := As(err)
	if !ok {
		if err == nil {
			return ""
		}
		return "error: " + err.Error()
	}
	prefix := "error: "
	if perr.Phase == PhaseDynamic {
		prefix = "runtime: "
	}
	var b strings.Builder
	b.WriteString(prefix)
	if loc := formatLocation(path, perr.Span); loc != "" {
		b.WriteString(loc)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%s: %s", perr.Kind, perr.Message)
	if perr.Function != "" {
		fmt.Fprintf(&b, " (in @%s)", perr.Function)
	}
	return b.String()
}

func formatLocation(path string, span ast.Span) string {
	path = strings.TrimSpace(path)
	line := span.Start.Line
	column := span.Start.Column
	switch {
	case path != "" && line > 0 && column > 0:
		return fmt.Sprintf("%s:%d:%d", path, line, column)
	case path != "" && line > 0:
		return fmt.Sprintf("%s:%d", path, line)
	case line > 0 && column > 0:
		return fmt.Sprintf("line %d, column %d", line, column)
	case line > 0:
		return fmt.Sprintf("line %d", line)
	default:
		return ""
	}
}

const (
	ansiRed   = "\x1b[31m"
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// Snippet renders the source lines around err's position with a caret under
// the offending column. It returns "" when err carries no position or the
// line is outside src.
func Snippet(err error, src string, color bool) string {
	perr, ok := As(err)
	if !ok || perr.Span.IsZero() {
		return ""
	}
	lines := strings.Split(src, "\n")
	line := perr.Span.Start.Line
	if line < 1 || line > len(lines) {
		return ""
	}
	col := perr.Span.Start.Column
	if col < 1 {
		col = 1
	}

	var b strings.Builder
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	if color {
		fmt.Fprintf(&b, "%s%4d | %s%s\n", ansiBold, line, lines[line-1], ansiReset)
	} else {
		fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	}
	width := 1
	if end := perr.Span.End; end.Line == line && end.Column > col {
		width = end.Column - col
	}
	caret := strings.Repeat(" ", col-1) + strings.Repeat("^", width)
	if color {
		caret = strings.Repeat(" ", col-1) + ansiRed + strings.Repeat("^", width) + ansiReset
	}
	fmt.Fprintf(&b, "     | %s\n", caret)
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}

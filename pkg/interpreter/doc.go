// Package interpreter executes checked programs. The engine keeps an explicit
// frame stack instead of recursing on the host stack, so program recursion is
// bounded only by Options.MaxCallDepth. Each Machine owns its heap and frames
// and runs once; the program it executes is shared read-only.
package interpreter

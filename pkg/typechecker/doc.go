// Package typechecker validates a built program before it may run. It checks
// every instruction against a fixed opcode signature table, enforces one type
// per variable per function, approximates definite assignment in block
// declaration order, and validates call sites and the entry function. A
// program only reaches the execution engine wrapped in a Checked value.
package typechecker

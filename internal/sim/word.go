// Package sim implements the core single-threaded abstract-interpretation
// simulator from spec.md §4.C: one decoded AArch64 instruction per Step,
// every register and memory value carrying a taint, control flow mediated by
// client-supplied callbacks instead of direct memory/branch execution. It
// generalizes GVM's register-file-plus-switch-dispatch design (vm/vm.go,
// vm/exec.go) from a 32-bit bytecode VM to a taint-tracking AArch64
// abstract interpreter.
package sim

import "ktsim/internal/taint"

// Word is a 64-bit value paired with its taint — the unit every register
// read/write and memory access in the simulator passes around.
type Word struct {
	Value uint64
	Taint taint.Taint
}

// Const wraps a plain value with the CONSTANT default from table.
func Const(table taint.Table, value uint64) Word {
	return Word{Value: value, Taint: table.Constant}
}

// Unknown wraps a plain value with the UNKNOWN default from table.
func Unknown(table taint.Table, value uint64) Word {
	return Word{Value: value, Taint: table.Unknown}
}

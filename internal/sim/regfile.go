package sim

import (
	"ktsim/internal/arm64"
	"ktsim/internal/taint"
)

// RegisterFile holds the 31 general-purpose words (X0..X30), SP, PC, and
// PSTATE that make up one simulated AArch64 execution context. Modeled
// after GVM's fixed [numRegisters]register array (vm/vm.go) but indexed by
// the decoder's GPReg rather than a flat bytecode register index, and
// widened to carry a taint alongside every value.
type RegisterFile struct {
	GP [31]Word
	SP Word
	PC Word

	// PSTATE packs N/Z/C/V in bits 31/30/29/28; TaintNZCV is the single
	// taint attribute shared by all four flags (spec.md §3).
	PSTATE    uint32
	TaintNZCV taint.Taint
}

const (
	flagN = 31
	flagZ = 30
	flagC = 29
	flagV = 28
)

// ReadGP returns the value and taint for a general-purpose operand. The
// zero register always reads as 0 with CONSTANT taint regardless of what
// index 31 would otherwise hold; a 32-bit view masks to the low 32 bits.
func (r *RegisterFile) ReadGP(reg arm64.GPReg, table taint.Table) Word {
	if reg.IsZero() {
		return Const(table, 0)
	}
	var w Word
	if reg.Index == 31 {
		w = r.SP
	} else {
		w = r.GP[reg.Index]
	}
	if !reg.Is64 {
		w.Value &= 0xFFFFFFFF
	}
	return w
}

// WriteGP stores value/taint into a general-purpose operand. Writes to the
// zero register are discarded; a 32-bit view zero-extends into the full
// 64-bit slot, matching the ARM ARM's W-register write behaviour.
func (r *RegisterFile) WriteGP(reg arm64.GPReg, w Word) {
	if reg.IsZero() {
		return
	}
	if !reg.Is64 {
		w.Value &= 0xFFFFFFFF
	}
	if reg.Index == 31 {
		r.SP = w
		return
	}
	r.GP[reg.Index] = w
}

// NZCV unpacks the four condition flags.
func (r *RegisterFile) NZCV() (n, z, c, v bool) {
	return r.PSTATE>>flagN&1 != 0, r.PSTATE>>flagZ&1 != 0, r.PSTATE>>flagC&1 != 0, r.PSTATE>>flagV&1 != 0
}

// SetNZCV packs the four condition flags and records the shared taint that
// produced them.
func (r *RegisterFile) SetNZCV(n, z, c, v bool, t taint.Taint) {
	r.PSTATE &^= uint32(1)<<flagN | uint32(1)<<flagZ | uint32(1)<<flagC | uint32(1)<<flagV
	if n {
		r.PSTATE |= 1 << flagN
	}
	if z {
		r.PSTATE |= 1 << flagZ
	}
	if c {
		r.PSTATE |= 1 << flagC
	}
	if v {
		r.PSTATE |= 1 << flagV
	}
	r.TaintNZCV = t
}

// ClearGPUnknown sets every general-purpose register and PSTATE to the
// table's UNKNOWN default, leaving their values unspecified (zeroed). Used
// by the default illegal-instruction handler (spec.md §4.C); ksim's
// call-boundary clearing of the caller-saved registers (§4.D) uses
// ClearRangeUnknown instead.
func (r *RegisterFile) ClearGPUnknown(table taint.Table) {
	for i := range r.GP {
		r.GP[i] = Word{Taint: table.Unknown}
	}
	r.PSTATE = 0
	r.TaintNZCV = table.Unknown
}

// ClearRangeUnknown clears GP registers lo..hi inclusive to UNKNOWN; used to
// clear X0..X17 (caller-saved) without touching callee-saved registers.
func (r *RegisterFile) ClearRangeUnknown(lo, hi uint8, table taint.Table) {
	for i := lo; i <= hi && int(i) < len(r.GP); i++ {
		r.GP[i] = Word{Taint: table.Unknown}
	}
}

package arm64

// This file recognises the standard ARM disassembly aliases over an already
// decoded Insn. None of these change simulated semantics (4.A) — they exist
// so a disassembler or trace printer built on top of this package can show
// the mnemonic a human reading objdump/lldb output would expect instead of
// the raw ADDS/SUBS/ORR form.

// IsCmp reports whether insn is the CMP alias of SUBS Rn, Rm (register or
// immediate forms), i.e. SUBS with a discarded (zero-register) destination.
func IsCmp(insn Insn) bool {
	switch insn.Kind {
	case KindAddSubImm:
		i := insn.AddSubImm
		return i.Sub && i.SetFlags && i.Rd.IsZero()
	case KindAddSubShiftedReg:
		i := insn.AddSubShiftedReg
		return i.Sub && i.SetFlags && i.Rd.IsZero()
	case KindAddSubExtReg:
		i := insn.AddSubExtReg
		return i.Sub && i.SetFlags && i.Rd.IsZero()
	}
	return false
}

// IsCmn reports whether insn is the CMN alias of ADDS Rn, Rm, i.e. ADDS with
// a discarded destination.
func IsCmn(insn Insn) bool {
	switch insn.Kind {
	case KindAddSubImm:
		i := insn.AddSubImm
		return !i.Sub && i.SetFlags && i.Rd.IsZero()
	case KindAddSubShiftedReg:
		i := insn.AddSubShiftedReg
		return !i.Sub && i.SetFlags && i.Rd.IsZero()
	case KindAddSubExtReg:
		i := insn.AddSubExtReg
		return !i.Sub && i.SetFlags && i.Rd.IsZero()
	}
	return false
}

// IsTst reports whether insn is the TST alias of ANDS Rn, Rm/#imm. Neither
// the logical-immediate nor logical-shifted-register decoders in this
// package accept opc=11 (ANDS), so this always reports false; it is kept as
// a named predicate so callers don't need to special-case the omission and
// so a future ANDS decoder has an obvious home to wire into.
func IsTst(insn Insn) bool {
	return false
}

// IsMovRegister reports whether insn is the MOV (register) alias of
// ORR Rd, XZR, Rm.
func IsMovRegister(insn Insn) (rd, rm GPReg, ok bool) {
	if insn.Kind != KindLogicalShiftedReg {
		return GPReg{}, GPReg{}, false
	}
	i := insn.LogicalShiftedReg
	if i.Op != LogicalOrr || i.Amount != 0 || !i.Rn.IsZero() {
		return GPReg{}, GPReg{}, false
	}
	return i.Rd, i.Rm, true
}

// IsMovImmediate reports whether insn is a MOVZ or MOVN, read as the MOV
// (wide immediate) or MOV (inverted wide immediate) alias. Every MOVZ and
// every MOVN is accepted: the architecture's preferred-alias conditions
// (for MOVN, that MOVZ cannot encode the value) are not checked. The disassembly convention canonicalises
// both to "MOV Rd, #imm" showing the fully materialised 16/32/64-bit value;
// callers that need the raw encoding should inspect the MoveWide fields
// directly instead.
func IsMovImmediate(insn Insn) (rd GPReg, value uint64, ok bool) {
	if insn.Kind != KindMoveWide {
		return GPReg{}, 0, false
	}
	i := insn.MoveWide
	if i.Op == MovK {
		return GPReg{}, 0, false
	}
	v := uint64(i.Imm16) << i.Shift
	if i.Op == MovN {
		v = ^v
		if !i.Is64 {
			v &= 0xFFFFFFFF
		}
	}
	return i.Rd, v, true
}

// IsMovSP reports whether insn is the MOV (to/from SP) alias of
// ADD Rd|SP, Rn|SP, #0.
func IsMovSP(insn Insn) (rd, rn GPReg, ok bool) {
	if insn.Kind != KindAddSubImm {
		return GPReg{}, GPReg{}, false
	}
	i := insn.AddSubImm
	if i.Sub || i.SetFlags || i.Imm12 != 0 || i.ShiftBy12 {
		return GPReg{}, GPReg{}, false
	}
	if !i.Rd.IsSP && !i.Rn.IsSP {
		return GPReg{}, GPReg{}, false
	}
	return i.Rd, i.Rn, true
}

// NegKind distinguishes the NEG/NEGS/NGC/NGCS flag combination of a
// zero-Rn subtract.
type NegKind uint8

const (
	NegNone NegKind = iota
	Neg             // SUB Rd, XZR, Rm{, shift}
	Negs            // SUBS Rd, XZR, Rm{, shift}
	Ngc             // SBC Rd, XZR, Rm
	Ngcs            // SBCS Rd, XZR, Rm
)

// IsNeg recognises the NEG family: SUB/SUBS with Rn=zero-register (shifted
// register form) and SBC/SBCS with Rn=zero-register.
func IsNeg(insn Insn) NegKind {
	switch insn.Kind {
	case KindAddSubShiftedReg:
		i := insn.AddSubShiftedReg
		if i.Sub && i.Rn.IsZero() {
			if i.SetFlags {
				return Negs
			}
			return Neg
		}
	case KindAdcSbc:
		i := insn.AdcSbc
		if i.Sub && i.Rn.IsZero() {
			if i.SetFlags {
				return Ngcs
			}
			return Ngc
		}
	}
	return NegNone
}

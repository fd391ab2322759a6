package sim

import (
	"ktsim/internal/arm64"
	"ktsim/internal/taint"
)

func (s *Sim) execAdcSbc(i *arm64.AdcSbcInsn, running *taint.Taint) {
	x := s.readGP(i.Rn, running)
	y := s.readGP(i.Rm, running)
	_, _, c, _ := s.Regs.NZCV()
	taint.MeetWith(running, s.Regs.TaintNZCV)

	if i.Sub {
		y = ^y
	}
	result, n, z, cOut, v := addWithCarry(x, y, c, i.Rd.Is64)

	s.Regs.WriteGP(i.Rd, Word{Value: result, Taint: *running})
	if i.SetFlags {
		s.Regs.SetNZCV(n, z, cOut, v, *running)
	}
}

func (s *Sim) execAddSubImm(i *arm64.AddSubImmInsn, running *taint.Taint) {
	x := s.readGP(i.Rn, running)
	taint.MeetWith(running, s.Taint.Constant)

	imm := uint64(i.Imm12)
	if i.ShiftBy12 {
		imm <<= 12
	}
	y, carryIn := imm, false
	if i.Sub {
		y, carryIn = ^imm, true
	}
	result, n, z, c, v := addWithCarry(x, y, carryIn, i.Rd.Is64)

	s.Regs.WriteGP(i.Rd, Word{Value: result, Taint: *running})
	if i.SetFlags {
		s.Regs.SetNZCV(n, z, c, v, *running)
	}
}

func (s *Sim) execAddSubShiftedReg(i *arm64.AddSubShiftedRegInsn, running *taint.Taint) {
	x := s.readGP(i.Rn, running)
	rm := s.readGP(i.Rm, running)
	y := applyShift(i.Shift, rm, i.Amount, i.Rd.Is64)
	carryIn := false
	if i.Sub {
		y, carryIn = ^y, true
	}
	result, n, z, c, v := addWithCarry(x, y, carryIn, i.Rd.Is64)

	s.Regs.WriteGP(i.Rd, Word{Value: result, Taint: *running})
	if i.SetFlags {
		s.Regs.SetNZCV(n, z, c, v, *running)
	}
}

func (s *Sim) execAddSubExtReg(i *arm64.AddSubExtRegInsn, running *taint.Taint) {
	x := s.readGP(i.Rn, running)
	rm := s.readGP(i.Rm, running)
	y := applyExtend(i.Extend, rm, i.Amount)
	carryIn := false
	if i.Sub {
		y, carryIn = ^y, true
	}
	result, n, z, c, v := addWithCarry(x, y, carryIn, i.Rd.Is64)

	s.Regs.WriteGP(i.Rd, Word{Value: result, Taint: *running})
	if i.SetFlags {
		s.Regs.SetNZCV(n, z, c, v, *running)
	}
}

func (s *Sim) execAdrAdrp(i *arm64.AdrAdrpInsn, running *taint.Taint) {
	taint.MeetWith(running, s.Regs.PC.Taint)
	base := s.Regs.PC.Value
	if i.Page {
		base &^= 0xFFF
	}
	value := uint64(int64(base) + i.Imm)
	s.Regs.WriteGP(i.Rd, Word{Value: value, Taint: *running})
}

func (s *Sim) execLogicalImm(i *arm64.LogicalImmInsn, running *taint.Taint) {
	x := s.readGP(i.Rn, running)
	result := applyLogicalOp(i.Op, x, i.Wmask)
	s.Regs.WriteGP(i.Rd, Word{Value: result, Taint: *running})
}

func (s *Sim) execLogicalShiftedReg(i *arm64.LogicalShiftedRegInsn, running *taint.Taint) {
	x := s.readGP(i.Rn, running)
	rm := s.readGP(i.Rm, running)
	y := applyShift(i.Shift, rm, i.Amount, i.Rd.Is64)
	result := applyLogicalOp(i.Op, x, y)
	s.Regs.WriteGP(i.Rd, Word{Value: result, Taint: *running})
}

func applyLogicalOp(op arm64.LogicalOp, x, y uint64) uint64 {
	switch op {
	case arm64.LogicalAnd:
		return x & y
	case arm64.LogicalOrr:
		return x | y
	case arm64.LogicalEor:
		return x ^ y
	default:
		return x
	}
}

func (s *Sim) execMoveWide(i *arm64.MoveWideInsn, running *taint.Taint) {
	taint.MeetWith(running, s.Taint.Constant)
	imm := uint64(i.Imm16) << i.Shift

	var result uint64
	switch i.Op {
	case arm64.MovZ:
		result = imm
	case arm64.MovN:
		result = ^imm
	case arm64.MovK:
		cur := s.readGP(i.Rd, running)
		fieldMask := uint64(0xFFFF) << i.Shift
		result = (cur &^ fieldMask) | imm
	}

	s.Regs.WriteGP(i.Rd, Word{Value: result, Taint: *running})
}

package sim

import (
	"ktsim/internal/arm64"
	"ktsim/internal/taint"
)

// execBranchImm handles B/BL: always-taken, PC-relative, unconditional.
func (s *Sim) execBranchImm(i *arm64.BranchImmInsn, running taint.Taint) (bool, error) {
	targetTaint := running
	taint.MeetWith(&targetTaint, s.Regs.PC.Taint)
	target := uint64(int64(s.Regs.PC.Value) + i.Imm)

	kind := BranchKindDirect
	if i.Link {
		kind = BranchKindLink
	}
	cond := Word{Value: 1, Taint: s.Taint.Constant}
	taken, cont := s.Branch(kind, Word{Value: target, Taint: targetTaint}, cond)

	prevPC := s.Regs.PC
	s.advancePC()
	if taken {
		if i.Link {
			linkTaint := running
			taint.MeetWith(&linkTaint, prevPC.Taint)
			s.Regs.WriteGP(x30, Word{Value: prevPC.Value + 4, Taint: linkTaint})
		}
		s.Regs.PC = Word{Value: target, Taint: targetTaint}
	}
	return cont, nil
}

// execBranchReg handles BR/BLR/RET: always-taken, register-indirect,
// unconditional.
func (s *Sim) execBranchReg(i *arm64.BranchRegInsn, running taint.Taint) (bool, error) {
	target := s.readGP(i.Rn, &running)

	kind := BranchKindDirect
	switch i.Op {
	case arm64.Blr:
		kind = BranchKindLink
	case arm64.Ret:
		kind = BranchKindReturn
	}
	cond := Word{Value: 1, Taint: s.Taint.Constant}
	taken, cont := s.Branch(kind, Word{Value: target, Taint: running}, cond)

	prevPC := s.Regs.PC
	s.advancePC()
	if taken {
		if i.Op == arm64.Blr {
			linkTaint := running
			taint.MeetWith(&linkTaint, prevPC.Taint)
			s.Regs.WriteGP(x30, Word{Value: prevPC.Value + 4, Taint: linkTaint})
		}
		s.Regs.PC = Word{Value: target, Taint: running}
	}
	return cont, nil
}

// execCompareBranch handles CBZ/CBNZ: PC-relative, conditional on Rt.
func (s *Sim) execCompareBranch(i *arm64.CompareBranchInsn, running taint.Taint) (bool, error) {
	rt := s.readGP(i.Rt, &running)
	isZero := rt == 0
	takenByISA := isZero != i.NonZero

	targetTaint := running
	taint.MeetWith(&targetTaint, s.Regs.PC.Taint)
	target := uint64(int64(s.Regs.PC.Value) + i.Imm)

	cond := Word{Value: boolToUint64(takenByISA), Taint: running}
	taken, cont := s.Branch(BranchKindConditional, Word{Value: target, Taint: targetTaint}, cond)

	s.advancePC()
	if taken {
		s.Regs.PC = Word{Value: target, Taint: targetTaint}
	}
	return cont, nil
}

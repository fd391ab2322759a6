package sim

import (
	"ktsim/internal/arm64"
	"ktsim/internal/taint"
)

// execLoadStorePair handles LDP/STP pre-index, post-index, and
// signed-offset addressing (spec.md §4.C step v).
func (s *Sim) execLoadStorePair(i *arm64.LoadStorePairInsn, running *taint.Taint) bool {
	base := s.readGP(i.Rn, running)
	addr := base
	if !i.PostIndex {
		addr = uint64(int64(base) + i.SignedImm)
	}
	sizeBytes := uint8(4)
	if i.Is64 {
		sizeBytes = 8
	}
	addrTaint := *running
	cont := true

	if i.Load {
		v1, c1 := s.MemLoad(Word{Value: addr, Taint: addrTaint}, sizeBytes)
		v2, c2 := s.MemLoad(Word{Value: addr + uint64(sizeBytes), Taint: addrTaint}, sizeBytes)
		t1, t2 := *running, *running
		taint.MeetWith(&t1, v1.Taint)
		taint.MeetWith(&t2, v2.Taint)
		s.Regs.WriteGP(i.Rt1, Word{Value: v1.Value, Taint: t1})
		s.Regs.WriteGP(i.Rt2, Word{Value: v2.Value, Taint: t2})
		cont = c1 && c2
	} else {
		v1 := s.readGP(i.Rt1, running)
		v2 := s.readGP(i.Rt2, running)
		c1 := s.MemStore(Word{Value: addr, Taint: addrTaint}, Word{Value: v1, Taint: *running}, sizeBytes, i.Rn.Index)
		c2 := s.MemStore(Word{Value: addr + uint64(sizeBytes), Taint: addrTaint}, Word{Value: v2, Taint: *running}, sizeBytes, i.Rn.Index)
		cont = c1 && c2
	}

	if i.Writeback {
		newBase := uint64(int64(base) + i.SignedImm)
		s.Regs.WriteGP(i.Rn, Word{Value: newBase, Taint: *running})
	}
	return cont
}

// execLoadStore handles LDR/STR pre-index, post-index, and unsigned-offset
// addressing.
func (s *Sim) execLoadStore(i *arm64.LoadStoreInsn, running *taint.Taint) bool {
	base := s.readGP(i.Rn, running)
	addr := base
	if !(i.Writeback && i.PostIndex) {
		addr = uint64(int64(base) + i.Imm)
	}
	addrTaint := *running
	cont := true

	if i.Load {
		v, c := s.MemLoad(Word{Value: addr, Taint: addrTaint}, i.SizeBytes)
		cont = c
		value := v.Value
		if i.SignExtend {
			value = uint64(signExtendFrom(value, uint(i.SizeBytes)*8))
			if !i.SignExtendTo64 {
				value &= 0xFFFFFFFF
			}
		}
		t := *running
		taint.MeetWith(&t, v.Taint)
		s.Regs.WriteGP(i.Rt, Word{Value: value, Taint: t})
	} else {
		v := s.readGP(i.Rt, running)
		cont = s.MemStore(Word{Value: addr, Taint: addrTaint}, Word{Value: v, Taint: *running}, i.SizeBytes, i.Rn.Index)
	}

	if i.Writeback {
		newBase := uint64(int64(base) + i.Imm)
		s.Regs.WriteGP(i.Rn, Word{Value: newBase, Taint: *running})
	}
	return cont
}

// execLoadLiteral handles LDR (literal), PC-relative and never writing back.
func (s *Sim) execLoadLiteral(i *arm64.LoadLiteralInsn, running *taint.Taint) bool {
	taint.MeetWith(running, s.Regs.PC.Taint)
	addr := uint64(int64(s.Regs.PC.Value) + i.Imm)
	sizeBytes := uint8(4)
	if i.Is64 {
		sizeBytes = 8
	}

	v, cont := s.MemLoad(Word{Value: addr, Taint: *running}, sizeBytes)
	value := v.Value
	if i.SignExtend {
		value = uint64(signExtendFrom(value, uint(sizeBytes)*8))
	}
	t := *running
	taint.MeetWith(&t, v.Taint)
	s.Regs.WriteGP(i.Rt, Word{Value: value, Taint: t})
	return cont
}

package sim

import (
	"ktsim/internal/arm64"
	"ktsim/internal/taint"
)

// Sim is one simulated AArch64 execution context: a register file plus the
// client callbacks that mediate every fetch, memory access, and branch
// (spec.md §4.C). It holds no memory of its own — ksim (internal/ksim)
// supplies a mapped code region and a concrete memory/branch policy.
type Sim struct {
	Regs  RegisterFile
	Taint taint.Table
	Callbacks
}

// New constructs a Sim with the given default-taint table and callbacks. A
// nil Illegal callback defaults to DefaultIllegal.
func New(table taint.Table, cbs Callbacks) *Sim {
	if cbs.Illegal == nil {
		cbs.Illegal = DefaultIllegal
	}
	return &Sim{Taint: table, Callbacks: cbs}
}

var x30 = arm64.GPReg{Index: 30, Is64: true}

func (s *Sim) advancePC() {
	s.Regs.PC.Value += 4
	taint.MeetWith(&s.Regs.PC.Taint, s.Taint.Constant)
}

// Step executes one instruction: fetch, decode, dispatch, and control-flow
// update (spec.md §4.C). It returns false when any callback signals abort,
// or true to keep running; Run calls Step in a loop until it returns false.
func (s *Sim) Step() (bool, error) {
	pcBefore := s.Regs.PC
	fetched, cont := s.Fetch(pcBefore)
	if !cont {
		return false, nil
	}

	word := uint32(fetched.Value)
	insn, ok := arm64.Decode(word)
	if !ok {
		cont := s.Illegal(s)
		s.advancePC()
		return cont, nil
	}

	running := fetched.Taint
	return s.dispatch(insn, running)
}

// Run repeatedly calls Step until it returns false.
func (s *Sim) Run() error {
	for {
		cont, err := s.Step()
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
}

func (s *Sim) readGP(reg arm64.GPReg, running *taint.Taint) uint64 {
	w := s.Regs.ReadGP(reg, s.Taint)
	taint.MeetWith(running, w.Taint)
	return w.Value
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (s *Sim) dispatch(insn arm64.Insn, running taint.Taint) (bool, error) {
	cont := true

	switch insn.Kind {
	case arm64.KindNop:
		// no effect

	case arm64.KindAdcSbc:
		s.execAdcSbc(insn.AdcSbc, &running)

	case arm64.KindAddSubImm:
		s.execAddSubImm(insn.AddSubImm, &running)

	case arm64.KindAddSubShiftedReg:
		s.execAddSubShiftedReg(insn.AddSubShiftedReg, &running)

	case arm64.KindAddSubExtReg:
		s.execAddSubExtReg(insn.AddSubExtReg, &running)

	case arm64.KindAdrAdrp:
		s.execAdrAdrp(insn.AdrAdrp, &running)

	case arm64.KindLogicalImm:
		s.execLogicalImm(insn.LogicalImm, &running)

	case arm64.KindLogicalShiftedReg:
		s.execLogicalShiftedReg(insn.LogicalShiftedReg, &running)

	case arm64.KindMoveWide:
		s.execMoveWide(insn.MoveWide, &running)

	case arm64.KindLoadStorePair:
		cont = s.execLoadStorePair(insn.LoadStorePair, &running)

	case arm64.KindLoadStore:
		cont = s.execLoadStore(insn.LoadStore, &running)

	case arm64.KindLoadLiteral:
		cont = s.execLoadLiteral(insn.LoadLiteral, &running)

	case arm64.KindBranchImm:
		return s.execBranchImm(insn.BranchImm, running)

	case arm64.KindBranchReg:
		return s.execBranchReg(insn.BranchReg, running)

	case arm64.KindCompareBranch:
		return s.execCompareBranch(insn.CompareBranch, running)
	}

	s.advancePC()
	return cont, nil
}

package ksim

import "ktsim/internal/sim"

// ExecUntil runs up to n instructions, consulting branches as the scripted
// conditional-branch vector (indexed by the number of conditionals seen so
// far; once exhausted, remaining conditionals pin to not-taken — the
// ALL_FALSE sentinel behaviour of spec.md §4.D). It stops when pred(pc)
// returns true just before that instruction would fetch, when a branch to
// an unknown target aborts the simulation, or when a BL is reached (a
// "temporary-clear" checkpoint network callers can inspect state at).
func (k *KSim) ExecUntil(pred func(pc uint64) bool, branches []bool, n int) bool {
	k.setBranches(branches)
	defer k.restoreBranches()
	prevUntil := k.until
	k.until = pred
	defer func() { k.until = prevUntil }()

	for i := 0; i < n; i++ {
		k.sawCall = false
		cont, _ := k.Sim.Step()
		if k.breakCondition {
			return true
		}
		if k.sawCall {
			return true
		}
		if !cont {
			return false
		}
	}
	return false
}

// ExecUntilCall steps until a BL is reached or the budget is exhausted,
// returning its target if the simulator could determine one.
func (k *KSim) ExecUntilCall(branches []bool, n int) (target sim.Word, found bool) {
	k.setBranches(branches)
	defer k.restoreBranches()

	for i := 0; i < n; i++ {
		k.sawCall = false
		cont, _ := k.Sim.Step()
		if k.sawCall {
			return k.lastCallTarget, true
		}
		if !cont {
			return sim.Word{}, false
		}
	}
	return sim.Word{}, false
}

// ExecUntilReturn steps until a RET is reached.
func (k *KSim) ExecUntilReturn(branches []bool, n int) bool {
	k.setBranches(branches)
	defer k.restoreBranches()

	for i := 0; i < n; i++ {
		k.sawReturn = false
		cont, _ := k.Sim.Step()
		if k.sawReturn {
			return true
		}
		if !cont {
			return false
		}
	}
	return false
}

// ExecUntilStore steps until a store whose base register is baseReg,
// returning the stored value if it was known. baseReg is an arm64 GPReg
// index (0-30) or 31 for SP.
func (k *KSim) ExecUntilStore(branches []bool, baseReg uint8, n int) (value sim.Word, found bool) {
	k.setBranches(branches)
	defer k.restoreBranches()

	var matched sim.Word
	var didMatch bool
	k.Sim.MemStore = func(addr sim.Word, v sim.Word, size uint8, storeBaseReg uint8) bool {
		if storeBaseReg == baseReg {
			matched, didMatch = v, true
		}
		return true
	}
	defer func() { k.Sim.MemStore = k.memStore }()

	for i := 0; i < n; i++ {
		didMatch = false
		cont, _ := k.Sim.Step()
		if didMatch {
			return matched, true
		}
		if !cont {
			return sim.Word{}, false
		}
	}
	return sim.Word{}, false
}

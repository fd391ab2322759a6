// Package ksim wraps internal/sim's core simulator with the policy spec.md
// §4.D describes for walking a mapped, read-only kernel code region: a
// bounded instruction budget, memory accesses that never see real kernel
// data, and a branch policy that follows known-target unconditional jumps,
// treats BL as a call boundary rather than a real call, and otherwise
// requires a scripted decision for conditional branches. It plays the role
// GVM's devices.go interface registry (HardwareDevice/DeviceBaseInfo) plays
// for peripherals, but as a single built-in "device" wired directly to
// internal/sim's callback seams instead of a registry of pluggable ones —
// ksim is the one fetch/mem/branch policy this toolkit needs.
package ksim

import (
	"encoding/binary"

	"ktsim/internal/sim"
	"ktsim/internal/taint"
)

// Region is a mapped, contiguous, read-only code range: raw bytes starting
// at a known virtual address.
type Region struct {
	Base uint64
	Code []byte
}

// KSim is one bounded simulated walk over a Region.
type KSim struct {
	Sim    *sim.Sim
	Region Region
	Budget int

	clearTemporariesNextFetch bool
	breakCondition            bool
	lastBreak                 uint64
	lastBreakSet              bool
	until                     func(pc uint64) bool

	branches        []bool
	branchIdx       int
	execUntilActive bool

	sawCall       bool
	lastCallTarget sim.Word
	sawReturn     bool
}

// New builds a KSim over region with an initial instruction budget and
// default-taint table. The simulator's PC starts at region.Base with
// CONSTANT taint.
func New(region Region, budget int, table taint.Table) *KSim {
	k := &KSim{Region: region, Budget: budget}
	k.Sim = sim.New(table, sim.Callbacks{
		Fetch:    k.fetch,
		MemLoad:  k.memLoad,
		MemStore: k.memStore,
		Branch:   k.branch,
	})
	k.Sim.Regs.PC = sim.Word{Value: region.Base, Taint: table.Constant}
	return k
}

// BreakCondition reports whether the last Step rejected the fetch because
// the until predicate fired.
func (k *KSim) BreakCondition() bool { return k.breakCondition }

func (k *KSim) fetch(pc sim.Word) (sim.Word, bool) {
	if pc.Taint.IsUnknown() {
		return sim.Word{}, false
	}
	if k.Budget <= 0 {
		return sim.Word{}, false
	}
	if k.clearTemporariesNextFetch {
		k.Sim.Regs.ClearRangeUnknown(0, 17, k.Sim.Taint)
		k.clearTemporariesNextFetch = false
	}

	offset := pc.Value - k.Region.Base
	if offset+4 > uint64(len(k.Region.Code)) {
		return sim.Word{}, false
	}

	reentry := k.lastBreakSet && pc.Value == k.lastBreak
	if k.until != nil && !reentry && k.until(pc.Value) {
		k.breakCondition = true
		k.lastBreak = pc.Value
		k.lastBreakSet = true
		return sim.Word{}, false
	}
	if reentry {
		k.lastBreakSet = false
	}

	word := binary.LittleEndian.Uint32(k.Region.Code[offset : offset+4])
	k.Budget--
	k.breakCondition = false
	return sim.Word{Value: uint64(word), Taint: pc.Taint}, true
}

// memLoad never models real memory contents: every load returns zero with
// UNKNOWN taint (spec.md §4.D).
func (k *KSim) memLoad(addr sim.Word, sizeBytes uint8) (sim.Word, bool) {
	return sim.Word{Value: 0, Taint: k.Sim.Taint.Unknown}, true
}

// memStore accepts every store without recording it.
func (k *KSim) memStore(addr sim.Word, value sim.Word, sizeBytes uint8, baseReg uint8) bool {
	return true
}

func (k *KSim) branch(kind sim.BranchKind, target sim.Word, cond sim.Word) (taken bool, cont bool) {
	switch kind {
	case sim.BranchKindLink:
		k.clearTemporariesNextFetch = true
		k.sawCall = true
		k.lastCallTarget = target
		return false, true

	case sim.BranchKindReturn:
		k.sawReturn = true
		if target.Taint.IsUnknown() {
			return false, false
		}
		return true, true

	case sim.BranchKindDirect:
		if target.Taint.IsUnknown() {
			return false, false
		}
		return true, true

	case sim.BranchKindConditional:
		if !k.execUntilActive {
			return false, false // no scripted policy: abort, per spec.md §4.D
		}
		idx := k.branchIdx
		k.branchIdx++
		if idx < len(k.branches) {
			return k.branches[idx], true
		}
		return false, true // ALL_FALSE sentinel: remaining conditionals not-taken
	}
	return false, false
}

// setBranches installs a scripted conditional-branch vector for the
// duration of one exec_until-family call; restoreBranches (deferred by the
// caller) uninstalls it.
func (k *KSim) setBranches(branches []bool) {
	k.branches = branches
	k.branchIdx = 0
	k.execUntilActive = true
}

func (k *KSim) restoreBranches() {
	k.branches = nil
	k.branchIdx = 0
	k.execUntilActive = false
}

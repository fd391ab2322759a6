package sim

// BranchKind classifies a control-flow instruction for the branch
// callback, matching spec.md §6's type ∈ {Branch, BranchAndLink, Return,
// Conditional}.
type BranchKind uint8

const (
	BranchKindDirect BranchKind = iota // B
	BranchKindLink                     // BL / BLR
	BranchKindReturn                   // RET
	BranchKindConditional              // CBZ / CBNZ
)

// FetchFunc supplies the next instruction word for pc. Returning
// cont=false aborts the step (spec.md §4.C step (i)).
type FetchFunc func(pc Word) (instruction Word, cont bool)

// MemLoadFunc supplies the value read from addr. sizeBytes is a power of
// two (1, 2, 4, or 8).
type MemLoadFunc func(addr Word, sizeBytes uint8) (value Word, cont bool)

// MemStoreFunc is invoked with the address and value of a store. baseReg is
// the 5-bit index of the register that supplied the store's base address
// (31 denotes SP, which is always what LDP/STR/STP use) — threaded through
// so a collaborator like ksim's exec_until_store can recognise "a store
// through this particular base register" without re-decoding the
// instruction itself.
type MemStoreFunc func(addr Word, value Word, sizeBytes uint8, baseReg uint8) (cont bool)

// BranchFunc decides whether a control-flow instruction is taken. target
// and condition are pre-computed per spec.md §4.C step (vi); the callback
// may override what the ISA would otherwise dictate (ksim's scripted
// branches[] vector does exactly this for conditional branches).
type BranchFunc func(kind BranchKind, target Word, condition Word) (taken bool, cont bool)

// IllegalFunc is invoked when no recogniser matches the fetched word.
// Returning false aborts the step; the default (ksim) policy clears all
// general-purpose registers and PSTATE to UNKNOWN and continues.
type IllegalFunc func(s *Sim) (cont bool)

// Callbacks bundles every client hook the core simulator consults during
// Step (spec.md §4.C/§6). A nil IllegalFunc falls back to DefaultIllegal.
type Callbacks struct {
	Fetch    FetchFunc
	MemLoad  MemLoadFunc
	MemStore MemStoreFunc
	Branch   BranchFunc
	Illegal  IllegalFunc
}

// DefaultIllegal implements spec.md §4.C's default illegal-instruction
// handler: clear all GP registers and PSTATE to UNKNOWN, continue.
func DefaultIllegal(s *Sim) bool {
	s.Regs.ClearGPUnknown(s.Taint)
	return true
}

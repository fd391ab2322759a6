package arm64

// Kind tags which variant of Insn is populated. For every Kind except
// KindInvalid and KindNop, exactly one of the pointer fields on Insn is
// non-nil; those two carry none.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNop
	KindAdcSbc
	KindAddSubImm
	KindAddSubShiftedReg
	KindAddSubExtReg
	KindAdrAdrp
	KindLogicalImm
	KindLogicalShiftedReg
	KindBranchImm  // B / BL
	KindBranchReg  // BR / BLR / RET
	KindCompareBranch // CBZ / CBNZ
	KindLoadStorePair // LDP / STP
	KindLoadStore     // LDR / STR (pre/post/unsigned-offset)
	KindLoadLiteral   // LDR literal
	KindMoveWide      // MOVK / MOVN / MOVZ
)

func (k Kind) String() string {
	names := [...]string{
		"invalid", "nop", "adc/sbc", "add/sub-imm", "add/sub-shifted-reg",
		"add/sub-ext-reg", "adr/adrp", "logical-imm", "logical-shifted-reg",
		"branch-imm", "branch-reg", "compare-branch", "load-store-pair",
		"load-store", "load-literal", "move-wide",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "?kind?"
}

// Insn is the decoded-instruction record: a tagged union with one arm per
// family recognised by the decoder. Consumers switch on Kind and read the
// matching non-nil field.
type Insn struct {
	Kind Kind
	Raw  uint32

	AdcSbc           *AdcSbcInsn
	AddSubImm        *AddSubImmInsn
	AddSubShiftedReg *AddSubShiftedRegInsn
	AddSubExtReg     *AddSubExtRegInsn
	AdrAdrp          *AdrAdrpInsn
	LogicalImm       *LogicalImmInsn
	LogicalShiftedReg *LogicalShiftedRegInsn
	BranchImm        *BranchImmInsn
	BranchReg        *BranchRegInsn
	CompareBranch    *CompareBranchInsn
	LoadStorePair    *LoadStorePairInsn
	LoadStore        *LoadStoreInsn
	LoadLiteral      *LoadLiteralInsn
	MoveWide         *MoveWideInsn
}

// AdcSbcInsn is ADC/ADCS/SBC/SBCS Rd, Rn, Rm.
type AdcSbcInsn struct {
	Sub       bool // false = ADC, true = SBC
	SetFlags  bool
	Rd, Rn, Rm GPReg
}

// AddSubImmInsn is ADD/ADDS/SUB/SUBS Rd, Rn, #imm{, shift}.
type AddSubImmInsn struct {
	Sub       bool
	SetFlags  bool
	ShiftBy12 bool // true: imm is shifted left by 12
	Imm12     uint16
	Rd, Rn    GPReg
}

// AddSubShiftedRegInsn is ADD/SUB(S) Rd, Rn, Rm, <shift> #amount.
type AddSubShiftedRegInsn struct {
	Sub      bool
	SetFlags bool
	Shift    ShiftKind
	Amount   uint8
	Rd, Rn, Rm GPReg
}

// AddSubExtRegInsn is ADD/SUB(S) Rd, Rn, Rm, <extend> {#amount}.
type AddSubExtRegInsn struct {
	Sub      bool
	SetFlags bool
	Extend   ExtendKind
	Amount   uint8 // 0-4
	Rd, Rn, Rm GPReg
}

// AdrAdrpInsn is ADR/ADRP Rd, #imm.
type AdrAdrpInsn struct {
	Page  bool // true = ADRP (imm already includes the <<12)
	Imm   int64
	Rd    GPReg
}

// LogicalImmInsn is AND/ORR/EOR Rd, Rn, #bitmask.
type LogicalImmInsn struct {
	Op        LogicalOp
	Is64      bool
	Wmask     uint64
	Rd, Rn    GPReg
}

// LogicalShiftedRegInsn is AND/ORR/EOR Rd, Rn, Rm{, shift #amount}.
type LogicalShiftedRegInsn struct {
	Op       LogicalOp
	Shift    ShiftKind
	Amount   uint8
	Negate   bool // N bit: BIC/ORN/EON forms; not emitted by this decoder's accepted subset
	Rd, Rn, Rm GPReg
}

// LogicalOp names the bitwise operation for logical-immediate and
// logical-shifted-register forms.
type LogicalOp uint8

const (
	LogicalAnd LogicalOp = iota
	LogicalOrr
	LogicalEor
)

func (o LogicalOp) String() string {
	switch o {
	case LogicalAnd:
		return "AND"
	case LogicalOrr:
		return "ORR"
	case LogicalEor:
		return "EOR"
	default:
		return "?logical?"
	}
}

// BranchImmInsn is B/BL label.
type BranchImmInsn struct {
	Link bool
	Imm  int64 // byte offset, already multiplied by 4
}

// BranchRegKind distinguishes BR/BLR/RET.
type BranchRegKind uint8

const (
	Br BranchRegKind = iota
	Blr
	Ret
)

// BranchRegInsn is BR/BLR/RET Rn.
type BranchRegInsn struct {
	Op BranchRegKind
	Rn GPReg
}

// CompareBranchInsn is CBZ/CBNZ Rt, label.
type CompareBranchInsn struct {
	NonZero bool
	Is64    bool
	Imm     int64
	Rt      GPReg
}

// LoadStorePairInsn is LDP/STP with pre-index, post-index, or signed-offset
// addressing.
type LoadStorePairInsn struct {
	Load       bool
	Is64       bool
	Writeback  bool
	PostIndex  bool // true: post-index (writeback after access); false with Writeback: pre-index
	SignedImm  int64
	Rt1, Rt2, Rn GPReg
}

// LoadStoreInsn is LDR/STR with pre-index, post-index, or unsigned-offset
// addressing.
type LoadStoreInsn struct {
	Load      bool
	SizeBytes uint8 // 1, 2, 4, or 8
	SignExtend bool
	SignExtendTo64 bool // when SignExtend, true widens to X, false to W
	Writeback bool
	PostIndex bool
	Imm       int64
	Rt, Rn    GPReg
}

// LoadLiteralInsn is LDR (literal) Rt, label.
type LoadLiteralInsn struct {
	Is64       bool
	SignExtend bool // LDRSW literal
	Imm        int64
	Rt         GPReg
}

// MoveWideOp names MOVN/MOVZ/MOVK.
type MoveWideOp uint8

const (
	MovN MoveWideOp = iota
	MovZ
	MovK
)

func (o MoveWideOp) String() string {
	switch o {
	case MovN:
		return "MOVN"
	case MovZ:
		return "MOVZ"
	case MovK:
		return "MOVK"
	default:
		return "?movwide?"
	}
}

// MoveWideInsn is MOVN/MOVZ/MOVK Rd, #imm16, LSL #shift.
type MoveWideInsn struct {
	Op    MoveWideOp
	Is64  bool
	Shift uint8 // 0, 16, 32, or 48
	Imm16 uint16
	Rd    GPReg
}

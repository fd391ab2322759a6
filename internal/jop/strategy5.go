package jop

import "ktsim/internal/gadget"

// Strategy5 is spec.md §4.F's second stack-argument fallback: the same
// shape as Strategy3, built against gadget_populate_2 / gadget_store_result_2
// — a different hijacked prologue/epilogue pair, so a kernel build missing
// strategy 3's candidate function can still offer a stack-argument strategy
// via another. Capacity is the same 8-register/4-stack-word total strategy3
// documents (see DESIGN.md).
var Strategy5 = Strategy{
	Name: "strategy5",
	RequiredGadgets: []string{
		gadget.Dispatch, gadget.MovX8X6BrX6, gadget.MovX10X4BrX8,
		gadget.MovX9X10BrX8, gadget.MovX19X9BrX8, gadget.MovX12X3BrX8,
		gadget.MovX20X12BlrX8, gadget.MovX24X2BrX8, gadget.MovX23X0BlrX8,
		gadget.MovX25X0BlrX8, gadget.GadgetPopulate2, gadget.GadgetCallFunction1,
		gadget.GadgetStoreResult2, gadget.Ret,
	},
	PayloadSize:   sPayloadSize,
	StackArgBytes: 0x20,
	MaxArgs:       12,
	Build: func(a BuildArgs, buf []byte) (BuildResult, error) {
		return buildPrologueStrategy("strategy5", prologueGadgets{
			populate:    gadget.GadgetPopulate2,
			storeResult: gadget.GadgetStoreResult2,
		}, 12, a, buf)
	},
}

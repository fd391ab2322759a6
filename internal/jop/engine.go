// Package jop implements spec.md §4.F: a call engine that selects from a
// registry of JOP (jump-oriented-programming) call strategies and, once one
// is selected, builds a deterministic payload that a 7-argument kernel-call
// primitive can launch to invoke an arbitrary kernel function.
//
// The real call_7 primitive and the memory transfer around it are external
// collaborators (spec.md §6) this package never implements — per
// SPEC_FULL.md's non-goals, no real kernel-call primitive exists here; the
// Transport interface is this package's synthetic stand-in, letting
// internal/kmem or a test supply an in-process buffer instead.
package jop

import "ktsim/internal/kerrors"

// GadgetResolver is satisfied by internal/gadget.Locator: it reports a
// located gadget's runtime address by name.
type GadgetResolver interface {
	Resolve(name string) (uint64, bool)
}

// InitialState is the register vector a build function hands to the
// call-7 primitive: original_source/.../jop/call_strategy.h's
// jop_call_initial_state struct is exactly `{ uint64_t pc; uint64_t x[7]; }`
// — pc plus the seven registers (x0-x6) a real call_7 primitive guarantees
// to set before the very first gadget runs. Every other register the
// payload ends up needing (x8-x12, x19-x25, x28, x30, sp, ...) is not part
// of this contract; a strategy's build function must bootstrap those
// itself via a gadget chain embedded in the payload, the way
// call_strategy_1.c through call_strategy_6.c all do.
type InitialState struct {
	PC uint64
	X  [7]uint64
}

// BuildArgs is everything a strategy's build function needs to lay out one
// call's payload.
type BuildArgs struct {
	Func        uint64
	Args        []uint64
	PayloadAddr uint64
	Gadgets     GadgetResolver
	// Prologue/Epilogue are the entry/exit addresses of a real kernel
	// function whose register-saving prologue and stack-restoring epilogue
	// strategies 3/5/6 hijack for stack-argument capacity (spec.md §4.F).
	// They come from the symbol table, not the gadget locator, and are
	// zero/unused for strategies that don't need them.
	Prologue uint64
	Epilogue uint64
}

// BuildResult is what a strategy's build function hands back to the engine.
type BuildResult struct {
	Initial    InitialState
	ResultAddr uint64
}

// BuildFunc populates buf (already sized to Strategy.PayloadSize) in place.
type BuildFunc func(a BuildArgs, buf []byte) (BuildResult, error)

// Strategy is spec.md §3's call-strategy record: a fixed set of required
// gadgets, a payload size, a stack-argument budget, and the function that
// lays out the payload.
type Strategy struct {
	Name            string
	RequiredGadgets []string
	PayloadSize     int
	StackArgBytes   int
	MaxArgs         int
	Build           BuildFunc
}

// Transport is the external collaborator spec.md §6 names "the underlying
// 7-argument kernel-call primitive" plus the memcpy-into-kernel step around
// it (spec.md §4.F steps 5-6).
type Transport interface {
	WriteKernel(addr uint64, data []byte) error
	Call7(state InitialState) error
	ReadKernelWord(addr uint64) (uint64, error)
}

// Engine manages the list of known call strategies in preference order
// (spec.md §4.F).
type Engine struct {
	Strategies []Strategy
	Gadgets    GadgetResolver
}

// NewEngine builds an Engine with the built-in strategies in their
// documented preference order: more register-only capacity first, falling
// back to strategies needing a hijacked prologue/epilogue.
func NewEngine(gadgets GadgetResolver) *Engine {
	return &Engine{
		Strategies: []Strategy{Strategy1, Strategy2, Strategy3, Strategy5, Strategy6},
		Gadgets:    gadgets,
	}
}

// Select returns the first strategy whose entire required-gadget set is
// resolved (spec.md §4.F step 1).
func (e *Engine) Select() (Strategy, bool) {
	for _, s := range e.Strategies {
		if e.allResolved(s.RequiredGadgets) {
			return s, true
		}
	}
	return Strategy{}, false
}

func (e *Engine) allResolved(names []string) bool {
	for _, n := range names {
		if _, ok := e.Gadgets.Resolve(n); !ok {
			return false
		}
	}
	return true
}

// Invoke runs spec.md §4.F's six-step call sequence: select a strategy,
// reject excess arguments, build the payload, copy it into the kernel,
// launch call_7, then read the result word back.
func (e *Engine) Invoke(funcAddr uint64, args []uint64, payloadAddr uint64, prologue, epilogue uint64, t Transport) (uint64, error) {
	strat, ok := e.Select()
	if !ok {
		return 0, kerrors.New(kerrors.FunctionalityUnavailable, "no JOP call strategy has all required gadgets resolved")
	}
	if len(args) > strat.MaxArgs {
		return 0, kerrors.New(kerrors.FunctionalityUnavailable,
			"strategy %s supports at most %d arguments, got %d", strat.Name, strat.MaxArgs, len(args))
	}

	buf := make([]byte, strat.PayloadSize)
	res, err := strat.Build(BuildArgs{
		Func: funcAddr, Args: args, PayloadAddr: payloadAddr,
		Gadgets: e.Gadgets, Prologue: prologue, Epilogue: epilogue,
	}, buf)
	if err != nil {
		return 0, err
	}

	if err := t.WriteKernel(payloadAddr, buf); err != nil {
		return 0, err
	}
	if err := t.Call7(res.Initial); err != nil {
		return 0, err
	}
	return t.ReadKernelWord(res.ResultAddr)
}

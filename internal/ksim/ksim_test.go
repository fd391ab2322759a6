package ksim

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"ktsim/internal/sim"
	"ktsim/internal/taint"
)

func encode(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}

const (
	nop = 0xD503201F
)

func TestFetchExhaustsBudget(t *testing.T) {
	k := New(Region{Base: 0x1000, Code: encode(nop, nop, nop)}, 1, taint.DefaultTable())
	cont, err := k.Sim.Step()
	require.NoError(t, err)
	require.True(t, cont)
	cont, err = k.Sim.Step()
	require.NoError(t, err)
	require.False(t, cont)
}

// BL clears the caller-saved registers (X0-X17) on the next fetch after the
// call boundary, per spec.md §4.D.
func TestClearTemporariesAfterCall(t *testing.T) {
	code := encode(
		0x94000002, // BL +8 (past the end of this region; BL is never taken)
		nop,
	)
	k := New(Region{Base: 0x1000, Code: code}, 10, taint.DefaultTable())
	k.Sim.Regs.GP[0] = sim.Word{Value: 0x42, Taint: k.Sim.Taint.Constant}

	cont, err := k.Sim.Step() // BL: not taken, marks call boundary
	require.NoError(t, err)
	require.True(t, cont)
	require.True(t, k.clearTemporariesNextFetch)
	require.False(t, k.Sim.Regs.GP[0].Taint.IsUnknown())

	cont, err = k.Sim.Step() // next fetch clears X0-X17
	require.NoError(t, err)
	require.True(t, cont)
	require.True(t, k.Sim.Regs.GP[0].Taint.IsUnknown())
}

// until-predicate break, then re-entry guard lets the same PC proceed once
// the caller resumes without changing PC.
func TestUntilBreakAndReentry(t *testing.T) {
	k := New(Region{Base: 0x1000, Code: encode(nop, nop)}, 10, taint.DefaultTable())
	k.until = func(pc uint64) bool { return pc == 0x1000 }

	cont, err := k.Sim.Step()
	require.NoError(t, err)
	require.False(t, cont)
	require.True(t, k.BreakCondition())
	require.EqualValues(t, 0x1000, k.Sim.Regs.PC.Value)

	cont, err = k.Sim.Step() // re-entry at the same PC proceeds
	require.NoError(t, err)
	require.True(t, cont)
	require.EqualValues(t, 0x1004, k.Sim.Regs.PC.Value)
}

// BL never aborts: it is not taken, but the step continues.
func TestBranchPolicyBLDoesNotTakeButContinues(t *testing.T) {
	k := New(Region{Base: 0x1000, Code: encode(0x94000004, nop, nop, nop, nop)}, 10, taint.DefaultTable())
	cont, err := k.Sim.Step()
	require.NoError(t, err)
	require.True(t, cont)
	require.EqualValues(t, 0x1004, k.Sim.Regs.PC.Value) // advanced, not jumped
}

// B/RET to an unknown target aborts.
func TestBranchPolicyUnknownTargetAborts(t *testing.T) {
	k := New(Region{Base: 0x1000, Code: encode(0xD65F03C0)}, 10, taint.DefaultTable()) // RET X30
	k.Sim.Regs.GP[30] = sim.Word{Value: 0x2000, Taint: k.Sim.Taint.Unknown}

	cont, err := k.Sim.Step()
	require.NoError(t, err)
	require.False(t, cont)
}

// B/RET to a known target is taken.
func TestBranchPolicyKnownTargetTaken(t *testing.T) {
	k := New(Region{Base: 0x1000, Code: encode(0xD65F03C0)}, 10, taint.DefaultTable()) // RET X30
	k.Sim.Regs.GP[30] = sim.Word{Value: 0x2000, Taint: k.Sim.Taint.Constant}

	cont, err := k.Sim.Step()
	require.NoError(t, err)
	require.True(t, cont)
	require.EqualValues(t, 0x2000, k.Sim.Regs.PC.Value)
}

// A conditional branch with no scripted session active aborts.
func TestBranchPolicyConditionalAbortsWithoutScript(t *testing.T) {
	k := New(Region{Base: 0x1000, Code: encode(0xB4000040)}, 10, taint.DefaultTable()) // CBZ X0, +8
	cont, err := k.Sim.Step()
	require.NoError(t, err)
	require.False(t, cont)
}

// A conditional branch with a scripted vector active takes exactly what the
// vector says, and pins to not-taken past the end (ALL_FALSE sentinel).
func TestBranchPolicyConditionalFollowsScript(t *testing.T) {
	code := encode(
		0xB4000040, // CBZ X0, +8
		0xB4000040, // CBZ X0, +8
		0xB4000040, // CBZ X0, +8
	)
	k := New(Region{Base: 0x1000, Code: code}, 10, taint.DefaultTable())

	ok := k.ExecUntil(func(uint64) bool { return false }, []bool{true}, 3)
	require.False(t, ok) // pred never fires; the third step's fetch at 0x100C runs off the region
	// first CBZ taken -> jumps to 0x1008 (third instruction), vector exhausted
	// for any further conditional there, so ALL_FALSE makes it not-taken.
	require.EqualValues(t, 0x100C, k.Sim.Regs.PC.Value)
}

func TestScanForJumpForward(t *testing.T) {
	code := encode(
		nop,
		0x14000003, // B +12 (unconditional jump)
		nop,
		nop,
	)
	k := New(Region{Base: 0x1000, Code: code}, 10, taint.DefaultTable())
	pc, found := k.ScanForJump(0, 4)
	require.True(t, found)
	require.EqualValues(t, 0x1004, pc)
}

func TestScanForCallForward(t *testing.T) {
	code := encode(
		nop,
		0x94000003, // BL +12
		nop,
		nop,
	)
	k := New(Region{Base: 0x1000, Code: code}, 10, taint.DefaultTable())
	pc, found := k.ScanForCall(0, 4)
	require.True(t, found)
	require.EqualValues(t, 0x1004, pc)
}

func TestScanBackwardNoSimulation(t *testing.T) {
	code := encode(
		nop,
		0x14000003, // B +12
		nop,
	)
	k := New(Region{Base: 0x1000, Code: code}, 10, taint.DefaultTable())
	k.Sim.Regs.PC = sim.Word{Value: 0x1008, Taint: k.Sim.Taint.Constant}

	pc, found := k.ScanFor(-1, unconditionalB, 0, 3)
	require.True(t, found)
	require.EqualValues(t, 0x1004, pc)
	require.EqualValues(t, 0x1008, k.Sim.Regs.PC.Value) // unchanged: no stepping
}

func TestExecUntilCallStopsAtBL(t *testing.T) {
	code := encode(
		nop,
		0x94000003, // BL +12
		nop,
	)
	k := New(Region{Base: 0x1000, Code: code}, 10, taint.DefaultTable())
	target, found := k.ExecUntilCall(nil, 5)
	require.True(t, found)
	require.EqualValues(t, 0x1010, target.Value) // BL at 0x1004, offset +12
}

func TestExecUntilReturnStopsAtRET(t *testing.T) {
	code := encode(
		nop,
		0xD65F03C0, // RET X30
	)
	k := New(Region{Base: 0x1000, Code: code}, 10, taint.DefaultTable())
	k.Sim.Regs.GP[30] = sim.Word{Value: 0x2000, Taint: k.Sim.Taint.Constant}

	ok := k.ExecUntilReturn(nil, 5)
	require.True(t, ok)
	require.EqualValues(t, 0x2000, k.Sim.Regs.PC.Value)
}

func TestExecUntilStoreFiltersByBaseRegister(t *testing.T) {
	code := encode(
		0xF9000001, // STR X1, [X0]
	)
	k := New(Region{Base: 0x1000, Code: code}, 10, taint.DefaultTable())
	k.Sim.Regs.GP[0] = sim.Word{Value: 0x3000, Taint: k.Sim.Taint.Constant}
	k.Sim.Regs.GP[1] = sim.Word{Value: 0x99, Taint: k.Sim.Taint.Constant}

	v, found := k.ExecUntilStore(nil, 0, 5)
	require.True(t, found)
	require.EqualValues(t, 0x99, v.Value)

	k2 := New(Region{Base: 0x1000, Code: code}, 10, taint.DefaultTable())
	k2.Sim.Regs.GP[0] = sim.Word{Value: 0x3000, Taint: k2.Sim.Taint.Constant}
	k2.Sim.Regs.GP[1] = sim.Word{Value: 0x99, Taint: k2.Sim.Taint.Constant}

	_, found2 := k2.ExecUntilStore(nil, 5, 5) // base reg 5 never supplies a store here
	require.False(t, found2)
}

package jop

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ktsim/internal/gadget"
)

// fakeGadgets reports a fixed set of gadgets as resolved at made-up
// addresses, letting tests control exactly which strategies become eligible.
type fakeGadgets struct {
	resolved map[string]uint64
}

func (f *fakeGadgets) Resolve(name string) (uint64, bool) {
	a, ok := f.resolved[name]
	return a, ok
}

func merge(maps ...map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// sharedBootstrapGadgets is the relay chain strategy1.go and strategy2.go
// both depend on, addressed identically so strategy1/2-specific tests can
// tell the two strategies apart solely by the gadgets listed below.
func sharedBootstrapGadgets() map[string]uint64 {
	return map[string]uint64{
		gadget.Dispatch:               0x1000,
		gadget.MovX12X2BrX3:           0x1100,
		gadget.MovX2X30BrX12:          0x1110,
		gadget.MovX8X4BrX5:            0x1120,
		gadget.MovX20X0BlrX8:          0x1130,
		gadget.MovX10X4BrX8:           0x1140,
		gadget.MovX9X10BrX8:           0x1150,
		gadget.MovX11X9BrX8:           0x1160,
		gadget.LoadRow:                0x1170,
		gadget.AddX20X34BrX8:          0x1180,
		gadget.MovX12X3BrX8:           0x1190,
		gadget.MovX0X5BlrX8:           0x11a0,
		gadget.MovX9X0BrX11:           0x11b0,
		gadget.MovX7X9BlrX11:          0x11c0,
		gadget.MovX0X3BlrX8:           0x11d0,
		gadget.MovX1X9MovX2X10BlrX11:  0x11e0,
		gadget.GadgetInvokeFunc:       0x11f0,
		gadget.Ret:                    0x1200,
	}
}

func strategy1OnlyGadgets() map[string]uint64 {
	return map[string]uint64{
		gadget.MovX21X2BrX8:  0x1210,
		gadget.MovX22X6BlrX8: 0x1220,
		gadget.StoreResume1:  0x1230,
		gadget.MovX30X21BrX8: 0x1240,
	}
}

func strategy2OnlyGadgets() map[string]uint64 {
	return map[string]uint64{
		gadget.MovX28X2BlrX8: 0x1310,
		gadget.MovX21X5BlrX8: 0x1320,
		gadget.StoreResume2:  0x1330,
		gadget.MovX30X28BrX8: 0x1340,
	}
}

// prologueSharedGadgets backs strategies 3, 5 and 6's shared bootstrap.
func prologueSharedGadgets() map[string]uint64 {
	return map[string]uint64{
		gadget.Dispatch:             0x1000,
		gadget.MovX8X6BrX6:          0x1400,
		gadget.MovX10X4BrX8:         0x1140,
		gadget.MovX9X10BrX8:         0x1150,
		gadget.MovX19X9BrX8:         0x1410,
		gadget.MovX12X3BrX8:         0x1190,
		gadget.MovX20X12BlrX8:       0x1420,
		gadget.MovX24X2BrX8:         0x1430,
		gadget.MovX23X0BlrX8:        0x1440,
		gadget.MovX25X0BlrX8:        0x1450,
		gadget.GadgetCallFunction1:  0x1460,
		gadget.Ret:                  0x1200,
	}
}

func strategy3OnlyGadgets() map[string]uint64 {
	return map[string]uint64{
		gadget.GadgetPopulate1:    0x1500,
		gadget.GadgetStoreResult1: 0x1510,
	}
}

func strategy5OnlyGadgets() map[string]uint64 {
	return map[string]uint64{
		gadget.GadgetPopulate2:    0x1520,
		gadget.GadgetStoreResult2: 0x1530,
	}
}

func strategy6OnlyGadgets() map[string]uint64 {
	return map[string]uint64{
		gadget.GadgetPopulate3:    0x1540,
		gadget.GadgetStoreResult2: 0x1530,
	}
}

func allGadgets() *fakeGadgets {
	return &fakeGadgets{resolved: merge(
		sharedBootstrapGadgets(), strategy1OnlyGadgets(), strategy2OnlyGadgets(),
		prologueSharedGadgets(), strategy3OnlyGadgets(), strategy5OnlyGadgets(), strategy6OnlyGadgets(),
	)}
}

// fakeTransport records every call instead of touching real memory.
type fakeTransport struct {
	writes     map[uint64][]byte
	called     *InitialState
	resultWord uint64
	writeErr   error
	callErr    error
	readErr    error
}

func newFakeTransport(resultWord uint64) *fakeTransport {
	return &fakeTransport{writes: make(map[uint64][]byte), resultWord: resultWord}
}

func (f *fakeTransport) WriteKernel(addr uint64, data []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.writes[addr] = cp
	return nil
}

func (f *fakeTransport) Call7(state InitialState) error {
	if f.callErr != nil {
		return f.callErr
	}
	s := state
	f.called = &s
	return nil
}

func (f *fakeTransport) ReadKernelWord(addr uint64) (uint64, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.resultWord, nil
}

func TestSelectPrefersEarlierStrategyWhenMultipleEligible(t *testing.T) {
	e := NewEngine(allGadgets())
	s, ok := e.Select()
	require.True(t, ok)
	assert.Equal(t, "strategy1", s.Name)
}

func TestSelectFallsBackWhenPreferredGadgetsMissing(t *testing.T) {
	g := &fakeGadgets{resolved: merge(sharedBootstrapGadgets(), strategy2OnlyGadgets())}
	e := NewEngine(g)
	s, ok := e.Select()
	require.True(t, ok)
	assert.Equal(t, "strategy2", s.Name)
}

func TestSelectFallsBackToStackStrategyWhenRegisterStrategiesUnavailable(t *testing.T) {
	g := &fakeGadgets{resolved: merge(prologueSharedGadgets(), strategy3OnlyGadgets())}
	e := NewEngine(g)
	s, ok := e.Select()
	require.True(t, ok)
	assert.Equal(t, "strategy3", s.Name)
}

func TestSelectReportsFalseWhenNoStrategyEligible(t *testing.T) {
	e := NewEngine(&fakeGadgets{resolved: map[string]uint64{gadget.Dispatch: 0x1000}})
	_, ok := e.Select()
	assert.False(t, ok)
}

func TestInvokeRunsFullSequenceAgainstTransport(t *testing.T) {
	e := NewEngine(allGadgets())
	tr := newFakeTransport(0xDEADBEEF)

	result, err := e.Invoke(0x2000, []uint64{1, 2, 3}, 0x3000, 0, 0, tr)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xDEADBEEF), result)

	require.NotNil(t, tr.called)
	assert.Equal(t, uint64(0x1100), tr.called.PC)
	assert.Equal(t, uint64(0x3000), tr.called.X[0])

	payload, ok := tr.writes[0x3000]
	require.True(t, ok)
	assert.Equal(t, Strategy1.PayloadSize, len(payload))
}

func TestInvokeRejectsExcessArguments(t *testing.T) {
	e := NewEngine(allGadgets())
	tr := newFakeTransport(0)

	args := make([]uint64, Strategy1.MaxArgs+1)
	_, err := e.Invoke(0x2000, args, 0x3000, 0, 0, tr)
	require.Error(t, err)
	assert.Empty(t, tr.writes)
	assert.Nil(t, tr.called)
}

func TestInvokeFailsWhenNoStrategyEligible(t *testing.T) {
	e := NewEngine(&fakeGadgets{})
	tr := newFakeTransport(0)
	_, err := e.Invoke(0x2000, nil, 0x3000, 0, 0, tr)
	require.Error(t, err)
}

func TestInvokePropagatesTransportWriteError(t *testing.T) {
	e := NewEngine(allGadgets())
	tr := newFakeTransport(0)
	tr.writeErr = assert.AnError
	_, err := e.Invoke(0x2000, nil, 0x3000, 0, 0, tr)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestBuildStrategy1IsDeterministic(t *testing.T) {
	gadgets := allGadgets()
	args := BuildArgs{Func: 0x2000, Args: []uint64{1, 2, 3, 4, 5, 6, 7, 8}, PayloadAddr: 0x3000, Gadgets: gadgets}

	buf1 := make([]byte, Strategy1.PayloadSize)
	res1, err := buildStrategy1(args, buf1)
	require.NoError(t, err)

	buf2 := make([]byte, Strategy1.PayloadSize)
	res2, err := buildStrategy1(args, buf2)
	require.NoError(t, err)

	assert.Equal(t, buf1, buf2)
	assert.Equal(t, res1, res2)
}

// TestBuildStrategy1MatchesSpecScenarioSix pins the exact offsets spec.md
// §8 scenario 6 names: func's low word at 0x54, arg0 at 0x98, and the
// initial pc at mov_x12_x2__br_x3.
func TestBuildStrategy1MatchesSpecScenarioSix(t *testing.T) {
	gadgets := allGadgets()
	args := BuildArgs{
		Func:        0xFFFF_FFFF_0001_0000,
		Args:        []uint64{1, 2, 3, 4, 5, 6, 7, 8},
		PayloadAddr: 0x3000,
		Gadgets:     gadgets,
	}
	buf := make([]byte, Strategy1.PayloadSize)
	res, err := buildStrategy1(args, buf)
	require.NoError(t, err)

	assert.Equal(t, args.Func, binary.LittleEndian.Uint64(buf[s1Row1:]))
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(buf[0x98:]))
	assert.Equal(t, uint64(0x1100), res.Initial.PC)
	assert.Equal(t, uint64(0x3000+s1ResultSlot), res.ResultAddr)
}

func TestBuildStrategy1PayloadLayout(t *testing.T) {
	gadgets := allGadgets()
	args := BuildArgs{
		Func:        0x2000,
		Args:        []uint64{10, 11, 12, 13, 14, 15, 16, 17},
		PayloadAddr: 0x3000,
		Gadgets:     gadgets,
	}
	buf := make([]byte, Strategy1.PayloadSize)
	res, err := buildStrategy1(args, buf)
	require.NoError(t, err)

	assert.Equal(t, uint64(0x3000), res.Initial.X[0])
	assert.Equal(t, uint64(0x3000+s1ResultSlot), res.ResultAddr)

	// row2 holds args[1], args[2], args[0] in that order at 0x88/0x90/0x98.
	assert.Equal(t, uint64(11), binary.LittleEndian.Uint64(buf[s1Row2:]))
	assert.Equal(t, uint64(12), binary.LittleEndian.Uint64(buf[s1Row2+8:]))
	assert.Equal(t, uint64(10), binary.LittleEndian.Uint64(buf[s1Row2+0x10:]))

	// row3 holds args[3..6].
	assert.Equal(t, uint64(13), binary.LittleEndian.Uint64(buf[s1Row3:]))
	assert.Equal(t, uint64(14), binary.LittleEndian.Uint64(buf[s1Row3+8:]))
	assert.Equal(t, uint64(15), binary.LittleEndian.Uint64(buf[s1Row3+0x10:]))
	assert.Equal(t, uint64(16), binary.LittleEndian.Uint64(buf[s1Row3+0x18:]))

	// row1 holds func at 0x54 and args[7] at 0x64.
	assert.Equal(t, args.Func, binary.LittleEndian.Uint64(buf[s1Row1:]))
	assert.Equal(t, uint64(17), binary.LittleEndian.Uint64(buf[s1Row1+0x10:]))
}

func TestBuildStrategy1FailsOnMissingGadget(t *testing.T) {
	g := &fakeGadgets{resolved: map[string]uint64{gadget.Dispatch: 0x1000}}
	_, err := buildStrategy1(BuildArgs{Gadgets: g}, make([]byte, Strategy1.PayloadSize))
	require.Error(t, err)
}

func TestBuildStrategy2UsesItsOwnSaveRecoverGadgets(t *testing.T) {
	g := &fakeGadgets{resolved: merge(sharedBootstrapGadgets(), strategy2OnlyGadgets())}
	args := BuildArgs{Func: 0x2000, Args: []uint64{100, 200}, PayloadAddr: 0x4000, Gadgets: g}
	buf := make([]byte, Strategy2.PayloadSize)
	res, err := buildStrategy2(args, buf)
	require.NoError(t, err)

	assert.Equal(t, uint64(0x4000), res.Initial.X[0])
	// row2 still holds args[1], args[2]=0, args[0] at 0x88/0x90/0x98.
	assert.Equal(t, uint64(200), binary.LittleEndian.Uint64(buf[s1Row2:]))
	assert.Equal(t, uint64(100), binary.LittleEndian.Uint64(buf[s1Row2+0x10:]))
	// the seed still comes from mov_x8_x4__br_x5, shared with strategy1.
	assert.Equal(t, uint64(0x1120), res.Initial.X[2])
	// strategy 2's own save gadget (mov_x28_x2__blr_x8) is seeded into x5,
	// and its own recover gadget (mov_x21_x5__blr_x8) sits at JOP node 5,
	// fed the self pointer from row0's x5 slot.
	assert.Equal(t, uint64(0x1310), res.Initial.X[5])
	assert.Equal(t, uint64(0x1320), binary.LittleEndian.Uint64(buf[s1JopStackStart+5*s1NodeSize:]))
	assert.Equal(t, uint64(0x4000+s1SelfPtr), binary.LittleEndian.Uint64(buf[s1Row0+0x10:]))
}

func TestBuildStrategy2FailsWhenItsOwnGadgetsMissing(t *testing.T) {
	g := &fakeGadgets{resolved: merge(sharedBootstrapGadgets(), strategy1OnlyGadgets())}
	_, err := buildStrategy2(BuildArgs{Gadgets: g}, make([]byte, Strategy2.PayloadSize))
	require.Error(t, err)
}

func TestBuildPrologueStrategyLaysOutArgsTableAndSeed(t *testing.T) {
	gadgets := &fakeGadgets{resolved: merge(prologueSharedGadgets(), strategy3OnlyGadgets())}
	fullArgs := make([]uint64, Strategy3.MaxArgs)
	for i := range fullArgs {
		fullArgs[i] = uint64(i + 1)
	}
	a := BuildArgs{
		Func:        0x2000,
		Args:        fullArgs,
		PayloadAddr: 0x5000,
		Gadgets:     gadgets,
	}
	buf := make([]byte, Strategy3.PayloadSize)
	res, err := Strategy3.Build(a, buf)
	require.NoError(t, err)

	assert.Equal(t, uint64(0x1400), res.Initial.PC)
	assert.Equal(t, uint64(0x5000+sArgsTable), res.Initial.X[0])
	assert.Equal(t, a.Func, res.Initial.X[2])
	assert.Equal(t, fullArgs[1], res.Initial.X[3])
	assert.Equal(t, fullArgs[0], res.Initial.X[4])
	assert.Equal(t, uint64(0x5000+sResultSlot), res.ResultAddr)

	// the table holds args[2:] packed from sArgsTable.
	for i, want := range fullArgs[2:] {
		got := binary.LittleEndian.Uint64(buf[sArgsTable+8*i:])
		assert.Equal(t, want, got)
	}
}

func TestPrologueStrategyFailsWithoutItsOwnGadgets(t *testing.T) {
	gadgets := &fakeGadgets{resolved: prologueSharedGadgets()}
	a := BuildArgs{Func: 0x2000, PayloadAddr: 0x5000, Gadgets: gadgets}
	_, err := Strategy3.Build(a, make([]byte, Strategy3.PayloadSize))
	require.Error(t, err)
}

func TestStrategy6HasNarrowerStackCapacityThanStrategy3(t *testing.T) {
	assert.Less(t, Strategy6.MaxArgs, Strategy3.MaxArgs)
	assert.Less(t, Strategy6.StackArgBytes, Strategy3.StackArgBytes)
}

func TestStrategy3And5ShareShapeButAreDistinctStrategies(t *testing.T) {
	assert.NotEqual(t, Strategy3.Name, Strategy5.Name)
	assert.Equal(t, Strategy3.MaxArgs, Strategy5.MaxArgs)
	assert.Equal(t, Strategy3.PayloadSize, Strategy5.PayloadSize)
}

func TestStrategy2HasSameCapacityAsStrategy1(t *testing.T) {
	assert.Equal(t, Strategy1.MaxArgs, Strategy2.MaxArgs)
	assert.Equal(t, Strategy1.PayloadSize, Strategy2.PayloadSize)
}

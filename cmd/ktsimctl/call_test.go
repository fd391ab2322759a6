package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ktsim/internal/jop"
)

type fakeResolver struct{ known map[string]uint64 }

func (f fakeResolver) Resolve(name string) (uint64, bool) {
	a, ok := f.known[name]
	return a, ok
}

func TestForceStrategyNarrowsToNamedStrategy(t *testing.T) {
	engine := jop.NewEngine(fakeResolver{known: map[string]uint64{}})
	ok := forceStrategy(engine, "strategy2")
	require.True(t, ok)
	require.Len(t, engine.Strategies, 1)
	assert.Equal(t, "strategy2", engine.Strategies[0].Name)
}

func TestForceStrategyReportsUnknownName(t *testing.T) {
	engine := jop.NewEngine(fakeResolver{known: map[string]uint64{}})
	ok := forceStrategy(engine, "strategy99")
	assert.False(t, ok)
}

func TestBufferTransportRecordsWritesAndCalls(t *testing.T) {
	tr := newBufferTransport()
	require.NoError(t, tr.WriteKernel(0x100, []byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, tr.mem[0x100])

	require.NoError(t, tr.Call7(jop.InitialState{PC: 0x200}))
	require.NotNil(t, tr.invoked)
	assert.Equal(t, uint64(0x200), tr.invoked.PC)

	word, err := tr.ReadKernelWord(0x100)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), word)
}

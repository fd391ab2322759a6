package kmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopAccessorReadsReportFullLength(t *testing.T) {
	var a NopAccessor
	buf := make([]byte, 16)
	n, err := a.ReadHeap(0x1000, buf)
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	for _, b := range buf {
		assert.Equal(t, byte(0), b)
	}
}

func TestNopAccessorWritesSucceed(t *testing.T) {
	var a NopAccessor
	n, err := a.WriteUnsafe(0x2000, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRegistryAccessorReportsAPIUnavailableWhenFuncNil(t *testing.T) {
	a := NewRegistryAccessor(Registry{})
	_, err := a.ReadSafe(0x3000, make([]byte, 4))
	require.Error(t, err)
}

func TestRegistryAccessorDelegatesToProvidedFunc(t *testing.T) {
	called := false
	a := NewRegistryAccessor(Registry{
		ReadAllFunc: func(addr uint64, buf []byte) (int, error) {
			called = true
			assert.Equal(t, uint64(0x4000), addr)
			return len(buf), nil
		},
	})
	n, err := a.ReadAll(0x4000, make([]byte, 8))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.True(t, called)
}

func TestRegistryAccessorReportsShortTransferAsKernelIO(t *testing.T) {
	a := NewRegistryAccessor(Registry{
		WriteHeapFunc: func(addr uint64, buf []byte) (int, error) {
			return len(buf) - 1, nil
		},
	})
	_, err := a.WriteHeap(0x5000, make([]byte, 8))
	require.Error(t, err)
}

package kerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessageFormatsAddr(t *testing.T) {
	err := New(AddressUnmapped, "page fault").WithAddr(0xdead0000)
	require.Contains(t, err.Error(), "0xdead0000")
	require.Contains(t, err.Error(), "address-unmapped")
}

func TestWrapAllowsUnwrap(t *testing.T) {
	cause := errors.New("underlying syscall failure")
	err := New(IO, "read failed").Wrap(cause)
	require.ErrorIs(t, err, cause)
}

func TestStackPushPopOrder(t *testing.T) {
	s := NewStack()
	s.PushF(Core, "first")
	s.PushF(Core, "second")
	require.Len(t, s.Errors(), 2)
	require.Equal(t, "second", s.Pop().Message)
	require.Equal(t, "first", s.Pop().Message)
	require.Nil(t, s.Pop())
}

func TestStackStopPushSuppresses(t *testing.T) {
	s := NewStack()
	s.StopPush()
	s.PushF(Core, "suppressed")
	require.True(t, s.Empty())
	s.ResumePush()
	s.PushF(Core, "visible")
	require.Len(t, s.Errors(), 1)
}

func TestStackNestedStopPush(t *testing.T) {
	s := NewStack()
	s.StopPush()
	s.StopPush()
	s.ResumePush()
	s.PushF(Core, "still suppressed")
	require.True(t, s.Empty())
	s.ResumePush()
	s.PushF(Core, "now visible")
	require.Len(t, s.Errors(), 1)
}

func TestErrorKindString(t *testing.T) {
	require.Equal(t, "kernel-io", KernelIO.String())
}

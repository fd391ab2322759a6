package taskipc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskForPidIsStablePerPid(t *testing.T) {
	s := NewSimulated()
	a, err := s.TaskForPid(100)
	require.NoError(t, err)
	b, err := s.TaskForPid(100)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTaskForPidAllocatesDistinctPortsPerPid(t *testing.T) {
	s := NewSimulated()
	a, _ := s.TaskForPid(100)
	b, _ := s.TaskForPid(200)
	assert.NotEqual(t, a, b)
}

func TestTaskForPidRejectsNegativePid(t *testing.T) {
	s := NewSimulated()
	_, err := s.TaskForPid(-1)
	require.Error(t, err)
}

func TestKernelTaskIsUnsupported(t *testing.T) {
	s := NewSimulated()
	_, err := s.KernelTask()
	assert.ErrorIs(t, err, ErrKernelTaskPortUnsupported)
}

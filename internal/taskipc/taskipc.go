// Package taskipc implements spec.md §4.L: the Mach task IPC surface a
// kernel-call strategy's caller needs a function pointer to invoke through,
// plus design note §9(b)'s documented limitation on using it for the
// kernel task itself.
package taskipc

import "ktsim/internal/kerrors"

// Port is an opaque Mach port name, just large enough to round-trip
// through the simulated TaskPorts implementation.
type Port uint32

// TaskPorts resolves task ports by pid, and the kernel task's own port.
type TaskPorts interface {
	TaskForPid(pid int) (Port, error)
	KernelTask() (Port, error)
}

// ErrKernelTaskPortUnsupported is returned by every KernelTask
// implementation in this package: design note §9(b) observes that a
// task_for_pid-style call against the kernel task does not hand back a
// port usable the way an ordinary task's does (task_to_task_port doesn't
// apply to task 0). Callers needing to read or write kernel memory must go
// through internal/kmem, not a task port.
var ErrKernelTaskPortUnsupported = kerrors.New(kerrors.APIUnavailable,
	"taskipc: kernel task has no usable task port; use internal/kmem for kernel memory access")

// Simulated is a TaskPorts implementation with no real Mach IPC underneath:
// it hands back a deterministic port per pid, for tests and for the CLI's
// synthetic call path.
type Simulated struct {
	ports map[int]Port
	next  Port
}

// NewSimulated builds an empty Simulated registry, starting port
// allocation at 0x1000 (past Mach's small reserved range).
func NewSimulated() *Simulated {
	return &Simulated{ports: make(map[int]Port), next: 0x1000}
}

// TaskForPid returns a stable port for pid, allocating one on first use.
func (s *Simulated) TaskForPid(pid int) (Port, error) {
	if pid < 0 {
		return 0, kerrors.New(kerrors.InvariantViolation, "taskipc: negative pid %d", pid)
	}
	if p, ok := s.ports[pid]; ok {
		return p, nil
	}
	p := s.next
	s.next++
	s.ports[pid] = p
	return p, nil
}

// KernelTask always reports ErrKernelTaskPortUnsupported.
func (s *Simulated) KernelTask() (Port, error) {
	return 0, ErrKernelTaskPortUnsupported
}

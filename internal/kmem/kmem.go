// Package kmem implements spec.md §4.K: the kernel virtual-memory
// accessor spec.md §6 names "kernel_read_all/safe/heap/unsafe and
// symmetric writes, with a stable (success, error_kind) result." No real
// kernel exists outside a kernel context (SPEC_FULL.md's non-goals), so
// this package's two implementations stand in for it: NopAccessor for
// tests and ksim-style zero-filled UNKNOWN reads, and a registryAccessor
// modelling a kernel build where individual access primitives may be
// absent.
package kmem

import "ktsim/internal/kerrors"

// Accessor is spec.md §4.K's read/write surface. A short read or write is
// reported via a kernel-I/O error carrying the failing address, not a
// partial success silently treated as complete.
type Accessor interface {
	ReadAll(addr uint64, buf []byte) (n int, err error)
	ReadSafe(addr uint64, buf []byte) (n int, err error)
	ReadHeap(addr uint64, buf []byte) (n int, err error)
	ReadUnsafe(addr uint64, buf []byte) (n int, err error)

	WriteAll(addr uint64, data []byte) (n int, err error)
	WriteSafe(addr uint64, data []byte) (n int, err error)
	WriteHeap(addr uint64, data []byte) (n int, err error)
	WriteUnsafe(addr uint64, data []byte) (n int, err error)
}

// NopAccessor reads back zero-filled bytes for every call, the same
// "UNKNOWN" stand-in ksim's own in-process callbacks use when no backing
// store exists. Writes succeed without doing anything. Useful for tests
// and for exercising (F)/(G) consumers without a kernel.
type NopAccessor struct{}

func (NopAccessor) ReadAll(addr uint64, buf []byte) (int, error)    { clear(buf); return len(buf), nil }
func (NopAccessor) ReadSafe(addr uint64, buf []byte) (int, error)   { clear(buf); return len(buf), nil }
func (NopAccessor) ReadHeap(addr uint64, buf []byte) (int, error)   { clear(buf); return len(buf), nil }
func (NopAccessor) ReadUnsafe(addr uint64, buf []byte) (int, error) { clear(buf); return len(buf), nil }

func (NopAccessor) WriteAll(addr uint64, data []byte) (int, error)    { return len(data), nil }
func (NopAccessor) WriteSafe(addr uint64, data []byte) (int, error)   { return len(data), nil }
func (NopAccessor) WriteHeap(addr uint64, data []byte) (int, error)   { return len(data), nil }
func (NopAccessor) WriteUnsafe(addr uint64, data []byte) (int, error) { return len(data), nil }

// AccessFunc is one primitive a registryAccessor may or may not have.
type AccessFunc func(addr uint64, buf []byte) (n int, err error)

// Registry is a struct of function-pointer fields that may be nil,
// modelling design note §9's "function-pointer table that becomes nil when
// a kernel symbol is absent": a kernel build is free to supply only the
// primitives it actually resolved.
type Registry struct {
	ReadAllFunc    AccessFunc
	ReadSafeFunc   AccessFunc
	ReadHeapFunc   AccessFunc
	ReadUnsafeFunc AccessFunc

	WriteAllFunc    AccessFunc
	WriteSafeFunc   AccessFunc
	WriteHeapFunc   AccessFunc
	WriteUnsafeFunc AccessFunc
}

// registryAccessor preflight-checks each call against the registry before
// use, reporting APIUnavailable rather than a nil-pointer panic when the
// kernel build didn't resolve that primitive.
type registryAccessor struct {
	r Registry
}

// NewRegistryAccessor wraps r as an Accessor.
func NewRegistryAccessor(r Registry) Accessor {
	return registryAccessor{r: r}
}

func call(f AccessFunc, name string, addr uint64, buf []byte) (int, error) {
	if f == nil {
		return 0, kerrors.New(kerrors.APIUnavailable, "kmem: %s not available on this kernel build", name).WithAddr(addr)
	}
	n, err := f(addr, buf)
	if err != nil {
		return n, err
	}
	if n != len(buf) {
		return n, kerrors.New(kerrors.KernelIO, "kmem: %s: short transfer (%d of %d bytes)", name, n, len(buf)).WithAddr(addr)
	}
	return n, nil
}

func (a registryAccessor) ReadAll(addr uint64, buf []byte) (int, error) {
	return call(a.r.ReadAllFunc, "read_all", addr, buf)
}
func (a registryAccessor) ReadSafe(addr uint64, buf []byte) (int, error) {
	return call(a.r.ReadSafeFunc, "read_safe", addr, buf)
}
func (a registryAccessor) ReadHeap(addr uint64, buf []byte) (int, error) {
	return call(a.r.ReadHeapFunc, "read_heap", addr, buf)
}
func (a registryAccessor) ReadUnsafe(addr uint64, buf []byte) (int, error) {
	return call(a.r.ReadUnsafeFunc, "read_unsafe", addr, buf)
}

func (a registryAccessor) WriteAll(addr uint64, data []byte) (int, error) {
	return call(a.r.WriteAllFunc, "write_all", addr, data)
}
func (a registryAccessor) WriteSafe(addr uint64, data []byte) (int, error) {
	return call(a.r.WriteSafeFunc, "write_safe", addr, data)
}
func (a registryAccessor) WriteHeap(addr uint64, data []byte) (int, error) {
	return call(a.r.WriteHeapFunc, "write_heap", addr, data)
}
func (a registryAccessor) WriteUnsafe(addr uint64, data []byte) (int, error) {
	return call(a.r.WriteUnsafeFunc, "write_unsafe", addr, data)
}

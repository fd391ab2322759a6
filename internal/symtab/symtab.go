// Package symtab implements spec.md §4.G: a dual-sorted symbol/address
// index built once from a Mach-O symbol table (internal/machoimg), then
// queried by name or by address, with insertion supported afterward.
package symtab

import (
	"sort"

	"ktsim/internal/kerrors"
	"ktsim/internal/machoimg"
)

// Range is one loaded segment's address span, used to bound a guessed
// symbol size at the end of its containing segment.
type Range struct {
	Start uint64
	End   uint64
}

// Table is the four-parallel-array symbol index spec.md §3 describes:
// symbol/address entries plus two permutations kept in sync with them.
type Table struct {
	symbol  []string
	address []uint64

	sortSymbol  []int // indices into symbol/address, lexicographic on symbol
	sortAddress []int // indices into symbol/address, numeric on address

	segments []Range
}

// New builds an empty table over a fixed set of segment ranges (used to
// bound the guessed size of the last symbol in each segment).
func New(segments []Range) *Table {
	return &Table{segments: append([]Range(nil), segments...)}
}

// FromImage builds a Table from every non-undefined symbol an
// machoimg.Image reports, bounded by the address ranges of all its
// segments.
func FromImage(img *machoimg.Image, slide uint64) (*Table, error) {
	segs, err := img.Segments()
	if err != nil {
		return nil, err
	}
	ranges := make([]Range, 0, len(segs))
	for _, s := range segs {
		ranges = append(ranges, Range{Start: s.VMAddr + slide, End: s.VMAddr + slide + s.Size})
	}

	t := New(ranges)
	for _, sym := range img.Symbols() {
		if sym.Name == "" {
			continue
		}
		t.Add(sym.Name, sym.Value+slide)
	}
	return t, nil
}

// Add inserts one (symbol, address) pair, re-sorting both permutations to
// keep them in order (spec.md §4.G: "resize arrays, append name/address,
// memmove the permutation arrays to keep order"). Go's append already
// handles the resize; this keeps the *ordering* invariant the spec names.
func (t *Table) Add(symbol string, address uint64) {
	idx := len(t.symbol)
	t.symbol = append(t.symbol, symbol)
	t.address = append(t.address, address)

	si := sort.Search(len(t.sortSymbol), func(i int) bool {
		return t.symbol[t.sortSymbol[i]] >= symbol
	})
	t.sortSymbol = append(t.sortSymbol, 0)
	copy(t.sortSymbol[si+1:], t.sortSymbol[si:])
	t.sortSymbol[si] = idx

	ai := sort.Search(len(t.sortAddress), func(i int) bool {
		return t.address[t.sortAddress[i]] >= address
	})
	t.sortAddress = append(t.sortAddress, 0)
	copy(t.sortAddress[ai+1:], t.sortAddress[ai:])
	t.sortAddress[ai] = idx
}

// Len reports how many symbols are indexed.
func (t *Table) Len() int { return len(t.symbol) }

// ResolveSymbol looks up a symbol by exact name, returning its address and
// guessed size.
func (t *Table) ResolveSymbol(name string) (addr uint64, size uint64, ok bool) {
	i := sort.Search(len(t.sortSymbol), func(i int) bool {
		return t.symbol[t.sortSymbol[i]] >= name
	})
	if i >= len(t.sortSymbol) || t.symbol[t.sortSymbol[i]] != name {
		return 0, 0, false
	}
	idx := t.sortSymbol[i]
	return t.address[idx], t.sizeOf(idx), true
}

// ResolveAddress finds the symbol whose address is the largest one ≤ addr,
// returning its name, the offset of addr within it, and its guessed size.
// Reports not-found when addr precedes every known symbol, or falls
// outside the guessed size of the nearest one below it.
func (t *Table) ResolveAddress(addr uint64) (name string, offset uint64, size uint64, ok bool) {
	if len(t.sortAddress) == 0 {
		return "", 0, 0, false
	}
	i := sort.Search(len(t.sortAddress), func(i int) bool {
		return t.address[t.sortAddress[i]] > addr
	})
	if i == 0 {
		return "", 0, 0, false
	}
	idx := t.sortAddress[i-1]
	base := t.address[idx]
	sz := t.sizeOf(idx)
	off := addr - base
	if off >= sz {
		return "", 0, 0, false
	}
	return t.symbol[idx], off, sz, true
}

// sizeOf guesses idx's symbol's size as the distance to the next symbol by
// address, bounded by the end of the segment containing it.
func (t *Table) sizeOf(idx int) uint64 {
	addr := t.address[idx]

	pos := 0
	for i, v := range t.sortAddress {
		if v == idx {
			pos = i
			break
		}
	}

	var candidate uint64
	if pos+1 < len(t.sortAddress) {
		candidate = t.address[t.sortAddress[pos+1]] - addr
	}

	if end, ok := t.segmentEnd(addr); ok {
		bound := end - addr
		if candidate == 0 || bound < candidate {
			candidate = bound
		}
	}
	return candidate
}

func (t *Table) segmentEnd(addr uint64) (uint64, bool) {
	for _, r := range t.segments {
		if addr >= r.Start && addr < r.End {
			return r.End, true
		}
	}
	return 0, false
}

// errNotFound is returned by lookup helpers callers want wrapped in the
// core error taxonomy rather than a bare bool (e.g. the CLI's symtab
// subcommand).
func errNotFound(kind string, query string) error {
	return kerrors.New(kerrors.Core, "symtab: no %s matching %q", kind, query)
}

// MustResolveSymbol is ResolveSymbol with a kerrors.Error instead of ok=false,
// for callers that want to push it straight onto the error stack.
func (t *Table) MustResolveSymbol(name string) (addr uint64, size uint64, err error) {
	addr, size, ok := t.ResolveSymbol(name)
	if !ok {
		return 0, 0, errNotFound("symbol", name)
	}
	return addr, size, nil
}

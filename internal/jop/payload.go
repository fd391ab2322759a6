package jop

import "encoding/binary"

// putU64 writes v little-endian at offset within buf.
func putU64(buf []byte, offset int, v uint64) {
	binary.LittleEndian.PutUint64(buf[offset:offset+8], v)
}

// writeNode writes one dispatch-node (target, next) pair at offset: the
// unit the "dispatch gadget" (ldp x2,x1,[x1]; br x2) consumes one at a
// time, advancing its cursor register to next and branching to target
// (spec.md §4.F's "linked-list interpreter").
func writeNode(buf []byte, offset int, target, next uint64) {
	putU64(buf, offset, target)
	putU64(buf, offset+8, next)
}

// padArgs returns args resized to exactly n entries, zero-filling any the
// caller didn't supply. The engine has already rejected len(args) > n.
func padArgs(args []uint64, n int) []uint64 {
	out := make([]uint64, n)
	copy(out, args)
	return out
}

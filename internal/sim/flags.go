package sim

import "math/bits"

// addWithCarry implements the ARM ARM's AddWithCarry(x, y, carry_in)
// pseudocode: r = x + y + carry_in computed at one bit wider than the
// operand width so the carry-out and signed-overflow flags fall straight
// out of the wide sum. SUB/SUBS/CMP/CMN and SBC/SBCS all reduce to this
// with y and carryIn chosen by the caller (spec.md §4.C "Add-with-carry").
// bits.Add64 supplies the carry out of the full 64-bit lane so the 64-bit
// case doesn't silently wrap in ordinary uint64 arithmetic.
func addWithCarry(x, y uint64, carryIn bool, is64 bool) (result uint64, n, z, c, v bool) {
	width := uint(32)
	if is64 {
		width = 64
	}
	mask := uint64(1)<<width - 1
	x &= mask
	y &= mask

	var cin uint64
	if carryIn {
		cin = 1
	}

	var carryOut uint64
	if is64 {
		sum, c0 := bits.Add64(x, y, cin)
		result, carryOut = sum, c0
	} else {
		wide := x + y + cin
		result = wide & mask
		carryOut = wide >> width
	}

	signBit := uint64(1) << (width - 1)
	xs := x&signBit != 0
	ys := y&signBit != 0
	rs := result&signBit != 0

	n = rs
	z = result == 0
	c = carryOut != 0
	// Signed overflow: operands share a sign and the result's sign differs.
	v = xs == ys && rs != xs

	return result, n, z, c, v
}

package arm64

// decodeBranchImm recognises B/BL label.
// op 00101 imm26
func decodeBranchImm(word uint32) (*BranchImmInsn, bool) {
	if bits(word, 30, 26) != 0b00101 {
		return nil, false
	}
	imm26 := bits(word, 25, 0)
	return &BranchImmInsn{
		Link: bit(word, 31) != 0,
		Imm:  signExtend(imm26, 26) * 4,
	}, true
}

// decodeBranchReg recognises BR/BLR/RET Rn.
// 1101011 0 opc(3) 11111 000000 Rn 00000
func decodeBranchReg(word uint32) (*BranchRegInsn, bool) {
	if bits(word, 31, 25) != 0b1101011 {
		return nil, false
	}
	if bit(word, 24) != 0 {
		return nil, false
	}
	if bits(word, 20, 16) != 0b11111 {
		return nil, false
	}
	if bits(word, 15, 10) != 0 {
		return nil, false
	}
	if bits(word, 4, 0) != 0b00000 {
		return nil, false
	}
	var op BranchRegKind
	switch bits(word, 23, 21) {
	case 0b000:
		op = Br
	case 0b001:
		op = Blr
	case 0b010:
		op = Ret
	default:
		return nil, false
	}
	return &BranchRegInsn{
		Op: op,
		Rn: gpreg(bits(word, 9, 5), true, false),
	}, true
}

// decodeCompareBranch recognises CBZ/CBNZ Rt, label.
// sf 011010 op(1) imm19 Rt
func decodeCompareBranch(word uint32) (*CompareBranchInsn, bool) {
	if bits(word, 30, 25) != 0b011010 {
		return nil, false
	}
	sf := bit(word, 31) != 0
	imm19 := bits(word, 23, 5)
	return &CompareBranchInsn{
		NonZero: bit(word, 24) != 0,
		Is64:    sf,
		Imm:     signExtend(imm19, 19) * 4,
		Rt:      gpreg(bits(word, 4, 0), sf, false),
	}, true
}

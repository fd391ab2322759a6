package arm64

// decodeLoadStorePair recognises LDP/STP with pre-index, post-index, or
// signed-offset addressing, for the 32- and 64-bit general-purpose variants.
// opc(2) 101 V(0) 0 mode(2) L imm7 Rt2 Rn Rt1
func decodeLoadStorePair(word uint32) (*LoadStorePairInsn, bool) {
	if bits(word, 29, 27) != 0b101 {
		return nil, false
	}
	if bit(word, 26) != 0 { // SIMD/FP variant, out of scope
		return nil, false
	}
	if bit(word, 25) != 0 {
		return nil, false
	}
	opc := bits(word, 31, 30)
	if opc == 0b01 {
		return nil, false // LDPSW not modelled
	}
	is64 := opc == 0b10
	mode := bits(word, 24, 23)
	var writeback, post bool
	switch mode {
	case 0b01:
		writeback, post = true, true
	case 0b11:
		writeback, post = true, false
	case 0b10:
		writeback, post = false, false
	default:
		return nil, false // non-temporal form, unsupported
	}

	scale := 2
	if is64 {
		scale = 3
	}
	imm7 := bits(word, 21, 15)
	imm := signExtend(imm7, 7) << uint(scale)

	return &LoadStorePairInsn{
		Load:      bit(word, 22) != 0,
		Is64:      is64,
		Writeback: writeback,
		PostIndex: post,
		SignedImm: imm,
		Rt1:       gpreg(bits(word, 4, 0), is64, false),
		Rt2:       gpreg(bits(word, 14, 10), is64, false),
		Rn:        gpreg(bits(word, 9, 5), true, true),
	}, true
}

// decodeLoadStore recognises LDR/STR with pre-index, post-index, or
// unsigned-offset addressing.
// size(2) 111 V(0) class(2) opc(2) ...
func decodeLoadStore(word uint32) (*LoadStoreInsn, bool) {
	if bits(word, 29, 27) != 0b111 {
		return nil, false
	}
	if bit(word, 26) != 0 { // SIMD/FP, out of scope
		return nil, false
	}
	size := bits(word, 31, 30)
	sizeBytes := uint8(1) << size
	class := bits(word, 25, 24)
	opc := bits(word, 23, 22)

	if opc >= 2 && size == 0b11 {
		return nil, false // sign-extend forms undefined for 64-bit load size
	}

	insn := &LoadStoreInsn{SizeBytes: sizeBytes}
	switch opc {
	case 0b00:
		insn.Load = false
	case 0b01:
		insn.Load = true
	case 0b10:
		insn.Load, insn.SignExtend, insn.SignExtendTo64 = true, true, true
	case 0b11:
		insn.Load, insn.SignExtend, insn.SignExtendTo64 = true, true, false
	}

	destIs64 := size == 0b11 || insn.SignExtendTo64
	if insn.SignExtend && !insn.SignExtendTo64 {
		destIs64 = false
	}

	switch class {
	case 0b01: // unsigned offset, no writeback
		imm12 := bits(word, 21, 10)
		insn.Imm = int64(imm12) << size
	case 0b00: // pre/post-indexed immediate, or register offset (unsupported)
		if bit(word, 21) != 0 {
			return nil, false // register-offset form, unsupported
		}
		imm9 := bits(word, 20, 12)
		insn.Imm = signExtend(imm9, 9)
		switch bits(word, 11, 10) {
		case 0b01:
			insn.Writeback, insn.PostIndex = true, true
		case 0b11:
			insn.Writeback, insn.PostIndex = true, false
		default:
			return nil, false
		}
	default:
		return nil, false
	}

	insn.Rt = gpreg(bits(word, 4, 0), destIs64, false)
	insn.Rn = gpreg(bits(word, 9, 5), true, true)
	return insn, true
}

// decodeLoadLiteral recognises LDR (literal) Rt, label, for the 32- and
// 64-bit integer variants and LDRSW; PRFM (opc=11) is left unmatched since
// it writes no register.
// opc(2) 011 V(0) 00 imm19 Rt
func decodeLoadLiteral(word uint32) (*LoadLiteralInsn, bool) {
	if bits(word, 29, 27) != 0b011 {
		return nil, false
	}
	if bit(word, 26) != 0 {
		return nil, false
	}
	if bits(word, 25, 24) != 0 {
		return nil, false
	}
	opc := bits(word, 31, 30)
	if opc == 0b11 {
		return nil, false
	}
	imm19 := bits(word, 23, 5)
	insn := &LoadLiteralInsn{
		Imm: signExtend(imm19, 19) * 4,
		Rt:  gpreg(bits(word, 4, 0), opc != 0b00, false),
	}
	switch opc {
	case 0b00:
		insn.Is64 = false
	case 0b01:
		insn.Is64 = true
	case 0b10:
		insn.Is64, insn.SignExtend = true, true
	}
	return insn, true
}

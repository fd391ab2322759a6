package arm64

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeNop(t *testing.T) {
	insn, ok := Decode(0xD503201F)
	require.True(t, ok)
	require.Equal(t, KindNop, insn.Kind)
}

// TestDecodeAddImmediate covers ADD X0, X0, #1 (0x91000400).
func TestDecodeAddImmediate(t *testing.T) {
	insn, ok := Decode(0x91000400)
	require.True(t, ok)
	require.Equal(t, KindAddSubImm, insn.Kind)
	require.False(t, insn.AddSubImm.Sub)
	require.False(t, insn.AddSubImm.SetFlags)
	require.False(t, insn.AddSubImm.ShiftBy12)
	require.EqualValues(t, 1, insn.AddSubImm.Imm12)
	require.EqualValues(t, 0, insn.AddSubImm.Rd.Index)
	require.True(t, insn.AddSubImm.Rd.Is64)
	require.EqualValues(t, 0, insn.AddSubImm.Rn.Index)
}

// TestDecodeMovRegisterAlias covers MOV X1, X0, encoded as
// ORR X1, XZR, X0 (0xAA0003E1).
func TestDecodeMovRegisterAlias(t *testing.T) {
	insn, ok := Decode(0xAA0003E1)
	require.True(t, ok)
	require.Equal(t, KindLogicalShiftedReg, insn.Kind)
	rd, rm, ok := IsMovRegister(insn)
	require.True(t, ok)
	require.EqualValues(t, 1, rd.Index)
	require.EqualValues(t, 0, rm.Index)
}

// TestDecodeStpPreIndex covers the spec's worked STP example:
// stp x28, x27, [sp, #-0x60]!  ==  0xA9BA6FFC
func TestDecodeStpPreIndex(t *testing.T) {
	insn, ok := Decode(0xA9BA6FFC)
	require.True(t, ok)
	require.Equal(t, KindLoadStorePair, insn.Kind)
	p := insn.LoadStorePair
	require.False(t, p.Load)
	require.True(t, p.Is64)
	require.True(t, p.Writeback)
	require.False(t, p.PostIndex)
	require.EqualValues(t, -0x60, p.SignedImm)
	require.EqualValues(t, 28, p.Rt1.Index)
	require.EqualValues(t, 27, p.Rt2.Index)
	require.True(t, p.Rn.IsSP)
}

func TestDecodeBranchLink(t *testing.T) {
	insn, ok := Decode(0x94000002) // BL +8
	require.True(t, ok)
	require.Equal(t, KindBranchImm, insn.Kind)
	require.True(t, insn.BranchImm.Link)
	require.EqualValues(t, 8, insn.BranchImm.Imm)
}

func TestDecodeRet(t *testing.T) {
	insn, ok := Decode(0xD65F03C0) // RET x30
	require.True(t, ok)
	require.Equal(t, KindBranchReg, insn.Kind)
	require.Equal(t, Ret, insn.BranchReg.Op)
	require.EqualValues(t, 30, insn.BranchReg.Rn.Index)
}

func TestDecodeUnrecognisedReportsNotOk(t *testing.T) {
	_, ok := Decode(0xFFFFFFFF)
	require.False(t, ok)
}

// TestDecodeZeroRegisterInvariance exercises the property underlying
// 4.A/4.C's zero-register handling: decoding never special-cases index 31,
// it only records IsZero()/IsSP per field so the simulator can enforce "any
// write through XZR/WZR is discarded" uniformly.
func TestDecodeZeroRegisterInvariance(t *testing.T) {
	insn, ok := Decode(0x8B1F03E0) // ADD X0, XZR, X31(=XZR)
	require.True(t, ok)
	require.True(t, insn.AddSubShiftedReg.Rn.IsZero())
	require.True(t, insn.AddSubShiftedReg.Rm.IsZero())
}

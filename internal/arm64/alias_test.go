package arm64

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsCmpRecognisesSubsWithDiscardedDest(t *testing.T) {
	insn, ok := Decode(0xF100041F) // SUBS XZR, X0, #1  (CMP X0, #1)
	require.True(t, ok)
	require.True(t, IsCmp(insn))
}

func TestIsCmnRecognisesAddsWithDiscardedDest(t *testing.T) {
	insn, ok := Decode(0xB100041F) // ADDS XZR, X0, #1  (CMN X0, #1)
	require.True(t, ok)
	require.True(t, IsCmn(insn))
}

func TestIsMovImmediateMovz(t *testing.T) {
	insn, ok := Decode(0xD2800020) // MOVZ X0, #1
	require.True(t, ok)
	rd, value, ok := IsMovImmediate(insn)
	require.True(t, ok)
	require.EqualValues(t, 0, rd.Index)
	require.EqualValues(t, 1, value)
}

func TestIsMovImmediateRejectsMovk(t *testing.T) {
	insn, ok := Decode(0xF2800020) // MOVK X0, #1
	require.True(t, ok)
	_, _, ok = IsMovImmediate(insn)
	require.False(t, ok)
}

func TestIsNegRecognisesZeroRnSub(t *testing.T) {
	insn, ok := Decode(0xCB0003E0) // SUB X0, XZR, X0  (NEG X0, X0)
	require.True(t, ok)
	require.Equal(t, Neg, IsNeg(insn))
}

func TestIsMovSPRecognisesAddImmZero(t *testing.T) {
	insn, ok := Decode(0x910003E0) // ADD X0, SP, #0  (MOV X0, SP)
	require.True(t, ok)
	rd, rn, ok := IsMovSP(insn)
	require.True(t, ok)
	require.False(t, rd.IsSP)
	require.True(t, rn.IsSP)
}

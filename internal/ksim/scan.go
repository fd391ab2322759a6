package ksim

import "encoding/binary"

// Pattern is an instruction-bits/mask pair: a word matches when
// (word & Mask) == Ins.
type Pattern struct {
	Ins, Mask uint32
}

// unconditionalB and unconditionalBL mask in the link bit (31) together
// with the fixed B/BL encoding bits (30:26 = 00101), so BL never matches
// the jump pattern and vice versa.
var (
	unconditionalB  = Pattern{Ins: 0x14000000, Mask: 0xFC000000}
	unconditionalBL = Pattern{Ins: 0x94000000, Mask: 0xFC000000}
)

func (k *KSim) readWordAt(pc uint64) (uint32, bool) {
	if pc < k.Region.Base {
		return 0, false
	}
	offset := pc - k.Region.Base
	if offset+4 > uint64(len(k.Region.Code)) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(k.Region.Code[offset : offset+4]), true
}

// ScanFor implements spec.md §4.D's generic scan primitive: dir > 0 steps
// forward by re-executing through each instruction (so branches are
// followed exactly as Step would follow them); dir < 0 simply inspects
// raw bytes at PC-4i without simulating. It returns the PC of the k-th
// (0-indexed) instruction matching pattern within n steps.
func (k *KSim) ScanFor(dir int, pattern Pattern, matchIndex int, n int) (pc uint64, found bool) {
	if dir > 0 {
		return k.scanForward(pattern, matchIndex, n)
	}
	return k.scanBackward(pattern, matchIndex, n)
}

func (k *KSim) scanForward(pattern Pattern, matchIndex int, n int) (uint64, bool) {
	matches := 0
	for i := 0; i < n; i++ {
		pc := k.Sim.Regs.PC.Value
		word, haveWord := k.readWordAt(pc)
		cont, _ := k.Sim.Step()
		if haveWord && word&pattern.Mask == pattern.Ins {
			if matches == matchIndex {
				return pc, true
			}
			matches++
		}
		if !cont {
			break
		}
	}
	return 0, false
}

func (k *KSim) scanBackward(pattern Pattern, matchIndex int, n int) (uint64, bool) {
	start := k.Sim.Regs.PC.Value
	matches := 0
	for i := 0; i < n; i++ {
		pc := start - uint64(4*i)
		word, ok := k.readWordAt(pc)
		if !ok {
			break
		}
		if word&pattern.Mask == pattern.Ins {
			if matches == matchIndex {
				return pc, true
			}
			matches++
		}
	}
	return 0, false
}

// ScanForJump finds the i-th (0-indexed) unconditional B label within n
// instructions, executing forward.
func (k *KSim) ScanForJump(i int, n int) (uint64, bool) {
	return k.ScanFor(+1, unconditionalB, i, n)
}

// ScanForCall finds the i-th (0-indexed) BL label within n instructions,
// executing forward.
func (k *KSim) ScanForCall(i int, n int) (uint64, bool) {
	return k.ScanFor(+1, unconditionalBL, i, n)
}

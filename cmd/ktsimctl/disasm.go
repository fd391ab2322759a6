package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"ktsim/internal/arm64"
	"ktsim/internal/kerrors"
	"ktsim/internal/machoimg"
)

func newDisasmCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <image> <addr>",
		Short: "decode and print the instruction at a slid virtual address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := strconv.ParseUint(args[1], 0, 64)
			if err != nil {
				return kerrors.New(kerrors.Core, "invalid address %q: %s", args[1], err)
			}
			img, f, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			segs, err := img.Segments()
			if err != nil {
				return err
			}
			slide := ctx.Config.Slide
			word, err := wordAt(segs, addr, slide)
			if err != nil {
				return err
			}

			insn, ok := arm64.Decode(word)
			if !ok {
				return kerrors.New(kerrors.Core, "0x%08x at 0x%x does not decode", word, addr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "0x%x: %08x  %s\n", addr, word, insn.Kind)
			return nil
		},
	}
}

func openImage(path string) (*machoimg.Image, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, kerrors.New(kerrors.IO, "open: %s", err).WithPath(path)
	}
	img, err := machoimg.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, kerrors.New(kerrors.MachOParse, "%s", err).WithPath(path)
	}
	return img, f, nil
}

// wordAt finds the segment containing addr (after subtracting slide) and
// reads the 32-bit little-endian word at that offset.
func wordAt(segs []machoimg.Segment, addr, slide uint64) (uint32, error) {
	unslid := addr - slide
	for _, s := range segs {
		if unslid < s.VMAddr || unslid >= s.VMAddr+s.Size {
			continue
		}
		off := unslid - s.VMAddr
		if off+4 > uint64(len(s.Data)) {
			return 0, kerrors.New(kerrors.AddressUnmapped, "address truncated within segment %s", s.Name).WithAddr(addr)
		}
		return binary.LittleEndian.Uint32(s.Data[off : off+4]), nil
	}
	return 0, kerrors.New(kerrors.AddressUnmapped, "no segment contains address").WithAddr(addr)
}

// Package machoimg wraps the standard library's debug/macho reader with the
// narrow view spec.md §6 needs from "the Mach-O reader": executable
// segments for the gadget locator (§4.E) and a flat symbol list for the
// symbol table (§4.G). It never writes Mach-O; kASLR slide is always
// supplied by the caller, never present in the file itself.
package machoimg

import (
	"debug/macho"
	"fmt"
	"io"
)

// Protection bits, matching the VM_PROT_* values debug/macho's
// SegmentHeader.Prot/Maxprot already encode.
const (
	ProtRead    = 0x1
	ProtWrite   = 0x2
	ProtExecute = 0x4
)

// Segment is one LC_SEGMENT_64 load command's data and protection bits.
type Segment struct {
	Name     string
	VMAddr   uint64
	Size     uint64
	Data     []byte
	InitProt uint32
	MaxProt  uint32
}

// Executable reports whether the segment is mapped read+execute under both
// its initial and maximum protection, per spec.md §4.E's locator scan mask.
func (s Segment) Executable() bool {
	const rx = ProtRead | ProtExecute
	return s.InitProt&rx == rx && s.MaxProt&rx == rx
}

// Symbol is one non-undefined section-local or external symbol table entry.
type Symbol struct {
	Name  string
	Value uint64
	Sect  uint8
}

// Image is a parsed Mach-O (or the requested architecture slice of a fat
// binary), ready for segment/symbol enumeration.
type Image struct {
	file *macho.File
}

// Open parses a Mach-O image from r. If the image is a fat binary, the
// first slice is used; no other slice can be selected through this
// package.
func Open(r io.ReaderAt) (*Image, error) {
	f, err := macho.NewFile(r)
	if err != nil {
		fat, ferr := macho.NewFatFile(r)
		if ferr != nil || len(fat.Arches) == 0 {
			return nil, fmt.Errorf("machoimg: parse: %w", err)
		}
		return &Image{file: fat.Arches[0].File}, nil
	}
	return &Image{file: f}, nil
}

// Segments returns every LC_SEGMENT_64 load command's data view.
func (img *Image) Segments() ([]Segment, error) {
	var segs []Segment
	for _, l := range img.file.Loads {
		seg, ok := l.(*macho.Segment)
		if !ok {
			continue
		}
		data, err := seg.Data()
		if err != nil {
			return nil, fmt.Errorf("machoimg: segment %s: %w", seg.Name, err)
		}
		segs = append(segs, Segment{
			Name:     seg.Name,
			VMAddr:   seg.Addr,
			Size:     seg.Memsz,
			Data:     data,
			InitProt: uint32(seg.Prot),
			MaxProt:  uint32(seg.Maxprot),
		})
	}
	return segs, nil
}

// ExecutableSegments filters Segments to those mapped read+execute.
func (img *Image) ExecutableSegments() ([]Segment, error) {
	all, err := img.Segments()
	if err != nil {
		return nil, err
	}
	var out []Segment
	for _, s := range all {
		if s.Executable() {
			out = append(out, s)
		}
	}
	return out, nil
}

// Symbols returns every non-undefined symbol in the image's symbol table.
func (img *Image) Symbols() []Symbol {
	if img.file.Symtab == nil {
		return nil
	}
	var out []Symbol
	for _, s := range img.file.Symtab.Syms {
		const nTypeUndf = 0x0
		const nTypeMask = 0x0e
		if s.Type&nTypeMask == nTypeUndf {
			continue
		}
		out = append(out, Symbol{Name: s.Name, Value: s.Value, Sect: s.Sect})
	}
	return out
}

// SegmentContaining returns the segment whose VM range contains addr, if
// any — used by (G) to bound a symbol's inferred size.
func (img *Image) SegmentContaining(segs []Segment, addr uint64) (Segment, bool) {
	for _, s := range segs {
		if addr >= s.VMAddr && addr < s.VMAddr+s.Size {
			return s, true
		}
	}
	return Segment{}, false
}

// Package kernelcache implements spec.md §4.J: a thin layer over
// internal/machoimg that finds the kernelcache's __PRELINK_INFO segment,
// decodes the subset of its embedded XML-plist dictionary this toolkit
// needs — each kext's bundle identifier and executable load address — and
// builds one internal/symtab index from the image's own symbol table, with
// the kexts' address ranges bounding guessed symbol sizes; kext-local
// symbol tables are not read. A full CoreFoundation-style plist
// implementation is out of scope (SPEC_FULL.md §4.J); this decodes only
// <key>/<string>/<integer> pairs inside an array of <dict> entries, the
// shape memctl's kernelcache_parse_prelink_info (original_source) parses
// with CFPropertyListCreateWithData before walking it as a CFArray of
// CFDictionary.
package kernelcache

import (
	"bytes"
	"strconv"
	"strings"

	"ktsim/internal/kerrors"
	"ktsim/internal/machoimg"
	"ktsim/internal/symtab"
)

// prelinkInfoSegment is the segment name the XNU kernelcache format
// reserves for its embedded property list (mirrors
// kCFPrelinkInfoDictionaryKey's surrounding segment in original_source).
const prelinkInfoSegment = "__PRELINK_INFO"

// KextInfo is the subset of one kext's __PRELINK_INFO dictionary entry
// this loader decodes.
type KextInfo struct {
	BundleID    string
	LoadAddress uint64
	Size        uint64
}

// ParsePrelinkInfo finds segs's __PRELINK_INFO segment and decodes every
// kext entry's bundle ID and executable load address. Returns
// kerrors.Kernelcache if the segment is absent.
func ParsePrelinkInfo(segs []machoimg.Segment) ([]KextInfo, error) {
	var data []byte
	for _, s := range segs {
		if s.Name == prelinkInfoSegment {
			data = s.Data
			break
		}
	}
	if data == nil {
		return nil, kerrors.New(kerrors.Kernelcache, "no %s segment present", prelinkInfoSegment)
	}
	return parseKextDicts(data)
}

// parseKextDicts scans for <dict>...</dict> blocks and, within each, pairs
// of <key>NAME</key><TYPE>VALUE</TYPE> for the three keys this loader
// cares about. It tolerates any other keys/values by skipping them.
func parseKextDicts(data []byte) ([]KextInfo, error) {
	var out []KextInfo
	rest := data
	for {
		start := bytes.Index(rest, []byte("<dict>"))
		if start < 0 {
			break
		}
		end := bytes.Index(rest[start:], []byte("</dict>"))
		if end < 0 {
			return nil, kerrors.New(kerrors.Kernelcache, "unterminated <dict> in prelink info")
		}
		block := rest[start+len("<dict>") : start+end]
		rest = rest[start+end+len("</dict>"):]

		info, ok := parseOneDict(block)
		if ok {
			out = append(out, info)
		}
	}
	return out, nil
}

func parseOneDict(block []byte) (KextInfo, bool) {
	var info KextInfo
	haveBundleID := false

	text := string(block)
	for {
		ki := strings.Index(text, "<key>")
		if ki < 0 {
			break
		}
		ke := strings.Index(text[ki:], "</key>")
		if ke < 0 {
			break
		}
		key := text[ki+len("<key>") : ki+ke]
		rest := text[ki+ke+len("</key>"):]

		value, valueLen, ok := parseNextValue(rest)
		if !ok {
			text = rest
			continue
		}
		switch key {
		case "CFBundleIdentifier":
			info.BundleID = value
			haveBundleID = true
		case "_PrelinkExecutableLoadAddr":
			if n, err := strconv.ParseUint(strings.TrimSpace(value), 0, 64); err == nil {
				info.LoadAddress = n
			}
		case "_PrelinkExecutableSize":
			if n, err := strconv.ParseUint(strings.TrimSpace(value), 0, 64); err == nil {
				info.Size = n
			}
		}
		text = rest[valueLen:]
	}
	return info, haveBundleID
}

// parseNextValue decodes a <string>...</string> or <integer>...</integer>
// element starting at the first non-whitespace position of s — the value
// tag immediately follows a key's </key> close in __PRELINK_INFO's plist
// layout. Returns its text content and how many bytes of s it consumed.
func parseNextValue(s string) (value string, consumed int, ok bool) {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	skipped := len(s) - len(trimmed)

	for _, tag := range []string{"string", "integer"} {
		open := "<" + tag + ">"
		if !strings.HasPrefix(trimmed, open) {
			continue
		}
		closeTag := "</" + tag + ">"
		ci := strings.Index(trimmed, closeTag)
		if ci < 0 {
			continue
		}
		return trimmed[len(open):ci], skipped + ci + len(closeTag), true
	}
	return "", 0, false
}

// IndexKexts builds one symtab.Table from img's own symbol table, every
// address shifted by the supplied kASLR slide. The slid ranges of img's
// segments and of each kext's [LoadAddress, LoadAddress+Size) bound guessed
// symbol sizes. No kext-local symbol table is read, and no symbol address
// is rebased on a kext's load address.
func IndexKexts(img *machoimg.Image, kexts []KextInfo, slide uint64) (*symtab.Table, error) {
	segs, err := img.Segments()
	if err != nil {
		return nil, err
	}
	ranges := make([]symtab.Range, 0, len(segs))
	for _, s := range segs {
		ranges = append(ranges, symtab.Range{Start: s.VMAddr + slide, End: s.VMAddr + slide + s.Size})
	}
	for _, k := range kexts {
		ranges = append(ranges, symtab.Range{Start: k.LoadAddress + slide, End: k.LoadAddress + slide + k.Size})
	}

	tab := symtab.New(ranges)
	for _, sym := range img.Symbols() {
		if sym.Name == "" {
			continue
		}
		tab.Add(sym.Name, sym.Value+slide)
	}
	return tab, nil
}

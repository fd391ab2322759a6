package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ktsim/internal/machoimg"
)

func TestWordAtAppliesSlideBeforeLookup(t *testing.T) {
	segs := []machoimg.Segment{
		{Name: "__TEXT", VMAddr: 0x1000, Size: 0x10, Data: []byte{0x1F, 0x20, 0x03, 0xD5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
	}
	word, err := wordAt(segs, 0x5000, 0x4000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xD503201F), word)
}

func TestWordAtReportsUnmappedAddress(t *testing.T) {
	segs := []machoimg.Segment{{Name: "__TEXT", VMAddr: 0x1000, Size: 0x10, Data: make([]byte, 0x10)}}
	_, err := wordAt(segs, 0x9000, 0)
	require.Error(t, err)
}

func TestWordAtReportsTruncatedSegment(t *testing.T) {
	segs := []machoimg.Segment{{Name: "__TEXT", VMAddr: 0x1000, Size: 0x10, Data: make([]byte, 2)}}
	_, err := wordAt(segs, 0x100E, 0)
	require.Error(t, err)
}

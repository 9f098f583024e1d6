// Package fwimage loads application firmware images for upload.
package fwimage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"
)

// Load reads a firmware image from disk. Files ending in .hex are parsed as
// Intel HEX and flattened; everything else is treated as a raw binary.
func Load(filename string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(filename), ".hex") {
		return loadHex(filename)
	}
	return loadBin(filename)
}

func loadBin(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read bin file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty firmware image %q", filepath.Base(filename))
	}
	return data, nil
}

// loadHex flattens all data segments into one contiguous image starting at
// the lowest programmed address. Gaps between segments are filled with 0xFF
// to match erased flash.
func loadHex(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open hex file: %w", err)
	}
	defer f.Close()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(f); err != nil {
		return nil, fmt.Errorf("failed to parse hex file: %w", err)
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return nil, fmt.Errorf("empty firmware image %q", filepath.Base(filename))
	}

	base := segments[0].Address
	end := segments[0].Address + uint32(len(segments[0].Data))
	for _, seg := range segments[1:] {
		if seg.Address < base {
			base = seg.Address
		}
		if segEnd := seg.Address + uint32(len(seg.Data)); segEnd > end {
			end = segEnd
		}
	}

	image := make([]byte, end-base)
	for i := range image {
		image[i] = 0xFF
	}
	for _, seg := range segments {
		copy(image[seg.Address-base:], seg.Data)
	}
	return image, nil
}

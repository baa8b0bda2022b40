// Package ztable implements the table opcodes: scan_table, copy_table and
// print_table all operate on raw byte/word tables in dynamic memory.
package ztable

import (
	"strings"

	"github.com/pmcgill/zvm/zcore"
)

// ScanTable searches for test in a table of length fields starting at baddr.
// The form byte holds the field size in its low 7 bits and "compare words"
// in the top bit. Returns the matching address or 0.
func ScanTable(core *zcore.Core, test uint16, baddr uint32, length uint16, form uint16) uint32 {
	ptr := baddr
	fieldSize := form & 0b0111_1111
	checkWord := form&0b1000_0000 != 0
	if fieldSize == 0 {
		return 0 // A zero field size would never advance
	}

	for i := uint16(0); i < length; i++ {
		if checkWord {
			if core.ReadHalfWord(ptr) == test {
				return ptr
			}
		} else {
			// Compare widened so a test value above 0xff never matches a byte
			if uint16(core.ReadByte(ptr)) == test {
				return ptr
			}
		}

		ptr += uint32(fieldSize)
	}

	return 0
}

// CopyTable copies size bytes from first to second. second == 0 zeroes the
// source instead; a negative size forces a forward copy that may corrupt an
// overlapping destination, which stories use deliberately.
func CopyTable(core *zcore.Core, first uint16, second uint16, size int16) {
	sizeAbs := uint32(size)
	if size < 0 {
		sizeAbs = uint32(-size)
	}

	switch {
	case second == 0:
		for i := uint32(0); i < sizeAbs; i++ {
			core.WriteByte(uint32(first)+i, 0)
		}

	case size >= 0:
		// Copy from a snapshot of the source so overlap can't corrupt it
		tmp := make([]uint8, sizeAbs)
		copy(tmp, core.ReadSlice(uint32(first), uint32(first)+sizeAbs))
		for i := uint32(0); i < sizeAbs; i++ {
			core.WriteByte(uint32(second)+i, tmp[i])
		}

	default:
		for i := uint32(0); i < sizeAbs; i++ {
			core.WriteByte(uint32(second)+i, core.ReadByte(uint32(first)+i))
		}
	}
}

// PrintTable renders a width x height grid of ZSCII bytes, skipping skip
// bytes between rows.
func PrintTable(core *zcore.Core, baddr uint32, width uint16, height uint16, skip uint16) string {
	s := strings.Builder{}
	ptr := baddr

	for row := uint16(0); row < height; row++ {
		if row != 0 {
			s.WriteByte('\n')
		}
		for col := uint16(0); col < width; col++ {
			s.WriteByte(core.ReadByte(ptr))
			ptr++
		}
		ptr += uint32(skip)
	}

	return s.String()
}

package zstring

import (
	"strings"

	"github.com/pmcgill/zvm/zcore"
)

// Encode turns text into the fixed-length packed key used by dictionary
// entries: 6 z characters (4 bytes) up to v3, 9 z characters (6 bytes) from
// v4. Input longer than the key is truncated, shorter input is padded with
// the pad character 5, and the top bit of the final word is set.
func Encode(text []rune, core *zcore.Core, alphabets *Alphabets) []uint8 {
	version := core.Version
	length := 6
	if version >= 4 {
		length = 9
	}

	lower := []rune(strings.ToLower(string(text)))
	zchrs := make([]uint8, 0, length)
	shiftLocked := false

	for ix := 0; ix < len(lower) && len(zchrs) < length; ix++ {
		alphabet, slot, ok := findSlot(lower[ix], alphabets)
		if !ok {
			zchrs = appendEscape(zchrs, lower[ix], version, shiftLocked, core)
			continue
		}

		switch alphabet {
		case a0:
			if shiftLocked {
				zchrs = append(zchrs, 4) // lock back up to A0
				shiftLocked = false
			}
			zchrs = append(zchrs, slot)

		case a1:
			if shiftLocked {
				zchrs = append(zchrs, 4)
				shiftLocked = false
			}
			if version <= 2 {
				zchrs = append(zchrs, 2, slot)
			} else {
				zchrs = append(zchrs, 4, slot)
			}

		case a2:
			switch {
			case version >= 3:
				zchrs = append(zchrs, 5, slot)
			case shiftLocked:
				zchrs = append(zchrs, slot)
			case nextIsPunctuation(lower, ix, alphabets):
				// A run of A2 characters is cheaper under a shift lock
				zchrs = append(zchrs, 5, slot)
				shiftLocked = true
			default:
				zchrs = append(zchrs, 3, slot)
			}
		}
	}

	if len(zchrs) > length {
		zchrs = zchrs[:length]
	}
	for len(zchrs) < length {
		zchrs = append(zchrs, 5)
	}

	packed := make([]uint8, 0, length/3*2)
	for i := 0; i < length; i += 3 {
		word := uint16(zchrs[i])<<10 | uint16(zchrs[i+1])<<5 | uint16(zchrs[i+2])
		if i+3 >= length {
			word |= 0x8000
		}
		packed = append(packed, uint8(word>>8), uint8(word))
	}

	return packed
}

// findSlot locates a rune in the alphabet rows, returning the z character that
// selects it within its row.
func findSlot(r rune, alphabets *Alphabets) (Alphabet, uint8, bool) {
	for i, c := range alphabets.A0 {
		if c == r {
			return a0, uint8(i + 6), true
		}
	}
	for i, c := range alphabets.A1 {
		if c == r {
			return a1, uint8(i + 6), true
		}
	}
	for i, c := range alphabets.A2 {
		if c == r {
			return a2, uint8(i + 7), true
		}
	}
	return a0, 0, false
}

// appendEscape emits a 10 bit ZSCII escape: a shift into A2, the escape code
// 6, then the code split across two z characters. Characters with no ZSCII
// form encode as '?'.
func appendEscape(zchrs []uint8, r rune, version uint8, shiftLocked bool, core *zcore.Core) []uint8 {
	code, ok := runeToZscii(r, core)
	if !ok {
		code = '?'
	}

	if version <= 2 {
		if !shiftLocked {
			zchrs = append(zchrs, 3)
		}
	} else {
		zchrs = append(zchrs, 5)
	}

	return append(zchrs, 6, uint8(code>>5)&0b11111, uint8(code)&0b11111)
}

func nextIsPunctuation(runes []rune, ix int, alphabets *Alphabets) bool {
	if ix+1 >= len(runes) {
		return false
	}
	alphabet, _, ok := findSlot(runes[ix+1], alphabets)
	return ok && alphabet == a2
}

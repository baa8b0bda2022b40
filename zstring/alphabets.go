package zstring

import "github.com/pmcgill/zvm/zcore"

var a0Default = [26]rune{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z'}
var a1Default = [26]rune{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z'}

// A2 rows are indexed by zchar-7: zchar 6 is always the ZSCII escape so it has
// no table slot.
var a2V1 = [25]rune{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '<', '-', ':', '(', ')'}
var a2Default = [25]rune{'\n', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '-', ':', '(', ')'}

type Alphabet int

const (
	a0 Alphabet = 0
	a1 Alphabet = 1
	a2 Alphabet = 2
)

type Alphabets struct {
	A0 [26]rune
	A1 [26]rune
	A2 [25]rune
}

// LoadAlphabets picks the alphabet rows for a story: the v1 punctuation
// variant, the v2+ default, or (v5+) a custom 78 byte table of ZSCII codes at
// header 0x34.
func LoadAlphabets(core *zcore.Core) *Alphabets {
	if core.Version >= 5 && core.AlternativeCharSetBaseAddress != 0 {
		return parseCustomAlphabets(core)
	}

	if core.Version == 1 {
		return &Alphabets{A0: a0Default, A1: a1Default, A2: a2V1}
	}

	return &Alphabets{A0: a0Default, A1: a1Default, A2: a2Default}
}

func parseCustomAlphabets(core *zcore.Core) *Alphabets {
	base := uint32(core.AlternativeCharSetBaseAddress)
	alphabets := Alphabets{}

	for i := uint32(0); i < 26; i++ {
		alphabets.A0[i] = zsciiToRune(uint16(core.ReadByte(base+i)), core)
		alphabets.A1[i] = zsciiToRune(uint16(core.ReadByte(base+26+i)), core)
	}

	// Row 3 covers zchars 6..31 but zchar 6 stays the ZSCII escape and zchar 7
	// is always newline regardless of the table contents.
	for i := uint32(1); i < 25; i++ {
		alphabets.A2[i] = zsciiToRune(uint16(core.ReadByte(base+52+1+i)), core)
	}
	alphabets.A2[0] = '\n'

	return &alphabets
}

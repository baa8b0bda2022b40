// Package zstring converts between the packed 5 bit Z-character encoding used
// by story files and ordinary strings, in both directions.
package zstring

import (
	"fmt"
	"strings"

	"github.com/pmcgill/zvm/zcore"
)

// TextError is raised for malformed Z-character streams: missing terminators,
// truncated ZSCII escapes and nested abbreviations.
type TextError string

func (e TextError) Error() string {
	return "text: " + string(e)
}

// Decode reads the Z-string starting at address and returns it together with
// the number of bytes consumed. maxAddress bounds the scan for a terminator
// word; streams that run past it raise a TextError.
func Decode(address uint32, maxAddress uint32, core *zcore.Core, alphabets *Alphabets) (string, uint32) {
	return decode(address, maxAddress, core, alphabets, false)
}

func decode(address uint32, maxAddress uint32, core *zcore.Core, alphabets *Alphabets, insideAbbreviation bool) (string, uint32) {
	bytesRead := uint32(0)
	ptr := address

	// First recover the stream of 5 bit z characters, three per half word,
	// stopping at the first word with the top bit set.
	var zchrStream []uint8
	for {
		if ptr+1 >= maxAddress {
			panic(TextError(fmt.Sprintf("string at 0x%x has no terminator before 0x%x", address, maxAddress)))
		}

		halfWord := core.ReadHalfWord(ptr)
		bytesRead += 2
		ptr += 2

		zchrStream = append(zchrStream, uint8((halfWord>>10)&0b11111))
		zchrStream = append(zchrStream, uint8((halfWord>>5)&0b11111))
		zchrStream = append(zchrStream, uint8(halfWord&0b11111))

		if (halfWord >> 15) == 1 {
			break
		}
	}

	version := core.Version
	baseAlphabet := a0
	nextAlphabet := a0
	var out strings.Builder

	for i := 0; i < len(zchrStream); i++ {
		zchr := zchrStream[i]
		currentAlphabet := nextAlphabet
		nextAlphabet = baseAlphabet

		switch {
		case zchr == 0:
			out.WriteByte(' ')

		case zchr == 1 && version == 1:
			out.WriteByte('\n')

		case zchr == 1 || (zchr >= 2 && zchr <= 3 && version >= 3):
			// Abbreviation reference: the next z character picks the entry
			if insideAbbreviation {
				panic(TextError(fmt.Sprintf("nested abbreviation at 0x%x", address)))
			}
			if i+1 >= len(zchrStream) {
				panic(TextError(fmt.Sprintf("string at 0x%x ends on an incomplete abbreviation", address)))
			}
			out.WriteString(findAbbreviation(core, alphabets, zchr, zchrStream[i+1]))
			i++

		case zchr == 2: // v1-2 single shift
			nextAlphabet = (currentAlphabet + 1) % 3

		case zchr == 3: // v1-2 single shift
			nextAlphabet = (currentAlphabet + 2) % 3

		case zchr == 4:
			if version >= 3 {
				nextAlphabet = (baseAlphabet + 1) % 3 // temporary uppercase
			} else {
				baseAlphabet = (baseAlphabet + 1) % 3 // shift lock
				nextAlphabet = baseAlphabet
			}

		case zchr == 5:
			if version >= 3 {
				nextAlphabet = (baseAlphabet + 2) % 3 // temporary punctuation
			} else {
				baseAlphabet = (baseAlphabet + 2) % 3
				nextAlphabet = baseAlphabet
			}

		case currentAlphabet == a2 && zchr == 6:
			// Two more z characters form a 10 bit ZSCII code
			if i+2 >= len(zchrStream) {
				panic(TextError(fmt.Sprintf("string at 0x%x ends on an incomplete ZSCII escape", address)))
			}
			code := uint16(zchrStream[i+1])<<5 | uint16(zchrStream[i+2])
			i += 2
			if code != 0 {
				out.WriteRune(zsciiToRune(code, core))
			}

		default:
			switch currentAlphabet {
			case a0:
				out.WriteRune(alphabets.A0[zchr-6])
			case a1:
				out.WriteRune(alphabets.A1[zchr-6])
			case a2:
				out.WriteRune(alphabets.A2[zchr-7])
			}
		}
	}

	return out.String(), bytesRead
}

// findAbbreviation resolves abbreviation x from table z (1..3) and decodes the
// string it points at. The target string must not itself use abbreviations.
func findAbbreviation(core *zcore.Core, alphabets *Alphabets, z uint8, x uint8) string {
	entry := uint32(core.AbbreviationTableBase) + 64*(uint32(z)-1) + 2*uint32(x)
	strAddr := 2 * uint32(core.ReadHalfWord(entry))

	str, _ := decode(strAddr, core.MemoryLength(), core, alphabets, true)
	return str
}

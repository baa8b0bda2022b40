// Package dictionary parses the in-image word dictionary and performs the
// lexical analysis step of line input: splitting a typed command into lexemes
// and writing the parse table the story expects.
package dictionary

import (
	"bytes"

	"github.com/pmcgill/zvm/zcore"
	"github.com/pmcgill/zvm/zstring"
)

type Header struct {
	n          uint8
	InputCodes []uint8 // Word separator characters, as ZSCII
	Length     uint8   // Bytes per entry
	count      int16
}

type Entry struct {
	address     uint16
	encodedWord []uint8
	decodedWord string
	data        []uint8
}

type Dictionary struct {
	Header  Header
	entries []Entry
}

// ParseDictionary reads the dictionary at baseAddress; stories pass addresses
// other than the header one to the tokenise opcode for custom vocabularies.
func ParseDictionary(baseAddress uint32, core *zcore.Core, alphabets *zstring.Alphabets) *Dictionary {
	numInputCodes := core.ReadByte(baseAddress)

	header := Header{
		n:          numInputCodes,
		InputCodes: core.ReadSlice(baseAddress+1, baseAddress+1+uint32(numInputCodes)),
		Length:     core.ReadByte(baseAddress + 1 + uint32(numInputCodes)),
		count:      int16(core.ReadHalfWord(baseAddress + 2 + uint32(numInputCodes))),
	}

	// A negative count marks an unsorted custom dictionary; the entries are
	// laid out the same way
	entryCount := int(header.count)
	if entryCount < 0 {
		entryCount = -entryCount
	}

	encodedWordLength := uint32(4)
	if core.Version > 3 {
		encodedWordLength = 6
	}

	entryPtr := baseAddress + 4 + uint32(numInputCodes)
	entries := make([]Entry, entryCount)

	for ix := 0; ix < entryCount; ix++ {
		decodedWord, _ := zstring.Decode(entryPtr, entryPtr+encodedWordLength, core, alphabets)
		entries[ix] = Entry{
			address:     uint16(entryPtr),
			encodedWord: core.ReadSlice(entryPtr, entryPtr+encodedWordLength),
			decodedWord: decodedWord,
			data:        core.ReadSlice(entryPtr+encodedWordLength, entryPtr+uint32(header.Length)),
		}

		entryPtr += uint32(header.Length)
	}

	return &Dictionary{
		Header:  header,
		entries: entries,
	}
}

// Find returns the address of the entry whose encoded key matches zstr, or 0.
// Entries are in ascending key order so a binary search would do; the linear
// scan is fast enough for the dictionary sizes stories ship with.
func (d *Dictionary) Find(zstr []uint8) uint16 {
	for _, entry := range d.entries {
		if bytes.Equal(entry.encodedWord, zstr) {
			return entry.address
		}
	}

	return 0
}

// A Lexeme is one word of input plus its byte offset into the typed line.
type Lexeme struct {
	Bytes  []uint8
	Offset uint32
}

// Lex splits input into lexemes: spaces separate and are discarded, the
// dictionary's separator characters separate and are themselves lexemes.
func Lex(input []uint8, separators []uint8) []Lexeme {
	var lexemes []Lexeme
	start := 0

	flush := func(end int) {
		if end > start {
			lexemes = append(lexemes, Lexeme{Bytes: input[start:end], Offset: uint32(start)})
		}
	}

	for ix, chr := range input {
		if chr == ' ' {
			flush(ix)
			start = ix + 1
		} else if bytes.IndexByte(separators, chr) >= 0 {
			flush(ix)
			lexemes = append(lexemes, Lexeme{Bytes: input[ix : ix+1], Offset: uint32(ix)})
			start = ix + 1
		}
	}
	flush(len(input))

	return lexemes
}

// Analyze tokenises input and writes the parse table at parseAddress: a lexeme
// count at byte 1 then, per lexeme, the entry address (0 if unknown), the
// lexeme length and its position in the text buffer. With skipUnknown set the
// entry for an unknown word is left untouched (the tokenise opcode's flag).
func (d *Dictionary) Analyze(core *zcore.Core, alphabets *zstring.Alphabets, input []uint8, parseAddress uint32, skipUnknown bool) {
	lexemes := Lex(input, d.Header.InputCodes)

	maxLexemes := int(core.ReadByte(parseAddress))
	if len(lexemes) > maxLexemes {
		lexemes = lexemes[:maxLexemes]
	}

	core.WriteByte(parseAddress+1, uint8(len(lexemes)))

	for i, lexeme := range lexemes {
		entryAddress := d.Find(zstring.Encode([]rune(string(lexeme.Bytes)), core, alphabets))
		recordAddress := parseAddress + 2 + 4*uint32(i)

		if entryAddress == 0 && skipUnknown {
			continue
		}

		core.WriteHalfWord(recordAddress, entryAddress)
		core.WriteByte(recordAddress+2, uint8(len(lexeme.Bytes)))
		// Positions are the input offset plus 2 in every version, although
		// only the v5+ text buffer has a two byte header
		core.WriteByte(recordAddress+3, uint8(lexeme.Offset)+2)
	}
}

package zstring

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/pmcgill/zvm/zcore"
)

// testCore builds a small image with the given version, an abbreviation table
// at 0x40 and arbitrary payloads copied to chosen addresses.
func testCore(version uint8, data map[uint32][]uint8) *zcore.Core {
	image := make([]uint8, 0x800)
	image[0x00] = version
	binary.BigEndian.PutUint16(image[0x0e:], 0x0800) // everything dynamic
	binary.BigEndian.PutUint16(image[0x18:], 0x0040) // abbreviation table

	for address, payload := range data {
		copy(image[address:], payload)
	}

	core := zcore.LoadCore(image)
	return &core
}

var zstringDecodingTests = []struct {
	name      string
	in        []uint8
	out       string
	bytesRead uint32
	version   uint8
}{
	{"plain lowercase", []uint8{0x35, 0x51, 0xc6, 0x85}, "hello", 4, 3},
	{"shifts through all alphabets", []uint8{0x11, 0xae, 0x96, 0x45}, "Hi.", 4, 3},
	{"zscii escape", []uint8{0x0c, 0xc1, 0xf8, 0xa5}, ">", 4, 1},
	{"spaces", []uint8{0x32, 0x80, 0x28, 0xd8, 0xe4, 0xa5}, "go east", 6, 3},
}

func TestDecoding(t *testing.T) {
	for _, tt := range zstringDecodingTests {
		t.Run(tt.name, func(t *testing.T) {
			core := testCore(tt.version, map[uint32][]uint8{0x100: tt.in})

			str, bytesRead := Decode(0x100, core.MemoryLength(), core, LoadAlphabets(core))

			if str != tt.out {
				t.Fatalf("decoded incorrectly expected=%q, actual=%q", tt.out, str)
			}
			if bytesRead != tt.bytesRead {
				t.Fatalf("read incorrect number of bytes expected=%d, actual=%d", tt.bytesRead, bytesRead)
			}
		})
	}
}

func TestAbbreviations(t *testing.T) {
	core := testCore(3, map[uint32][]uint8{
		0x40:  {0x00, 0x30},             // abbreviation (1,0) -> byte address 0x60
		0x60:  {0x35, 0x51, 0xc6, 0x85}, // "hello"
		0x100: {0x84, 0x05},             // zchars {1,0}: expand abbreviation (1,0)
	})

	str, bytesRead := Decode(0x100, core.MemoryLength(), core, LoadAlphabets(core))

	if str != "hello" {
		t.Fatalf("abbreviation expansion expected=%q, actual=%q", "hello", str)
	}
	if bytesRead != 2 {
		t.Fatalf("abbreviation reference should consume 2 bytes, consumed %d", bytesRead)
	}
}

func TestNestedAbbreviationsRejected(t *testing.T) {
	core := testCore(3, map[uint32][]uint8{
		0x42:  {0x00, 0x34}, // abbreviation (1,1) -> byte address 0x68
		0x68:  {0x84, 0x05}, // the target itself uses an abbreviation
		0x100: {0x84, 0x25}, // zchars {1,1}
	})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("nested abbreviation should panic")
		}
		if _, ok := r.(TextError); !ok {
			t.Fatalf("expected TextError, got %v", r)
		}
	}()

	Decode(0x100, core.MemoryLength(), core, LoadAlphabets(core))
}

func TestMissingTerminator(t *testing.T) {
	core := testCore(3, map[uint32][]uint8{})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("unterminated string should panic")
		}
		if _, ok := r.(TextError); !ok {
			t.Fatalf("expected TextError, got %v", r)
		}
	}()

	// Nothing but zero words between 0x100 and the limit
	Decode(0x100, 0x110, core, LoadAlphabets(core))
}

var zstringEncodingTests = []struct {
	name    string
	in      string
	out     []uint8
	version uint8
}{
	{"plain", "hello", []uint8{0x35, 0x51, 0xc6, 0x85}, 3},
	{"zscii escape with v1 shift", ">", []uint8{0x0c, 0xc1, 0xf8, 0xa5}, 1},
	{"truncated to six zchars", "mailboxes", []uint8{0x48, 0xce, 0xc4, 0xf4}, 3},
	{"padded", "go", []uint8{0x32, 0x85, 0x94, 0xa5}, 3},
	{"uppercase folded", "GO", []uint8{0x32, 0x85, 0x94, 0xa5}, 3},
}

func TestEncoding(t *testing.T) {
	for _, tt := range zstringEncodingTests {
		t.Run(tt.name, func(t *testing.T) {
			core := testCore(tt.version, nil)

			encoded := Encode([]rune(tt.in), core, LoadAlphabets(core))

			if !bytes.Equal(tt.out, encoded) {
				t.Fatalf("encoded incorrectly expected=%x, actual=%x", tt.out, encoded)
			}
		})
	}
}

func TestEncodedKeyShape(t *testing.T) {
	for _, version := range []uint8{1, 3, 4, 5, 8} {
		core := testCore(version, nil)
		encoded := Encode([]rune("xyzzy"), core, LoadAlphabets(core))

		wantLen := 4
		if version >= 4 {
			wantLen = 6
		}
		if len(encoded) != wantLen {
			t.Errorf("v%d key length expected=%d, actual=%d", version, wantLen, len(encoded))
		}
		if encoded[wantLen-2]&0x80 == 0 {
			t.Errorf("v%d key missing terminator bit", version)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	core := testCore(3, map[uint32][]uint8{})
	alphabets := LoadAlphabets(core)

	for _, word := range []string{"open", "mailbox", "north", "x", "q1.z"} {
		encoded := Encode([]rune(word), core, alphabets)
		image := testCore(3, map[uint32][]uint8{0x100: encoded})

		decoded, _ := Decode(0x100, image.MemoryLength(), image, alphabets)
		want := word
		if len(want) > 6 {
			want = want[:6]
		}
		if decoded != want {
			t.Errorf("round trip of %q gave %q", word, decoded)
		}
	}
}

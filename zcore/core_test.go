package zcore

import (
	"encoding/binary"
	"testing"
)

// testImage builds a minimal story image: 64 byte header, dynamic memory up to
// staticBase, then a static tail.
func testImage(version uint8, staticBase uint16, length int) []uint8 {
	bytes := make([]uint8, length)
	bytes[0x00] = version
	binary.BigEndian.PutUint16(bytes[0x04:], staticBase) // high memory base
	binary.BigEndian.PutUint16(bytes[0x06:], 0x1000)     // initial PC
	binary.BigEndian.PutUint16(bytes[0x08:], 0x0200)     // dictionary
	binary.BigEndian.PutUint16(bytes[0x0a:], 0x0100)     // object table
	binary.BigEndian.PutUint16(bytes[0x0c:], 0x0080)     // globals
	binary.BigEndian.PutUint16(bytes[0x0e:], staticBase) // static mark
	binary.BigEndian.PutUint16(bytes[0x18:], 0x0048)     // abbreviations
	return bytes
}

func TestHeaderFields(t *testing.T) {
	core := LoadCore(testImage(3, 0x0400, 0x2000))

	if core.Version != 3 {
		t.Errorf("Version != 3 (got %d)", core.Version)
	}
	if core.FirstInstruction != 0x1000 {
		t.Errorf("FirstInstruction != 0x1000 (got 0x%x)", core.FirstInstruction)
	}
	if core.DictionaryBase != 0x0200 {
		t.Errorf("DictionaryBase != 0x0200 (got 0x%x)", core.DictionaryBase)
	}
	if core.ObjectTableBase != 0x0100 {
		t.Errorf("ObjectTableBase != 0x0100 (got 0x%x)", core.ObjectTableBase)
	}
	if core.GlobalVariableBase != 0x0080 {
		t.Errorf("GlobalVariableBase != 0x0080 (got 0x%x)", core.GlobalVariableBase)
	}
	if core.StaticMemoryBase != 0x0400 {
		t.Errorf("StaticMemoryBase != 0x0400 (got 0x%x)", core.StaticMemoryBase)
	}
	if core.AbbreviationTableBase != 0x0048 {
		t.Errorf("AbbreviationTableBase != 0x0048 (got 0x%x)", core.AbbreviationTableBase)
	}
	if core.InterpreterNumber != 6 {
		t.Errorf("InterpreterNumber != 6 (got %d)", core.InterpreterNumber)
	}
}

func TestByteAndWordRoundTrip(t *testing.T) {
	core := LoadCore(testImage(3, 0x0400, 0x2000))

	core.WriteByte(0x0123, 0xab)
	if v := core.ReadByte(0x0123); v != 0xab {
		t.Errorf("ReadByte(0x0123) != 0xab (got 0x%x)", v)
	}

	core.WriteHalfWord(0x0200, 0xbeef)
	if v := core.ReadHalfWord(0x0200); v != 0xbeef {
		t.Errorf("ReadHalfWord(0x0200) != 0xbeef (got 0x%x)", v)
	}
	if core.ReadByte(0x0200) != 0xbe || core.ReadByte(0x0201) != 0xef {
		t.Error("words are not stored big-endian")
	}
}

func TestWriteAboveStaticMarkPanics(t *testing.T) {
	core := LoadCore(testImage(3, 0x0400, 0x2000))
	before := core.ReadByte(0x0400)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("write at static mark should panic")
		}
		violation, ok := r.(WriteViolation)
		if !ok {
			t.Fatalf("expected WriteViolation, got %v", r)
		}
		if violation.Address != 0x0400 || violation.StaticBase != 0x0400 {
			t.Errorf("wrong violation details: %v", violation)
		}
		if core.ReadByte(0x0400) != before {
			t.Error("failed write mutated static memory")
		}
	}()

	core.WriteByte(0x0400, 0xff)
}

func TestWordWriteStraddlingStaticMarkLeavesNoHalfWord(t *testing.T) {
	core := LoadCore(testImage(3, 0x0400, 0x2000))
	before := core.ReadByte(0x03ff)

	defer func() {
		if recover() == nil {
			t.Fatal("word write straddling static mark should panic")
		}
		if core.ReadByte(0x03ff) != before {
			t.Error("guard let the first byte of a rejected word through")
		}
	}()

	core.WriteHalfWord(0x03ff, 0xffff)
}

func TestReadPastEndPanics(t *testing.T) {
	core := LoadCore(testImage(3, 0x0400, 0x2000))

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("read past end should panic")
		}
		if _, ok := r.(ReadViolation); !ok {
			t.Fatalf("expected ReadViolation, got %v", r)
		}
	}()

	core.ReadByte(0x2000)
}

func TestResetRewindsDynamicMemoryOnly(t *testing.T) {
	image := testImage(3, 0x0400, 0x2000)
	image[0x0123] = 0x11
	image[0x0500] = 0x22 // static, untouched by Reset
	core := LoadCore(image)

	core.WriteByte(0x0123, 0x99)
	core.Reset()

	if v := core.ReadByte(0x0123); v != 0x11 {
		t.Errorf("Reset didn't rewind dynamic byte (got 0x%x)", v)
	}
	if v := core.ReadByte(0x0500); v != 0x22 {
		t.Errorf("Reset disturbed static memory (got 0x%x)", v)
	}
}

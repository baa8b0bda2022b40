package zobject_test

import (
	"encoding/binary"
	"testing"

	"github.com/pmcgill/zvm/zcore"
	"github.com/pmcgill/zvm/zobject"
	"github.com/pmcgill/zvm/zstring"
)

const objectTableBase = 0x100

// buildV3Image lays out a three object tree: object 1 holds objects 2 and 3,
// and object 1 carries a short name plus properties 10 (word) and 5 (byte).
func buildV3Image() []uint8 {
	image := make([]uint8, 0x800)
	image[0x00] = 3
	binary.BigEndian.PutUint16(image[0x0e:], 0x0800)
	binary.BigEndian.PutUint16(image[0x0a:], objectTableBase)

	// Default for property 7
	binary.BigEndian.PutUint16(image[objectTableBase+2*6:], 0x0505)

	writeObject := func(id uint16, attributes uint32, parent, sibling, child uint8, propertyPtr uint16) {
		base := objectTableBase + 31*2 + 9*(uint32(id)-1)
		binary.BigEndian.PutUint32(image[base:], attributes)
		image[base+4] = parent
		image[base+5] = sibling
		image[base+6] = child
		binary.BigEndian.PutUint16(image[base+7:], propertyPtr)
	}

	writeObject(1, 0x2000_1000, 0, 0, 2, 0x200) // attributes 2 and 19
	writeObject(2, 0, 1, 3, 0, 0x240)
	writeObject(3, 0, 1, 0, 0, 0x250)

	// Property table for object 1: name "hello", then properties 10 and 5
	image[0x200] = 2 // name length in words
	copy(image[0x201:], []uint8{0x35, 0x51, 0xc6, 0x85})
	image[0x205] = 1<<5 | 10 // property 10, length 2
	binary.BigEndian.PutUint16(image[0x206:], 0x1234)
	image[0x208] = 5 // property 5, length 1
	image[0x209] = 0x42
	image[0x20a] = 0 // terminator

	// Objects 2 and 3 have empty names and no properties
	image[0x240] = 0
	image[0x250] = 0

	return image
}

func testCore() *zcore.Core {
	core := zcore.LoadCore(buildV3Image())
	return &core
}

func TestZerothObjectRetrieval(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("retrieving object with id 0 should panic")
		}
	}()

	core := testCore()
	zobject.GetObject(0, core, zstring.LoadAlphabets(core))
}

func TestObjectRetrieval(t *testing.T) {
	core := testCore()
	alphabets := zstring.LoadAlphabets(core)

	obj := zobject.GetObject(1, core, alphabets)

	if obj.Name != "hello" {
		t.Errorf("incorrect name %q", obj.Name)
	}
	if obj.Parent != 0 || obj.Sibling != 0 || obj.Child != 2 {
		t.Errorf("incorrect family %d/%d/%d", obj.Parent, obj.Sibling, obj.Child)
	}
	if obj.PropertyPointer != 0x200 {
		t.Errorf("incorrect property pointer %x", obj.PropertyPointer)
	}

	obj2 := zobject.GetObject(2, core, alphabets)
	if obj2.Parent != 1 || obj2.Sibling != 3 {
		t.Errorf("incorrect family for object 2: %d/%d", obj2.Parent, obj2.Sibling)
	}
}

func TestAttributes(t *testing.T) {
	core := testCore()
	alphabets := zstring.LoadAlphabets(core)

	obj := zobject.GetObject(1, core, alphabets)

	if obj.TestAttribute(1) || obj.TestAttribute(4) || obj.TestAttribute(10) {
		t.Error("object 1 should not have attributes 1,4,10 set")
	}
	if !(obj.TestAttribute(2) && obj.TestAttribute(19)) {
		t.Error("object 1 should have attributes 2,19 set")
	}

	before := obj.Attributes
	obj.SetAttribute(10, core)
	reloaded := zobject.GetObject(1, core, alphabets)
	if !reloaded.TestAttribute(10) {
		t.Error("setting attribute 10 didn't persist")
	}

	obj.ClearAttribute(10, core)
	reread := zobject.GetObject(1, core, alphabets)
	if reread.Attributes != before {
		t.Errorf("set then clear should restore attributes exactly (0x%x != 0x%x)", reread.Attributes, before)
	}
}

func TestPropertyRetrieval(t *testing.T) {
	core := testCore()
	obj := zobject.GetObject(1, core, zstring.LoadAlphabets(core))

	prop10 := obj.GetProperty(10, core)
	if prop10.Length != 2 || prop10.Value() != 0x1234 {
		t.Errorf("incorrect property 10: len %d value 0x%x", prop10.Length, prop10.Value())
	}

	prop5 := obj.GetProperty(5, core)
	if prop5.Length != 1 || prop5.Value() != 0x42 {
		t.Errorf("incorrect property 5: len %d value 0x%x", prop5.Length, prop5.Value())
	}

	// Missing property falls back to the defaults table
	prop7 := obj.GetProperty(7, core)
	if prop7.DataAddress != 0 {
		t.Error("property 7 shouldn't exist on object 1")
	}
	if prop7.Value() != 0x0505 {
		t.Errorf("incorrect default for property 7: 0x%x", prop7.Value())
	}
}

func TestPropertyLength(t *testing.T) {
	core := testCore()
	obj := zobject.GetObject(1, core, zstring.LoadAlphabets(core))

	if l := zobject.GetPropertyLength(core, obj.GetProperty(10, core).DataAddress); l != 2 {
		t.Errorf("property 10 length != 2 (got %d)", l)
	}
	if l := zobject.GetPropertyLength(core, obj.GetProperty(5, core).DataAddress); l != 1 {
		t.Errorf("property 5 length != 1 (got %d)", l)
	}
	if l := zobject.GetPropertyLength(core, 0); l != 0 {
		t.Errorf("address 0 length != 0 (got %d)", l)
	}
}

func TestNextProperty(t *testing.T) {
	core := testCore()
	obj := zobject.GetObject(1, core, zstring.LoadAlphabets(core))

	if p := obj.GetNextProperty(0, core); p != 10 {
		t.Errorf("first property != 10 (got %d)", p)
	}
	if p := obj.GetNextProperty(10, core); p != 5 {
		t.Errorf("property after 10 != 5 (got %d)", p)
	}
	if p := obj.GetNextProperty(5, core); p != 0 {
		t.Errorf("property after last != 0 (got %d)", p)
	}

	defer func() {
		if recover() == nil {
			t.Error("next property after a missing property should panic")
		}
	}()
	obj.GetNextProperty(7, core)
}

func TestSetProperty(t *testing.T) {
	core := testCore()
	alphabets := zstring.LoadAlphabets(core)
	obj := zobject.GetObject(1, core, alphabets)

	obj.SetProperty(5, 0xab, core)
	reloaded5 := zobject.GetObject(1, core, alphabets)
	prop5 := reloaded5.GetProperty(5, core)
	if v := prop5.Value(); v != 0xab {
		t.Errorf("byte property write didn't persist (got 0x%x)", v)
	}

	obj.SetProperty(10, 0xbeef, core)
	reloaded10 := zobject.GetObject(1, core, alphabets)
	prop10 := reloaded10.GetProperty(10, core)
	if v := prop10.Value(); v != 0xbeef {
		t.Errorf("word property write didn't persist (got 0x%x)", v)
	}

	defer func() {
		if recover() == nil {
			t.Error("putting a missing property should panic")
		}
	}()
	obj.SetProperty(7, 1, core)
}

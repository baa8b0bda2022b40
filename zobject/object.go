// Package zobject reads and mutates the in-image object table: attribute
// bits, the parent/sibling/child tree and the property tables.
package zobject

import (
	"fmt"

	"github.com/pmcgill/zvm/zcore"
	"github.com/pmcgill/zvm/zstring"
)

type Object struct {
	BaseAddress     uint32
	Id              uint16
	Name            string
	Attributes      uint64 // Top 32 bits on v1-3, top 48 on v4+
	Parent          uint16 // Single byte wide on v1-3
	Sibling         uint16
	Child           uint16
	PropertyPointer uint16
}

// GetObject parses object record objId (1-indexed). Object 0 is the "nothing"
// marker and has no record.
func GetObject(objId uint16, core *zcore.Core, alphabets *zstring.Alphabets) Object {
	if objId == 0 {
		panic("can't get 0th object, it doesn't exist")
	}

	if core.Version >= 4 {
		objectBase := uint32(core.ObjectTableBase) + 63*2 + (uint32(objId)-1)*14
		propertyPtr := core.ReadHalfWord(objectBase + 12)

		attributes := uint64(0)
		for i := uint32(0); i < 6; i++ {
			attributes |= uint64(core.ReadByte(objectBase+i)) << (56 - 8*i)
		}

		return Object{
			Id:              objId,
			Name:            shortName(propertyPtr, core, alphabets),
			Attributes:      attributes,
			Parent:          core.ReadHalfWord(objectBase + 6),
			Sibling:         core.ReadHalfWord(objectBase + 8),
			Child:           core.ReadHalfWord(objectBase + 10),
			PropertyPointer: propertyPtr,
			BaseAddress:     objectBase,
		}
	}

	objectBase := uint32(core.ObjectTableBase) + 31*2 + (uint32(objId)-1)*9
	propertyPtr := core.ReadHalfWord(objectBase + 7)

	attributes := uint64(0)
	for i := uint32(0); i < 4; i++ {
		attributes |= uint64(core.ReadByte(objectBase+i)) << (56 - 8*i)
	}

	return Object{
		Id:              objId,
		Name:            shortName(propertyPtr, core, alphabets),
		Attributes:      attributes,
		Parent:          uint16(core.ReadByte(objectBase + 4)),
		Sibling:         uint16(core.ReadByte(objectBase + 5)),
		Child:           uint16(core.ReadByte(objectBase + 6)),
		PropertyPointer: propertyPtr,
		BaseAddress:     objectBase,
	}
}

// shortName decodes the length-prefixed name at the head of the property
// table. The length is in 2 byte words.
func shortName(propertyPtr uint16, core *zcore.Core, alphabets *zstring.Alphabets) string {
	nameLength := core.ReadByte(uint32(propertyPtr))
	if nameLength == 0 {
		return ""
	}

	name, _ := zstring.Decode(uint32(propertyPtr)+1, uint32(propertyPtr)+1+uint32(nameLength)*2, core, alphabets)
	return name
}

func (o *Object) TestAttribute(attribute uint16) bool {
	mask := uint64(1) << (63 - attribute)

	return o.Attributes&mask == mask
}

func (o *Object) SetAttribute(attribute uint16, core *zcore.Core) {
	o.Attributes |= uint64(1) << (63 - attribute)
	o.writeAttributes(core)
}

func (o *Object) ClearAttribute(attribute uint16, core *zcore.Core) {
	o.Attributes &= ^(uint64(1) << (63 - attribute))
	o.writeAttributes(core)
}

// writeAttributes persists the whole attribute field so a mutation is never
// half applied.
func (o *Object) writeAttributes(core *zcore.Core) {
	byteCount := uint32(4)
	if core.Version >= 4 {
		byteCount = 6
	}

	for i := uint32(0); i < byteCount; i++ {
		core.WriteByte(o.BaseAddress+i, uint8(o.Attributes>>(56-8*i)))
	}
}

func (o *Object) SetParent(parent uint16, core *zcore.Core) {
	if core.Version >= 4 {
		core.WriteHalfWord(o.BaseAddress+6, parent)
	} else {
		core.WriteByte(o.BaseAddress+4, uint8(parent))
	}
	o.Parent = parent
}

func (o *Object) SetSibling(sibling uint16, core *zcore.Core) {
	if core.Version >= 4 {
		core.WriteHalfWord(o.BaseAddress+8, sibling)
	} else {
		core.WriteByte(o.BaseAddress+5, uint8(sibling))
	}
	o.Sibling = sibling
}

func (o *Object) SetChild(child uint16, core *zcore.Core) {
	if core.Version >= 4 {
		core.WriteHalfWord(o.BaseAddress+10, child)
	} else {
		core.WriteByte(o.BaseAddress+6, uint8(child))
	}
	o.Child = child
}

func (o *Object) String() string {
	return fmt.Sprintf("#%d %q parent=%d sibling=%d child=%d", o.Id, o.Name, o.Parent, o.Sibling, o.Child)
}

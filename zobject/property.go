package zobject

import (
	"encoding/binary"
	"fmt"

	"github.com/pmcgill/zvm/zcore"
)

type Property struct {
	Id                   uint8
	Length               uint8
	Data                 []uint8
	PropertyHeaderLength uint8
	Address              uint32
	DataAddress          uint32
}

// Value folds the data bytes into a word: single bytes load into the low
// half, pairs load whole. Longer properties can't be read this way.
func (p *Property) Value() uint16 {
	switch p.Length {
	case 1:
		return uint16(p.Data[0])
	case 2:
		return binary.BigEndian.Uint16(p.Data)
	default:
		panic(fmt.Sprintf("can't read property %d with length %d as a value", p.Id, p.Length))
	}
}

// GetPropertyLength decodes a property's data length given the address of its
// first data byte, by working back to the size byte(s) before it.
func GetPropertyLength(core *zcore.Core, addr uint32) uint16 {
	if addr == 0 {
		return 0 // Special case required by some story files
	}

	sizeByte := core.ReadByte(addr - 1)
	if core.Version <= 3 {
		return uint16(sizeByte>>5) + 1
	} else if sizeByte&0b1000_0000 != 0 {
		if sizeByte&0b11_1111 == 0 {
			return 64 // 12.4.2.1.1: a second-byte length of 0 means 64
		}
		return uint16(sizeByte & 0b11_1111)
	} else {
		return uint16((sizeByte>>6)&1) + 1
	}
}

// SetProperty writes a 1 or 2 byte property in place. Putting a property the
// object doesn't have, or one with longer data, is a story bug and raises.
func (o *Object) SetProperty(propertyId uint8, value uint16, core *zcore.Core) {
	currentPtr := o.firstPropertyAddress(core)

	for core.ReadByte(currentPtr) != 0 {
		property := o.GetPropertyByAddress(currentPtr, core)

		if property.Id == propertyId {
			switch property.Length {
			case 1:
				core.WriteByte(property.DataAddress, uint8(value))
			case 2:
				core.WriteHalfWord(property.DataAddress, value)
			default:
				panic(fmt.Sprintf("invalid property length %d, can't set property %d on object %d", property.Length, propertyId, o.Id))
			}

			return
		}

		currentPtr += uint32(property.Length) + uint32(property.PropertyHeaderLength)
	}

	panic(fmt.Sprintf("invalid property (%d) requested for object (%d)", propertyId, o.Id))
}

// GetProperty finds a property on the object, falling back to the global
// default word (DataAddress 0 marks the fallback).
func (o *Object) GetProperty(propertyId uint8, core *zcore.Core) Property {
	currentPtr := o.firstPropertyAddress(core)

	for core.ReadByte(currentPtr) != 0 {
		property := o.GetPropertyByAddress(currentPtr, core)

		if property.Id == propertyId {
			return property
		}
		if property.Id < propertyId {
			break // Properties are stored in descending order
		}

		currentPtr += uint32(property.Length) + uint32(property.PropertyHeaderLength)
	}

	defaultAddress := uint32(core.ObjectTableBase) + 2*(uint32(propertyId)-1)
	return Property{
		Id:     propertyId,
		Length: 2,
		Data:   core.ReadSlice(defaultAddress, defaultAddress+2),
	}
}

// GetPropertyByAddress parses the size byte(s) at propertyAddr.
func (o *Object) GetPropertyByAddress(propertyAddr uint32, core *zcore.Core) Property {
	sizeByte := core.ReadByte(propertyAddr)
	length := (sizeByte >> 5) + 1
	id := sizeByte & 0b1_1111
	headerLength := uint8(1)

	if core.Version >= 4 {
		id = sizeByte & 0b11_1111
		if sizeByte>>7 == 1 {
			length = core.ReadByte(propertyAddr+1) & 0b11_1111
			if length == 0 {
				length = 64 // 12.4.2.1.1
			}
			headerLength = 2
		} else {
			length = ((sizeByte >> 6) & 1) + 1
		}
	}

	dataAddress := propertyAddr + uint32(headerLength)

	return Property{
		Id:                   id,
		Length:               length,
		Data:                 core.ReadSlice(dataAddress, dataAddress+uint32(length)),
		PropertyHeaderLength: headerLength,
		Address:              propertyAddr,
		DataAddress:          dataAddress,
	}
}

// GetNextProperty walks the descending property list: 0 asks for the first
// property, the last property yields 0.
func (o *Object) GetNextProperty(propertyId uint8, core *zcore.Core) uint8 {
	if propertyId == 0 {
		currentPtr := o.firstPropertyAddress(core)
		if core.ReadByte(currentPtr) == 0 {
			return 0
		}
		return o.GetPropertyByAddress(currentPtr, core).Id
	}

	property := o.GetProperty(propertyId, core)
	if property.DataAddress == 0 {
		panic(fmt.Sprintf("can't get next property after missing property (object %d, prop %d)", o.Id, propertyId))
	}

	nextPropertyPtr := property.DataAddress + uint32(property.Length)
	return o.GetPropertyByAddress(nextPropertyPtr, core).Id
}

// firstPropertyAddress skips the length-prefixed short name at the head of
// the property table.
func (o *Object) firstPropertyAddress(core *zcore.Core) uint32 {
	nameLength := core.ReadByte(uint32(o.PropertyPointer))
	return uint32(o.PropertyPointer) + 1 + 2*uint32(nameLength)
}

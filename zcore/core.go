// Package zcore owns the story image: the 64 byte header, the three memory
// regions and all byte/word access to them. Writes are only legal below the
// static memory mark; anything else raises a typed violation.
package zcore

import (
	"encoding/binary"
	"fmt"
)

// ReadViolation is raised for any read at or past the end of the image.
type ReadViolation struct {
	Address uint32
	Limit   uint32
}

func (v ReadViolation) Error() string {
	return fmt.Sprintf("read past end of story image: address 0x%x, length 0x%x", v.Address, v.Limit)
}

// WriteViolation is raised for any write at or above the static memory mark.
type WriteViolation struct {
	Address    uint32
	StaticBase uint32
}

func (v WriteViolation) Error() string {
	return fmt.Sprintf("write into read-only memory: address 0x%x, static mark 0x%x", v.Address, v.StaticBase)
}

type Core struct {
	bytes                            []uint8
	dynamicSnapshot                  []uint8 // Copy of [0..StaticMemoryBase) taken at load, used by restart
	Version                          uint8
	FlagByte1                        uint8
	StatusBarTimeBased               bool
	ReleaseNumber                    uint16
	HighMemoryBase                   uint16
	FirstInstruction                 uint16
	DictionaryBase                   uint16
	ObjectTableBase                  uint16
	GlobalVariableBase               uint16
	StaticMemoryBase                 uint16
	AbbreviationTableBase            uint16
	FileChecksum                     uint16
	InterpreterNumber                uint8
	InterpreterVersion               uint8
	RoutinesOffset                   uint16
	StringOffset                     uint16
	TerminatingCharTableBase         uint16
	StandardRevisionNumber           uint16
	AlternativeCharSetBaseAddress    uint16
	ExtensionTableBaseAddress        uint16
	UnicodeExtensionTableBaseAddress uint16
}

func LoadCore(bytes []uint8) Core {
	bytes[0x1e] = 0x6 // Interpreter number - IBM PC chosen as closest match
	bytes[0x1f] = 0x1 // Interpreter version - nobody cares

	// Screen dimensions - games may use these for layout calculations
	bytes[0x20] = 25 // Screen height (lines)
	bytes[0x21] = 80 // Screen width (characters)
	bytes[0x22] = 0  // Screen width (units) - high byte
	bytes[0x23] = 80 // Screen width (units) - low byte
	bytes[0x24] = 0  // Screen height (units) - high byte
	bytes[0x25] = 25 // Screen height (units) - low byte
	bytes[0x26] = 1  // Font height (units)
	bytes[0x27] = 1  // Font width (units)

	// Claim support for v1.2 of the standard
	bytes[0x32] = 0x1
	bytes[0x33] = 0x2

	if bytes[0] <= 3 {
		bytes[1] |= 0b0010_0000 // Split screen available
	} else {
		bytes[1] |= 0b0000_1100 // Bold, italic
	}

	extensionTableBaseAddress := binary.BigEndian.Uint16(bytes[0x36:0x38])
	unicodeExtensionTableBaseAddress := uint16(0)
	if extensionTableBaseAddress != 0 {
		unicodeExtensionTableBaseAddress = binary.BigEndian.Uint16(bytes[extensionTableBaseAddress+6 : extensionTableBaseAddress+8])
	}

	staticMemoryBase := binary.BigEndian.Uint16(bytes[0x0e:0x10])
	dynamicSnapshot := make([]uint8, staticMemoryBase)
	copy(dynamicSnapshot, bytes[:staticMemoryBase])

	return Core{
		bytes:                            bytes,
		dynamicSnapshot:                  dynamicSnapshot,
		Version:                          bytes[0x00],
		FlagByte1:                        bytes[0x01],
		StatusBarTimeBased:               bytes[0x01]&0b0000_0010 == 0b0000_0010,
		ReleaseNumber:                    binary.BigEndian.Uint16(bytes[0x02:0x04]),
		HighMemoryBase:                   binary.BigEndian.Uint16(bytes[0x04:0x06]),
		FirstInstruction:                 binary.BigEndian.Uint16(bytes[0x06:0x08]),
		DictionaryBase:                   binary.BigEndian.Uint16(bytes[0x08:0x0a]),
		ObjectTableBase:                  binary.BigEndian.Uint16(bytes[0x0a:0x0c]),
		GlobalVariableBase:               binary.BigEndian.Uint16(bytes[0x0c:0x0e]),
		StaticMemoryBase:                 staticMemoryBase,
		AbbreviationTableBase:            binary.BigEndian.Uint16(bytes[0x18:0x1a]),
		FileChecksum:                     binary.BigEndian.Uint16(bytes[0x1c:0x1e]),
		InterpreterNumber:                bytes[0x1e],
		InterpreterVersion:               bytes[0x1f],
		RoutinesOffset:                   binary.BigEndian.Uint16(bytes[0x28:0x2a]),
		StringOffset:                     binary.BigEndian.Uint16(bytes[0x2a:0x2c]),
		TerminatingCharTableBase:         binary.BigEndian.Uint16(bytes[0x2e:0x30]),
		StandardRevisionNumber:           binary.BigEndian.Uint16(bytes[0x32:0x34]),
		AlternativeCharSetBaseAddress:    binary.BigEndian.Uint16(bytes[0x34:0x36]),
		ExtensionTableBaseAddress:        extensionTableBaseAddress,
		UnicodeExtensionTableBaseAddress: unicodeExtensionTableBaseAddress,
	}
}

func (core *Core) FileLength() uint32 {
	var multiplier uint32
	switch {
	case core.Version <= 3:
		multiplier = 2
	case core.Version <= 5:
		multiplier = 4
	default:
		multiplier = 8
	}
	return uint32(binary.BigEndian.Uint16(core.bytes[0x1a:0x1c])) * multiplier
}

func (core *Core) ReadByte(address uint32) uint8 {
	if address >= uint32(len(core.bytes)) {
		panic(ReadViolation{Address: address, Limit: uint32(len(core.bytes))})
	}
	return core.bytes[address]
}

func (core *Core) ReadHalfWord(address uint32) uint16 {
	if address+1 >= uint32(len(core.bytes)) {
		panic(ReadViolation{Address: address, Limit: uint32(len(core.bytes))})
	}
	return binary.BigEndian.Uint16(core.bytes[address : address+2])
}

// ReadSlice returns image bytes [startAddress, endAddress). The slice aliases
// the live image, callers must not write through it.
func (core *Core) ReadSlice(startAddress uint32, endAddress uint32) []uint8 {
	if endAddress > uint32(len(core.bytes)) || startAddress > endAddress {
		panic(ReadViolation{Address: endAddress, Limit: uint32(len(core.bytes))})
	}
	return core.bytes[startAddress:endAddress]
}

func (core *Core) WriteByte(address uint32, value uint8) {
	if address >= uint32(core.StaticMemoryBase) {
		panic(WriteViolation{Address: address, StaticBase: uint32(core.StaticMemoryBase)})
	}
	core.bytes[address] = value
}

// WriteHalfWord validates both byte addresses before touching either so a
// half-written word never persists past the guard.
func (core *Core) WriteHalfWord(address uint32, value uint16) {
	if address+1 >= uint32(core.StaticMemoryBase) {
		panic(WriteViolation{Address: address, StaticBase: uint32(core.StaticMemoryBase)})
	}
	binary.BigEndian.PutUint16(core.bytes[address:address+2], value)
}

func (core *Core) MemoryLength() uint32 {
	return uint32(len(core.bytes))
}

// Reset rewinds the dynamic region to its load-time contents. Static and high
// memory are never written so nothing else needs rewinding.
func (core *Core) Reset() {
	copy(core.bytes[:core.StaticMemoryBase], core.dynamicSnapshot)
}

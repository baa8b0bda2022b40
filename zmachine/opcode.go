package zmachine

import (
	"fmt"
	"strings"

	"github.com/pmcgill/zvm/zcore"
	"github.com/pmcgill/zvm/zstring"
)

type OperandType uint8
type OpcodeForm int
type OperandCount int

const (
	LargeConstant OperandType = 0b00
	SmallConstant OperandType = 0b01
	Variable      OperandType = 0b10
	Omitted       OperandType = 0b11
)

const (
	longForm OpcodeForm = iota
	shortForm
	varForm
	extForm
)

const (
	OP0 OperandCount = iota
	OP1
	OP2
	VAR
	EXT
)

type Operand struct {
	Type OperandType
	Raw  uint16 // Constant value, or a variable number for Variable operands
}

// BranchInfo describes a decoded branch: which outcome triggers it and where
// it goes. Offsets 0 and 1 mean return false/true from the current routine;
// anything else is applied as next PC + offset - 2.
type BranchInfo struct {
	Condition bool
	Offset    int16
}

// Instruction is the decoder's output: a plain record the executor dispatches
// on. NextPC is the address of the following instruction.
type Instruction struct {
	Address       uint32
	Form          OpcodeForm
	OperandCount  OperandCount
	OpcodeNumber  uint8
	opcodeByte    uint8
	Operands      []Operand
	StoresResult  bool
	StoreVariable uint8
	Branches      bool
	Branch        BranchInfo
	Text          string // Inline literal for print / print_ret
	NextPC        uint32
}

// ParseInstruction decodes the instruction at pc: form, operand types and raw
// operand words, then the store variable, branch bytes and inline string the
// opcode tables call for.
func ParseInstruction(pc uint32, core *zcore.Core, alphabets *zstring.Alphabets) Instruction {
	ptr := pc
	opcodeByte := core.ReadByte(ptr)
	ptr++

	inst := Instruction{
		Address:    pc,
		opcodeByte: opcodeByte,
	}

	switch {
	case opcodeByte == 0xbe && core.Version >= 5:
		inst.Form = extForm
		inst.OperandCount = EXT
		inst.OpcodeNumber = core.ReadByte(ptr)
		ptr++
		ptr = parseVariableOperands(&inst, ptr, core, false)

	case opcodeByte>>6 == 0b11:
		inst.Form = varForm
		inst.OpcodeNumber = opcodeByte & 0b1_1111
		inst.OperandCount = VAR
		if (opcodeByte>>5)&1 == 0 {
			inst.OperandCount = OP2
		}
		// call_vs2 and call_vn2 carry a second type byte for up to 8 operands
		doubleTypeByte := inst.OperandCount == VAR && (inst.OpcodeNumber == 0x0c || inst.OpcodeNumber == 0x1a)
		ptr = parseVariableOperands(&inst, ptr, core, doubleTypeByte)

	case opcodeByte>>6 == 0b10:
		inst.Form = shortForm
		inst.OpcodeNumber = opcodeByte & 0b1111
		operandType := OperandType((opcodeByte >> 4) & 0b11)

		if operandType == Omitted {
			inst.OperandCount = OP0
		} else {
			inst.OperandCount = OP1
			ptr = parseOperand(&inst, operandType, ptr, core)
		}

	default:
		inst.Form = longForm
		inst.OpcodeNumber = opcodeByte & 0b1_1111
		inst.OperandCount = OP2

		// One bit per operand: clear means small constant, set means variable
		for _, bit := range []uint8{(opcodeByte >> 6) & 1, (opcodeByte >> 5) & 1} {
			operandType := SmallConstant
			if bit == 1 {
				operandType = Variable
			}
			ptr = parseOperand(&inst, operandType, ptr, core)
		}
	}

	inst.StoresResult = storesResult(&inst, core.Version)
	if inst.StoresResult {
		inst.StoreVariable = core.ReadByte(ptr)
		ptr++
	}

	if branches(&inst, core.Version) {
		inst.Branches = true
		branchArg1 := core.ReadByte(ptr)
		ptr++

		inst.Branch.Condition = branchArg1>>7 == 1
		if (branchArg1>>6)&1 == 1 {
			inst.Branch.Offset = int16(branchArg1 & 0b11_1111)
		} else {
			// 14 bit signed offset, sign-extended via a shifted int16
			raw := uint16(branchArg1&0b11_1111)<<8 | uint16(core.ReadByte(ptr))
			ptr++
			inst.Branch.Offset = int16(raw<<2) >> 2
		}
	}

	if inst.OperandCount == OP0 && (inst.OpcodeNumber == 0x02 || inst.OpcodeNumber == 0x03) {
		text, bytesRead := zstring.Decode(ptr, core.MemoryLength(), core, alphabets)
		inst.Text = text
		ptr += bytesRead
	}

	inst.NextPC = ptr
	return inst
}

func parseOperand(inst *Instruction, operandType OperandType, ptr uint32, core *zcore.Core) uint32 {
	switch operandType {
	case LargeConstant:
		inst.Operands = append(inst.Operands, Operand{Type: operandType, Raw: core.ReadHalfWord(ptr)})
		return ptr + 2
	default:
		inst.Operands = append(inst.Operands, Operand{Type: operandType, Raw: uint16(core.ReadByte(ptr))})
		return ptr + 1
	}
}

func parseVariableOperands(inst *Instruction, ptr uint32, core *zcore.Core, doubleTypeByte bool) uint32 {
	typeByte := core.ReadByte(ptr)
	ptr++
	types := uint16(typeByte)<<8 | 0xff
	maxOperands := 4

	if doubleTypeByte {
		types = uint16(typeByte)<<8 | uint16(core.ReadByte(ptr))
		ptr++
		maxOperands = 8
	}

	for ix := 0; ix < maxOperands; ix++ {
		operandType := OperandType((types >> (14 - 2*ix)) & 0b11)
		if operandType == Omitted {
			break
		}
		ptr = parseOperand(inst, operandType, ptr, core)
	}

	return ptr
}

// storesResult consults the per-form opcode tables: does this opcode consume
// a store variable byte?
func storesResult(inst *Instruction, version uint8) bool {
	switch inst.OperandCount {
	case OP2:
		n := inst.OpcodeNumber
		return n == 0x08 || n == 0x09 || (n >= 0x0f && n <= 0x19)
	case OP1:
		n := inst.OpcodeNumber
		if n == 0x0f { // not up to v4, call_1n from v5
			return version < 5
		}
		return (n >= 0x01 && n <= 0x04) || n == 0x08 || n == 0x0e
	case OP0:
		// save/restore become store opcodes in v4 only
		return version == 4 && (inst.OpcodeNumber == 0x05 || inst.OpcodeNumber == 0x06)
	case VAR:
		n := inst.OpcodeNumber
		if n == 0x04 { // aread stores the terminator from v5
			return version >= 5
		}
		return n == 0x00 || n == 0x07 || n == 0x0c || (n >= 0x16 && n <= 0x18)
	case EXT:
		n := inst.OpcodeNumber
		return n <= 0x04 || n == 0x09 || n == 0x0a || n == 0x0c || n == 0x13
	}
	return false
}

// branches consults the per-form opcode tables: does this opcode consume
// branch bytes?
func branches(inst *Instruction, version uint8) bool {
	switch inst.OperandCount {
	case OP2:
		n := inst.OpcodeNumber
		return (n >= 0x01 && n <= 0x07) || n == 0x0a
	case OP1:
		return inst.OpcodeNumber <= 0x02
	case OP0:
		n := inst.OpcodeNumber
		if n == 0x05 || n == 0x06 { // save/restore branch up to v3
			return version <= 3
		}
		return n == 0x0d || n == 0x0f
	case VAR:
		return inst.OpcodeNumber == 0x17 || inst.OpcodeNumber == 0x1f
	case EXT:
		n := inst.OpcodeNumber
		return n == 0x06 || n == 0x18 || n == 0x1b
	}
	return false
}

var op0Names = map[uint8]string{
	0x0: "rtrue", 0x1: "rfalse", 0x2: "print", 0x3: "print_ret", 0x4: "nop",
	0x5: "save", 0x6: "restore", 0x7: "restart", 0x8: "ret_popped", 0x9: "pop",
	0xa: "quit", 0xb: "new_line", 0xc: "show_status", 0xd: "verify", 0xf: "piracy",
}

var op1Names = map[uint8]string{
	0x0: "jz", 0x1: "get_sibling", 0x2: "get_child", 0x3: "get_parent",
	0x4: "get_prop_len", 0x5: "inc", 0x6: "dec", 0x7: "print_addr",
	0x8: "call_1s", 0x9: "remove_obj", 0xa: "print_obj", 0xb: "ret",
	0xc: "jump", 0xd: "print_paddr", 0xe: "load", 0xf: "not",
}

var op2Names = map[uint8]string{
	0x01: "je", 0x02: "jl", 0x03: "jg", 0x04: "dec_chk", 0x05: "inc_chk",
	0x06: "jin", 0x07: "test", 0x08: "or", 0x09: "and", 0x0a: "test_attr",
	0x0b: "set_attr", 0x0c: "clear_attr", 0x0d: "store", 0x0e: "insert_obj",
	0x0f: "loadw", 0x10: "loadb", 0x11: "get_prop", 0x12: "get_prop_addr",
	0x13: "get_next_prop", 0x14: "add", 0x15: "sub", 0x16: "mul", 0x17: "div",
	0x18: "mod", 0x19: "call_2s", 0x1a: "call_2n", 0x1b: "set_colour", 0x1c: "throw",
}

var varNames = map[uint8]string{
	0x00: "call", 0x01: "storew", 0x02: "storeb", 0x03: "put_prop",
	0x04: "sread", 0x05: "print_char", 0x06: "print_num", 0x07: "random",
	0x08: "push", 0x09: "pull", 0x0a: "split_window", 0x0b: "set_window",
	0x0c: "call_vs2", 0x0d: "erase_window", 0x0e: "erase_line", 0x0f: "set_cursor",
	0x10: "get_cursor", 0x11: "set_text_style", 0x12: "buffer_mode",
	0x13: "output_stream", 0x14: "input_stream", 0x15: "sound_effect",
	0x16: "read_char", 0x17: "scan_table", 0x18: "not", 0x19: "call_vn",
	0x1a: "call_vn2", 0x1b: "tokenise", 0x1c: "encode_text", 0x1d: "copy_table",
	0x1e: "print_table", 0x1f: "check_arg_count",
}

var extNames = map[uint8]string{
	0x00: "save", 0x01: "restore", 0x02: "log_shift", 0x03: "art_shift",
	0x04: "set_font", 0x09: "save_undo", 0x0a: "restore_undo",
	0x0b: "print_unicode", 0x0c: "check_unicode", 0x0d: "set_true_colour",
}

// Name returns the opcode's mnemonic, or a form:number fallback for gaps in
// the tables.
func (inst *Instruction) Name() string {
	var table map[uint8]string
	var fallback string

	switch inst.OperandCount {
	case OP0:
		table, fallback = op0Names, "0OP"
	case OP1:
		table, fallback = op1Names, "1OP"
	case OP2:
		table, fallback = op2Names, "2OP"
	case VAR:
		table, fallback = varNames, "VAR"
	default:
		table, fallback = extNames, "EXT"
	}

	if name, ok := table[inst.OpcodeNumber]; ok {
		return name
	}
	return fmt.Sprintf("%s:%02x", fallback, inst.OpcodeNumber)
}

func (inst *Instruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[0x%05x] %s", inst.Address, inst.Name())

	for _, operand := range inst.Operands {
		if operand.Type == Variable {
			fmt.Fprintf(&b, " ($%02x)", uint8(operand.Raw))
		} else {
			fmt.Fprintf(&b, " #%04x", operand.Raw)
		}
	}
	if inst.StoresResult {
		fmt.Fprintf(&b, " -> ($%02x)", inst.StoreVariable)
	}
	if inst.Branches {
		fmt.Fprintf(&b, " ?%v(%+d)", inst.Branch.Condition, inst.Branch.Offset)
	}
	if inst.Text != "" {
		fmt.Fprintf(&b, " %q", inst.Text)
	}

	return b.String()
}

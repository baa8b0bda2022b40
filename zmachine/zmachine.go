// Package zmachine drives the fetch-decode-execute loop over a loaded story:
// the call stack, the opcode semantics and the plumbing out to whatever is
// presenting the story.
package zmachine

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/pmcgill/zvm/dictionary"
	"github.com/pmcgill/zvm/zcore"
	"github.com/pmcgill/zvm/zobject"
	"github.com/pmcgill/zvm/zstring"
	"github.com/pmcgill/zvm/ztable"
)

type ZMachine struct {
	callStack          CallStack
	Core               zcore.Core
	dictionary         *dictionary.Dictionary
	streams            Streams
	rng                *rand.Rand
	Alphabets          *zstring.Alphabets
	outputChannel      chan<- any
	inputChannel       <-chan InputResponse
	currentInstruction *Instruction
}

// LoadRom builds a machine around a story image. Version 6 needs the full
// windowed screen model and is rejected along with junk version bytes.
func LoadRom(storyFile []uint8, inputChannel <-chan InputResponse, outputChannel chan<- any) (*ZMachine, error) {
	if len(storyFile) < 0x40 {
		return nil, MemoryError("story file shorter than its own header")
	}

	version := storyFile[0]
	if version == 0 || version == 6 || version > 8 {
		return nil, VersionError(version)
	}

	machine := ZMachine{
		Core:          zcore.LoadCore(storyFile),
		inputChannel:  inputChannel,
		outputChannel: outputChannel,
		streams:       Streams{Screen: true},
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	machine.Alphabets = zstring.LoadAlphabets(&machine.Core)
	machine.dictionary = dictionary.ParseDictionary(uint32(machine.Core.DictionaryBase), &machine.Core, machine.Alphabets)

	machine.callStack.push(CallStackFrame{
		pc:     uint32(machine.Core.FirstInstruction),
		locals: make([]uint16, 0),
	})

	return &machine, nil
}

// packedAddress unpacks a 16 bit packed address into a byte address using the
// version's scale factor; v6/7 add the routine or string offset words.
func (z *ZMachine) packedAddress(originalAddress uint32, isZString bool) uint32 {
	switch {
	case z.Core.Version < 4:
		return 2 * originalAddress
	case z.Core.Version < 6:
		return 4 * originalAddress
	case z.Core.Version < 8:
		offset := z.Core.RoutinesOffset
		if isZString {
			offset = z.Core.StringOffset
		}
		return 4*originalAddress + 8*uint32(offset)
	default:
		return 8 * originalAddress
	}
}

// readVariable resolves variable k: 0 is the current evaluation stack, 1..15
// the locals, 16..255 the globals. Indirect references read the stack in
// place instead of popping.
func (z *ZMachine) readVariable(variable uint8, indirect bool) uint16 {
	currentCallFrame := z.callStack.peek()

	switch {
	case variable == 0:
		if indirect {
			return currentCallFrame.peek()
		}
		return currentCallFrame.pop()
	case variable < 16:
		if int(variable) > len(currentCallFrame.locals) {
			panic(MemoryError(fmt.Sprintf("attempt to read non-existent local variable %d", variable)))
		}
		return currentCallFrame.locals[variable-1]
	default:
		return z.Core.ReadHalfWord(uint32(z.Core.GlobalVariableBase) + 2*(uint32(variable)-16))
	}
}

func (z *ZMachine) writeVariable(variable uint8, value uint16, indirect bool) {
	currentCallFrame := z.callStack.peek()

	switch {
	case variable == 0:
		if indirect {
			currentCallFrame.replaceTop(value)
		} else {
			currentCallFrame.push(value)
		}
	case variable < 16:
		if int(variable) > len(currentCallFrame.locals) {
			panic(MemoryError(fmt.Sprintf("attempt to write non-existent local variable %d", variable)))
		}
		currentCallFrame.locals[variable-1] = value
	default:
		z.Core.WriteHalfWord(uint32(z.Core.GlobalVariableBase)+2*(uint32(variable)-16), value)
	}
}

// operandValue resolves one decoded operand: constants are themselves,
// variable operands dereference (possibly popping the stack). The executor
// calls this exactly once per operand, left to right.
func (z *ZMachine) operandValue(operand Operand) uint16 {
	switch operand.Type {
	case LargeConstant, SmallConstant:
		return operand.Raw
	case Variable:
		return z.readVariable(uint8(operand.Raw), false)
	default:
		panic(MemoryError("omitted operand reached at runtime"))
	}
}

func (z *ZMachine) store(inst *Instruction, value uint16) {
	z.writeVariable(inst.StoreVariable, value, false)
}

// applyBranch compares the opcode's outcome with the decoded branch sense and
// either returns from the routine (offsets 0/1) or redirects the PC.
func (z *ZMachine) applyBranch(inst *Instruction, result bool) {
	if result != inst.Branch.Condition {
		return
	}

	switch inst.Branch.Offset {
	case 0:
		z.returnFrom(0)
	case 1:
		z.returnFrom(1)
	default:
		z.callStack.peek().pc = uint32(int64(inst.NextPC) + int64(inst.Branch.Offset) - 2)
	}
}

// call activates the routine named by operand 0. Calling address 0 stores 0
// and carries on; otherwise the locals are built from the routine header's
// defaults (zeroes from v5) then overwritten by the supplied arguments.
func (z *ZMachine) call(inst *Instruction, operands []uint16) {
	routineAddress := z.packedAddress(uint32(operands[0]), false)

	if routineAddress == 0 {
		if inst.StoresResult {
			z.store(inst, 0)
		}
		return
	}

	localVariableCount := z.Core.ReadByte(routineAddress)
	if localVariableCount > 15 {
		panic(MemoryError(fmt.Sprintf("routine at 0x%x claims %d locals", routineAddress, localVariableCount)))
	}
	routineAddress++

	locals := make([]uint16, localVariableCount)
	for i := range locals {
		if z.Core.Version < 5 {
			locals[i] = z.Core.ReadHalfWord(routineAddress)
			routineAddress += 2
		}
	}

	args := operands[1:]
	for i := 0; i < len(args) && i < len(locals); i++ {
		locals[i] = args[i]
	}

	z.callStack.push(CallStackFrame{
		pc:              routineAddress,
		locals:          locals,
		routineStack:    make([]uint16, 0),
		storesResult:    inst.StoresResult,
		storeVariable:   inst.StoreVariable,
		numValuesPassed: len(args),
	})
}

// returnFrom pops the current routine, delivers the value into the call's
// store variable (if it had one) and resumes the caller.
func (z *ZMachine) returnFrom(value uint16) {
	oldFrame := z.callStack.pop()

	if z.callStack.depth() == 0 {
		panic(MemoryError("return from the bottom-most routine"))
	}

	if oldFrame.storesResult {
		z.writeVariable(oldFrame.storeVariable, value, false)
	}
}

func (z *ZMachine) restart() {
	z.Core.Reset()
	z.callStack = CallStack{}
	z.callStack.push(CallStackFrame{
		pc:     uint32(z.Core.FirstInstruction),
		locals: make([]uint16, 0),
	})
}

// appendText routes output through the selected streams. While a memory
// stream is open it swallows everything (7.1.2.2).
func (z *ZMachine) appendText(s string) {
	if len(z.streams.Memory) > 0 {
		stream := &z.streams.Memory[len(z.streams.Memory)-1]
		for _, r := range s {
			z.Core.WriteByte(stream.ptr, uint8(r))
			stream.ptr++
		}
		return
	}

	if z.streams.Screen {
		z.outputChannel <- s
	}
}

func (z *ZMachine) showStatus() {
	location := z.readVariable(16, false)
	statusBar := StatusBar{
		Score:       int(int16(z.readVariable(17, false))),
		Moves:       int(z.readVariable(18, false)),
		IsTimeBased: z.Core.StatusBarTimeBased,
	}
	if location != 0 {
		statusBar.PlaceName = zobject.GetObject(location, &z.Core, z.Alphabets).Name
	}

	z.outputChannel <- statusBar
}

// textBufferContents reads back the typed line stored in a text buffer:
// null-terminated from byte 1 up to v4, counted from byte 2 on v5+.
func (z *ZMachine) textBufferContents(bufferAddress uint32) []uint8 {
	if z.Core.Version >= 5 {
		count := uint32(z.Core.ReadByte(bufferAddress + 1))
		return z.Core.ReadSlice(bufferAddress+2, bufferAddress+2+count)
	}

	ptr := bufferAddress + 1
	for z.Core.ReadByte(ptr) != 0 {
		ptr++
	}
	return z.Core.ReadSlice(bufferAddress+1, ptr)
}

// read implements sread/aread: status line (v3), a blocking line read from
// the presentation layer, buffer writeback and tokenization.
func (z *ZMachine) read(inst *Instruction, operands []uint16) {
	if z.Core.Version <= 3 {
		z.showStatus()
	}

	textBufferPtr := uint32(operands[0])
	bufferSize := z.Core.ReadByte(textBufferPtr)

	z.outputChannel <- InputRequest{MaxChars: bufferSize}
	response := <-z.inputChannel

	rawText := []uint8(strings.ToLower(response.Text))
	if len(rawText) > int(bufferSize) {
		rawText = rawText[:bufferSize]
	}

	writePtr := textBufferPtr + 1
	if z.Core.Version >= 5 {
		// Leave any bytes already in the buffer in place
		existing := z.Core.ReadByte(writePtr)
		writePtr += 1 + uint32(existing)
	}

	for ix, chr := range rawText {
		if (chr >= 32 && chr <= 126) || (chr >= 155 && chr <= 251) {
			z.Core.WriteByte(writePtr+uint32(ix), chr)
		} else {
			z.Core.WriteByte(writePtr+uint32(ix), ' ')
		}
	}

	if z.Core.Version >= 5 {
		z.Core.WriteByte(textBufferPtr+1, uint8(len(rawText)))
	} else {
		z.Core.WriteByte(writePtr+uint32(len(rawText)), 0)
	}

	if len(operands) > 1 && operands[1] != 0 {
		z.dictionary.Analyze(&z.Core, z.Alphabets, rawText, uint32(operands[1]), false)
	}

	if inst.StoresResult {
		terminator := response.TerminatingKey
		if terminator == 0 {
			terminator = 13
		}
		z.store(inst, uint16(terminator))
	}
}

func (z *ZMachine) selectOutputStream(operands []uint16) {
	stream := int16(operands[0])

	switch stream {
	case 1, -1:
		z.streams.Screen = stream > 0
	case 2, -2:
		z.streams.Transcript = stream > 0
	case 4, -4:
		z.streams.CommandScript = stream > 0
	case 3:
		z.streams.Memory = append(z.streams.Memory, memoryStream{
			baseAddress: uint32(operands[1]),
			ptr:         uint32(operands[1]) + 2, // Skip the size word
		})
	case -3:
		if len(z.streams.Memory) == 0 {
			z.outputChannel <- Warning("output_stream -3 with no memory stream open")
			return
		}
		stream := z.streams.Memory[len(z.streams.Memory)-1]
		z.Core.WriteHalfWord(stream.baseAddress, uint16(stream.ptr-stream.baseAddress-2))
		z.streams.Memory = z.streams.Memory[:len(z.streams.Memory)-1]
	}
}

func (z *ZMachine) unimplemented(inst *Instruction) {
	panic(MemoryError(fmt.Sprintf("opcode %s not supported at 0x%05x", inst.Name(), inst.Address)))
}

// Run is the driver loop. Faults raised anywhere below it surface to the
// presentation layer as a RuntimeError and stop execution.
func (z *ZMachine) Run() {
	defer func() {
		if r := recover(); r != nil {
			message := fmt.Sprint(r)
			if err, ok := r.(error); ok {
				message = err.Error()
			}
			if z.currentInstruction != nil {
				message = fmt.Sprintf("%s\n  while executing %v", message, z.currentInstruction)
			}
			z.outputChannel <- RuntimeError(message)
		}
	}()

	for z.StepMachine() {
	}

	z.outputChannel <- Quit(true)
}

// StepMachine fetches, decodes and executes one instruction. It returns false
// only for quit.
func (z *ZMachine) StepMachine() bool {
	frame := z.callStack.peek()
	inst := ParseInstruction(frame.pc, &z.Core, z.Alphabets)
	z.currentInstruction = &inst

	// The PC moves past the instruction before the body runs; bodies that
	// jump, call or return overwrite it from there.
	frame.pc = inst.NextPC

	// Operands resolve exactly once each, left to right - resolution can pop
	// the evaluation stack as a side effect
	operands := make([]uint16, len(inst.Operands))
	for i, operand := range inst.Operands {
		operands[i] = z.operandValue(operand)
	}

	switch inst.OperandCount {
	case OP0:
		return z.step0OP(&inst, frame)
	case OP1:
		z.step1OP(&inst, frame, operands)
	case OP2:
		z.step2OP(&inst, operands)
	case VAR:
		z.stepVAR(&inst, frame, operands)
	case EXT:
		z.stepEXT(&inst, operands)
	}

	return true
}

func (z *ZMachine) step0OP(inst *Instruction, frame *CallStackFrame) bool {
	switch inst.OpcodeNumber {
	case 0x0: // rtrue
		z.returnFrom(1)

	case 0x1: // rfalse
		z.returnFrom(0)

	case 0x2: // print
		z.appendText(inst.Text)

	case 0x3: // print_ret
		z.appendText(inst.Text)
		z.appendText("\n")
		z.returnFrom(1)

	case 0x4: // nop

	case 0x7: // restart
		z.restart()

	case 0x8: // ret_popped
		z.returnFrom(frame.pop())

	case 0x9: // pop (catch from v5)
		if z.Core.Version >= 5 {
			z.unimplemented(inst)
		}
		frame.pop()

	case 0xa: // quit
		return false

	case 0xb: // new_line
		z.appendText("\n")

	case 0xc: // show_status
		if z.Core.Version <= 3 {
			z.showStatus()
		}

	case 0xf: // piracy - interpreters are asked to be gullible
		z.applyBranch(inst, true)

	default: // save, restore, verify
		z.unimplemented(inst)
	}

	return true
}

func (z *ZMachine) step1OP(inst *Instruction, frame *CallStackFrame, operands []uint16) {
	switch inst.OpcodeNumber {
	case 0x0: // jz
		z.applyBranch(inst, operands[0] == 0)

	case 0x1: // get_sibling
		sibling := zobject.GetObject(operands[0], &z.Core, z.Alphabets).Sibling
		z.store(inst, sibling)
		z.applyBranch(inst, sibling != 0)

	case 0x2: // get_child
		child := zobject.GetObject(operands[0], &z.Core, z.Alphabets).Child
		z.store(inst, child)
		z.applyBranch(inst, child != 0)

	case 0x3: // get_parent
		z.store(inst, zobject.GetObject(operands[0], &z.Core, z.Alphabets).Parent)

	case 0x4: // get_prop_len
		z.store(inst, zobject.GetPropertyLength(&z.Core, uint32(operands[0])))

	case 0x5: // inc
		variable := uint8(operands[0])
		z.writeVariable(variable, z.readVariable(variable, true)+1, true)

	case 0x6: // dec
		variable := uint8(operands[0])
		z.writeVariable(variable, z.readVariable(variable, true)-1, true)

	case 0x7: // print_addr
		text, _ := zstring.Decode(uint32(operands[0]), z.Core.MemoryLength(), &z.Core, z.Alphabets)
		z.appendText(text)

	case 0x8: // call_1s
		z.call(inst, operands)

	case 0x9: // remove_obj
		z.RemoveObject(operands[0])

	case 0xa: // print_obj
		z.appendText(zobject.GetObject(operands[0], &z.Core, z.Alphabets).Name)

	case 0xb: // ret
		z.returnFrom(operands[0])

	case 0xc: // jump
		offset := int16(operands[0])
		frame.pc = uint32(int64(inst.NextPC) + int64(offset) - 2)

	case 0xd: // print_paddr
		text, _ := zstring.Decode(z.packedAddress(uint32(operands[0]), true), z.Core.MemoryLength(), &z.Core, z.Alphabets)
		z.appendText(text)

	case 0xe: // load
		z.store(inst, z.readVariable(uint8(operands[0]), true))

	case 0xf: // not up to v4, call_1n from v5
		if z.Core.Version < 5 {
			z.store(inst, ^operands[0])
		} else {
			z.call(inst, operands)
		}
	}
}

func (z *ZMachine) step2OP(inst *Instruction, operands []uint16) {
	switch inst.OpcodeNumber {
	case 0x01: // je - equal to any of the remaining operands
		branch := false
		for _, b := range operands[1:] {
			if operands[0] == b {
				branch = true
			}
		}
		z.applyBranch(inst, branch)

	case 0x02: // jl
		z.applyBranch(inst, int16(operands[0]) < int16(operands[1]))

	case 0x03: // jg
		z.applyBranch(inst, int16(operands[0]) > int16(operands[1]))

	case 0x04: // dec_chk
		variable := uint8(operands[0])
		newValue := z.readVariable(variable, true) - 1
		z.writeVariable(variable, newValue, true)
		z.applyBranch(inst, int16(newValue) < int16(operands[1]))

	case 0x05: // inc_chk
		variable := uint8(operands[0])
		newValue := z.readVariable(variable, true) + 1
		z.writeVariable(variable, newValue, true)
		z.applyBranch(inst, int16(newValue) > int16(operands[1]))

	case 0x06: // jin
		obj := zobject.GetObject(operands[0], &z.Core, z.Alphabets)
		z.applyBranch(inst, obj.Parent == operands[1])

	case 0x07: // test
		z.applyBranch(inst, operands[0]&operands[1] == operands[1])

	case 0x08: // or
		z.store(inst, operands[0]|operands[1])

	case 0x09: // and
		z.store(inst, operands[0]&operands[1])

	case 0x0a: // test_attr
		obj := zobject.GetObject(operands[0], &z.Core, z.Alphabets)
		z.applyBranch(inst, obj.TestAttribute(operands[1]))

	case 0x0b: // set_attr
		obj := zobject.GetObject(operands[0], &z.Core, z.Alphabets)
		obj.SetAttribute(operands[1], &z.Core)

	case 0x0c: // clear_attr
		obj := zobject.GetObject(operands[0], &z.Core, z.Alphabets)
		obj.ClearAttribute(operands[1], &z.Core)

	case 0x0d: // store
		z.writeVariable(uint8(operands[0]), operands[1], true)

	case 0x0e: // insert_obj
		z.MoveObject(operands[0], operands[1])

	case 0x0f: // loadw
		z.store(inst, z.Core.ReadHalfWord(uint32(operands[0]+2*operands[1])))

	case 0x10: // loadb
		z.store(inst, uint16(z.Core.ReadByte(uint32(operands[0]+operands[1]))))

	case 0x11: // get_prop
		obj := zobject.GetObject(operands[0], &z.Core, z.Alphabets)
		prop := obj.GetProperty(uint8(operands[1]), &z.Core)
		z.store(inst, prop.Value())

	case 0x12: // get_prop_addr
		obj := zobject.GetObject(operands[0], &z.Core, z.Alphabets)
		prop := obj.GetProperty(uint8(operands[1]), &z.Core)
		z.store(inst, uint16(prop.DataAddress))

	case 0x13: // get_next_prop
		obj := zobject.GetObject(operands[0], &z.Core, z.Alphabets)
		z.store(inst, uint16(obj.GetNextProperty(uint8(operands[1]), &z.Core)))

	case 0x14: // add
		z.store(inst, operands[0]+operands[1])

	case 0x15: // sub
		z.store(inst, operands[0]-operands[1])

	case 0x16: // mul
		z.store(inst, operands[0]*operands[1])

	case 0x17: // div
		if operands[1] == 0 {
			panic(MemoryError("division by zero"))
		}
		z.store(inst, uint16(int16(operands[0])/int16(operands[1])))

	case 0x18: // mod
		if operands[1] == 0 {
			panic(MemoryError("modulo by zero"))
		}
		z.store(inst, uint16(int16(operands[0])%int16(operands[1])))

	case 0x19: // call_2s
		if z.Core.Version < 4 {
			z.unimplemented(inst)
		}
		z.call(inst, operands)

	case 0x1a: // call_2n
		if z.Core.Version < 5 {
			z.unimplemented(inst)
		}
		z.call(inst, operands)

	default: // set_colour, throw, unused numbers
		z.unimplemented(inst)
	}
}

func (z *ZMachine) stepVAR(inst *Instruction, frame *CallStackFrame, operands []uint16) {
	switch inst.OpcodeNumber {
	case 0x00: // call / call_vs
		z.call(inst, operands)

	case 0x01: // storew
		z.Core.WriteHalfWord(uint32(operands[0]+2*operands[1]), operands[2])

	case 0x02: // storeb
		z.Core.WriteByte(uint32(operands[0]+operands[1]), uint8(operands[2]))

	case 0x03: // put_prop
		obj := zobject.GetObject(operands[0], &z.Core, z.Alphabets)
		obj.SetProperty(uint8(operands[1]), operands[2], &z.Core)

	case 0x04: // sread / aread
		z.read(inst, operands)

	case 0x05: // print_char
		if operands[0] != 0 {
			z.appendText(string(zstring.ZsciiToRune(operands[0], &z.Core)))
		}

	case 0x06: // print_num
		z.appendText(strconv.Itoa(int(int16(operands[0]))))

	case 0x07: // random
		n := int16(operands[0])
		result := uint16(0)
		switch {
		case n < 0:
			// Negative operand seeds a deterministic stream
			z.rng = rand.New(rand.NewSource(int64(n)))
		case n == 0:
			z.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		default:
			result = uint16(z.rng.Int31n(int32(n))) + 1
		}
		z.store(inst, result)

	case 0x08: // push
		frame.push(operands[0])

	case 0x09: // pull
		z.writeVariable(uint8(operands[0]), frame.pop(), true)

	case 0x0c: // call_vs2
		z.call(inst, operands)

	case 0x12: // buffer_mode - output is unbuffered here, nothing to do

	case 0x13: // output_stream
		z.selectOutputStream(operands)

	case 0x16: // read_char
		z.outputChannel <- CharacterRequest{}
		response := <-z.inputChannel
		if len(response.Text) > 0 {
			z.store(inst, uint16(response.Text[0]))
		} else {
			z.store(inst, uint16(response.TerminatingKey))
		}

	case 0x17: // scan_table
		form := uint16(0x82)
		if len(operands) == 4 {
			form = operands[3]
		}
		result := ztable.ScanTable(&z.Core, operands[0], uint32(operands[1]), operands[2], form)
		z.store(inst, uint16(result))
		z.applyBranch(inst, result != 0)

	case 0x18: // not (VAR form from v5)
		z.store(inst, ^operands[0])

	case 0x19, 0x1a: // call_vn, call_vn2
		z.call(inst, operands)

	case 0x1b: // tokenise
		dictionaryToUse := z.dictionary
		if len(operands) > 2 && operands[2] != 0 {
			dictionaryToUse = dictionary.ParseDictionary(uint32(operands[2]), &z.Core, z.Alphabets)
		}
		skipUnknown := len(operands) > 3 && operands[3] != 0
		input := z.textBufferContents(uint32(operands[0]))
		dictionaryToUse.Analyze(&z.Core, z.Alphabets, input, uint32(operands[1]), skipUnknown)

	case 0x1c: // encode_text
		textStart := uint32(operands[0]) + uint32(operands[2])
		raw := z.Core.ReadSlice(textStart, textStart+uint32(operands[1]))
		for i, b := range zstring.Encode([]rune(string(raw)), &z.Core, z.Alphabets) {
			z.Core.WriteByte(uint32(operands[3])+uint32(i), b)
		}

	case 0x1d: // copy_table
		ztable.CopyTable(&z.Core, operands[0], operands[1], int16(operands[2]))

	case 0x1e: // print_table
		height := uint16(1)
		skip := uint16(0)
		if len(operands) > 2 {
			height = operands[2]
		}
		if len(operands) > 3 {
			skip = operands[3]
		}
		z.appendText(ztable.PrintTable(&z.Core, uint32(operands[0]), operands[1], height, skip))

	case 0x1f: // check_arg_count
		z.applyBranch(inst, int(operands[0]) <= frame.numValuesPassed)

	default: // split_window, set_window, erase_window, cursors, sound, ...
		z.unimplemented(inst)
	}
}

func (z *ZMachine) stepEXT(inst *Instruction, operands []uint16) {
	switch inst.OpcodeNumber {
	case 0x02: // log_shift
		places := int16(operands[1])
		if places >= 0 {
			z.store(inst, operands[0]<<uint16(places))
		} else {
			z.store(inst, operands[0]>>uint16(-places))
		}

	case 0x03: // art_shift
		places := int16(operands[1])
		if places >= 0 {
			z.store(inst, uint16(int16(operands[0])<<uint16(places)))
		} else {
			z.store(inst, uint16(int16(operands[0])>>uint16(-places)))
		}

	case 0x0b: // print_unicode
		z.appendText(string(rune(operands[0])))

	case 0x0c: // check_unicode - terminal output can both print and receive
		z.store(inst, 0b11)

	default: // save/restore/undo and the v6 screen model
		z.unimplemented(inst)
	}
}

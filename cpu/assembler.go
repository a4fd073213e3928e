package cpu

import (
	"io"
	"slices"
	"strings"
)

// Mnemonic aliases: terse and verbose spellings resolve to the same
// abstract mnemonic.
var aliasMap = map[string]string{
	"jump":   "jmp",
	"return": "rtn",
	"seti":   "sei",
	"cleari": "cli",
	"nop":    "noop",
	"move":   "mov",
}

// Mnemonics taking no operands.
var nullaryOps = map[string]Opcode{
	"noop":  OP_NOOP,
	"reset": OP_RESET,
	"halt":  OP_HALT,
	"rtn":   OP_RTN,
	"pushs": OP_PUSHS,
	"pops":  OP_POPS,
	"sei":   OP_SEI,
	"cli":   OP_CLI,
}

// Arithmetic families: register-register, register-constant, and
// register-memory variants.
var arithOps = map[string][3]Opcode{
	"add": {OP_ADD, OP_ADDC, OP_ADDA},
	"sub": {OP_SUB, OP_SUBC, OP_SUBA},
	"mul": {OP_MUL, OP_MULC, OP_MULA},
	"div": {OP_DIV, OP_DIVC, OP_DIVA},
	"cmp": {OP_CMP, OP_CMPC, OP_CMPA},
}

// Conditional jumps comparing a register with a word constant.
var condJumpOps = map[string]Opcode{
	"jre":  OP_JRE,
	"jrn":  OP_JRN,
	"jrg":  OP_JRG,
	"jrl":  OP_JRL,
	"jrle": OP_JRLE,
	"jrge": OP_JRGE,
}

// Instruction is one parsed instruction: the abstract mnemonic, its
// classified operands in the executor's layout, and the opcode and
// address-mode bit selected for the operand combination.
type Instruction struct {
	Mnemonic string
	Operands []Operand
	Op       Opcode
	Indirect bool
}

// Fixup records a forward reference: the two placeholder bytes at
// Offset are overwritten with the resolved image offset of Label
// during linking.
type Fixup struct {
	Offset uint16
	Label  string
}

// Assembler is the two-pass assembler for the DIS-16 instruction set.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	Equate map[string]string // Map of equates.
	Fixup  []Fixup           // Fixups recorded by the most recent emit pass.

	predefine map[string]string // Predefines
}

// Predefine defines a new equate or redefines an existing predefine.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Assemble translates source text into a linked binary image. The
// .main label is rotated to image offset 0; the remaining labels
// follow in source order.
func (asm *Assembler) Assemble(input io.Reader) (prog *Program, err error) {
	labels, err := asm.scan(input)
	if err != nil {
		return
	}

	pivot := slices.IndexFunc(labels, func(l *SourceLabel) bool { return l.Name == MAIN_LABEL })
	if pivot < 0 {
		err = ErrMissingMain
		return
	}
	labels = slices.Concat(labels[pivot:pivot+1], labels[:pivot], labels[pivot+1:])

	for _, label := range labels {
		err = asm.parseLabel(label)
		if err != nil {
			return
		}
	}

	prog, err = asm.emit(labels)
	return
}

// parseLabel parses a label's token stream into instructions. The
// endOfLine sentinel marks the boundary between instruction lines.
func (asm *Assembler) parseLabel(label *SourceLabel) (err error) {
	first := 0
	for n, token := range label.Tokens {
		if token != endOfLine {
			continue
		}

		words := label.Tokens[first:n]
		if len(words) != 0 {
			var inst Instruction
			inst, err = asm.parseInstruction(words)
			if err != nil {
				err = &ErrSyntax{LineNo: label.Lines[first], Line: strings.Join(words, " "), Err: err}
				return
			}
			label.Instructions = append(label.Instructions, inst)
		}

		first = n + 1
	}

	return
}

// parseInstruction classifies the operands of one instruction line
// and selects its opcode.
func (asm *Assembler) parseInstruction(words []string) (inst Instruction, err error) {
	mnemonic := words[0]
	if alias, ok := aliasMap[mnemonic]; ok {
		mnemonic = alias
	}

	operands := make([]Operand, 0, len(words)-1)
	for _, word := range words[1:] {
		var op Operand
		op, err = Classify(word)
		if err != nil {
			return
		}
		operands = append(operands, op)
	}

	inst = Instruction{Mnemonic: mnemonic, Operands: operands}
	err = asm.selectOpcode(&inst)
	return
}

// targetMode reports the address-mode bit for a jump target operand.
func targetMode(op Operand) (indirect bool, err error) {
	switch op.Kind {
	case OPERAND_WORD, OPERAND_LABEL, OPERAND_CONST_ADDRESS:
		// immediate target
	case OPERAND_REGISTER_ADDRESS:
		indirect = true
	default:
		err = ErrOperandMismatch
	}
	return
}

// selectOpcode picks the concrete opcode and address-mode bit for a
// mnemonic and its classified operands.
func (asm *Assembler) selectOpcode(inst *Instruction) (err error) {
	args := inst.Operands

	if op, ok := nullaryOps[inst.Mnemonic]; ok {
		if len(args) != 0 {
			return ErrOperandCount
		}
		inst.Op = op
		return
	}

	if family, ok := arithOps[inst.Mnemonic]; ok {
		if len(args) != 2 {
			return ErrOperandCount
		}
		if args[0].Kind != OPERAND_REGISTER {
			return ErrOperandMismatch
		}
		switch args[1].Kind {
		case OPERAND_REGISTER:
			inst.Op = family[0]
		case OPERAND_WORD:
			inst.Op = family[1]
		case OPERAND_CONST_ADDRESS:
			inst.Op = family[2]
		case OPERAND_REGISTER_ADDRESS:
			inst.Op = family[2]
			inst.Indirect = true
		default:
			return ErrOperandMismatch
		}
		return
	}

	if op, ok := condJumpOps[inst.Mnemonic]; ok {
		if len(args) != 3 {
			return ErrOperandCount
		}
		if args[0].Kind != OPERAND_REGISTER || args[1].Kind != OPERAND_WORD {
			return ErrOperandMismatch
		}
		inst.Op = op
		inst.Indirect, err = targetMode(args[2])
		return
	}

	switch inst.Mnemonic {
	case "inc", "dec":
		if len(args) != 1 {
			return ErrOperandCount
		}
		regOp, memOp := OP_INC, OP_INCM
		if inst.Mnemonic == "dec" {
			regOp, memOp = OP_DEC, OP_DECM
		}
		switch args[0].Kind {
		case OPERAND_REGISTER:
			inst.Op = regOp
		case OPERAND_CONST_ADDRESS:
			inst.Op = memOp
		case OPERAND_REGISTER_ADDRESS:
			inst.Op = memOp
			inst.Indirect = true
		default:
			return ErrOperandMismatch
		}
	case "uxt":
		if len(args) != 1 {
			return ErrOperandCount
		}
		if args[0].Kind != OPERAND_REGISTER {
			return ErrOperandMismatch
		}
		inst.Op = OP_UXT
	case "lsl", "lsr":
		if len(args) != 2 {
			return ErrOperandCount
		}
		if args[0].Kind != OPERAND_REGISTER || args[1].Kind != OPERAND_WORD {
			return ErrOperandMismatch
		}
		inst.Op = OP_LSL
		if inst.Mnemonic == "lsr" {
			inst.Op = OP_LSR
		}
	case "mov":
		err = selectMov(inst)
	case "jmp", "jsr":
		if len(args) != 1 {
			return ErrOperandCount
		}
		inst.Op = OP_JMP
		if inst.Mnemonic == "jsr" {
			inst.Op = OP_JSR
		}
		inst.Indirect, err = targetMode(args[0])
	case "jrz":
		if len(args) != 2 {
			return ErrOperandCount
		}
		if args[0].Kind != OPERAND_REGISTER {
			return ErrOperandMismatch
		}
		inst.Op = OP_JRZ
		inst.Indirect, err = targetMode(args[1])
	case "push":
		if len(args) != 1 {
			return ErrOperandCount
		}
		switch args[0].Kind {
		case OPERAND_REGISTER:
			inst.Op = OP_PUSH
		case OPERAND_WORD:
			inst.Op = OP_PUSHC
		default:
			return ErrOperandMismatch
		}
	case "pop":
		if len(args) != 1 {
			return ErrOperandCount
		}
		if args[0].Kind != OPERAND_REGISTER {
			return ErrOperandMismatch
		}
		inst.Op = OP_POP
	default:
		err = ErrMnemonicInvalid
	}

	return
}

// selectMov picks the data-movement opcode. Store forms reorder the
// operands into the executor's layout (source value first, address
// second). Memory-to-memory moves have no opcode.
func selectMov(inst *Instruction) (err error) {
	if len(inst.Operands) != 2 {
		return ErrOperandCount
	}
	dst := inst.Operands[0]
	src := inst.Operands[1]

	switch dst.Kind {
	case OPERAND_REGISTER:
		switch src.Kind {
		case OPERAND_REGISTER:
			inst.Op = OP_LDR
		case OPERAND_WORD, OPERAND_LABEL:
			inst.Op = OP_LDC
		case OPERAND_CONST_ADDRESS:
			inst.Op = OP_LDM
		case OPERAND_REGISTER_ADDRESS:
			inst.Op = OP_LDM
			inst.Indirect = true
		default:
			return ErrOperandMismatch
		}
	case OPERAND_CONST_ADDRESS, OPERAND_REGISTER_ADDRESS:
		switch src.Kind {
		case OPERAND_REGISTER:
			inst.Op = OP_STRM
		case OPERAND_WORD, OPERAND_LABEL:
			inst.Op = OP_STCM
		default:
			return ErrOperandMismatch
		}
		inst.Indirect = dst.Kind == OPERAND_REGISTER_ADDRESS
		inst.Operands = []Operand{src, dst}
	default:
		return ErrOperandMismatch
	}

	return
}

// emit writes opcodes and operands label by label, recording a fixup
// for each symbolic operand, then links the fixups once every label
// has an image offset.
func (asm *Assembler) emit(labels []*SourceLabel) (prog *Program, err error) {
	var image []byte
	offsets := make(map[string]uint16, len(labels))

	asm.Fixup = asm.Fixup[:0]

	for _, label := range labels {
		label.Offset = uint16(len(image))
		offsets[label.Name] = label.Offset

		for _, inst := range label.Instructions {
			image = append(image, Encode(inst.Op, inst.Indirect))
			for _, arg := range inst.Operands {
				switch arg.Kind {
				case OPERAND_REGISTER, OPERAND_REGISTER_ADDRESS:
					image = append(image, byte(arg.Value))
				case OPERAND_WORD, OPERAND_CONST_ADDRESS:
					image = append(image, byte(arg.Value&0xFF), byte(arg.Value>>8))
				case OPERAND_LABEL:
					asm.Fixup = append(asm.Fixup, Fixup{Offset: uint16(len(image)), Label: arg.Label})
					image = append(image, 0, 0)
				}
			}
		}
	}

	for _, fix := range asm.Fixup {
		offset, ok := offsets[fix.Label]
		if !ok {
			err = ErrLabelMissing(fix.Label)
			return
		}
		image[fix.Offset] = byte(offset & 0xFF)
		image[fix.Offset+1] = byte(offset >> 8)
	}

	prog = &Program{
		Bytes:  image,
		Labels: offsets,
		Fixups: slices.Clone(asm.Fixup),
	}

	return
}

package cpu

import (
	"fmt"
	"strings"
)

// operandShape describes the emitted operand layout of an opcode.
type operandShape int

const (
	shape_none = operandShape(iota)
	shape_r    // register
	shape_rr   // register, register
	shape_rw   // register, word
	shape_rm   // register, memory address
	shape_m    // memory address
	shape_wm   // word, memory address
	shape_t    // jump target
	shape_rt   // register, jump target
	shape_rwt  // register, word, jump target
	shape_w    // word
)

var opcodeShapes = map[Opcode]operandShape{
	OP_NOOP:  shape_none,
	OP_RESET: shape_none,
	OP_HALT:  shape_none,
	OP_ADD:   shape_rr,
	OP_SUB:   shape_rr,
	OP_MUL:   shape_rr,
	OP_DIV:   shape_rr,
	OP_CMP:   shape_rr,
	OP_ADDC:  shape_rw,
	OP_SUBC:  shape_rw,
	OP_MULC:  shape_rw,
	OP_DIVC:  shape_rw,
	OP_CMPC:  shape_rw,
	OP_ADDA:  shape_rm,
	OP_SUBA:  shape_rm,
	OP_MULA:  shape_rm,
	OP_DIVA:  shape_rm,
	OP_CMPA:  shape_rm,
	OP_INC:   shape_r,
	OP_DEC:   shape_r,
	OP_INCM:  shape_m,
	OP_DECM:  shape_m,
	OP_UXT:   shape_r,
	OP_LSL:   shape_rw,
	OP_LSR:   shape_rw,
	OP_LDR:   shape_rr,
	OP_LDC:   shape_rw,
	OP_LDM:   shape_rm,
	OP_STRM:  shape_rm,
	OP_STCM:  shape_wm,
	OP_JSR:   shape_t,
	OP_RTN:   shape_none,
	OP_JMP:   shape_t,
	OP_JRZ:   shape_rt,
	OP_JRE:   shape_rwt,
	OP_JRN:   shape_rwt,
	OP_JRG:   shape_rwt,
	OP_JRL:   shape_rwt,
	OP_JRLE:  shape_rwt,
	OP_JRGE:  shape_rwt,
	OP_PUSH:  shape_r,
	OP_PUSHC: shape_w,
	OP_POP:   shape_r,
	OP_PUSHS: shape_none,
	OP_POPS:  shape_none,
	OP_SEI:   shape_none,
	OP_CLI:   shape_none,
}

// The source mnemonic each opcode disassembles to.
var sourceMnemonics = map[Opcode]string{
	OP_NOOP:  "noop",
	OP_RESET: "reset",
	OP_HALT:  "halt",
	OP_ADD:   "add",
	OP_ADDC:  "add",
	OP_ADDA:  "add",
	OP_SUB:   "sub",
	OP_SUBC:  "sub",
	OP_SUBA:  "sub",
	OP_MUL:   "mul",
	OP_MULC:  "mul",
	OP_MULA:  "mul",
	OP_DIV:   "div",
	OP_DIVC:  "div",
	OP_DIVA:  "div",
	OP_CMP:   "cmp",
	OP_CMPC:  "cmp",
	OP_CMPA:  "cmp",
	OP_INC:   "inc",
	OP_INCM:  "inc",
	OP_DEC:   "dec",
	OP_DECM:  "dec",
	OP_UXT:   "uxt",
	OP_LSL:   "lsl",
	OP_LSR:   "lsr",
	OP_LDR:   "mov",
	OP_LDC:   "mov",
	OP_LDM:   "mov",
	OP_STRM:  "mov",
	OP_STCM:  "mov",
	OP_JSR:   "jsr",
	OP_RTN:   "rtn",
	OP_JMP:   "jmp",
	OP_JRZ:   "jrz",
	OP_JRE:   "jre",
	OP_JRN:   "jrn",
	OP_JRG:   "jrg",
	OP_JRL:   "jrl",
	OP_JRLE:  "jrle",
	OP_JRGE:  "jrge",
	OP_PUSH:  "push",
	OP_PUSHC: "push",
	OP_POP:   "pop",
	OP_PUSHS: "pushs",
	OP_POPS:  "pops",
	OP_SEI:   "sei",
	OP_CLI:   "cli",
}

// regName renders a register selector in source syntax.
func regName(b byte) string {
	switch b & 0x07 {
	case REG_PC:
		return "rpc"
	case REG_SP:
		return "rsp"
	}
	return fmt.Sprintf("r%d", b&0x07)
}

// disasmOne decodes one instruction at the start of code, returning
// its source line and encoded size.
func disasmOne(code []byte) (text string, size int, err error) {
	op, indirect := Decode(code[0])
	shape, ok := opcodeShapes[op]
	if !ok {
		err = ErrIllegal(code[0])
		return
	}

	cursor := 1
	nextByte := func() (b byte) {
		if cursor >= len(code) {
			err = ErrImageTruncated
			return
		}
		b = code[cursor]
		cursor++
		return
	}
	nextWord := func() (w uint16) {
		lo := nextByte()
		hi := nextByte()
		w = uint16(lo) | uint16(hi)<<8
		return
	}
	reg := func() string { return regName(nextByte()) }
	word := func() string { return fmt.Sprintf("0x%04x", nextWord()) }
	mem := func() string {
		if indirect {
			return "[" + regName(nextByte()) + "]"
		}
		return fmt.Sprintf("[0x%04x]", nextWord())
	}
	target := func() string {
		if indirect {
			return "[" + regName(nextByte()) + "]"
		}
		return fmt.Sprintf("0x%04x", nextWord())
	}

	var args []string
	switch shape {
	case shape_none:
		// pass
	case shape_r:
		args = []string{reg()}
	case shape_rr:
		args = []string{reg(), reg()}
	case shape_rw:
		args = []string{reg(), word()}
	case shape_rm:
		if op == OP_STRM {
			// Store source text is "mov <addr> <reg>".
			r := reg()
			args = []string{mem(), r}
		} else {
			args = []string{reg(), mem()}
		}
	case shape_m:
		args = []string{mem()}
	case shape_wm:
		w := word()
		args = []string{mem(), w}
	case shape_t:
		args = []string{target()}
	case shape_rt:
		args = []string{reg(), target()}
	case shape_rwt:
		args = []string{reg(), word(), target()}
	case shape_w:
		args = []string{word()}
	}
	if err != nil {
		return
	}

	text = strings.Join(append([]string{sourceMnemonics[op]}, args...), " ")
	size = cursor
	return
}

// Disassemble decodes a binary image into assembler source text, one
// instruction per line under the .main label. Operands are rendered
// numerically, so reassembling the output reproduces the image.
func Disassemble(image []byte) (lines []string, err error) {
	lines = append(lines, MAIN_LABEL+":")

	for pc := 0; pc < len(image); {
		var text string
		var size int
		text, size, err = disasmOne(image[pc:])
		if err != nil {
			return
		}
		lines = append(lines, text)
		pc += size
	}

	return
}

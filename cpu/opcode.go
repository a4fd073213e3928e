package cpu

import (
	"fmt"
)

// Opcode is a 7-bit instruction opcode. Bit 7 of the encoded byte is
// the address-mode flag, not part of the opcode value.
type Opcode byte

const (
	// Special
	OP_NOOP  = Opcode(0x00) // No op
	OP_RESET = Opcode(0x7E) // Clear registers and memory, reset flags
	OP_HALT  = Opcode(0x7F) // Stop execution

	// Arithmetic
	OP_ADD  = Opcode(0x01) // Add two registers, store in first
	OP_ADDC = Opcode(0x02) // Add word constant into register
	OP_ADDA = Opcode(0x03) // Add word at memory address into register

	OP_SUB  = Opcode(0x04) // Subtract register from register
	OP_SUBC = Opcode(0x05) // Subtract word constant from register
	OP_SUBA = Opcode(0x06) // Subtract word at memory address from register

	OP_MUL  = Opcode(0x07) // Multiply register by register
	OP_MULC = Opcode(0x08) // Multiply register by word constant
	OP_MULA = Opcode(0x09) // Multiply register by word at memory address

	OP_DIV  = Opcode(0x0A) // Divide register by register
	OP_DIVC = Opcode(0x0B) // Divide register by word constant
	OP_DIVA = Opcode(0x0C) // Divide register by word at memory address

	OP_CMPC = Opcode(0x0D) // Compare register with word constant, flags only
	OP_CMP  = Opcode(0x0E) // Compare two registers, flags only
	OP_CMPA = Opcode(0x0F) // Compare register with word at memory address, flags only

	// Increment
	OP_INC  = Opcode(0x10) // Increment a register
	OP_INCM = Opcode(0x11) // Increment a word in memory
	OP_DEC  = Opcode(0x12) // Decrement a register
	OP_DECM = Opcode(0x13) // Decrement a word in memory

	// Bitwise
	OP_UXT = Opcode(0x20) // Zero extend the low byte of a register
	OP_LSL = Opcode(0x21) // Logical shift left by a word constant
	OP_LSR = Opcode(0x22) // Logical shift right by a word constant

	// Data moving
	OP_LDR  = Opcode(0x30) // Load second register into first register
	OP_LDC  = Opcode(0x31) // Load word constant into register
	OP_LDM  = Opcode(0x32) // Load word from memory into register
	OP_STRM = Opcode(0x33) // Store register into memory
	OP_STCM = Opcode(0x35) // Store word constant into memory

	// Control
	OP_JSR = Opcode(0x40) // Push PC, jump to subroutine
	OP_RTN = Opcode(0x41) // Pop PC
	OP_JMP = Opcode(0x42) // Jump unconditionally

	OP_JRZ  = Opcode(0x43) // Jump if register is zero
	OP_JRE  = Opcode(0x44) // Jump if register equals a word constant
	OP_JRN  = Opcode(0x45) // Jump if register does not equal a word constant
	OP_JRG  = Opcode(0x46) // Jump if register is greater than a word constant
	OP_JRL  = Opcode(0x47) // Jump if register is less than a word constant
	OP_JRLE = Opcode(0x48) // Jump if register is less than or equal to a word constant
	OP_JRGE = Opcode(0x49) // Jump if register is greater than or equal to a word constant

	// Stack
	OP_PUSH  = Opcode(0x60) // Push register
	OP_PUSHC = Opcode(0x62) // Push word constant
	OP_POP   = Opcode(0x63) // Pop into register
	OP_PUSHS = Opcode(0x65) // Push status word
	OP_POPS  = Opcode(0x66) // Pop status word

	// Interrupts
	OP_SEI = Opcode(0x70) // Set the global interrupt enable flag
	OP_CLI = Opcode(0x71) // Clear the global interrupt enable flag

	// Opcodes must not exceed 0x7F due to the address-mode bit.
)

// ADDR_MODE_BIT selects register-indirect effective addressing when
// set on the encoded opcode byte.
const ADDR_MODE_BIT = byte(0x80)

// Decode splits a fetched byte into its opcode and address-mode flag.
func Decode(b byte) (op Opcode, indirect bool) {
	return Opcode(b & 0x7F), b>>7 == 1
}

// Encode packs an opcode and address-mode flag into one byte.
func Encode(op Opcode, indirect bool) (b byte) {
	b = byte(op)
	if indirect {
		b |= ADDR_MODE_BIT
	}
	return
}

var opcodeNames = map[Opcode]string{
	OP_NOOP:  "noop",
	OP_RESET: "reset",
	OP_HALT:  "halt",
	OP_ADD:   "add",
	OP_ADDC:  "addc",
	OP_ADDA:  "adda",
	OP_SUB:   "sub",
	OP_SUBC:  "subc",
	OP_SUBA:  "suba",
	OP_MUL:   "mul",
	OP_MULC:  "mulc",
	OP_MULA:  "mula",
	OP_DIV:   "div",
	OP_DIVC:  "divc",
	OP_DIVA:  "diva",
	OP_CMPC:  "cmpc",
	OP_CMP:   "cmp",
	OP_CMPA:  "cmpa",
	OP_INC:   "inc",
	OP_INCM:  "incm",
	OP_DEC:   "dec",
	OP_DECM:  "decm",
	OP_UXT:   "uxt",
	OP_LSL:   "lsl",
	OP_LSR:   "lsr",
	OP_LDR:   "ldr",
	OP_LDC:   "ldc",
	OP_LDM:   "ldm",
	OP_STRM:  "strm",
	OP_STCM:  "stcm",
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
	OP_PUSHC: "pushc",
	OP_POP:   "pop",
	OP_PUSHS: "pushs",
	OP_POPS:  "pops",
	OP_SEI:   "sei",
	OP_CLI:   "cli",
}

// Valid reports whether the opcode value is part of the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeNames[op]
	return ok
}

// String returns the opcode mnemonic.
func (op Opcode) String() string {
	name, ok := opcodeNames[op]
	if !ok {
		return fmt.Sprintf("op_%02x", byte(op))
	}
	return name
}

// Package cpu implements the DIS-16 microcontroller core and its
// assembler.
//
// The CPU is a 16-bit machine with six general-purpose registers, a
// program counter and stack pointer in one selector-indexed file, a
// packed status byte, and an eight-line prioritised interrupt
// controller. Bit 7 of each opcode byte is an address-mode flag
// selecting between an immediate and a register-indirect effective
// address, and every byte read from or written to memory costs one
// cycle from the caller's budget.
//
// The assembler translates the textual assembly language into a
// little-endian binary image: tokenized label blocks, operand
// classification, operand-aware opcode selection, and a two-pass
// emitter that back-patches forward label references. Equates and
// compile-time $() expressions are supported.
package cpu

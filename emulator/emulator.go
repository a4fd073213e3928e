package emulator

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/dis16/dis16/cpu"
	"github.com/dis16/dis16/internal"
)

// DEFAULT_BUDGET is the cycle budget used when the caller does not
// configure one.
const DEFAULT_BUDGET = int64(65536)

var _emulator_defines = map[string]string{
	"default_budget": fmt.Sprintf("%v", DEFAULT_BUDGET),
}

// Emulator state: a CPU plus the memory it borrows for each run.
type Emulator struct {
	Verbose bool // If set, enables verbose logging.

	Cpu cpu.Cpu    // CPU simulation state.
	Mem cpu.Memory // Owned address space, lent to the CPU during Run.

	Budget int64 // Cycle budget for the next Run.
}

// NewEmulator creates a new emulator with the default cycle budget.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Budget: DEFAULT_BUDGET,
	}

	return
}

// Defines returns an iterator over all of the system equates the
// assembler should predefine.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Reset restores boot state: zeroed memory and registers, PC at 0,
// SP at the initial stack top.
func (emu *Emulator) Reset() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset(&emu.Mem)
}

// Load resets the emulator and places a binary image at offset 0.
func (emu *Emulator) Load(image []byte) (err error) {
	if len(image) > cpu.MEM_SIZE {
		err = ErrImageTooLarge
		return
	}

	emu.Reset()
	copy(emu.Mem.Data[:], image)

	if emu.Verbose {
		log.Printf("INFO: loaded %v byte image", len(image))
	}

	return
}

// Run executes the loaded image under the configured cycle budget.
// Exhausting the budget is not an error; the run completes its final
// instruction and a warning is logged.
func (emu *Emulator) Run() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	err = emu.Cpu.Execute(emu.Budget, &emu.Mem)
	if err != nil {
		err = &ErrRuntime{Pc: emu.Cpu.Reg.Pc(), Err: err}
		return
	}

	if emu.Cpu.OverBudget() {
		log.Printf("WARNING: CPU used %v additional cycles", -emu.Cpu.Cycles)
	}
	if emu.Cpu.Halted && emu.Verbose {
		log.Printf("INFO: HALT instruction executed")
	}

	return
}

// CoreDump renders PC, SP, the general-purpose registers and each
// status flag on its own line.
func (emu *Emulator) CoreDump() (text string) {
	reg := &emu.Cpu.Reg

	text = "\nCPU CORE DUMP:\n"
	text += fmt.Sprintf("Program Counter:    %v\n", reg.Pc())
	text += fmt.Sprintf("Stack Pointer:      %v\n\n", reg.Sp())

	for n := cpu.REG_R0; n <= cpu.REG_R5; n++ {
		text += fmt.Sprintf("Register %v:         %v\n", n, reg.File[n])
	}
	text += "\n"

	flags := []struct {
		name string
		mask byte
	}{
		{"Negative", cpu.FLAG_N},
		{"Overflow", cpu.FLAG_O},
		{"Break", cpu.FLAG_B},
		{"Decimal", cpu.FLAG_D},
		{"Interrupt", cpu.FLAG_I},
		{"Zero", cpu.FLAG_Z},
		{"Carry", cpu.FLAG_C},
	}
	for _, flag := range flags {
		value := 0
		if reg.Flag(flag.mask) {
			value = 1
		}
		text += fmt.Sprintf("%-20v%v\n", flag.name+" flag:", value)
	}

	return
}

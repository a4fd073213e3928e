package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dis16/dis16/cpu"
	"github.com/dis16/dis16/emulator"
)

func main() {
	var config string
	var output string
	var budget int64
	var save bool
	var verbose bool

	flag.StringVar(&config, "C", "", "TOML run configuration file")
	flag.StringVar(&output, "o", "", "binary image output path")
	flag.Int64Var(&budget, "b", 0, "cycle budget")
	flag.BoolVar(&save, "s", false, "assemble and save only, do not execute")
	flag.BoolVar(&verbose, "v", false, "verbose mode")

	flag.Parse()

	if flag.NArg() > 1 {
		log.Fatalf("%v: unknown arguments: %v", os.Args[0], flag.Args()[1:])
	}

	cfg := emulator.DefaultConfig()
	if len(config) != 0 {
		var err error
		cfg, err = emulator.LoadConfig(config)
		if err != nil {
			log.Fatalf("ERROR: %v: %v", config, err)
		}
	}
	if budget != 0 {
		cfg.Budget = budget
	}
	if len(output) != 0 {
		cfg.Output = output
	}
	cfg.Verbose = cfg.Verbose || verbose

	source := os.Stdin
	name := "-"
	if flag.NArg() == 1 {
		name = flag.Arg(0)
		inf, err := os.Open(name)
		if err != nil {
			log.Fatalf("ERROR: %v: %v", name, err)
		}
		defer inf.Close()
		source = inf
	}

	emu := emulator.NewEmulator()
	emu.Verbose = cfg.Verbose
	emu.Budget = cfg.Budget

	asm := &cpu.Assembler{Verbose: cfg.Verbose}
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Assemble(source)
	if err != nil {
		log.Fatalf("ERROR: %v: %v", name, err)
	}
	if cfg.Verbose {
		log.Printf("INFO: assembled %v bytes", prog.Size())
	}

	err = os.WriteFile(cfg.Output, prog.Bytes, 0o644)
	if err != nil {
		log.Fatalf("ERROR: %v: %v", cfg.Output, err)
	}

	if save {
		return
	}

	err = emu.Load(prog.Bytes)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	err = emu.Run()
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	if cfg.Dump {
		fmt.Print(emu.CoreDump())
	}
}

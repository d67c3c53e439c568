// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command boneless assembles and disassembles Boneless machine code.
//
//	boneless as INPUT.asm [-o OUTPUT] [-c CONFIG] [-D NAME=VALUE] [-r] [-l LISTING] [-v]
//	boneless dis INPUT [-o OUTPUT] [-l] [-b] [-c CONFIG]
//
// An INPUT or OUTPUT of "-" is standard input or output. Images are hex
// text, one word per line, or big-endian binary for ".bin" files.
//
// Messages follow the host locale, unless BONELESS_LANG names a language.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/ezrec/boneless/config"
	"github.com/ezrec/boneless/cpu"
	"github.com/ezrec/boneless/rom"
	"github.com/ezrec/boneless/translate"
)

var errTerminal = errors.New(translate.From("refusing to read from a terminal"))

// defines collects -D NAME=VALUE flags.
type defines map[string]int

func (d defines) String() string {
	var list []string
	for name, value := range d {
		list = append(list, fmt.Sprintf("%v=%v", name, value))
	}
	return strings.Join(list, ",")
}

func (d defines) Set(text string) (err error) {
	name, value, ok := strings.Cut(text, "=")
	if !ok {
		d[name] = 1
		return
	}
	v64, err := strconv.ParseInt(value, 0, 64)
	if err != nil {
		return
	}
	d[name] = int(v64)
	return
}

// parse parses flags, allowing them before and after the positional arguments.
func parse(fs *flag.FlagSet, args []string) (positional []string) {
	for {
		// Errors exit, as the flag set uses flag.ExitOnError.
		_ = fs.Parse(args)
		args = fs.Args()
		if len(args) == 0 {
			return
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// open opens an input file, refusing to read from an interactive terminal.
func open(path string) (rc io.ReadCloser, err error) {
	if path != "-" {
		return os.Open(path)
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		err = errTerminal
		return
	}

	return io.NopCloser(os.Stdin), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// create creates an output file.
func create(path string) (wc io.WriteCloser, err error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}

	return os.Create(path)
}

func loadConfig(path string) (cfg *config.Config) {
	if len(path) == 0 {
		return
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Error: %v: %v", path, err)
	}

	return
}

func assemble(args []string) {
	var output string
	var configPath string
	var relocatable bool
	var listing string
	var verbose bool
	defs := defines{}

	fs := flag.NewFlagSet("as", flag.ExitOnError)
	fs.StringVar(&output, "o", "-", "Output image")
	fs.StringVar(&configPath, "c", "", "TOML configuration file")
	fs.Var(defs, "D", "Predefine a constant, NAME=VALUE")
	fs.BoolVar(&relocatable, "r", false, "Assemble undefined symbols as zero")
	fs.StringVar(&listing, "l", "", "Listing file")
	fs.BoolVar(&verbose, "v", false, "Verbose mode")

	inputs := parse(fs, args)
	if len(inputs) != 1 {
		log.Fatalf("Error: as: expected one input file, got %v", inputs)
	}
	input := inputs[0]

	cfg := loadConfig(configPath)
	table, err := cfg.Table()
	if err != nil {
		log.Fatalf("Error: %v: %v", configPath, err)
	}

	asm := &cpu.Assembler{Table: table, Relocatable: relocatable, Verbose: verbose}
	cfg.Apply(asm)
	for name, value := range defs {
		asm.Predefine(name, value)
	}

	inf, err := open(input)
	if err != nil {
		log.Fatalf("Error: %v: %v", input, err)
	}
	defer inf.Close()

	err = asm.Parse(inf)
	if err != nil {
		log.Fatalf("Error: %v: %v", input, err)
	}

	prog, err := asm.Assemble()
	if err != nil {
		log.Fatalf("Error: %v: %v", input, err)
	}

	ouf, err := create(output)
	if err != nil {
		log.Fatalf("Error: %v: %v", output, err)
	}
	defer ouf.Close()

	err = rom.FormatOf(output).Write(ouf, prog.Words)
	if err != nil {
		log.Fatalf("Error: %v: %v", output, err)
	}

	if len(listing) != 0 {
		lsf, err := create(listing)
		if err != nil {
			log.Fatalf("Error: %v: %v", listing, err)
		}
		defer lsf.Close()

		err = prog.Listing(lsf)
		if err != nil {
			log.Fatalf("Error: %v: %v", listing, err)
		}
	}
}

func disassemble(args []string) {
	var output string
	var configPath string
	var labels bool
	var binary bool

	fs := flag.NewFlagSet("dis", flag.ExitOnError)
	fs.StringVar(&output, "o", "-", "Output assembly")
	fs.StringVar(&configPath, "c", "", "TOML configuration file")
	fs.BoolVar(&labels, "l", false, "Generate labels for relative jumps")
	fs.BoolVar(&binary, "b", false, "Input is a binary image")

	inputs := parse(fs, args)
	if len(inputs) != 1 {
		log.Fatalf("Error: dis: expected one input file, got %v", inputs)
	}
	input := inputs[0]

	cfg := loadConfig(configPath)
	table, err := cfg.Table()
	if err != nil {
		log.Fatalf("Error: %v: %v", configPath, err)
	}

	format := rom.FormatOf(input)
	if binary {
		format = rom.FORMAT_BINARY
	}

	inf, err := open(input)
	if err != nil {
		log.Fatalf("Error: %v: %v", input, err)
	}
	defer inf.Close()

	words, err := format.Read(inf)
	if err != nil {
		log.Fatalf("Error: %v: %v", input, err)
	}

	ouf, err := create(output)
	if err != nil {
		log.Fatalf("Error: %v: %v", output, err)
	}
	defer ouf.Close()

	_, err = io.WriteString(ouf, cpu.Text(table.Disassemble(words, labels)))
	if err != nil {
		log.Fatalf("Error: %v: %v", output, err)
	}
}

func main() {
	log.SetFlags(0)

	if lang := os.Getenv("BONELESS_LANG"); len(lang) != 0 {
		err := translate.Use(lang)
		if err != nil {
			log.Fatalf("Error: BONELESS_LANG: %v", err)
		}
	}

	if len(os.Args) < 2 {
		log.Fatalf("Error: usage: %v as|dis INPUT [options]", os.Args[0])
	}

	switch os.Args[1] {
	case "as":
		assemble(os.Args[2:])
	case "dis":
		disassemble(os.Args[2:])
	default:
		log.Fatalf("Error: unknown command %q", os.Args[1])
	}
}

// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"io"
	"log"
	"maps"
	"slices"

	"github.com/davecgh/go-spew/spew"
)

// Assembler is a relaxing assembler for the Boneless instruction set.
//
// Every instruction whose immediate is a reference starts at its longest
// encoding, and is shortened on each pass until the output stops changing.
type Assembler struct {
	Verbose     bool   // If set, verbosely logs the assembler actions.
	Relocatable bool   // If set, undefined symbols assemble as zero, in their longest form.
	Table       *Table // Instruction set. If nil, DefaultTable() is used.
	Input       Items  // Program, one entry per source line when parsed.

	Label    map[string]int // Map of labels to addresses.
	Constant map[string]int // Map of constants to values.

	predefine map[string]int
	lineNo    []int    // Source line of each Input entry, or 0.
	lines     []string // Source text of each Input entry.
	equate    map[string]int
	equateAt  map[string]int

	labelLocs map[string]Path
	constLocs map[string]Path
	sizes     map[string]int
	shrink    int
	opcodes   []Opcode
}

type sweep int

const (
	sweepRelax       = sweep(iota) // Unresolved sites become placeholders.
	sweepStrict                    // Unresolved sites are an error.
	sweepRelocatable               // Unresolved sites are zero.
)

// slot is one word of a pass's output. Placeholders are not valid.
type slot struct {
	value uint16
	valid bool
}

var spewConfig = spew.ConfigState{Indent: "  ", MaxDepth: 4, DisablePointerAddresses: true, DisableMethods: true}

// Predefine defines a constant visible to all parsed source.
// A source .equ of the same name replaces it.
func (asm *Assembler) Predefine(name string, value int) {
	if asm.predefine == nil {
		asm.predefine = map[string]int{}
	}
	asm.predefine[name] = value
}

// Append adds items to the end of the program.
func (asm *Assembler) Append(items ...Item) {
	for _, item := range items {
		asm.Input = append(asm.Input, item)
		asm.lineNo = append(asm.lineNo, 0)
		asm.lines = append(asm.lines, "")
	}
}

func (asm *Assembler) table() *Table {
	if asm.Table == nil {
		asm.Table = DefaultTable()
	}
	return asm.Table
}

// Parse parses assembly source, appending one entry to Input per line.
func (asm *Assembler) Parse(input io.Reader) (err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	if asm.equate == nil {
		asm.equate = maps.Clone(asm.predefine)
		if asm.equate == nil {
			asm.equate = map[string]int{}
		}
		asm.equateAt = map[string]int{}
	}

	for scanner.Scan() {
		line = scanner.Text()
		lineno++

		var items Items
		items, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		if asm.Verbose {
			log.Printf("%v: %v\n%s", lineno, line, spewConfig.Sdump(items))
		}

		asm.Input = append(asm.Input, items)
		asm.lineNo = append(asm.lineNo, lineno)
		asm.lines = append(asm.lines, line)
	}

	err = scanner.Err()

	return
}

// location maps a path to the source line of its top-level item.
func (asm *Assembler) location(path Path) Location {
	loc := Location{Path: path}
	if len(path) > 0 && path[0] < len(asm.lineNo) {
		loc.LineNo = asm.lineNo[path[0]]
	}
	return loc
}

// resolver returns symbol values relative to origin. Forward distances are
// reduced by the shrinkage seen so far in the current pass.
func (asm *Assembler) resolver(origin int) Resolver {
	return func(symbol string) (value int, ok bool) {
		if addr, found := asm.Label[symbol]; found {
			value = addr - origin
			if value > 0 {
				value -= asm.shrink
			}
			return value, true
		}
		value, ok = asm.Constant[symbol]
		return
	}
}

// Assemble translates Input into machine code.
func (asm *Assembler) Assemble() (prog *Program, err error) {
	asm.table()

	asm.Label = map[string]int{}
	asm.Constant = maps.Clone(asm.predefine)
	if asm.Constant == nil {
		asm.Constant = map[string]int{}
	}
	asm.labelLocs = map[string]Path{}
	asm.constLocs = map[string]Path{}
	asm.sizes = map[string]int{}

	pass := 1
	out, err := asm.sweep(pass, sweepRelax)
	if err != nil {
		return
	}

	for {
		pass++
		var next []slot
		next, err = asm.sweep(pass, sweepRelax)
		if err != nil {
			return
		}
		done := slices.Equal(next, out)
		out = next
		if done {
			break
		}
	}

	if slices.ContainsFunc(out, func(s slot) bool { return !s.valid }) {
		mode := sweepStrict
		if asm.Relocatable {
			mode = sweepRelocatable
		}
		pass++
		out, err = asm.sweep(pass, mode)
		if err != nil {
			return
		}
	}

	if asm.Verbose {
		log.Printf("asm: %d words after %d passes", len(out), pass)
	}

	prog = &Program{
		Words:   make([]uint16, len(out)),
		Labels:  maps.Clone(asm.Label),
		Opcodes: slices.Clone(asm.opcodes),
	}
	for n, s := range out {
		prog.Words[n] = s.value
	}
	for n := range prog.Opcodes {
		op := &prog.Opcodes[n]
		op.Words = prog.Words[op.Addr : op.Addr+len(op.Words)]
	}

	return
}

// sweep runs one translation pass over the whole program.
func (asm *Assembler) sweep(pass int, mode sweep) (out []slot, err error) {
	asm.shrink = 0
	asm.opcodes = asm.opcodes[:0]

	for n, item := range asm.Input {
		addr := len(out)
		out, err = asm.translate(item, out, pass, Path{n}, mode)
		if err != nil {
			return
		}
		if asm.lineNo[n] > 0 && len(out) > addr {
			asm.opcodes = append(asm.opcodes, Opcode{
				LineNo: asm.lineNo[n],
				Addr:   addr,
				Line:   asm.lines[n],
				Words:  make([]uint16, len(out)-addr),
			})
		}
	}

	if asm.Verbose {
		log.Printf("asm: pass %d: %d words", pass, len(out))
	}

	return
}

// translate appends the output of one item.
func (asm *Assembler) translate(item Item, out []slot, pass int, path Path, mode sweep) (_ []slot, err error) {
	addr := len(out)
	length := -1

	switch it := item.(type) {
	case Word:
		out = append(out, slot{value: uint16(it), valid: true})
	case Items:
		for n, sub := range it {
			out, err = asm.translate(sub, out, pass, path.child(n), mode)
			if err != nil {
				return
			}
		}
	case Label:
		name := string(it)
		if pass == 1 {
			if old, dup := asm.labelLocs[name]; dup {
				err = &ErrDuplicate{Name: name, New: asm.location(path), Old: asm.location(old), Err: ErrDuplicateLabel}
				return
			}
			asm.labelLocs[name] = path
		}
		asm.Label[name] = addr
	case Constant:
		if pass == 1 {
			if old, dup := asm.constLocs[it.Name]; dup {
				err = &ErrDuplicate{Name: it.Name, New: asm.location(path), Old: asm.location(old), Err: ErrDuplicateConstant}
				return
			}
			asm.constLocs[it.Name] = path
		}
		asm.Constant[it.Name] = it.Value
	case *Instr:
		out, err = asm.translateInstr(it, out, path, mode)
		if err != nil {
			return
		}
		length = len(out) - addr
	case Unresolved:
		switch mode {
		case sweepStrict:
			err = &ErrTranslation{Loc: asm.location(path), Err: ErrUndefined(string(it))}
			return
		case sweepRelocatable:
			out = append(out, slot{valid: true})
		default:
			out = append(out, slot{})
		}
	case Relocator:
		out, err = asm.translate(it.Relocate(addr, asm.resolver(addr)), out, pass, path, mode)
		if err != nil {
			return
		}
		length = len(out) - addr
	default:
		err = &ErrTranslation{Loc: asm.location(path), Err: ErrUnrecognizedItem}
		return
	}

	if length >= 0 {
		key := path.key()
		old, ok := asm.sizes[key]
		if !ok {
			old = length
		}
		if length > old {
			log.Panicf("cpu: item at %v grew from %d to %d words on pass %d", path, old, length, pass)
		}
		asm.sizes[key] = length
		asm.shrink += old - length
	}

	return out, nil
}

// translateInstr appends the encoding of an instruction.
func (asm *Assembler) translateInstr(in *Instr, out []slot, path Path, mode sweep) (_ []slot, err error) {
	addr := len(out)

	words, err := in.Encode(nil, false)
	if err == nil {
		return appendWords(out, words), nil
	}
	if !errors.Is(err, ErrUnresolvedReference) {
		err = &ErrTranslation{Loc: asm.location(path), Err: err}
		return
	}

	// Offsets are relative to the next instruction.
	length, ok := asm.sizes[path.key()]
	if !ok {
		length = in.MaxLength()
	}

	rel, err := in.Relocate(asm.resolver(addr + length))
	if err != nil {
		err = &ErrTranslation{Loc: asm.location(path), Err: err}
		return
	}

	words, err = rel.Encode(nil, asm.pinned(in))
	if err == nil {
		return appendWords(out, words), nil
	}
	if !errors.Is(err, ErrUnresolvedReference) {
		err = &ErrTranslation{Loc: asm.location(path), Err: err}
		return
	}

	switch mode {
	case sweepStrict:
		var symbol ErrUnresolved
		errors.As(err, &symbol)
		err = &ErrTranslation{Loc: asm.location(path), Err: ErrUndefined(symbol)}
		return
	case sweepRelocatable:
		rel, err = rel.Relocate(func(string) (int, bool) { return 0, true })
		if err == nil {
			words, err = rel.Encode(nil, true)
		}
		if err != nil {
			err = &ErrTranslation{Loc: asm.location(path), Err: err}
			return
		}
		if len(words) != in.MaxLength() {
			log.Panicf("cpu: relocatable %v at %v is %d words", in.Type.Mnemonic, path, len(words))
		}
		return appendWords(out, words), nil
	default:
		for range in.MaxLength() {
			out = append(out, slot{})
		}
	}

	return out, nil
}

// pinned returns true if the instruction must keep its longest encoding.
// A LUT operand is legal only for the values in its table, so a label
// offset in one could shrink on one pass and grow back on the next.
func (asm *Assembler) pinned(in *Instr) bool {
	for _, op := range in.Operands {
		if op.Resolved() || op.Kind.Class != CLASS_LUT {
			continue
		}
		if _, ok := asm.Constant[op.Symbol]; !ok {
			return true
		}
	}
	return false
}

func appendWords(out []slot, words []uint16) []slot {
	for _, word := range words {
		out = append(out, slot{value: word, valid: true})
	}
	return out
}

// Assemble translates a list of items with this instruction set.
func (table *Table) Assemble(items ...Item) (words []uint16, err error) {
	asm := &Assembler{Table: table}
	asm.Append(items...)

	prog, err := asm.Assemble()
	if err != nil {
		return
	}

	words = prog.Words
	return
}

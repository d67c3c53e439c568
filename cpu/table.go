package cpu

import (
	"log"
	"strings"
	"sync"
)

// Type is a leaf instruction: a complete coding plus its typed operand fields.
type Type struct {
	Mnemonic    string   // Instruction name, upper case.
	Coding      string   // Complete bit template.
	Bits        uint16   // Fixed opcode bits.
	Mask        uint16   // Mask of the fixed opcode bits.
	OperandMask uint16   // Mask of the operand field bits.
	Fields      []Field  // Operand fields, in assembly syntax order.
	PCRel       []string // Names of PC-relative operand fields.
	Alias       bool     // Set if this is another spelling of Canonical.
	Canonical   *Type    // The instruction this one encodes as.

	imm int // Index of the "imm" field, or -1.
}

// Syntax returns a description of the operand syntax, e.g. "rsd, ra, imm".
func (typ *Type) Syntax() string {
	names := make([]string, len(typ.Fields))
	for n, field := range typ.Fields {
		names[n] = field.Name
	}
	return strings.Join(names, ", ")
}

// HasImmediate returns true if the instruction has an "imm" field.
func (typ *Type) HasImmediate() bool {
	return typ.imm >= 0
}

// Field returns the index of a named operand field.
func (typ *Type) Field(name string) (index int, ok bool) {
	for n, field := range typ.Fields {
		if field.Name == name {
			return n, true
		}
	}
	return
}

// IsPCRel returns true if the named operand is PC-relative.
func (typ *Type) IsPCRel(name string) bool {
	for _, pcrel := range typ.PCRel {
		if pcrel == name {
			return true
		}
	}
	return false
}

// New creates an instruction from concrete operand values.
func (typ *Type) New(values ...int) (in *Instr, err error) {
	if len(values) != len(typ.Fields) {
		err = &ErrOperands{Mnemonic: typ.Mnemonic, Operands: f("%d values", len(values)), Syntax: typ.Syntax()}
		return
	}

	in = &Instr{Type: typ, Operands: make([]Operand, len(values))}
	for n, value := range values {
		in.Operands[n], err = typ.Fields[n].Kind.Make(value)
		if err != nil {
			in = nil
			return
		}
	}

	return
}

// FromWord unpacks the operand fields of a single instruction word.
func (typ *Type) FromWord(word uint16) *Instr {
	in := &Instr{Type: typ, Operands: make([]Operand, len(typ.Fields))}
	for n, field := range typ.Fields {
		in.Operands[n] = field.Kind.FromBits(field.extract(word))
	}
	return in
}

// Table is an instruction set: the mnemonic map used by the parser and the
// decode index used by the disassembler.
type Table struct {
	ALU   LUT // Immediates of ALU instructions.
	Shift LUT // Shift amounts.

	declarations []Declaration
	kinds        map[string]*Kind
	types        []*Type
	mnemonics    map[string]*Type
	decodings    []*Type
	unionMask    uint16
}

// Option configures a Table.
type Option func(table *Table)

// WithALULUT replaces the ALU immediate table.
func WithALULUT(lut LUT) Option {
	return func(table *Table) {
		table.ALU = lut
	}
}

// WithDeclarations replaces the instruction declarations.
func WithDeclarations(decls []Declaration) Option {
	return func(table *Table) {
		table.declarations = decls
	}
}

// NewTable builds an instruction table, validating that no two instructions
// share an encoding.
func NewTable(options ...Option) (table *Table, err error) {
	table = &Table{
		ALU:          DefaultALULUT,
		Shift:        ShiftLUT,
		declarations: Declarations,
	}

	for _, option := range options {
		option(table)
	}

	defer func() {
		if err != nil {
			table = nil
		}
	}()

	if !table.ALU.unique() {
		err = &ErrFormat{Name: "I3AL", Err: ErrConflict(f("duplicate entries in %v", table.ALU))}
		return
	}
	if !table.Shift.unique() {
		err = &ErrFormat{Name: "I3SR", Err: ErrConflict(f("duplicate entries in %v", table.Shift))}
		return
	}

	table.kinds = map[string]*Kind{
		"R":    newRegKind(),
		"I3AL": newLUTKind("I3AL", &table.ALU, -1<<15, (1<<16)-1),
		"I3SR": newLUTKind("I3SR", &table.Shift, 0, 15),
		"I5":   newImmKind(5),
		"I8":   newImmKind(8),
		"I13":  newExtKind(),
	}
	table.mnemonics = map[string]*Type{}

	for _, decl := range table.declarations {
		if len(decl.Alias) != 0 {
			continue
		}
		var typ *Type
		typ, err = table.newType(decl)
		if err != nil {
			return
		}
		table.types = append(table.types, typ)
		table.mnemonics[typ.Mnemonic] = typ
		table.unionMask |= typ.Mask
	}

	for _, decl := range table.declarations {
		if len(decl.Alias) == 0 {
			continue
		}
		target, ok := table.mnemonics[strings.ToUpper(decl.Alias)]
		if !ok || target.Alias {
			err = &ErrFormat{Name: decl.Mnemonic, Err: ErrConflict(f("alias of unknown instruction %v", decl.Alias))}
			return
		}
		typ := *target
		typ.Mnemonic = strings.ToUpper(decl.Mnemonic)
		typ.Alias = true
		typ.Canonical = target
		table.types = append(table.types, &typ)
		table.mnemonics[typ.Mnemonic] = &typ
	}

	for _, typ := range table.types {
		if _, dup := table.mnemonics[typ.Mnemonic]; dup && table.mnemonics[typ.Mnemonic] != typ {
			err = &ErrFormat{Name: typ.Mnemonic, Err: ErrConflict(f("mnemonic declared twice"))}
			return
		}
	}

	ext, ok := table.mnemonics["EXTI"]
	if !ok || ext.Bits != EXT_CODE || ext.Mask != EXT_MASK || !ext.HasImmediate() {
		err = &ErrFormat{Name: "EXTI", Err: ErrConflict(f("extension prefix must be coded as %016b", EXT_CODE))}
		return
	}

	err = table.partition()

	return
}

// partition assigns every operand combination of every leaf instruction to
// its slot of the decode index.
func (table *Table) partition() (err error) {
	table.decodings = make([]*Type, 1<<CODING_BITS)

	for _, typ := range table.types {
		if typ.Alias {
			continue
		}

		mask := uint32(typ.Mask)
		operandMask := uint32(typ.OperandMask)
		code := uint32(0)
		for {
			key := (uint16(code) | typ.Bits) & table.unionMask
			other := table.decodings[key]
			if other != nil && other != typ {
				err = &ErrFormat{Name: typ.Mnemonic, Err: ErrConflict(f("encoding %016b conflicts with instruction %v", uint16(code)|typ.Bits, other.Mnemonic))}
				return
			}
			table.decodings[key] = typ
			if code == operandMask {
				break
			}
			// Count using only the bits of the operand mask: the carry
			// ripples through the opcode bits, which are forced to one.
			code = ((code | mask) + 1) & operandMask
		}
	}

	return
}

// newType composes the templates of a declaration into a leaf instruction.
func (table *Table) newType(decl Declaration) (typ *Type, err error) {
	name := strings.ToUpper(decl.Mnemonic)

	defer func() {
		if err != nil {
			err = &ErrFormat{Name: name, Err: err}
			typ = nil
		}
	}()

	tmpl, err := Compose(decl.Templates...)
	if err != nil {
		return
	}

	if !tmpl.Leaf() {
		err = ErrConflict(f("coding '%v' is incomplete", tmpl.Coding))
		return
	}

	entries, err := parseLayout(tmpl.Operands)
	if err != nil {
		return
	}

	typ = &Type{
		Mnemonic: name,
		Coding:   tmpl.Coding,
		PCRel:    tmpl.PCRel,
		imm:      -1,
	}
	typ.Canonical = typ
	typ.Bits, typ.Mask = codingBits(tmpl.Coding)
	typ.OperandMask = ^typ.Mask

	runs := fieldRuns(tmpl.Coding)
	for _, entry := range entries {
		kind, ok := table.kinds[entry.kind]
		if !ok {
			err = ErrConflict(f("operand kind '%v' unknown", entry.kind))
			return
		}

		var found *fieldRun
		for n := range runs {
			if fieldAbbrevs[runs[n].letter] == entry.name {
				if found != nil {
					err = ErrConflict(f("operand '%v' coded twice", entry.name))
					return
				}
				found = &runs[n]
			}
		}
		if found == nil {
			err = ErrConflict(f("operand '%v' not in coding '%v'", entry.name, tmpl.Coding))
			return
		}
		if found.width != kind.Bits {
			err = ErrConflict(f("operand '%v' is %d bits, kind %v is %d bits", entry.name, found.width, kind.Name, kind.Bits))
			return
		}

		if entry.name == "imm" {
			typ.imm = len(typ.Fields)
		}
		typ.Fields = append(typ.Fields, Field{Name: entry.name, Kind: kind, Offset: found.offset, Width: found.width})
	}

	if len(typ.Fields) != len(runs) {
		err = ErrConflict(f("coding '%v' has fields missing from operands '%v'", tmpl.Coding, tmpl.Operands))
		return
	}

	for _, name := range typ.PCRel {
		if _, ok := typ.Field(name); !ok {
			err = ErrConflict(f("PC-relative operand '%v' not present", name))
			return
		}
	}

	return
}

var defaultTable struct {
	once  sync.Once
	table *Table
}

// DefaultTable returns the shared instruction table using the default LUTs.
func DefaultTable() *Table {
	defaultTable.once.Do(func() {
		table, err := NewTable()
		if err != nil {
			log.Panicf("cpu: instruction table: %v", err)
		}
		defaultTable.table = table
	})

	return defaultTable.table
}

// Kind returns the operand kind of the given name.
func (table *Table) Kind(name string) (kind *Kind, ok bool) {
	kind, ok = table.kinds[name]
	return
}

// Types returns all instruction types, aliases last.
func (table *Table) Types() []*Type {
	return table.types
}

// Lookup returns the instruction type for a mnemonic, ignoring case.
func (table *Table) Lookup(mnemonic string) (typ *Type, err error) {
	typ, ok := table.mnemonics[strings.ToUpper(mnemonic)]
	if !ok {
		err = ErrMnemonic(mnemonic)
	}
	return
}

// New creates an instruction by mnemonic from concrete operand values.
func (table *Table) New(mnemonic string, values ...int) (in *Instr, err error) {
	typ, err := table.Lookup(mnemonic)
	if err != nil {
		return
	}
	return typ.New(values...)
}

// DecodeWord decodes a single instruction word.
func (table *Table) DecodeWord(word uint16) (in *Instr, err error) {
	typ := table.decodings[word&table.unionMask]
	if typ == nil {
		err = ErrEncoding(word)
		return
	}

	in = typ.FromWord(word)
	return
}

// Decode decodes the instruction at words[index], returning its length.
//
// An EXTI word followed by a non-EXTI instruction with an immediate decodes
// as one two-word instruction whose immediate combines the 13 EXTI bits with
// the low 3 bits of the immediate field. If the combined value is out of
// range for the operand, the EXTI word decodes on its own.
func (table *Table) Decode(words []uint16, index int) (in *Instr, length int, err error) {
	word := words[index]

	if word&EXT_MASK == EXT_CODE && index+1 < len(words) && words[index+1]&EXT_MASK != EXT_CODE {
		next := words[index+1]
		in, err = table.DecodeWord(next)
		var imm Operand
		var ok bool
		if err == nil {
			imm, ok = in.extendable()
		}
		if ok {
			value := (int(word&EXT_IMM_MASK) << EXT_SHIFT) | int(next&((1<<EXT_SHIFT)-1))
			imm, err = imm.Kind.Make(int(int16(uint16(value))))
			if err == nil {
				in.Operands[in.Type.imm] = imm
				length = 2
				return
			}
		}
	}

	in, err = table.DecodeWord(word)
	length = 1
	return
}

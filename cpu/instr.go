package cpu

import (
	"regexp"
	"strings"

	"github.com/ezrec/boneless/internal"
)

// Instr is an instruction with its operand values bound.
type Instr struct {
	Type     *Type
	Operands []Operand // Parallel to Type.Fields.
}

// Operand returns the value of a named operand.
func (in *Instr) Operand(name string) (op Operand, ok bool) {
	n, ok := in.Type.Field(name)
	if ok {
		op = in.Operands[n]
	}
	return
}

// Immediate returns the "imm" operand, if the instruction has one.
func (in *Instr) Immediate() (op Operand, ok bool) {
	if !in.Type.HasImmediate() {
		return
	}
	return in.Operands[in.Type.imm], true
}

// Length returns the number of words this instruction encodes to.
func (in *Instr) Length() int {
	if imm, ok := in.extendable(); ok && !imm.Legal() {
		return 2 // EXTI plus instruction
	}
	return 1
}

// MaxLength returns the longest possible encoding of this instruction.
func (in *Instr) MaxLength() int {
	if _, ok := in.extendable(); ok {
		return 2
	}
	return 1
}

// extendable returns the immediate operand, if an EXTI prefix may carry it.
func (in *Instr) extendable() (op Operand, ok bool) {
	if in.Type.Bits&EXT_MASK == EXT_CODE {
		return
	}
	return in.Immediate()
}

// Resolved returns true if no operand is a pending reference.
func (in *Instr) Resolved() bool {
	for _, op := range in.Operands {
		if !op.Resolved() {
			return false
		}
	}
	return true
}

// Word packs the instruction into a single machine word, ignoring any
// immediate bits that do not fit.
func (in *Instr) Word() (word uint16, err error) {
	word = in.Type.Bits
	for n, field := range in.Type.Fields {
		var bits uint16
		bits, err = in.Operands[n].Bits()
		if err != nil {
			return
		}
		word = field.insert(word, bits)
	}

	return
}

// Encode appends the machine code of the instruction to words.
//
// An immediate that does not fit its field is carried by an EXTI prefix. If
// longest is set the prefixed form is used regardless, so the site can be
// patched later. Pending references fail with ErrUnresolvedReference and
// leave words untouched.
func (in *Instr) Encode(words []uint16, longest bool) (out []uint16, err error) {
	out = words

	word, err := in.Word()
	if err != nil {
		return
	}

	if imm, ok := in.extendable(); ok && (longest || !imm.Legal()) {
		field := in.Type.Fields[in.Type.imm]
		out = append(out, EXT_CODE|(uint16(imm.Value>>EXT_SHIFT)&EXT_IMM_MASK))
		word = field.insert(word, uint16(imm.Value&internal.Mask(field.Width)))
	}

	out = append(out, word)
	return
}

// Relocate returns a copy of the instruction with every pending reference
// the resolver knows replaced by its value.
func (in *Instr) Relocate(resolve Resolver) (out *Instr, err error) {
	out = &Instr{Type: in.Type, Operands: make([]Operand, len(in.Operands))}
	for n, op := range in.Operands {
		out.Operands[n], err = op.Relocate(resolve)
		if err != nil {
			out = nil
			return
		}
	}

	return
}

// Equal compares two instructions. Aliases are equal to the instruction they alias.
func (in *Instr) Equal(other *Instr) bool {
	if in == nil || other == nil {
		return in == other
	}

	if in.Type.Canonical != other.Type.Canonical || len(in.Operands) != len(other.Operands) {
		return false
	}

	for n := range in.Operands {
		if !in.Operands[n].Equal(other.Operands[n]) {
			return false
		}
	}

	return true
}

// String returns the assembly language representation of the instruction.
func (in *Instr) String() string {
	if len(in.Operands) == 0 {
		return in.Type.Mnemonic
	}

	ops := make([]string, len(in.Operands))
	for n, op := range in.Operands {
		ops[n] = op.String()
	}

	return in.Type.Mnemonic + "\t" + strings.Join(ops, ", ")
}

var reSpace = regexp.MustCompile(`\s*(,)\s*|\s+`)

// ParseInstr parses the text form of an instruction, e.g. "ADDI R1, R2, 3".
func (table *Table) ParseInstr(text string) (in *Instr, err error) {
	text = strings.TrimSpace(reSpace.ReplaceAllString(text, "$1 "))

	mnemonic, operands, _ := strings.Cut(text, " ")
	operands = strings.TrimSpace(operands)

	typ, err := table.Lookup(mnemonic)
	if err != nil {
		return
	}

	var words []string
	if len(operands) != 0 {
		words = strings.Split(operands, ",")
	}

	if len(words) != len(typ.Fields) {
		err = &ErrOperands{Mnemonic: typ.Mnemonic, Operands: operands, Syntax: typ.Syntax()}
		return
	}

	in = &Instr{Type: typ, Operands: make([]Operand, len(words))}
	for n, word := range words {
		in.Operands[n], err = typ.Fields[n].Kind.FromText(strings.TrimSpace(word))
		if err != nil {
			err = &ErrOperands{Mnemonic: typ.Mnemonic, Operands: operands, Syntax: typ.Syntax(), Err: err}
			in = nil
			return
		}
	}

	return
}

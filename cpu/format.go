package cpu

import (
	"slices"
	"strings"
)

// CODING_BITS is the width of an instruction word, and of every coding template.
const CODING_BITS = 16

// Template is a partial or complete instruction bit-template.
//
// Coding is CODING_BITS characters, MSB first: '0' and '1' are fixed opcode
// bits, '-' is a wildcard, and a run of one repeated letter is an operand field.
type Template struct {
	Coding   string   // Bit template.
	Operands string   // Operand layout, "name:KIND, name:KIND, ...".
	PCRel    []string // Operands holding PC-relative offsets.
}

// fieldAbbrevs maps coding letters to operand names.
var fieldAbbrevs = map[byte]string{
	'D': "rsd",
	'A': "ra",
	'B': "rb",
	'i': "imm",
}

const wildcard = "----------------"

// Compose merges templates position by position. At most one template may
// fix any given bit; fixing it twice is a format conflict.
func Compose(templates ...Template) (out Template, err error) {
	coding := []byte(wildcard)

	for _, tmpl := range templates {
		if len(tmpl.Coding) != CODING_BITS {
			err = ErrConflict(f("coding '%v' is not %d bits", tmpl.Coding, CODING_BITS))
			return
		}
		for n := range CODING_BITS {
			bit := tmpl.Coding[n]
			if bit == '-' {
				continue
			}
			if coding[n] != '-' {
				err = ErrConflict(f("bit %d of '%v' conflicts with '%v'", n, tmpl.Coding, string(coding)))
				return
			}
			coding[n] = bit
		}

		if len(tmpl.Operands) != 0 {
			if len(out.Operands) != 0 && out.Operands != tmpl.Operands {
				err = ErrConflict(f("operands '%v' conflict with '%v'", tmpl.Operands, out.Operands))
				return
			}
			out.Operands = tmpl.Operands
		}

		for _, name := range tmpl.PCRel {
			if !slices.Contains(out.PCRel, name) {
				out.PCRel = append(out.PCRel, name)
			}
		}
	}

	out.Coding = string(coding)
	return
}

// Leaf returns true if the template has no wildcard bits.
func (tmpl Template) Leaf() bool {
	return len(tmpl.Coding) == CODING_BITS && !strings.Contains(tmpl.Coding, "-")
}

// Field is an operand field of a leaf instruction coding.
type Field struct {
	Name   string // Operand name.
	Kind   *Kind  // Operand representation.
	Offset int    // Bit offset of the LSB of the field.
	Width  int    // Width in bits.
}

func (field Field) mask() uint16 {
	return uint16(((1 << field.Width) - 1) << field.Offset)
}

func (field Field) extract(word uint16) uint16 {
	return (word & field.mask()) >> field.Offset
}

func (field Field) insert(word uint16, bits uint16) uint16 {
	return (word &^ field.mask()) | ((bits << field.Offset) & field.mask())
}

// fieldRun is one maximal run of a letter in a coding.
type fieldRun struct {
	letter byte
	offset int
	width  int
}

// fieldRuns scans a coding for its operand fields.
func fieldRuns(coding string) (runs []fieldRun) {
	for n := 0; n < len(coding); {
		letter := coding[n]
		if letter == '0' || letter == '1' || letter == '-' {
			n++
			continue
		}
		end := n
		for end < len(coding) && coding[end] == letter {
			end++
		}
		runs = append(runs, fieldRun{letter: letter, offset: len(coding) - end, width: end - n})
		n = end
	}

	return
}

// codingBits returns the fixed opcode bits and the opcode mask of a coding.
func codingBits(coding string) (bits, mask uint16) {
	for n := range len(coding) {
		bit := uint16(1) << (len(coding) - 1 - n)
		switch coding[n] {
		case '1':
			bits |= bit
			mask |= bit
		case '0':
			mask |= bit
		}
	}

	return
}

// layout is one "name:KIND" entry of an operand layout.
type layout struct {
	name string
	kind string
}

func parseLayout(operands string) (entries []layout, err error) {
	if len(strings.TrimSpace(operands)) == 0 {
		return
	}

	for _, entry := range strings.Split(operands, ",") {
		name, kind, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || len(name) == 0 || len(kind) == 0 {
			err = ErrConflict(f("operand layout entry '%v' malformed", entry))
			return
		}
		entries = append(entries, layout{name: name, kind: kind})
	}

	return
}

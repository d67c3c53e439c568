package cpu

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/ezrec/boneless/internal"
)

// Class is the kind of value an operand field holds.
type Class int

//go:generate go tool stringer -linecomment -type=Class
const (
	CLASS_REG = Class(0) // reg
	CLASS_IMM = Class(1) // imm
	CLASS_LUT = Class(2) // lut
)

// LUT is a table of 16-bit constants addressed by a 3-bit immediate field.
type LUT [8]uint16

var (
	// DefaultALULUT holds the immediates of the ALU instructions.
	DefaultALULUT = LUT{0x0000, 0x0001, 0x8000, 0x000f, 0x00ff, 0xff00, 0x7fff, 0xffff}
	// ShiftLUT holds the shift amounts; index 0 is a shift by 8.
	ShiftLUT = LUT{8, 1, 2, 3, 4, 5, 6, 7}
)

// Index returns the LUT index of a value.
func (lut *LUT) Index(value int) (index int, ok bool) {
	value &= 0xffff
	for n, entry := range lut {
		if int(entry) == value {
			return n, true
		}
	}
	return
}

func (lut *LUT) unique() bool {
	for n, entry := range lut {
		index, _ := lut.Index(int(entry))
		if index != n {
			return false
		}
	}
	return true
}

// Kind describes the representation of one operand field.
type Kind struct {
	Name  string // Short name, used in instruction syntax descriptions.
	Class Class  // Register, immediate or LUT immediate.
	Bits  int    // Width of the base encoding field.
	Min   int    // Smallest accepted value.
	Max   int    // Largest accepted value.

	legalMin int // Smallest value that fits the base field.
	legalMax int // Largest value that fits the base field.
	unsigned bool
	lut      *LUT
}

// Resolver maps a symbol to a value, reporting false if the symbol is not known.
type Resolver func(symbol string) (value int, ok bool)

func newRegKind() *Kind {
	return &Kind{Name: "R", Class: CLASS_REG, Bits: 3, Min: 0, Max: 7, legalMin: 0, legalMax: 7}
}

func newImmKind(bits int) *Kind {
	return &Kind{
		Name:     fmt.Sprintf("I%d", bits),
		Class:    CLASS_IMM,
		Bits:     bits,
		Min:      -1 << 15,
		Max:      (1 << 16) - 1,
		legalMin: -1 << (bits - 1),
		legalMax: (1 << (bits - 1)) - 1,
	}
}

func newExtKind() *Kind {
	return &Kind{
		Name:     "I13",
		Class:    CLASS_IMM,
		Bits:     13,
		Min:      -1 << 13,
		Max:      (1 << 13) - 1,
		legalMin: -1 << 12,
		legalMax: (1 << 13) - 1,
		unsigned: true,
	}
}

func newLUTKind(name string, lut *LUT, min, max int) *Kind {
	return &Kind{Name: name, Class: CLASS_LUT, Bits: 3, Min: min, Max: max, lut: lut}
}

// Operand is a value bound to an instruction field, or a pending reference to a symbol.
type Operand struct {
	Kind   *Kind
	Value  int
	Symbol string // If set, the operand awaits resolution of this symbol.
}

var reRegister = regexp.MustCompile(`^[Rr]([0-9]+)$`)
var reSymbol = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Make creates an operand holding a concrete value.
func (kind *Kind) Make(value int) (op Operand, err error) {
	if value < kind.Min || value > kind.Max {
		if kind.Class == CLASS_REG {
			err = &ErrOperand{Text: fmt.Sprintf("R%d", value), Expected: f("one of R0 to R7")}
		} else {
			err = &ErrOperand{Text: strconv.Itoa(value), Expected: f("a value in range %d..%d", kind.Min, kind.Max)}
		}
		return
	}

	op = Operand{Kind: kind, Value: value}
	return
}

// Reference creates an operand awaiting the value of a symbol.
func (kind *Kind) Reference(symbol string) Operand {
	return Operand{Kind: kind, Symbol: symbol}
}

// FromText parses the textual form of an operand.
func (kind *Kind) FromText(text string) (op Operand, err error) {
	if kind.Class == CLASS_REG {
		match := reRegister.FindStringSubmatch(text)
		if match == nil {
			err = &ErrOperand{Text: text, Expected: "'R<n>'"}
			return
		}
		var index int
		index, err = strconv.Atoi(match[1])
		if err != nil {
			err = &ErrOperand{Text: text, Expected: f("one of R0 to R7")}
			return
		}
		return kind.Make(index)
	}

	value, perr := strconv.ParseInt(text, 0, 64)
	if perr != nil {
		if reSymbol.MatchString(text) {
			op = kind.Reference(text)
			return
		}
		err = &ErrOperand{Text: text, Expected: f("an integer or a symbol")}
		return
	}

	return kind.Make(int(value))
}

// FromBits decodes the contents of an encoding field. Any bit pattern is valid.
func (kind *Kind) FromBits(bits uint16) Operand {
	field := int(bits) & internal.Mask(kind.Bits)

	var value int
	switch {
	case kind.Class == CLASS_REG:
		value = field
	case kind.Class == CLASS_LUT:
		value = int(kind.lut[field])
	case kind.unsigned:
		value = field
	default:
		value = internal.Signed(field, kind.Bits)
	}

	return Operand{Kind: kind, Value: value}
}

// Resolved returns true if the operand holds a concrete value.
func (op Operand) Resolved() bool {
	return len(op.Symbol) == 0
}

// Legal returns true if the operand value fits the base encoding field.
// Pending references are never legal.
func (op Operand) Legal() bool {
	if !op.Resolved() {
		return false
	}

	kind := op.Kind
	if kind.Class == CLASS_LUT {
		_, ok := kind.lut.Index(op.Value)
		return ok
	}

	return op.Value >= kind.legalMin && op.Value <= kind.legalMax
}

// Bits returns the contents of the base encoding field for this operand.
// For a LUT operand whose value is not in the table, the low bits of the
// value are returned; such operands must be encoded with an extension prefix.
func (op Operand) Bits() (bits uint16, err error) {
	if !op.Resolved() {
		err = ErrUnresolved(op.Symbol)
		return
	}

	mask := internal.Mask(op.Kind.Bits)
	if op.Kind.Class == CLASS_LUT {
		index, ok := op.Kind.lut.Index(op.Value)
		if ok {
			bits = uint16(index)
			return
		}
	}

	bits = uint16(op.Value & mask)
	return
}

// Relocate resolves a pending reference. Unknown symbols leave the operand pending.
func (op Operand) Relocate(resolve Resolver) (out Operand, err error) {
	if op.Resolved() {
		out = op
		return
	}

	value, ok := resolve(op.Symbol)
	if !ok {
		out = op
		return
	}

	return op.Kind.Make(value)
}

// Equal compares two operands by value or by symbol.
func (op Operand) Equal(other Operand) bool {
	return op.Value == other.Value && op.Symbol == other.Symbol
}

// String returns the assembly language representation of the operand.
func (op Operand) String() string {
	switch {
	case !op.Resolved():
		return op.Symbol
	case op.Kind != nil && op.Kind.Class == CLASS_REG:
		return fmt.Sprintf("R%d", op.Value)
	default:
		return fmt.Sprintf("%#x", op.Value)
	}
}

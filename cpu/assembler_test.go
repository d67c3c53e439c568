package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ref creates an instruction whose immediate is a reference to symbol.
func ref(t *testing.T, mnemonic string, symbol string, values ...int) *Instr {
	t.Helper()
	in := mustNew(t, mnemonic, append(values, 0)...)
	imm := &in.Operands[in.Type.imm]
	*imm = imm.Kind.Reference(symbol)
	return in
}

func words(t *testing.T, ins ...*Instr) (out []uint16) {
	t.Helper()
	for _, in := range ins {
		out = append(out, mustEncode(t, in)...)
	}
	return
}

// longest encodes an instruction in its prefixed form.
func longest(t *testing.T, in *Instr) []uint16 {
	t.Helper()
	words, err := in.Encode(nil, true)
	if err != nil {
		t.Fatal(err)
	}
	return words
}

func zeros(count int) (items Items) {
	for range count {
		items = append(items, Word(0))
	}
	return
}

func TestAssemblerData(t *testing.T) {
	assert := assert.New(t)

	code, err := DefaultTable().Assemble(Word(1), Word(2), Items{Word(3), Items{Word(4)}})
	assert.NoError(err)
	assert.Equal([]uint16{1, 2, 3, 4}, code)
}

func TestAssemblerInstr(t *testing.T) {
	assert := assert.New(t)

	table := DefaultTable()

	code, err := table.Assemble(mustNew(t, "ADDI", 1, 2, 1), mustNew(t, "OR", 4, 5, 6))
	assert.NoError(err)
	assert.Equal(words(t, mustNew(t, "ADDI", 1, 2, 1), mustNew(t, "OR", 4, 5, 6)), code)

	code, err = table.Assemble(mustNew(t, "ADDI", 1, 2, 3))
	assert.NoError(err)
	assert.Equal(mustEncode(t, mustNew(t, "ADDI", 1, 2, 3)), code)
}

func TestAssemblerRelative(t *testing.T) {
	assert := assert.New(t)

	table := DefaultTable()

	cases := [](struct {
		name     string
		input    Items
		expected []uint16
	}){
		{"backward",
			Items{Word(0), Label("foo"), Word(0), ref(t, "J", "foo")},
			append([]uint16{0, 0}, words(t, mustNew(t, "J", -2))...)},
		{"forward",
			Items{Word(0), ref(t, "J", "foo"), Word(0), Label("foo")},
			append(append([]uint16{0}, words(t, mustNew(t, "J", 1))...), 0)},
		{"backward short",
			Items{Label("foo"), zeros(126), ref(t, "J", "foo")},
			append(make([]uint16, 126), words(t, mustNew(t, "J", -127))...)},
		{"backward extended",
			Items{Label("foo"), zeros(127), ref(t, "J", "foo")},
			append(make([]uint16, 127), mustEncode(t, mustNew(t, "J", -129))...)},
		{"forward short",
			Items{ref(t, "J", "foo"), zeros(127), Label("foo")},
			append(words(t, mustNew(t, "J", 127)), make([]uint16, 127)...)},
		{"forward extended",
			Items{ref(t, "J", "foo"), zeros(128), Label("foo")},
			append(mustEncode(t, mustNew(t, "J", 128)), make([]uint16, 128)...)},
		{"constant",
			Items{Constant{Name: "K", Value: 0x123}, ref(t, "MOVI", "K", 2)},
			words(t, mustNew(t, "MOVI", 2, 0x123))},
	}

	for _, entry := range cases {
		code, err := table.Assemble(entry.input)
		if !assert.NoError(err, entry.name) {
			continue
		}
		assert.Equal(entry.expected, code, entry.name)
	}
}

func TestAssemblerPathological(t *testing.T) {
	assert := assert.New(t)

	const count = 16

	var jumps, targets Items
	for n := range count {
		label := "l" + string(rune('a'+n))
		jumps = append(jumps, ref(t, "J", label))
		targets = append(targets, Items{Word(0), Label(label)})
	}

	code, err := DefaultTable().Assemble(jumps, zeros(127-count), targets)
	assert.NoError(err)

	var expected []uint16
	for range count {
		expected = append(expected, words(t, mustNew(t, "J", 127))...)
	}
	expected = append(expected, make([]uint16, 127)...)
	assert.Equal(expected, code)
}

func TestAssemblerJumpTable(t *testing.T) {
	assert := assert.New(t)

	code, err := DefaultTable().Assemble(
		ref(t, "J", "end"),
		JumpTable{"foo", "bar", "baz"},
		ref(t, "J", "end2"),
		Label("end"), Word(0),
		Label("foo"), Word(0),
		Label("bar"), Word(0),
		Label("baz"), Word(0),
		Label("end2"),
	)
	assert.NoError(err)

	j4 := words(t, mustNew(t, "J", 4))[0]
	assert.Equal([]uint16{j4, 5, 6, 7, j4, 0, 0, 0, 0}, code)
}

func TestAssemblerWordTable(t *testing.T) {
	assert := assert.New(t)

	code, err := DefaultTable().Assemble(
		ref(t, "J", "end"),
		WordTable{"start", "end"},
		Label("start"), Word(0),
		Label("end"),
	)
	assert.NoError(err)
	assert.Equal([]uint16{words(t, mustNew(t, "J", 3))[0], 3, 4, 0}, code)
}

func TestAssemblerText(t *testing.T) {
	assert := assert.New(t)

	source := `
		ADD  R1, R1, R0
		ORI  R2, R3, 123
	loop:
		J    loop
		.word 5678
`
	asm := &Assembler{}
	err := asm.Parse(strings.NewReader(source))
	assert.NoError(err)

	prog, err := asm.Assemble()
	assert.NoError(err)

	expected := words(t,
		mustNew(t, "ADD", 1, 1, 0),
		mustNew(t, "ORI", 2, 3, 123),
		mustNew(t, "J", -1),
	)
	expected = append(expected, 5678)
	assert.Equal(expected, prog.Words)
	assert.Equal(map[string]int{"loop": 3}, prog.Labels)

	assert.Equal(4, len(prog.Opcodes))
	assert.Equal(Opcode{LineNo: 3, Addr: 1, Line: "\t\tORI  R2, R3, 123", Words: expected[1:3]}, prog.Opcodes[1])

	dbg := prog.Debug(2)
	assert.Equal(3, dbg.LineNo)
	assert.Equal(1, dbg.Index)
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	table := DefaultTable()

	_, err := table.Assemble(Label("foo"), Label("foo"))
	assert.ErrorIs(err, ErrDuplicateLabel)
	var dup *ErrDuplicate
	if assert.True(errors.As(err, &dup)) {
		assert.Equal("foo", dup.Name)
		assert.Equal(Path{1}, dup.New.Path)
		assert.Equal(Path{0}, dup.Old.Path)
		assert.Equal("indexes [0]", dup.Old.String())
	}

	_, err = table.Assemble(Constant{"K", 1}, Items{Constant{"K", 2}})
	assert.ErrorIs(err, ErrDuplicateConstant)

	_, err = table.Assemble(nil)
	assert.ErrorIs(err, ErrUnrecognizedItem)

	_, err = table.Assemble(ref(t, "ADDI", "foo", 0, 0))
	assert.ErrorIs(err, ErrUnresolvedReference)
	var undefined ErrUndefined
	assert.True(errors.As(err, &undefined))
	assert.Equal(ErrUndefined("foo"), undefined)
	var terr *ErrTranslation
	if assert.True(errors.As(err, &terr)) {
		assert.Equal(Path{0}, terr.Loc.Path)
	}

	_, err = table.Assemble(JumpTable{"nowhere"})
	assert.ErrorIs(err, ErrUnresolvedReference)

	// A constant too wide for the operand.
	_, err = table.Assemble(Constant{"K", 70000}, ref(t, "MOVI", "K", 1))
	assert.ErrorIs(err, ErrIllegalOperand)
}

func TestAssemblerRelocatable(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{Relocatable: true}
	asm.Append(
		ref(t, "J", "external"),
		ref(t, "ADDI", "there", 1, 1),
		JumpTable{"external"},
		Label("there"),
	)

	prog, err := asm.Assemble()
	assert.NoError(err)

	expected := longest(t, mustNew(t, "J", 0))
	expected = append(expected, longest(t, mustNew(t, "ADDI", 1, 1, 1))...)
	expected = append(expected, 0)
	assert.Equal(expected, prog.Words)
	assert.Equal(5, prog.Labels["there"])
}

func TestAssemblerLUTReference(t *testing.T) {
	assert := assert.New(t)

	// -256 is in the ALU LUT at the worst case origin, but -255 is not.
	prog, err := assembleText("tgt:\n\t.alloc 254\n\tADDI R1, R1, tgt\n")
	if assert.NoError(err) {
		expected := append(make([]uint16, 254), longest(t, mustNew(t, "ADDI", 1, 1, -256))...)
		assert.Equal(expected, prog.Words)
	}

	cases := [](struct {
		name     string
		input    Items
		expected []uint16
	}){
		{"forward alu",
			Items{ref(t, "ADDI", "foo", 1, 1), zeros(15), Label("foo")},
			append(longest(t, mustNew(t, "ADDI", 1, 1, 15)), make([]uint16, 15)...)},
		{"forward shift",
			Items{ref(t, "SLLI", "foo", 2, 3), zeros(3), Label("foo")},
			append(longest(t, mustNew(t, "SLLI", 2, 3, 3)), make([]uint16, 3)...)},
		{"backward alu",
			Items{Label("foo"), zeros(14), ref(t, "ORI", "foo", 1, 1)},
			append(make([]uint16, 14), longest(t, mustNew(t, "ORI", 1, 1, -16))...)},
		{"constant",
			Items{Constant{Name: "K", Value: 0xff}, ref(t, "ANDI", "K", 1, 1)},
			words(t, mustNew(t, "ANDI", 1, 1, 0xff))},
	}

	for _, entry := range cases {
		code, err := DefaultTable().Assemble(entry.input)
		if !assert.NoError(err, entry.name) {
			continue
		}
		assert.Equal(entry.expected, code, entry.name)
	}
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("BASE", 0x40)
	asm.Append(ref(t, "MOVI", "BASE", 3))

	prog, err := asm.Assemble()
	assert.NoError(err)
	assert.Equal(words(t, mustNew(t, "MOVI", 3, 0x40)), prog.Words)

	// Assembly may be repeated.
	again, err := asm.Assemble()
	assert.NoError(err)
	assert.Equal(prog.Words, again.Words)
}

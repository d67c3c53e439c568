package cpu

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompose(t *testing.T) {
	assert := assert.New(t)

	tmpl, err := Compose(C_ARITH, M_RRI, T_ADD, F_RR3A)
	assert.NoError(err)
	assert.Equal("00011DDDAAA00iii", tmpl.Coding)
	assert.Equal("rsd:R, ra:R, imm:I3AL", tmpl.Operands)
	assert.True(tmpl.Leaf())

	tmpl, err = Compose(C_JCOND, M_FL1)
	assert.NoError(err)
	assert.False(tmpl.Leaf())
	assert.Equal([]string{"imm"}, tmpl.PCRel)

	_, err = Compose(C_LOGIC, C_ARITH)
	assert.ErrorIs(err, ErrFormatConflict)

	_, err = Compose(F_RRR, F_RR3A)
	assert.ErrorIs(err, ErrFormatConflict)

	_, err = Compose(Template{Coding: "0101"})
	assert.ErrorIs(err, ErrFormatConflict)
}

func TestNewTable(t *testing.T) {
	assert := assert.New(t)

	table, err := NewTable()
	assert.NoError(err)

	typ, err := table.Lookup("addi")
	assert.NoError(err)
	assert.Equal("ADDI", typ.Mnemonic)
	assert.Equal("rsd, ra, imm", typ.Syntax())
	assert.True(typ.HasImmediate())
	assert.False(typ.IsPCRel("imm"))

	typ, err = table.Lookup("JAL")
	assert.NoError(err)
	assert.True(typ.IsPCRel("imm"))

	_, err = table.Lookup("FROB")
	assert.ErrorIs(err, ErrUnknownMnemonic)
}

func TestNewTableConflicts(t *testing.T) {
	assert := assert.New(t)

	cases := [](struct {
		name  string
		decls []Declaration
	}){
		{"shared encoding", append(slices.Clone(Declarations), declare("ANDX", C_LOGIC, M_RRR, T_AND, F_RRR))},
		{"incomplete", append(slices.Clone(Declarations), declare("HALF", C_LOGIC, M_RRR))},
		{"duplicate mnemonic", append(slices.Clone(Declarations), declare("ADD", C_ARITH, M_RRR, T_ADD, F_RRR))},
		{"alias of nothing", append(slices.Clone(Declarations), alias("JMP", "GOTO"))},
		{"no extension", slices.DeleteFunc(slices.Clone(Declarations), func(decl Declaration) bool { return decl.Mnemonic == "EXTI" })},
	}

	for _, entry := range cases {
		_, err := NewTable(WithDeclarations(entry.decls))
		assert.ErrorIs(err, ErrFormatConflict, entry.name)

		var ferr *ErrFormat
		assert.True(errors.As(err, &ferr), entry.name)
	}

	_, err := NewTable(WithALULUT(LUT{0, 1, 2, 3, 4, 5, 6, 6}))
	assert.ErrorIs(err, ErrFormatConflict)
}

func TestTableDecodeAll(t *testing.T) {
	assert := assert.New(t)

	table := DefaultTable()

	unknown := 0
	for code := range 1 << CODING_BITS {
		word := uint16(code)
		in, err := table.DecodeWord(word)
		if err != nil {
			assert.ErrorIs(err, ErrUnknownEncoding)
			unknown++
			continue
		}
		assert.False(in.Type.Alias)

		back, err := in.Word()
		if !assert.NoError(err) || !assert.Equal(word, back, "%v", in) {
			return
		}
	}

	// CMP, CMPI, STW, and ADJW leave their rsd field zero.
	assert.NotZero(unknown)
}

func TestTableAlias(t *testing.T) {
	assert := assert.New(t)

	table := DefaultTable()

	jz, err := table.New("JZ", 5)
	assert.NoError(err)
	je, err := table.New("JE", 5)
	assert.NoError(err)

	assert.True(je.Type.Alias)
	assert.False(jz.Type.Alias)
	assert.True(jz.Equal(je))

	jzw, _ := jz.Encode(nil, false)
	jew, _ := je.Encode(nil, false)
	assert.Equal(jzw, jew)

	in, err := table.DecodeWord(jzw[0])
	assert.NoError(err)
	assert.Equal("JZ", in.Type.Mnemonic)

	pairs := [][2]string{{"JNE", "JNZ"}, {"JULT", "JNC"}, {"JUGE", "JC"}}
	for _, pair := range pairs {
		a, _ := table.Lookup(pair[0])
		b, _ := table.Lookup(pair[1])
		assert.Equal(b.Bits, a.Bits, pair[0])
		assert.Same(b, a.Canonical, pair[0])
	}
}

func TestTableALULUT(t *testing.T) {
	assert := assert.New(t)

	lut := LUT{0, 1, 2, 4, 8, 16, 32, 0xffff}
	table, err := NewTable(WithALULUT(lut))
	assert.NoError(err)

	in, err := table.New("ANDI", 1, 2, 16)
	assert.NoError(err)
	assert.Equal(1, in.Length())

	in, err = table.New("ANDI", 1, 2, 0x00ff)
	assert.NoError(err)
	assert.Equal(2, in.Length())
}

func TestTableDecodeExtended(t *testing.T) {
	assert := assert.New(t)

	table := DefaultTable()

	ld, err := table.New("LD", 1, 0, -100)
	assert.NoError(err)
	words, err := ld.Encode(nil, false)
	assert.NoError(err)
	assert.Equal(2, len(words))

	in, length, err := table.Decode(words, 0)
	assert.NoError(err)
	assert.Equal(2, length)
	assert.True(ld.Equal(in), "%v", in)

	// A lone EXTI at the end of the code.
	in, length, err = table.Decode(words[:1], 0)
	assert.NoError(err)
	assert.Equal(1, length)
	assert.Equal("EXTI", in.Type.Mnemonic)

	// EXTI followed by an instruction without an immediate.
	add, _ := table.New("ADD", 1, 2, 3)
	addw, _ := add.Encode(nil, false)
	in, length, err = table.Decode([]uint16{words[0], addw[0]}, 0)
	assert.NoError(err)
	assert.Equal(1, length)
	assert.Equal("EXTI", in.Type.Mnemonic)
}

package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMake(t *testing.T) {
	assert := assert.New(t)

	table := DefaultTable()

	cases := [](struct {
		kind  string
		value int
		ok    bool
		legal bool
	}){
		{"R", 0, true, true},
		{"R", 7, true, true},
		{"R", 8, false, false},
		{"R", -1, false, false},
		{"I5", 15, true, true},
		{"I5", -16, true, true},
		{"I5", 16, true, false},
		{"I5", -17, true, false},
		{"I5", 65535, true, false},
		{"I5", 65536, false, false},
		{"I5", -32768, true, false},
		{"I5", -32769, false, false},
		{"I8", 127, true, true},
		{"I8", -128, true, true},
		{"I8", 128, true, false},
		{"I13", 8191, true, true},
		{"I13", -4096, true, true},
		{"I13", -4097, true, false},
		{"I13", -8192, true, false},
		{"I13", 8192, false, false},
		{"I3SR", 8, true, true},
		{"I3SR", 1, true, true},
		{"I3SR", 0, true, false},
		{"I3SR", 11, true, false},
		{"I3SR", 16, false, false},
		{"I3AL", 0xff00, true, true},
		{"I3AL", -1, true, true},
		{"I3AL", 0xffff, true, true},
		{"I3AL", 3, true, false},
		{"I3AL", 0x10000, false, false},
	}

	for _, entry := range cases {
		kind, ok := table.Kind(entry.kind)
		assert.True(ok, entry.kind)

		op, err := kind.Make(entry.value)
		if !entry.ok {
			assert.ErrorIs(err, ErrIllegalOperand, "%v %d", entry.kind, entry.value)
			continue
		}
		assert.NoError(err, "%v %d", entry.kind, entry.value)
		assert.True(op.Resolved())
		assert.Equal(entry.legal, op.Legal(), "%v %d", entry.kind, entry.value)
	}
}

func TestKindFromText(t *testing.T) {
	assert := assert.New(t)

	table := DefaultTable()
	reg, _ := table.Kind("R")
	imm, _ := table.Kind("I8")

	op, err := reg.FromText("R5")
	assert.NoError(err)
	assert.Equal(5, op.Value)

	op, err = reg.FromText("r0")
	assert.NoError(err)
	assert.Equal(0, op.Value)

	_, err = reg.FromText("R8")
	assert.ErrorIs(err, ErrIllegalOperand)

	_, err = reg.FromText("X1")
	var operr *ErrOperand
	assert.True(errors.As(err, &operr))
	assert.Equal("X1", operr.Text)

	op, err = imm.FromText("-0x10")
	assert.NoError(err)
	assert.Equal(-16, op.Value)

	op, err = imm.FromText("0b101")
	assert.NoError(err)
	assert.Equal(5, op.Value)

	op, err = imm.FromText("loop")
	assert.NoError(err)
	assert.False(op.Resolved())
	assert.False(op.Legal())
	assert.Equal("loop", op.String())

	_, err = imm.FromText("12ab!")
	assert.ErrorIs(err, ErrIllegalOperand)
}

func TestKindFromBits(t *testing.T) {
	assert := assert.New(t)

	table := DefaultTable()

	cases := [](struct {
		kind     string
		bits     uint16
		expected int
	}){
		{"R", 6, 6},
		{"I5", 0x0f, 15},
		{"I5", 0x10, -16},
		{"I8", 0xff, -1},
		{"I13", 0x1fff, 8191},
		{"I3SR", 0, 8},
		{"I3SR", 3, 3},
		{"I3AL", 2, 0x8000},
		{"I3AL", 7, 0xffff},
	}

	for _, entry := range cases {
		kind, _ := table.Kind(entry.kind)
		op := kind.FromBits(entry.bits)
		assert.Equal(entry.expected, op.Value, "%v %#x", entry.kind, entry.bits)
		assert.True(op.Legal())

		bits, err := op.Bits()
		assert.NoError(err)
		assert.Equal(entry.bits, bits, "%v %#x", entry.kind, entry.bits)
	}
}

func TestOperandRelocate(t *testing.T) {
	assert := assert.New(t)

	imm, _ := DefaultTable().Kind("I8")
	resolve := func(symbol string) (int, bool) {
		switch symbol {
		case "near":
			return 4, true
		case "far":
			return 70000, true
		}
		return 0, false
	}

	op, err := imm.Reference("near").Relocate(resolve)
	assert.NoError(err)
	assert.True(op.Resolved())
	assert.Equal(4, op.Value)

	op, err = imm.Reference("unknown").Relocate(resolve)
	assert.NoError(err)
	assert.False(op.Resolved())

	_, err = op.Bits()
	assert.ErrorIs(err, ErrUnresolvedReference)

	_, err = imm.Reference("far").Relocate(resolve)
	assert.ErrorIs(err, ErrIllegalOperand)
}

func TestLUTIndex(t *testing.T) {
	assert := assert.New(t)

	lut := DefaultALULUT
	index, ok := lut.Index(-1)
	assert.True(ok)
	assert.Equal(7, index)

	index, ok = lut.Index(0x00ff)
	assert.True(ok)
	assert.Equal(4, index)

	_, ok = lut.Index(2)
	assert.False(ok)

	assert.True(lut.unique())
	dup := LUT{1, 1, 2, 3, 4, 5, 6, 7}
	assert.False(dup.unique())
}

package internal

import (
	"strings"
)

// Signed sign-extends the low `bits` bits of value using two's complement.
func Signed(value int, bits int) int {
	value &= (1 << bits) - 1
	if value&(1<<(bits-1)) != 0 {
		return value - (1 << bits)
	}
	return value
}

// Mask returns a mask of the low `bits` bits.
func Mask(bits int) int {
	return (1 << bits) - 1
}

// ExpandTabs replaces tab characters with spaces up to the next multiple of 8 columns.
func ExpandTabs(text string) string {
	var sb strings.Builder
	column := 0
	for _, r := range text {
		switch r {
		case '\t':
			pad := 8 - column%8
			sb.WriteString(strings.Repeat(" ", pad))
			column += pad
		case '\n':
			sb.WriteRune(r)
			column = 0
		default:
			sb.WriteRune(r)
			column++
		}
	}
	return sb.String()
}

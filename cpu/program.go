package cpu

import (
	"fmt"
	"io"
	"iter"
	"strings"
)

// Opcode is the machine code generated by one source line.
type Opcode struct {
	LineNo int      // Line number in the source.
	Addr   int      // Address of the first word.
	Line   string   // Source text.
	Words  []uint16 // Generated words.
}

// Program is the output of the assembler.
type Program struct {
	Words   []uint16       // Machine code.
	Labels  map[string]int // Label addresses.
	Opcodes []Opcode       // Source lines that generated code, in address order.
}

type Debug struct {
	*Opcode
	Index int // Index of the word within the opcode.
}

// Debug finds the source line that generated the word at addr.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= op.Addr && int(addr) < op.Addr+len(op.Words) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr) - op.Addr,
			}
			break
		}
	}

	return
}

// Codes iterates over the words of the program and their addresses.
func (prog *Program) Codes() iter.Seq2[uint16, uint16] {
	return func(yield func(addr uint16, word uint16) bool) {
		for n, word := range prog.Words {
			if !yield(uint16(n), word) {
				return
			}
		}
	}
}

// Listing writes the source lines annotated with their addresses and code.
func (prog *Program) Listing(w io.Writer) (err error) {
	for _, op := range prog.Opcodes {
		codes := make([]string, len(op.Words))
		for n, word := range op.Words {
			codes[n] = fmt.Sprintf("%04x", word)
		}
		_, err = fmt.Fprintf(w, "%04x: %-10s %5d  %v\n", op.Addr, strings.Join(codes, " "), op.LineNo, op.Line)
		if err != nil {
			return
		}
	}

	return
}

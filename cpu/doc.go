// Package cpu implements the instruction set, assembler and disassembler
// of the Boneless 16-bit CPU.
//
// Instructions are declared as compositions of bit templates (see
// Declarations), which a Table turns into leaf instruction types with a
// mnemonic index and a complete decode index. Immediates too wide for their
// field are carried by an EXTI prefix word.
//
// The Assembler translates a tree of Items, or parsed source text, into
// machine code. References are relaxed over repeated passes, so that each
// instruction uses its shortest encoding. Table.Disassemble inverts this,
// and Text renders the result as source.
package cpu

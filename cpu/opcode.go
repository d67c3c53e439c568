package cpu

// Operand formats
var (
	F_RRR  = Template{Coding: "-----DDDAAA--BBB", Operands: "rsd:R, ra:R, rb:R"}
	F_XRR  = Template{Coding: "-----000AAA--BBB", Operands: "ra:R, rb:R"}
	F_RR3A = Template{Coding: "-----DDDAAA--iii", Operands: "rsd:R, ra:R, imm:I3AL"}
	F_XR3A = Template{Coding: "-----000AAA--iii", Operands: "ra:R, imm:I3AL"}
	F_RR3S = Template{Coding: "-----DDDAAA--iii", Operands: "rsd:R, ra:R, imm:I3SR"}
	F_RR5  = Template{Coding: "-----DDDAAAiiiii", Operands: "rsd:R, ra:R, imm:I5"}
	F_RR   = Template{Coding: "-----DDD---00BBB", Operands: "rsd:R, rb:R"}
	F_XR   = Template{Coding: "-----000---00BBB", Operands: "rb:R"}
	F_R5   = Template{Coding: "-----DDD---iiiii", Operands: "rsd:R, imm:I5"}
	F_X5   = Template{Coding: "-----000---iiiii", Operands: "imm:I5"}
	F_R8   = Template{Coding: "-----DDDiiiiiiii", Operands: "rsd:R, imm:I8"}
	F_8    = Template{Coding: "--------iiiiiiii", Operands: "imm:I8"}
	F_13   = Template{Coding: "---iiiiiiiiiiiii", Operands: "imm:I13"}
)

// ALSRU opcodes
var (
	M_RRR = Template{Coding: "----0-----------"}
	M_RRI = Template{Coding: "----1-----------"}

	C_LOGIC = Template{Coding: "0000------------"}
	T_AND   = Template{Coding: "-----------00---"}
	T_OR    = Template{Coding: "-----------01---"}
	T_XOR   = Template{Coding: "-----------10---"}
	T_CMP   = Template{Coding: "-----------11---"}

	C_ARITH = Template{Coding: "0001------------"}
	T_ADD   = Template{Coding: "-----------00---"}
	T_ADC   = Template{Coding: "-----------01---"}
	T_SUB   = Template{Coding: "-----------10---"}
	T_SBB   = Template{Coding: "-----------11---"}

	C_SHIFT = Template{Coding: "0010------------"}
	S_LEFT  = Template{Coding: "-----------0----"}
	S_RIGHT = Template{Coding: "-----------1----"}
	S_IZERO = Template{Coding: "------------0---"}
	S_IMSB  = Template{Coding: "------------1---"}
)

// Memory opcodes
var (
	M_ABS = Template{Coding: "----0-----------"}
	M_REL = Template{Coding: "----1-----------", PCRel: []string{"imm"}}
	M_LIT = Template{Coding: "----1-----------"}

	C_LD   = Template{Coding: "0100------------"}
	C_ST   = Template{Coding: "0101------------"}
	C_LDX  = Template{Coding: "0110------------"}
	C_STX  = Template{Coding: "0111------------"}
	C_MOVE = Template{Coding: "1000------------"}
)

// Window and jump opcodes
var (
	C_STW  = Template{Coding: "10100---000-----"}
	C_XCHW = Template{Coding: "10100---001-----"}
	C_ADJW = Template{Coding: "10100---010-----"}
	C_LDW  = Template{Coding: "10100---011-----"}

	C_JR   = Template{Coding: "10100---100-----"}
	C_JRAL = Template{Coding: "10100---101-----"}
	C_JVT  = Template{Coding: "10100---110-----"}
	C_JST  = Template{Coding: "10100---111-----", PCRel: []string{"imm"}}
	C_JAL  = Template{Coding: "10101-----------", PCRel: []string{"imm"}}
)

// Conditional jump opcodes
var (
	M_FL0 = Template{Coding: "----0-----------"}
	M_FL1 = Template{Coding: "----1-----------"}

	C_JCOND = Template{Coding: "1011------------", PCRel: []string{"imm"}}
	T_Z     = Template{Coding: "-----000--------"}
	T_S     = Template{Coding: "-----001--------"}
	T_C     = Template{Coding: "-----010--------"}
	T_V     = Template{Coding: "-----011--------"}
	T_nCoZ  = Template{Coding: "-----100--------"}
	T_SxV   = Template{Coding: "-----101--------"}
	T_SxVoZ = Template{Coding: "-----110--------"}
	T_A     = Template{Coding: "-----111--------"}
)

// Extended immediate opcode
var C_EXT = Template{Coding: "110-------------"}

// Extension prefix layout.
const (
	EXT_CODE     = uint16(0b110_0000000000000) // Opcode bits of EXTI.
	EXT_MASK     = uint16(0b111_0000000000000) // Opcode mask of EXTI.
	EXT_IMM_MASK = uint16(0b000_1111111111111) // Immediate bits carried by EXTI.
	EXT_SHIFT    = 3                           // Immediate bits carried by the base instruction.
)

// Declaration binds a mnemonic to the templates composing its leaf coding.
type Declaration struct {
	Mnemonic  string
	Alias     string // If set, the mnemonic is another spelling of this instruction.
	Templates []Template
}

func declare(mnemonic string, templates ...Template) Declaration {
	return Declaration{Mnemonic: mnemonic, Templates: templates}
}

func alias(mnemonic string, of string) Declaration {
	return Declaration{Mnemonic: mnemonic, Alias: of}
}

// Declarations is the Boneless instruction set.
var Declarations = []Declaration{
	// ALSRU instructions
	declare("AND", C_LOGIC, M_RRR, T_AND, F_RRR),
	declare("ANDI", C_LOGIC, M_RRI, T_AND, F_RR3A),
	declare("OR", C_LOGIC, M_RRR, T_OR, F_RRR),
	declare("ORI", C_LOGIC, M_RRI, T_OR, F_RR3A),
	declare("XOR", C_LOGIC, M_RRR, T_XOR, F_RRR),
	declare("XORI", C_LOGIC, M_RRI, T_XOR, F_RR3A),
	declare("CMP", C_LOGIC, M_RRR, T_CMP, F_XRR),
	declare("CMPI", C_LOGIC, M_RRI, T_CMP, F_XR3A),

	declare("ADD", C_ARITH, M_RRR, T_ADD, F_RRR),
	declare("ADDI", C_ARITH, M_RRI, T_ADD, F_RR3A),
	declare("ADC", C_ARITH, M_RRR, T_ADC, F_RRR),
	declare("ADCI", C_ARITH, M_RRI, T_ADC, F_RR3A),
	declare("SUB", C_ARITH, M_RRR, T_SUB, F_RRR),
	declare("SUBI", C_ARITH, M_RRI, T_SUB, F_RR3A),
	declare("SBB", C_ARITH, M_RRR, T_SBB, F_RRR),
	declare("SBBI", C_ARITH, M_RRI, T_SBB, F_RR3A),

	declare("SLL", C_SHIFT, M_RRR, S_LEFT, S_IZERO, F_RRR),
	declare("SLLI", C_SHIFT, M_RRI, S_LEFT, S_IZERO, F_RR3S),
	declare("ROT", C_SHIFT, M_RRR, S_LEFT, S_IMSB, F_RRR),
	declare("ROTI", C_SHIFT, M_RRI, S_LEFT, S_IMSB, F_RR3S),
	declare("SRL", C_SHIFT, M_RRR, S_RIGHT, S_IZERO, F_RRR),
	declare("SRLI", C_SHIFT, M_RRI, S_RIGHT, S_IZERO, F_RR3S),
	declare("SRA", C_SHIFT, M_RRR, S_RIGHT, S_IMSB, F_RRR),
	declare("SRAI", C_SHIFT, M_RRI, S_RIGHT, S_IMSB, F_RR3S),

	// Memory instructions
	declare("LD", C_LD, M_ABS, F_RR5),
	declare("LDR", C_LD, M_REL, F_RR5),
	declare("ST", C_ST, M_ABS, F_RR5),
	declare("STR", C_ST, M_REL, F_RR5),
	declare("LDX", C_LDX, M_ABS, F_RR5),
	declare("LDXA", C_LDX, M_LIT, F_R8),
	declare("STX", C_STX, M_ABS, F_RR5),
	declare("STXA", C_STX, M_LIT, F_R8),

	// Move instructions
	declare("MOVI", C_MOVE, M_ABS, F_R8),
	declare("MOVR", C_MOVE, M_REL, F_R8),

	// Window instructions
	declare("STW", C_STW, F_XR),
	declare("XCHW", C_XCHW, F_RR),
	declare("ADJW", C_ADJW, F_X5),
	declare("LDW", C_LDW, F_R5),

	// Jump instructions
	declare("JR", C_JR, F_R5),
	declare("JRAL", C_JRAL, F_RR),
	declare("JVT", C_JVT, F_R5),
	declare("JST", C_JST, F_R5),
	declare("JAL", C_JAL, F_R8),

	// Conditional instructions
	declare("JNZ", C_JCOND, M_FL0, T_Z, F_8),
	declare("JZ", C_JCOND, M_FL1, T_Z, F_8),
	declare("JNS", C_JCOND, M_FL0, T_S, F_8),
	declare("JS", C_JCOND, M_FL1, T_S, F_8),
	declare("JNC", C_JCOND, M_FL0, T_C, F_8),
	declare("JC", C_JCOND, M_FL1, T_C, F_8),
	declare("JNO", C_JCOND, M_FL0, T_V, F_8),
	declare("JO", C_JCOND, M_FL1, T_V, F_8),
	declare("JN", C_JCOND, M_FL0, T_A, F_8),
	declare("J", C_JCOND, M_FL1, T_A, F_8),

	alias("JNE", "JNZ"),
	alias("JE", "JZ"),
	alias("JULT", "JNC"),
	alias("JUGE", "JC"),
	declare("JUGT", C_JCOND, M_FL0, T_nCoZ, F_8),
	declare("JULE", C_JCOND, M_FL1, T_nCoZ, F_8),
	declare("JSGE", C_JCOND, M_FL0, T_SxV, F_8),
	declare("JSLT", C_JCOND, M_FL1, T_SxV, F_8),
	declare("JSGT", C_JCOND, M_FL0, T_SxVoZ, F_8),
	declare("JSLE", C_JCOND, M_FL1, T_SxVoZ, F_8),

	// Extended immediate instruction
	declare("EXTI", C_EXT, F_13),
}

package cpu

import "fmt"

// Op identifies one of the 35 CHIP-8 operations.
type Op uint8

const (
	OpUnknown Op = iota
	OpSYS        // 0nnn
	OpCLS        // 00E0
	OpRET        // 00EE
	OpJP         // 1nnn
	OpCALL       // 2nnn
	OpSEImm      // 3xkk
	OpSNEImm     // 4xkk
	OpSEReg      // 5xyN
	OpLDImm      // 6xkk
	OpADDImm     // 7xkk
	OpLDReg      // 8xy0
	OpOR         // 8xy1
	OpAND        // 8xy2
	OpXOR        // 8xy3
	OpADDReg     // 8xy4
	OpSUB        // 8xy5
	OpSHR        // 8xy6
	OpSUBN       // 8xy7
	OpSHL        // 8xyE
	OpSNEReg     // 9xyN
	OpLDI        // Annn
	OpJPV0       // Bnnn
	OpRND        // Cxkk
	OpDRW        // Dxyn
	OpSKP        // Ex9E
	OpSKNP       // ExA1
	OpLDVxDT     // Fx07
	OpLDVxK      // Fx0A
	OpLDDTVx     // Fx15
	OpLDSTVx     // Fx18
	OpADDI       // Fx1E
	OpLDF        // Fx29
	OpLDB        // Fx33
	OpLDIVx      // Fx55
	OpLDVxI      // Fx65

	opCount
)

// opInfo holds the fixed bits of each encoding and its mnemonic.
var opInfo = [opCount]struct {
	base     uint16
	mnemonic string
}{
	OpUnknown: {0x0000, "???"},
	OpSYS:     {0x0000, "SYS"},
	OpCLS:     {0x00E0, "CLS"},
	OpRET:     {0x00EE, "RET"},
	OpJP:      {0x1000, "JP"},
	OpCALL:    {0x2000, "CALL"},
	OpSEImm:   {0x3000, "SE"},
	OpSNEImm:  {0x4000, "SNE"},
	OpSEReg:   {0x5000, "SE"},
	OpLDImm:   {0x6000, "LD"},
	OpADDImm:  {0x7000, "ADD"},
	OpLDReg:   {0x8000, "LD"},
	OpOR:      {0x8001, "OR"},
	OpAND:     {0x8002, "AND"},
	OpXOR:     {0x8003, "XOR"},
	OpADDReg:  {0x8004, "ADD"},
	OpSUB:     {0x8005, "SUB"},
	OpSHR:     {0x8006, "SHR"},
	OpSUBN:    {0x8007, "SUBN"},
	OpSHL:     {0x800E, "SHL"},
	OpSNEReg:  {0x9000, "SNE"},
	OpLDI:     {0xA000, "LD"},
	OpJPV0:    {0xB000, "JP"},
	OpRND:     {0xC000, "RND"},
	OpDRW:     {0xD000, "DRW"},
	OpSKP:     {0xE09E, "SKP"},
	OpSKNP:    {0xE0A1, "SKNP"},
	OpLDVxDT:  {0xF007, "LD"},
	OpLDVxK:   {0xF00A, "LD"},
	OpLDDTVx:  {0xF015, "LD"},
	OpLDSTVx:  {0xF018, "LD"},
	OpADDI:    {0xF01E, "ADD"},
	OpLDF:     {0xF029, "LD"},
	OpLDB:     {0xF033, "LD"},
	OpLDIVx:   {0xF055, "LD"},
	OpLDVxI:   {0xF065, "LD"},
}

func (o Op) String() string {
	if o >= opCount {
		return opInfo[OpUnknown].mnemonic
	}
	return opInfo[o].mnemonic
}

// Instruction is a decoded instruction word. All fields are extracted
// regardless of which ones Op uses.
type Instruction struct {
	Op  Op
	Raw uint16
	X   uint8
	Y   uint8
	N   uint8
	NN  uint8
	NNN uint16
}

// Decode splits a big-endian instruction word into its fields and resolves
// the operation: first on the high nibble, then on the selector field for
// classes 0, 8, E and F.
func Decode(word uint16) Instruction {
	ins := Instruction{
		Raw: word,
		X:   uint8(word>>8) & 0xF,
		Y:   uint8(word>>4) & 0xF,
		N:   uint8(word) & 0xF,
		NN:  uint8(word),
		NNN: word & 0x0FFF,
	}

	switch word >> 12 {
	case 0x0:
		switch ins.NNN {
		case 0x0E0:
			ins.Op = OpCLS
		case 0x0EE:
			ins.Op = OpRET
		default:
			ins.Op = OpSYS
		}
	case 0x1:
		ins.Op = OpJP
	case 0x2:
		ins.Op = OpCALL
	case 0x3:
		ins.Op = OpSEImm
	case 0x4:
		ins.Op = OpSNEImm
	case 0x5:
		ins.Op = OpSEReg
	case 0x6:
		ins.Op = OpLDImm
	case 0x7:
		ins.Op = OpADDImm
	case 0x8:
		ins.Op = decodeALU(ins.N)
	case 0x9:
		ins.Op = OpSNEReg
	case 0xA:
		ins.Op = OpLDI
	case 0xB:
		ins.Op = OpJPV0
	case 0xC:
		ins.Op = OpRND
	case 0xD:
		ins.Op = OpDRW
	case 0xE:
		switch ins.NN {
		case 0x9E:
			ins.Op = OpSKP
		case 0xA1:
			ins.Op = OpSKNP
		}
	case 0xF:
		ins.Op = decodeMisc(ins.NN)
	}

	return ins
}

func decodeALU(n uint8) Op {
	switch n {
	case 0x0:
		return OpLDReg
	case 0x1:
		return OpOR
	case 0x2:
		return OpAND
	case 0x3:
		return OpXOR
	case 0x4:
		return OpADDReg
	case 0x5:
		return OpSUB
	case 0x6:
		return OpSHR
	case 0x7:
		return OpSUBN
	case 0xE:
		return OpSHL
	}
	return OpUnknown
}

func decodeMisc(nn uint8) Op {
	switch nn {
	case 0x07:
		return OpLDVxDT
	case 0x0A:
		return OpLDVxK
	case 0x15:
		return OpLDDTVx
	case 0x18:
		return OpLDSTVx
	case 0x1E:
		return OpADDI
	case 0x29:
		return OpLDF
	case 0x33:
		return OpLDB
	case 0x55:
		return OpLDIVx
	case 0x65:
		return OpLDVxI
	}
	return OpUnknown
}

// Encode builds the instruction word for op. imm is the nnn, kk or n
// operand, whichever op takes; unused operands are ignored.
func Encode(op Op, x, y uint8, imm uint16) uint16 {
	if op == OpUnknown || op >= opCount {
		return 0
	}
	w := opInfo[op].base
	vx := uint16(x&0xF) << 8
	vy := uint16(y&0xF) << 4

	switch op {
	case OpSYS, OpJP, OpCALL, OpLDI, OpJPV0:
		w |= imm & 0x0FFF
	case OpSEImm, OpSNEImm, OpLDImm, OpADDImm, OpRND:
		w |= vx | imm&0xFF
	case OpSEReg, OpLDReg, OpOR, OpAND, OpXOR, OpADDReg, OpSUB, OpSHR, OpSUBN, OpSHL, OpSNEReg:
		w |= vx | vy
	case OpDRW:
		w |= vx | vy | imm&0xF
	case OpSKP, OpSKNP, OpLDVxDT, OpLDVxK, OpLDDTVx, OpLDSTVx, OpADDI, OpLDF, OpLDB, OpLDIVx, OpLDVxI:
		w |= vx
	}
	return w
}

// String renders the instruction in the usual assembler syntax.
func (ins Instruction) String() string {
	m := ins.Op.String()
	switch ins.Op {
	case OpCLS, OpRET:
		return m
	case OpSYS, OpJP, OpCALL:
		return fmt.Sprintf("%s 0x%03X", m, ins.NNN)
	case OpSEImm, OpSNEImm, OpLDImm, OpADDImm, OpRND:
		return fmt.Sprintf("%s V%X, 0x%02X", m, ins.X, ins.NN)
	case OpSEReg, OpLDReg, OpOR, OpAND, OpXOR, OpADDReg, OpSUB, OpSHR, OpSUBN, OpSHL, OpSNEReg:
		return fmt.Sprintf("%s V%X, V%X", m, ins.X, ins.Y)
	case OpLDI:
		return fmt.Sprintf("%s I, 0x%03X", m, ins.NNN)
	case OpJPV0:
		return fmt.Sprintf("%s V0, 0x%03X", m, ins.NNN)
	case OpDRW:
		return fmt.Sprintf("%s V%X, V%X, %d", m, ins.X, ins.Y, ins.N)
	case OpSKP, OpSKNP:
		return fmt.Sprintf("%s V%X", m, ins.X)
	case OpLDVxDT:
		return fmt.Sprintf("%s V%X, DT", m, ins.X)
	case OpLDVxK:
		return fmt.Sprintf("%s V%X, K", m, ins.X)
	case OpLDDTVx:
		return fmt.Sprintf("%s DT, V%X", m, ins.X)
	case OpLDSTVx:
		return fmt.Sprintf("%s ST, V%X", m, ins.X)
	case OpADDI:
		return fmt.Sprintf("%s I, V%X", m, ins.X)
	case OpLDF:
		return fmt.Sprintf("%s F, V%X", m, ins.X)
	case OpLDB:
		return fmt.Sprintf("%s B, V%X", m, ins.X)
	case OpLDIVx:
		return fmt.Sprintf("%s [I], V%X", m, ins.X)
	case OpLDVxI:
		return fmt.Sprintf("%s V%X, [I]", m, ins.X)
	}
	return fmt.Sprintf("DW 0x%04X", ins.Raw)
}

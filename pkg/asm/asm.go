package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gochip8/pkg/cpu"
)

// Register-register ALU operations, all of the form "OP Vx, Vy".
var aluOps = map[string]cpu.Op{
	"OR":   cpu.OpOR,
	"AND":  cpu.OpAND,
	"XOR":  cpu.OpXOR,
	"SUB":  cpu.OpSUB,
	"SUBN": cpu.OpSUBN,
}

// Single register operations of the form "OP Vx".
var oneRegisterOps = map[string]cpu.Op{
	"SKP":  cpu.OpSKP,
	"SKNP": cpu.OpSKNP,
}

var shiftOps = map[string]cpu.Op{
	"SHR": cpu.OpSHR,
	"SHL": cpu.OpSHL,
}

// Assembler turns CHIP-8 assembly into a cartridge image that loads at
// cpu.ProgramStart.
type Assembler struct {
	labels map[string]uint16
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]uint16),
	}
}

// Assemble is a convenience wrapper around NewAssembler().Assemble.
func Assemble(code string) ([]byte, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

// Assemble returns the program bytes and a source map from absolute
// address to source line number.
func (a *Assembler) Assemble(code string) ([]byte, map[uint16]int, error) {
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}

	return a.pass2(lines)
}

// Label returns the address a label was assigned.
func (a *Assembler) Label(name string) (uint16, bool) {
	addr, ok := a.labels[normalizeLabel(name)]
	return addr, ok
}

func (a *Assembler) pass1(lines []string) error {
	address := uint32(cpu.ProgramStart)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		for _, lbl := range p.labels {
			if address > cpu.MaxAddress {
				return fmt.Errorf("label '%s' on line %d points past addressable memory", lbl, lineNo)
			}
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[key] = uint16(address)
		}

		if p.mnemonic == "" {
			continue
		}

		switch p.mnemonic {
		case ".ORG":
			target, err := parseOrigin(p.operands, lineNo)
			if err != nil {
				return err
			}
			if target < address {
				return fmt.Errorf("cannot move origin backward on line %d", lineNo)
			}
			address = target
			continue
		case ".BYTE", ".WORD":
			if len(p.operands) == 0 {
				return fmt.Errorf("%s expects at least one operand on line %d", p.mnemonic, lineNo)
			}
			size := uint32(len(p.operands))
			if p.mnemonic == ".WORD" {
				size *= 2
			}
			address += size
		default:
			if !isMnemonic(p.mnemonic) {
				return fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
			}
			address += 2
		}

		if address > cpu.MemorySize {
			return fmt.Errorf("program too large near line %d", lineNo)
		}
	}

	return nil
}

func (a *Assembler) pass2(lines []string) ([]byte, map[uint16]int, error) {
	program := make([]byte, 0)
	sourceMap := make(map[uint16]int)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		addr := uint16(cpu.ProgramStart + len(program))

		switch p.mnemonic {
		case ".ORG":
			target, err := parseOrigin(p.operands, lineNo)
			if err != nil {
				return nil, nil, err
			}
			padding := int(target) - int(addr)
			if padding < 0 {
				return nil, nil, fmt.Errorf("cannot move origin backward on line %d", lineNo)
			}
			program = append(program, make([]byte, padding)...)
			continue

		case ".BYTE":
			sourceMap[addr] = lineNo
			for _, op := range p.operands {
				val, err := a.parseValue(op, 0xFF, lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, byte(val))
			}
			continue

		case ".WORD":
			sourceMap[addr] = lineNo
			for _, op := range p.operands {
				val, err := a.parseValue(op, 0xFFFF, lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, byte(val>>8), byte(val))
			}
			continue
		}

		sourceMap[addr] = lineNo
		instr, err := a.encode(p)
		if err != nil {
			return nil, nil, err
		}
		program = append(program, byte(instr>>8), byte(instr&0xFF))
	}

	if len(program) > cpu.MaxProgramSize {
		return nil, nil, fmt.Errorf("program too large: %d bytes > %d bytes", len(program), cpu.MaxProgramSize)
	}

	return program, sourceMap, nil
}

// encode assembles a single instruction line into its 16-bit word.
func (a *Assembler) encode(p parsedLine) (uint16, error) {
	m, ops, lineNo := p.mnemonic, p.operands, p.lineNo

	expect := func(n int) error {
		if len(ops) != n {
			return fmt.Errorf("%s expects %d operands on line %d", m, n, lineNo)
		}
		return nil
	}

	switch m {
	case "CLS", "RET":
		if err := expect(0); err != nil {
			return 0, err
		}
		if m == "CLS" {
			return cpu.Encode(cpu.OpCLS, 0, 0, 0), nil
		}
		return cpu.Encode(cpu.OpRET, 0, 0, 0), nil

	case "SYS", "CALL":
		if err := expect(1); err != nil {
			return 0, err
		}
		addr, err := a.parseAddress(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		if m == "SYS" {
			return cpu.Encode(cpu.OpSYS, 0, 0, addr), nil
		}
		return cpu.Encode(cpu.OpCALL, 0, 0, addr), nil

	case "JP":
		if len(ops) == 2 {
			if r, ok := parseRegister(ops[0]); !ok || r != 0 {
				return 0, fmt.Errorf("JP with offset requires V0 on line %d", lineNo)
			}
			addr, err := a.parseAddress(ops[1], lineNo)
			if err != nil {
				return 0, err
			}
			return cpu.Encode(cpu.OpJPV0, 0, 0, addr), nil
		}
		if err := expect(1); err != nil {
			return 0, err
		}
		addr, err := a.parseAddress(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		return cpu.Encode(cpu.OpJP, 0, 0, addr), nil

	case "SE", "SNE":
		if err := expect(2); err != nil {
			return 0, err
		}
		x, err := requireRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		regOp, immOp := cpu.OpSEReg, cpu.OpSEImm
		if m == "SNE" {
			regOp, immOp = cpu.OpSNEReg, cpu.OpSNEImm
		}
		if y, ok := parseRegister(ops[1]); ok {
			return cpu.Encode(regOp, x, y, 0), nil
		}
		kk, err := a.parseValue(ops[1], 0xFF, lineNo)
		if err != nil {
			return 0, err
		}
		return cpu.Encode(immOp, x, 0, kk), nil

	case "LD":
		if err := expect(2); err != nil {
			return 0, err
		}
		return a.encodeLoad(ops[0], ops[1], lineNo)

	case "ADD":
		if err := expect(2); err != nil {
			return 0, err
		}
		if strings.ToUpper(ops[0]) == "I" {
			x, err := requireRegister(ops[1], lineNo)
			if err != nil {
				return 0, err
			}
			return cpu.Encode(cpu.OpADDI, x, 0, 0), nil
		}
		x, err := requireRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		if y, ok := parseRegister(ops[1]); ok {
			return cpu.Encode(cpu.OpADDReg, x, y, 0), nil
		}
		kk, err := a.parseValue(ops[1], 0xFF, lineNo)
		if err != nil {
			return 0, err
		}
		return cpu.Encode(cpu.OpADDImm, x, 0, kk), nil

	case "RND":
		if err := expect(2); err != nil {
			return 0, err
		}
		x, err := requireRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		kk, err := a.parseValue(ops[1], 0xFF, lineNo)
		if err != nil {
			return 0, err
		}
		return cpu.Encode(cpu.OpRND, x, 0, kk), nil

	case "DRW":
		if err := expect(3); err != nil {
			return 0, err
		}
		x, err := requireRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		y, err := requireRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		n, err := a.parseValue(ops[2], 0xF, lineNo)
		if err != nil {
			return 0, err
		}
		return cpu.Encode(cpu.OpDRW, x, y, n), nil
	}

	if op, ok := aluOps[m]; ok {
		if err := expect(2); err != nil {
			return 0, err
		}
		x, err := requireRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		y, err := requireRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		return cpu.Encode(op, x, y, 0), nil
	}

	if op, ok := shiftOps[m]; ok {
		// The Vy operand is optional and only matters to the VIP shift quirk.
		if len(ops) != 1 && len(ops) != 2 {
			return 0, fmt.Errorf("%s expects 1 or 2 operands on line %d", m, lineNo)
		}
		x, err := requireRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		var y uint8
		if len(ops) == 2 {
			if y, err = requireRegister(ops[1], lineNo); err != nil {
				return 0, err
			}
		}
		return cpu.Encode(op, x, y, 0), nil
	}

	if op, ok := oneRegisterOps[m]; ok {
		if err := expect(1); err != nil {
			return 0, err
		}
		x, err := requireRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		return cpu.Encode(op, x, 0, 0), nil
	}

	return 0, fmt.Errorf("unknown instruction on line %d: %s", lineNo, m)
}

// encodeLoad handles the many forms of LD.
func (a *Assembler) encodeLoad(dst, src string, lineNo int) (uint16, error) {
	udst, usrc := strings.ToUpper(dst), strings.ToUpper(src)

	switch udst {
	case "I":
		addr, err := a.parseAddress(src, lineNo)
		if err != nil {
			return 0, err
		}
		return cpu.Encode(cpu.OpLDI, 0, 0, addr), nil
	case "DT", "ST", "F", "B", "[I]":
		x, err := requireRegister(src, lineNo)
		if err != nil {
			return 0, err
		}
		op := map[string]cpu.Op{
			"DT":  cpu.OpLDDTVx,
			"ST":  cpu.OpLDSTVx,
			"F":   cpu.OpLDF,
			"B":   cpu.OpLDB,
			"[I]": cpu.OpLDIVx,
		}[udst]
		return cpu.Encode(op, x, 0, 0), nil
	}

	x, err := requireRegister(dst, lineNo)
	if err != nil {
		return 0, err
	}
	switch usrc {
	case "DT":
		return cpu.Encode(cpu.OpLDVxDT, x, 0, 0), nil
	case "K":
		return cpu.Encode(cpu.OpLDVxK, x, 0, 0), nil
	case "[I]":
		return cpu.Encode(cpu.OpLDVxI, x, 0, 0), nil
	}
	if y, ok := parseRegister(src); ok {
		return cpu.Encode(cpu.OpLDReg, x, y, 0), nil
	}
	kk, err := a.parseValue(src, 0xFF, lineNo)
	if err != nil {
		return 0, err
	}
	return cpu.Encode(cpu.OpLDImm, x, 0, kk), nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if beforeColon == "" {
			return p, fmt.Errorf("invalid label on line %d", lineNo)
		}

		if strings.ContainsAny(beforeColon, " \t") {
			break
		}

		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	line = normalizeInstructionText(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return p, nil
	}

	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}

	switch p.mnemonic {
	case "DB":
		p.mnemonic = ".BYTE"
	case "DW":
		p.mnemonic = ".WORD"
	}

	return p, nil
}

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

func normalizeInstructionText(line string) string {
	return strings.ReplaceAll(line, ",", " ")
}

// parseRegister accepts V0-VF in either case.
func parseRegister(token string) (uint8, bool) {
	if len(token) != 2 || (token[0] != 'V' && token[0] != 'v') {
		return 0, false
	}
	n, err := strconv.ParseUint(token[1:], 16, 8)
	if err != nil {
		return 0, false
	}
	return uint8(n), true
}

func requireRegister(token string, lineNo int) (uint8, error) {
	r, ok := parseRegister(token)
	if !ok {
		return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
	}
	return r, nil
}

func (a *Assembler) parseAddress(token string, lineNo int) (uint16, error) {
	return a.parseValue(token, cpu.MaxAddress, lineNo)
}

// parseValue resolves a numeric literal or label and checks it against max.
func (a *Assembler) parseValue(token string, max uint16, lineNo int) (uint16, error) {
	if value, err := strconv.ParseUint(token, 0, 32); err == nil {
		if value > uint64(max) {
			return 0, fmt.Errorf("immediate out of range on line %d: %s", lineNo, token)
		}
		return uint16(value), nil
	}

	if addr, ok := a.labels[normalizeLabel(token)]; ok {
		if addr > max {
			return 0, fmt.Errorf("label '%s' out of range on line %d", token, lineNo)
		}
		return addr, nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid immediate '%s' on line %d", token, lineNo)
}

func parseOrigin(operands []string, lineNo int) (uint32, error) {
	if len(operands) != 1 {
		return 0, fmt.Errorf(".ORG expects exactly one operand on line %d", lineNo)
	}
	target, err := strconv.ParseUint(operands[0], 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid .ORG value on line %d: %s", lineNo, operands[0])
	}
	if target < cpu.ProgramStart || target > cpu.MaxAddress {
		return 0, fmt.Errorf(".ORG out of range on line %d: %s", lineNo, operands[0])
	}
	return uint32(target), nil
}

func isMnemonic(m string) bool {
	switch m {
	case "CLS", "RET", "SYS", "JP", "CALL", "SE", "SNE", "LD", "ADD", "RND", "DRW":
		return true
	}
	_, alu := aluOps[m]
	_, shift := shiftOps[m]
	_, one := oneRegisterOps[m]
	return alu || shift || one
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}

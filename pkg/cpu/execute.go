package cpu

import "fmt"

// execute runs a decoded instruction. PC already points at the next
// instruction. It returns whether the framebuffer changed.
func (c *CPU) execute(ins Instruction) (bool, error) {
	x, y := ins.X, ins.Y

	switch ins.Op {
	case OpUnknown, OpSYS:
		// No operation.

	case OpCLS:
		return c.Display.Clear(), nil

	case OpRET:
		addr, err := c.pop()
		if err != nil {
			return false, err
		}
		c.PC = addr

	case OpJP:
		c.PC = ins.NNN

	case OpCALL:
		if err := c.push(c.PC); err != nil {
			return false, err
		}
		c.PC = ins.NNN

	case OpSEImm:
		c.skipIf(c.V[x] == ins.NN)

	case OpSNEImm:
		c.skipIf(c.V[x] != ins.NN)

	case OpSEReg:
		c.skipIf(c.V[x] == c.V[y])

	case OpLDImm:
		c.V[x] = ins.NN

	case OpADDImm:
		c.V[x] += ins.NN

	case OpLDReg:
		c.V[x] = c.V[y]

	case OpOR:
		c.V[x] |= c.V[y]

	case OpAND:
		c.V[x] &= c.V[y]

	case OpXOR:
		c.V[x] ^= c.V[y]

	case OpADDReg:
		sum := uint16(c.V[x]) + uint16(c.V[y])
		c.V[x] = byte(sum)
		c.V[RegFlag] = boolByte(sum > 0xFF)

	case OpSUB:
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vx - vy
		c.V[RegFlag] = boolByte(vx > vy)

	case OpSHR:
		src := c.shiftSource(x, y)
		c.V[x] = src >> 1
		c.V[RegFlag] = src & 1

	case OpSUBN:
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vy - vx
		c.V[RegFlag] = boolByte(vy > vx)

	case OpSHL:
		src := c.shiftSource(x, y)
		c.V[x] = src << 1
		c.V[RegFlag] = (src >> 7) & 1

	case OpSNEReg:
		c.skipIf(c.V[x] != c.V[y])

	case OpLDI:
		c.I = ins.NNN

	case OpJPV0:
		target := ins.NNN + uint16(c.V[0])
		if target > MaxAddress {
			return false, fmt.Errorf("%w: jump to 0x%04X", ErrAddressOutOfRange, target)
		}
		c.PC = target

	case OpRND:
		c.V[x] = c.Rand() & ins.NN

	case OpDRW:
		rows, err := c.Slice(c.I, int(ins.N))
		if err != nil {
			return false, err
		}
		collision, changed := c.Display.DrawSprite(int(c.V[x]), int(c.V[y]), rows)
		c.V[RegFlag] = boolByte(collision)
		return changed, nil

	case OpSKP:
		c.skipIf(c.keys[c.V[x]&0xF])

	case OpSKNP:
		c.skipIf(!c.keys[c.V[x]&0xF])

	case OpLDVxDT:
		c.V[x] = c.DelayTimer

	case OpLDVxK:
		key, ok := c.firstHeldKey()
		if !ok {
			c.PC -= 2
			return false, nil
		}
		c.V[x] = key

	case OpLDDTVx:
		c.setDelay(c.V[x])

	case OpLDSTVx:
		c.SoundTimer = c.V[x]

	case OpADDI:
		sum := c.I + uint16(c.V[x])
		if sum > MaxAddress {
			if !c.Quirks.IndexOverflowFlag {
				return false, fmt.Errorf("%w: I=0x%04X", ErrAddressOutOfRange, sum)
			}
			c.I = sum & MaxAddress
			c.V[RegFlag] = 1
			break
		}
		c.I = sum
		if c.Quirks.IndexOverflowFlag {
			c.V[RegFlag] = 0
		}

	case OpLDF:
		c.I = GlyphAddress(c.V[x])

	case OpLDB:
		dst, err := c.Slice(c.I, 3)
		if err != nil {
			return false, err
		}
		v := c.V[x]
		dst[0] = v / 100
		dst[1] = (v / 10) % 10
		dst[2] = v % 10

	case OpLDIVx:
		dst, err := c.Slice(c.I, int(x)+1)
		if err != nil {
			return false, err
		}
		copy(dst, c.V[:x+1])

	case OpLDVxI:
		src, err := c.Slice(c.I, int(x)+1)
		if err != nil {
			return false, err
		}
		copy(c.V[:x+1], src)
	}

	return false, nil
}

func (c *CPU) skipIf(cond bool) {
	if cond {
		c.PC += 2
	}
}

func (c *CPU) shiftSource(x, y uint8) byte {
	if c.Quirks.ShiftUsesVY {
		return c.V[y]
	}
	return c.V[x]
}

func (c *CPU) firstHeldKey() (byte, bool) {
	for k, held := range c.keys {
		if held {
			return byte(k), true
		}
	}
	return 0, false
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

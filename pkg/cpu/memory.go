package cpu

import "fmt"

// checkRange reports an error unless [addr, addr+n) lies inside memory.
func checkRange(addr uint16, n int) error {
	if n < 0 || int(addr)+n > MemorySize {
		return fmt.Errorf("%w: 0x%04X+%d", ErrAddressOutOfRange, addr, n)
	}
	return nil
}

// fetch reads the big-endian instruction word at PC.
func (c *CPU) fetch() (uint16, error) {
	if err := checkRange(c.PC, 2); err != nil {
		return 0, err
	}
	return uint16(c.Memory[c.PC])<<8 | uint16(c.Memory[c.PC+1]), nil
}

// ReadByte returns the byte at addr.
func (c *CPU) ReadByte(addr uint16) (byte, error) {
	if err := checkRange(addr, 1); err != nil {
		return 0, err
	}
	return c.Memory[addr], nil
}

// Slice returns n bytes of memory starting at addr. The slice aliases memory.
func (c *CPU) Slice(addr uint16, n int) ([]byte, error) {
	if err := checkRange(addr, n); err != nil {
		return nil, err
	}
	return c.Memory[addr : int(addr)+n], nil
}

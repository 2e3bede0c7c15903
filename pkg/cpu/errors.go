package cpu

import (
	"errors"
	"fmt"
)

var (
	ErrStackOverflow     = errors.New("call stack overflow")
	ErrStackUnderflow    = errors.New("return with empty call stack")
	ErrAddressOutOfRange = errors.New("address out of range")
	ErrProgramTooLarge   = errors.New("program too large for memory")
)

// Fault is a fatal execution error. It records where execution stopped and
// wraps one of the sentinel errors above.
type Fault struct {
	PC          uint16
	Instruction Instruction
	Err         error
}

func (f *Fault) Error() string {
	if f.Instruction.Op == OpUnknown {
		return fmt.Sprintf("fault at 0x%03X: %v", f.PC, f.Err)
	}
	return fmt.Sprintf("fault at 0x%03X (%04X %s): %v", f.PC, f.Instruction.Raw, f.Instruction, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

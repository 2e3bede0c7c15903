package cpu

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	MemorySize   = 4096
	ProgramStart = 0x200
	FontStart    = 0x050
	// MaxProgramSize is the space between ProgramStart and the end of memory.
	MaxProgramSize = MemorySize - ProgramStart
	MaxAddress     = MemorySize - 1

	StackDepth = 16
	KeyCount   = 16
	RegFlag    = 0xF

	// TimerPeriod is the real-time interval between timer decrements (60Hz).
	TimerPeriod = time.Second / 60
)

// Keypad is the held/released state of the 16 CHIP-8 keys for one cycle,
// indexed by key code 0x0-0xF.
type Keypad [KeyCount]bool

// Quirks selects between the interpretations CHIP-8 implementations disagree
// on. The zero value gives the modern behavior.
type Quirks struct {
	// ShiftUsesVY makes 8xy6/8xyE shift Vy into Vx, as on the COSMAC VIP.
	ShiftUsesVY bool
	// IndexOverflowFlag makes Fx1E set VF when I passes 0xFFF and wrap I to
	// 12 bits. Without it the overflow is a fatal fault.
	IndexOverflowFlag bool
}

type CPU struct {
	Memory [MemorySize]byte
	V      [16]byte
	I      uint16
	PC     uint16

	Stack [StackDepth]uint16
	SP    uint8

	DelayTimer byte
	SoundTimer byte

	Display Framebuffer

	Quirks Quirks

	// Halted is set once a fatal fault occurs. Fault holds the cause.
	Halted bool
	Fault  error

	// Now and Rand are the clock and entropy collaborators.
	Now  func() time.Time
	Rand func() byte

	keys     Keypad
	lastTick time.Time
	program  []byte
}

// Option configures a CPU built by NewCPU.
type Option func(*CPU)

func WithQuirks(q Quirks) Option {
	return func(c *CPU) { c.Quirks = q }
}

// WithClock replaces the wall clock used by the timers.
func WithClock(now func() time.Time) Option {
	return func(c *CPU) { c.Now = now }
}

// WithRand replaces the random byte source used by Cxkk.
func WithRand(r func() byte) Option {
	return func(c *CPU) { c.Rand = r }
}

func randomByte() byte {
	return byte(rand.Uint32())
}

// NewCPU returns a CPU in its power-on state: font resident at FontStart,
// everything else zeroed and PC at ProgramStart.
func NewCPU(opts ...Option) *CPU {
	c := &CPU{
		Now:  time.Now,
		Rand: randomByte,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.powerOn()
	return c
}

func (c *CPU) powerOn() {
	c.Memory = [MemorySize]byte{}
	copy(c.Memory[FontStart:], fontSet[:])
	c.V = [16]byte{}
	c.I = 0
	c.PC = ProgramStart
	c.Stack = [StackDepth]uint16{}
	c.SP = 0
	c.DelayTimer = 0
	c.SoundTimer = 0
	c.Display.Clear()
	c.Halted = false
	c.Fault = nil
	c.keys = Keypad{}
	c.lastTick = c.Now()
}

// LoadProgram copies a cartridge image into memory at ProgramStart. Images
// larger than MaxProgramSize are rejected and leave memory untouched.
func (c *CPU) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes > %d bytes", ErrProgramTooLarge, len(program), MaxProgramSize)
	}
	c.program = append(c.program[:0], program...)
	copy(c.Memory[ProgramStart:], program)
	return nil
}

// Reset returns the CPU to its power-on state and reloads the last program.
func (c *CPU) Reset() {
	c.powerOn()
	copy(c.Memory[ProgramStart:], c.program)
}

// Cycle executes one instruction with the given key state, then advances the
// timers against the clock. redraw reports whether the framebuffer changed.
func (c *CPU) Cycle(keys Keypad) (redraw bool, err error) {
	if c.Halted {
		return false, c.Fault
	}
	c.keys = keys

	redraw, err = c.Step()
	if err != nil {
		return redraw, err
	}

	c.TickTimers(c.Now())
	return redraw, nil
}

// Step fetches, decodes and executes a single instruction without touching
// the timers. A fault halts the CPU.
func (c *CPU) Step() (redraw bool, err error) {
	if c.Halted {
		return false, c.Fault
	}

	pc := c.PC
	word, err := c.fetch()
	if err != nil {
		return false, c.halt(pc, Instruction{}, err)
	}

	ins := Decode(word)
	c.PC += 2

	redraw, err = c.execute(ins)
	if err != nil {
		c.PC = pc
		return false, c.halt(pc, ins, err)
	}
	return redraw, nil
}

// Run executes up to n cycles with a fixed key state. It stops early on a
// fault. The returned count is the number of cycles that completed.
func (c *CPU) Run(n int, keys Keypad) (int, error) {
	for i := 0; i < n; i++ {
		if _, err := c.Cycle(keys); err != nil {
			return i, err
		}
	}
	return n, nil
}

// Keys returns the key state presented to the current cycle.
func (c *CPU) Keys() Keypad {
	return c.keys
}

func (c *CPU) halt(pc uint16, ins Instruction, err error) error {
	c.Halted = true
	c.Fault = &Fault{PC: pc, Instruction: ins, Err: err}
	return c.Fault
}

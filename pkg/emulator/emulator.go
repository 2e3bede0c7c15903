package emulator

import (
	"context"
	"errors"
	"time"

	"gochip8/pkg/cpu"
	"gochip8/pkg/logger"
)

const (
	FrameRate   = 60
	FramePeriod = time.Second / FrameRate

	// DefaultCyclesPerFrame gives roughly 600 instructions per second.
	DefaultCyclesPerFrame = 10
)

// ErrNoProgram is returned by New when given an empty image.
var ErrNoProgram = errors.New("no program to run")

type Options struct {
	CyclesPerFrame int
	Quirks         cpu.Quirks
	Palette        cpu.Palette
	Scale          int

	// Quiet suppresses entries in the central log.
	Quiet bool

	// Clock and Rand are passed to the CPU when set.
	Clock func() time.Time
	Rand  func() byte
}

func DefaultOptions() Options {
	return Options{
		CyclesPerFrame: DefaultCyclesPerFrame,
		Palette:        cpu.DefaultPalette,
		Scale:          10,
	}
}

// Stats is a snapshot of the machine's progress.
type Stats struct {
	Frames uint64
	Cycles uint64
	Paused bool
	Halted bool
}

// Machine owns a CPU and paces it in frames of CyclesPerFrame cycles. All
// methods must be called from one goroutine.
type Machine struct {
	CPU *cpu.CPU

	opts   Options
	paused bool
	frames uint64
	cycles uint64
	err    error
}

func New(program []byte, opts Options) (*Machine, error) {
	if len(program) == 0 {
		return nil, ErrNoProgram
	}
	if opts.CyclesPerFrame <= 0 {
		opts.CyclesPerFrame = DefaultCyclesPerFrame
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Palette == (cpu.Palette{}) {
		opts.Palette = cpu.DefaultPalette
	}

	cpuOpts := []cpu.Option{cpu.WithQuirks(opts.Quirks)}
	if opts.Clock != nil {
		cpuOpts = append(cpuOpts, cpu.WithClock(opts.Clock))
	}
	if opts.Rand != nil {
		cpuOpts = append(cpuOpts, cpu.WithRand(opts.Rand))
	}

	m := &Machine{
		CPU:  cpu.NewCPU(cpuOpts...),
		opts: opts,
	}
	if err := m.CPU.LoadProgram(program); err != nil {
		return nil, err
	}
	logger.Logf(m, "emulator", "loaded %d byte program, %d cycles per frame", len(program), opts.CyclesPerFrame)
	return m, nil
}

// AllowLogging implements logger.Permission.
func (m *Machine) AllowLogging() bool {
	return !m.opts.Quiet
}

func (m *Machine) Options() Options {
	return m.opts
}

// Frame runs one frame's worth of cycles with the given key state. It
// reports whether the framebuffer changed during the frame. Once the CPU
// faults every later call returns the same error.
func (m *Machine) Frame(keys cpu.Keypad) (redraw bool, err error) {
	if m.err != nil {
		return false, m.err
	}
	if m.paused {
		return false, nil
	}

	for i := 0; i < m.opts.CyclesPerFrame; i++ {
		r, err := m.CPU.Cycle(keys)
		if r {
			redraw = true
		}
		if err != nil {
			m.err = err
			logger.Logf(m, "cpu", "%v", err)
			return redraw, err
		}
		m.cycles++
	}
	m.frames++
	return redraw, nil
}

// Run drives Frame from a ticker at FrameRate until ctx is done or the CPU
// faults. keys is polled once per frame. present, if not nil, receives the
// framebuffer on the first frame and whenever it changes.
func (m *Machine) Run(ctx context.Context, keys func() cpu.Keypad, present func(cpu.Framebuffer)) error {
	ticker := time.NewTicker(FramePeriod)
	defer ticker.Stop()

	first := true
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			var k cpu.Keypad
			if keys != nil {
				k = keys()
			}
			redraw, err := m.Frame(k)
			if present != nil && (redraw || first) {
				present(m.CPU.Display)
				first = false
			}
			if err != nil {
				return err
			}
		}
	}
}

func (m *Machine) SetPaused(paused bool) {
	if m.paused == paused {
		return
	}
	m.paused = paused
	if paused {
		logger.Log(m, "emulator", "paused")
	} else {
		logger.Log(m, "emulator", "resumed")
	}
}

func (m *Machine) TogglePause() {
	m.SetPaused(!m.paused)
}

func (m *Machine) Paused() bool {
	return m.paused
}

// Reset restarts the loaded program and clears any latched fault.
func (m *Machine) Reset() {
	m.CPU.Reset()
	m.err = nil
	m.frames = 0
	m.cycles = 0
	logger.Log(m, "emulator", "reset")
}

// Err returns the fault that stopped the machine, if any.
func (m *Machine) Err() error {
	return m.err
}

func (m *Machine) Stats() Stats {
	return Stats{
		Frames: m.frames,
		Cycles: m.cycles,
		Paused: m.paused,
		Halted: m.CPU.Halted,
	}
}

// Screenshot writes the current framebuffer as a PNG using the configured
// palette and scale.
func (m *Machine) Screenshot(filename string) error {
	if err := m.CPU.Display.SaveScreenshot(filename, m.opts.Palette, m.opts.Scale); err != nil {
		return err
	}
	logger.Logf(m, "emulator", "screenshot saved to %s", filename)
	return nil
}

package main

import (
	"testing"
	"time"

	"gochip8/pkg/asm"
	"gochip8/pkg/cpu"
	"gochip8/pkg/emulator"
)

func TestAssemblerAndMachine(t *testing.T) {
	// 1. Define the source: fib(10) through a subroutine, then print it
	// as three font digits.
	source := `
	LD V0, 0
	LD V1, 1
	LD V2, 10
loop:
	SE V2, 0
	JP step
	JP done
step:
	CALL fib_step
	ADD V2, 0xFF
	JP loop

fib_step:
	LD V3, V0
	ADD V3, V1
	LD V0, V1
	LD V1, V3
	RET

done:
	LD I, digits
	LD B, V0
	LD V2, [I]
	LD V4, 0
	LD V5, 0
	LD F, V0
	DRW V4, V5, 5
	ADD V4, 5
	LD F, V1
	DRW V4, V5, 5
	ADD V4, 5
	LD F, V2
	DRW V4, V5, 5
halt:
	JP halt

digits:
	DB 0, 0, 0
`

	// 2. Assemble
	a := asm.NewAssembler()
	machineCode, _, err := a.Assemble(source)
	if err != nil {
		t.Fatalf("Assembly failed: %v", err)
	}
	haltAddr, ok := a.Label("halt")
	if !ok {
		t.Fatal("halt label missing")
	}

	// 3. Instantiate the machine with a frozen clock
	opts := emulator.DefaultOptions()
	opts.Quiet = true
	frozen := time.Unix(0, 0)
	opts.Clock = func() time.Time { return frozen }
	m, err := emulator.New(machineCode, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// 4. Run frames until the program parks on its halt loop
	redrawn := false
	for frame := 0; frame < 100 && m.CPU.PC != haltAddr; frame++ {
		redraw, err := m.Frame(cpu.Keypad{})
		if err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
		redrawn = redrawn || redraw
	}
	if m.CPU.PC != haltAddr {
		t.Fatalf("program did not reach halt, PC=0x%03X", m.CPU.PC)
	}

	// 5. Assertions

	// fib(10) = 55, read back as BCD digits.
	if m.CPU.V[0] != 0 || m.CPU.V[1] != 5 || m.CPU.V[2] != 5 {
		t.Errorf("expected digits 0 5 5, got %d %d %d", m.CPU.V[0], m.CPU.V[1], m.CPU.V[2])
	}

	// The call stack is fully unwound.
	if m.CPU.SP != 0 {
		t.Errorf("expected SP 0, got %d", m.CPU.SP)
	}

	// Glyphs 0 and 5 light 14 pixels each and do not overlap.
	if !redrawn {
		t.Error("expected a redraw")
	}
	if got := m.CPU.Display.LitCount(); got != 42 {
		t.Errorf("expected 42 lit pixels, got %d", got)
	}
	if m.CPU.V[cpu.RegFlag] != 0 {
		t.Errorf("expected no collision, VF=%d", m.CPU.V[cpu.RegFlag])
	}
}

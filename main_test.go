package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gochip8/pkg/asm"
	"gochip8/pkg/cartridge"
	"gochip8/pkg/cpu"
)

func writeCartridge(t *testing.T, source string) string {
	t.Helper()
	code, _, err := asm.Assemble(source)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "prog.ch8")
	if err := os.WriteFile(path, code, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultOutputPath(t *testing.T) {
	tests := map[string]string{
		"game.asm":       "game.ch8",
		"dir/game.s":     "dir/game.ch8",
		"noext":          "noext.ch8",
		"dir.v2/program": "dir.v2/program.ch8",
	}
	for in, want := range tests {
		if got := defaultOutputPath(in); got != want {
			t.Errorf("defaultOutputPath(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestRunCartridge(t *testing.T) {
	path := writeCartridge(t, `
	CLS
	LD VA, 0x2F
	LD F, VA
	DRW V0, V0, 5
self:
	JP self
`)

	var out strings.Builder
	if err := runCartridge(&out, path, 50, cpu.Quirks{}); err != nil {
		t.Fatalf("runCartridge: %v", err)
	}

	text := out.String()
	for _, want := range []string{"50 cycles", "PC=0x208", "VA=0x2F"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	// Glyph F starts with a full 4-pixel row.
	lines := strings.Split(text, "\n")
	var display []string
	for _, l := range lines {
		if len(l) == cpu.DisplayWidth && strings.Trim(l, "#.") == "" {
			display = append(display, l)
		}
	}
	if len(display) != cpu.DisplayHeight {
		t.Fatalf("expected %d display rows, got %d", cpu.DisplayHeight, len(display))
	}
	if !strings.HasPrefix(display[0], "####.") {
		t.Errorf("unexpected first row %q", display[0])
	}
}

func TestRunCartridgeFault(t *testing.T) {
	path := writeCartridge(t, "RET")

	var out strings.Builder
	err := runCartridge(&out, path, 10, cpu.Quirks{})
	if !errors.Is(err, cpu.ErrStackUnderflow) {
		t.Fatalf("expected stack underflow, got %v", err)
	}
	if !strings.Contains(out.String(), "0 cycles") {
		t.Errorf("state should still be printed:\n%s", out.String())
	}
}

func TestRunCartridgeEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.ch8")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	err := runCartridge(&strings.Builder{}, path, 10, cpu.Quirks{})
	if !errors.Is(err, cartridge.ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

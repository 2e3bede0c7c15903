package main

import (
	"strings"

	"gochip8/pkg/cpu"
	"gochip8/pkg/grid"
)

const (
	cursorHome  = "\x1b[H"
	clearScreen = "\x1b[2J"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
)

// halfBlocks is indexed by top | bottom<<1.
var halfBlocks = [4]string{" ", "▀", "▄", "█"}

// render draws the framebuffer with one character cell per two pixel rows.
// Lines end in CRLF since the terminal is in raw mode.
func render(fb *cpu.Framebuffer) string {
	var sb strings.Builder
	sb.Grow(cpu.DisplayWidth*cpu.DisplayHeight*2 + len(cursorHome))
	sb.WriteString(cursorHome)

	for row := 0; row < cpu.DisplayHeight; row += 2 {
		for x := 0; x < cpu.DisplayWidth; x++ {
			cell := 0
			if fb.Pixels[grid.Index(x, row, cpu.DisplayWidth)] {
				cell |= 1
			}
			if fb.Pixels[grid.Index(x, row+1, cpu.DisplayWidth)] {
				cell |= 2
			}
			sb.WriteString(halfBlocks[cell])
		}
		sb.WriteString("\r\n")
	}
	return sb.String()
}

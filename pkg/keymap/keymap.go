// Package keymap translates host keys into the sixteen CHIP-8 key codes.
//
// The standard layout maps the left-hand 4x4 block of a QWERTY keyboard
// onto the COSMAC VIP hex keypad:
//
//	1 2 3 4        1 2 3 C
//	Q W E R   ->   4 5 6 D
//	A S D F        7 8 9 E
//	Z X C V        A 0 B F
package keymap

import (
	"sync"
	"time"
	"unicode"

	"gochip8/pkg/cpu"
)

// Layout maps upper-case host characters to CHIP-8 key codes.
type Layout map[rune]uint8

var QWERTY = Layout{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'Q': 0x4, 'W': 0x5, 'E': 0x6, 'R': 0xD,
	'A': 0x7, 'S': 0x8, 'D': 0x9, 'F': 0xE,
	'Z': 0xA, 'X': 0x0, 'C': 0xB, 'V': 0xF,
}

// Lookup returns the key code for r, ignoring case.
func (l Layout) Lookup(r rune) (uint8, bool) {
	k, ok := l[unicode.ToUpper(r)]
	return k, ok
}

// Keypad builds the key state for a set of held host characters. Characters
// outside the layout are ignored.
func (l Layout) Keypad(held ...rune) cpu.Keypad {
	var keys cpu.Keypad
	for _, r := range held {
		if k, ok := l.Lookup(r); ok {
			keys[k] = true
		}
	}
	return keys
}

// Latch turns key presses into held keys for a fixed duration. Terminals
// report presses and auto-repeat but never releases, so a key counts as held
// until Hold has passed since its last press.
type Latch struct {
	Hold time.Duration

	mu      sync.Mutex
	pressed [cpu.KeyCount]time.Time
}

func NewLatch(hold time.Duration) *Latch {
	return &Latch{Hold: hold}
}

func (l *Latch) Press(key uint8, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pressed[key&0xF] = now
}

// Keypad reports every key pressed within Hold of now.
func (l *Latch) Keypad(now time.Time) cpu.Keypad {
	l.mu.Lock()
	defer l.mu.Unlock()

	var keys cpu.Keypad
	for i, at := range l.pressed {
		if !at.IsZero() && now.Sub(at) < l.Hold {
			keys[i] = true
		}
	}
	return keys
}

// Release forgets all presses.
func (l *Latch) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pressed = [cpu.KeyCount]time.Time{}
}

package keymap

import (
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"

	"gochip8/pkg/cpu"
)

func TestQWERTYLayout(t *testing.T) {
	tests := []struct {
		host rune
		want uint8
	}{
		{'1', 0x1}, {'2', 0x2}, {'3', 0x3}, {'4', 0xC},
		{'q', 0x4}, {'w', 0x5}, {'e', 0x6}, {'r', 0xD},
		{'a', 0x7}, {'s', 0x8}, {'d', 0x9}, {'f', 0xE},
		{'z', 0xA}, {'x', 0x0}, {'c', 0xB}, {'v', 0xF},
		{'Q', 0x4}, {'V', 0xF},
	}

	for _, tc := range tests {
		got, ok := QWERTY.Lookup(tc.host)
		assert.Equal(t, true, ok)
		assert.Equal(t, tc.want, got)
	}
}

func TestLayoutCoversEveryKey(t *testing.T) {
	var seen [cpu.KeyCount]bool
	for _, k := range QWERTY {
		seen[k] = true
	}
	for k, ok := range seen {
		if !ok {
			t.Errorf("key 0x%X has no host binding", k)
		}
	}
}

func TestLookupUnmapped(t *testing.T) {
	for _, r := range []rune{'5', 'T', 'G', ' ', '\x1b'} {
		if _, ok := QWERTY.Lookup(r); ok {
			t.Errorf("%q should not be mapped", r)
		}
	}
}

func TestLayoutKeypad(t *testing.T) {
	keys := QWERTY.Keypad('x', 'V', '9')

	var want cpu.Keypad
	want[0x0] = true
	want[0xF] = true
	assert.Equal(t, want, keys)
}

func TestLatch(t *testing.T) {
	base := time.Unix(100, 0)
	l := NewLatch(100 * time.Millisecond)

	l.Press(0x5, base)
	l.Press(0x15, base.Add(50*time.Millisecond)) // masked to 0x5

	keys := l.Keypad(base.Add(120 * time.Millisecond))
	assert.Equal(t, true, keys[0x5])

	keys = l.Keypad(base.Add(160 * time.Millisecond))
	assert.Equal(t, false, keys[0x5])

	l.Press(0xA, base)
	l.Release()
	assert.Equal(t, cpu.Keypad{}, l.Keypad(base))
}

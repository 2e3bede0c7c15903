//go:build windows

package main

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// terminal reads raw stdin bytes and hands each one to onKey. Reads block,
// so Stop does not wait for the reader goroutine.
type terminal struct {
	onKey        func(byte)
	stopCh       chan struct{}
	stopped      sync.Once
	fd           int
	oldTermState *term.State
}

func newTerminal(onKey func(byte)) *terminal {
	return &terminal{
		onKey:  onKey,
		stopCh: make(chan struct{}),
	}
}

func (h *terminal) Start() error {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		return fmt.Errorf("setting raw mode: %w", err)
	}
	h.oldTermState = oldState

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			select {
			case <-h.stopCh:
				return
			default:
			}
			if n > 0 {
				h.onKey(buf[0])
			}
			if err != nil {
				return
			}
		}
	}()
	return nil
}

func (h *terminal) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}

package cartridge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gochip8/pkg/cpu"
)

var (
	ErrEmpty    = errors.New("cartridge is empty")
	ErrTooLarge = errors.New("cartridge is too large")
)

// Cartridge is a program image read from disk together with where it came
// from. Hosts use Dir for screenshots and Name for window titles.
type Cartridge struct {
	Path string
	Dir  string
	Name string
	Data []byte
}

// Open resolves path and reads the cartridge. Nothing is returned unless the
// image fits in program memory.
func Open(path string) (*Cartridge, error) {
	fullPath, dir, err := PathInfo(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading cartridge: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(fullPath), err)
	}

	base := filepath.Base(fullPath)
	return &Cartridge{
		Path: fullPath,
		Dir:  dir,
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
		Data: data,
	}, nil
}

// Load returns just the bytes of the cartridge at path.
func Load(path string) ([]byte, error) {
	c, err := Open(path)
	if err != nil {
		return nil, err
	}
	return c.Data, nil
}

// Validate checks that data can be loaded at cpu.ProgramStart.
func Validate(data []byte) error {
	if len(data) == 0 {
		return ErrEmpty
	}
	if len(data) > cpu.MaxProgramSize {
		return fmt.Errorf("%w: %d bytes > %d bytes", ErrTooLarge, len(data), cpu.MaxProgramSize)
	}
	return nil
}

// PathInfo returns the absolute form of relPath and its parent directory.
func PathInfo(relPath string) (fullPath string, parentDir string, err error) {
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}
	return fullPath, filepath.Dir(fullPath), nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retroenv/retrogolib/buildinfo"

	"gochip8/pkg/cartridge"
	"gochip8/pkg/cpu"
	"gochip8/pkg/emulator"
	"gochip8/pkg/keymap"
	"gochip8/pkg/logger"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1B

	// keyHold covers the gap before terminal auto-repeat kicks in.
	keyHold = 150 * time.Millisecond
)

type optionFlags struct {
	rom     string
	version bool
}

func readArguments(args []string) (optionFlags, emulator.Options, error) {
	flags := flag.NewFlagSet("console", flag.ContinueOnError)
	options := optionFlags{}
	machineOpts := emulator.DefaultOptions()

	emulator.RegisterFlags(flags, &machineOpts)
	flags.BoolVar(&options.version, "version", false, "print version and exit")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: console [options] <rom.ch8>\n\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return options, machineOpts, err
	}
	if options.version {
		return options, machineOpts, nil
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return options, machineOpts, errUsage
	}
	options.rom = flags.Arg(0)
	return options, machineOpts, nil
}

var errUsage = errors.New("a path to a .ch8 file must be provided")

// keyHandler routes raw stdin bytes: quit keys cancel, mapped keys latch.
func keyHandler(latch *keymap.Latch, now func() time.Time, quit context.CancelFunc) func(byte) {
	return func(b byte) {
		switch b {
		case keyCtrlC, keyEscape:
			quit()
			return
		}
		if k, ok := keymap.QWERTY.Lookup(rune(b)); ok {
			latch.Press(k, now())
		}
	}
}

func main() {
	options, machineOpts, err := readArguments(os.Args[1:])
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}
	if options.version {
		fmt.Printf("version: %s\n", buildinfo.Version(version, commit, date))
		return
	}

	cart, err := cartridge.Open(options.rom)
	if err != nil {
		log.Fatalf("Failed to load cartridge: %v", err)
	}
	logger.Logf(logger.Allow, "console", "cartridge %s (%d bytes)", cart.Path, len(cart.Data))

	m, err := emulator.New(cart.Data, machineOpts)
	if err != nil {
		log.Fatalf("Failed to start machine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	latch := keymap.NewLatch(keyHold)
	term := newTerminal(keyHandler(latch, time.Now, quit))
	if err := term.Start(); err != nil {
		log.Fatalf("Failed to prepare terminal: %v", err)
	}

	fmt.Print(hideCursor, clearScreen)
	runErr := m.Run(ctx,
		func() cpu.Keypad { return latch.Keypad(time.Now()) },
		func(fb cpu.Framebuffer) { fmt.Print(render(&fb)) },
	)
	term.Stop()
	fmt.Print(showCursor)

	if runErr != nil {
		logger.Tail(os.Stderr, 10)
		log.Fatal(runErr)
	}
}

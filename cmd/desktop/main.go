package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/retroenv/retrogolib/buildinfo"
	"golang.org/x/image/font/basicfont"

	"gochip8/pkg/cartridge"
	"gochip8/pkg/cpu"
	"gochip8/pkg/emulator"
	"gochip8/pkg/keymap"
	"gochip8/pkg/logger"
	"gochip8/pkg/statsview"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// hostKeys binds physical keys to the characters of keymap.QWERTY.
var hostKeys = map[ebiten.Key]rune{
	ebiten.Key1: '1', ebiten.Key2: '2', ebiten.Key3: '3', ebiten.Key4: '4',
	ebiten.KeyQ: 'Q', ebiten.KeyW: 'W', ebiten.KeyE: 'E', ebiten.KeyR: 'R',
	ebiten.KeyA: 'A', ebiten.KeyS: 'S', ebiten.KeyD: 'D', ebiten.KeyF: 'F',
	ebiten.KeyZ: 'Z', ebiten.KeyX: 'X', ebiten.KeyC: 'C', ebiten.KeyV: 'V',
}

var overlayColor = color.RGBA{R: 0xFF, G: 0xC0, B: 0x40, A: 0xFF}

const statusDuration = 2 * time.Second

type Game struct {
	machine *emulator.Machine
	cart    *cartridge.Cartridge
	palette cpu.Palette
	scale   int

	screenImg *ebiten.Image // reused 64×32 canvas

	status      string
	statusUntil time.Time
}

func newGame(m *emulator.Machine, cart *cartridge.Cartridge) *Game {
	opts := m.Options()
	return &Game{
		machine: m,
		cart:    cart,
		palette: opts.Palette,
		scale:   opts.Scale,
	}
}

// heldKeys reads the bound keys that are currently down.
func heldKeys(pressed func(ebiten.Key) bool) cpu.Keypad {
	held := make([]rune, 0, len(hostKeys))
	for k, r := range hostKeys {
		if pressed(k) {
			held = append(held, r)
		}
	}
	return keymap.QWERTY.Keypad(held...)
}

func (g *Game) setStatus(msg string) {
	g.status = msg
	g.statusUntil = time.Now().Add(statusDuration)
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.machine.TogglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.machine.Reset()
		g.setStatus("reset")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		path := screenshotPath(g.cart.Dir, g.cart.Name, time.Now())
		if err := g.machine.Screenshot(path); err != nil {
			logger.Logf(logger.Allow, "desktop", "screenshot failed: %v", err)
			g.setStatus("screenshot failed")
		} else {
			g.setStatus("saved " + filepath.Base(path))
		}
	}

	_, err := g.machine.Frame(heldKeys(ebiten.IsKeyPressed))
	return err
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screenImg == nil {
		g.screenImg = ebiten.NewImage(cpu.DisplayWidth, cpu.DisplayHeight)
	}

	g.screenImg.WritePixels(g.machine.CPU.Display.RGBA(g.palette))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.screenImg, op)

	face := basicfont.Face7x13
	if g.machine.Paused() {
		text.Draw(screen, "PAUSED  (P resume, F5 reset, F12 screenshot)", face, 8, 18, overlayColor)
	}
	if g.status != "" && time.Now().Before(g.statusUntil) {
		text.Draw(screen, g.status, face, 8, cpu.DisplayHeight*g.scale-8, overlayColor)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cpu.DisplayWidth * g.scale, cpu.DisplayHeight * g.scale
}

func screenshotPath(dir, name string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.png", name, at.Format("20060102_150405")))
}

type optionFlags struct {
	rom     string
	stats   bool
	statsAt string
	echoLog bool
	version bool
}

func readArguments(args []string) (optionFlags, emulator.Options, error) {
	flags := flag.NewFlagSet("desktop", flag.ContinueOnError)
	options := optionFlags{}
	machineOpts := emulator.DefaultOptions()

	emulator.RegisterFlags(flags, &machineOpts)
	flags.IntVar(&machineOpts.Scale, "scale", machineOpts.Scale, "window scale factor")
	flags.BoolVar(&options.stats, "stats", false, "serve runtime statistics (needs -tags statsview)")
	flags.StringVar(&options.statsAt, "stats-addr", statsview.DefaultAddress, "address for the runtime statistics server")
	flags.BoolVar(&options.echoLog, "log", false, "echo log entries to stderr")
	flags.BoolVar(&options.version, "version", false, "print version and exit")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: desktop [options] <rom.ch8>\n\n")
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

	if options.echoLog {
		logger.SetEcho(os.Stderr)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if options.stats {
		statsview.Serve(ctx, options.statsAt, os.Stdout)
	}

	cart, err := cartridge.Open(options.rom)
	if err != nil {
		log.Fatalf("Failed to load cartridge: %v", err)
	}
	logger.Logf(logger.Allow, "desktop", "cartridge %s (%d bytes)", cart.Path, len(cart.Data))

	m, err := emulator.New(cart.Data, machineOpts)
	if err != nil {
		log.Fatalf("Failed to start machine: %v", err)
	}

	g := newGame(m, cart)

	// the window follows the machine's normalised scale, not the raw flag
	ebiten.SetWindowSize(g.Layout(0, 0))
	ebiten.SetWindowTitle("gochip8 - " + cart.Name)
	ebiten.SetTPS(emulator.FrameRate)

	if err := ebiten.RunGame(g); err != nil {
		logger.Tail(os.Stderr, 10)
		log.Fatal(err)
	}
}

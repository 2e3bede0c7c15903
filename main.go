//go:build !js

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/buildinfo"

	"gochip8/pkg/asm"
	"gochip8/pkg/cartridge"
	"gochip8/pkg/cpu"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

const defaultCycles = 1000

func main() {
	inPath := flag.String("in", "", "input assembly file path")
	outPath := flag.String("out", "", "output cartridge path (default: input with .ch8 extension)")
	runProgram := flag.Bool("run", false, "run the assembled cartridge headless")
	runBinPath := flag.String("run-bin", "", "run an existing cartridge headless")
	cycles := flag.Int("cycles", defaultCycles, "number of cycles to run")
	vipShift := flag.Bool("vip-shift", false, "8xy6/8xyE shift Vy into Vx")
	indexFlag := flag.Bool("index-flag", false, "Fx1E sets VF and wraps I instead of faulting")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", buildinfo.Version(version, commit, date))
		return
	}

	if *runProgram && *runBinPath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-bin, not both")
		os.Exit(2)
	}

	assembledOutput := ""
	if *inPath != "" {
		source, err := os.ReadFile(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read input file %q: %v\n", *inPath, err)
			os.Exit(1)
		}

		code, _, err := asm.Assemble(string(source))
		if err != nil {
			fmt.Fprintf(os.Stderr, "assembly failed: %v\n", err)
			os.Exit(1)
		}

		output := *outPath
		if output == "" {
			output = defaultOutputPath(*inPath)
		}

		if err := os.WriteFile(output, code, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write cartridge %q: %v\n", output, err)
			os.Exit(1)
		}

		fmt.Printf("assembled %d bytes -> %s\n", len(code), output)
		assembledOutput = output
	}

	if *inPath == "" && *runBinPath == "" && !*runProgram {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to assemble, -run to run assembled output, or -run-bin <file> to run an existing cartridge")
		flag.Usage()
		os.Exit(2)
	}

	runTarget := ""
	switch {
	case *runBinPath != "":
		runTarget = *runBinPath
	case *runProgram:
		if assembledOutput == "" {
			fmt.Fprintln(os.Stderr, "-run requires -in, or use -run-bin <file>")
			os.Exit(2)
		}
		runTarget = assembledOutput
	default:
		return
	}

	quirks := cpu.Quirks{ShiftUsesVY: *vipShift, IndexOverflowFlag: *indexFlag}
	if err := runCartridge(os.Stdout, runTarget, *cycles, quirks); err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", runTarget, err)
		os.Exit(1)
	}
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".ch8"
	}
	return strings.TrimSuffix(inPath, ext) + ".ch8"
}

// runCartridge executes up to cycles instructions with no keys held and
// prints the final machine state and display. The state is printed even
// when the CPU faults.
func runCartridge(out io.Writer, path string, cycles int, quirks cpu.Quirks) error {
	data, err := cartridge.Load(path)
	if err != nil {
		return err
	}

	vm := cpu.NewCPU(cpu.WithQuirks(quirks))
	if err := vm.LoadProgram(data); err != nil {
		return err
	}

	ran, runErr := vm.Run(cycles, cpu.Keypad{})

	fmt.Fprintf(out, "run complete (%s): %d cycles\n", path, ran)
	printState(out, vm)
	printDisplay(out, &vm.Display)

	return runErr
}

func printState(out io.Writer, vm *cpu.CPU) {
	fmt.Fprintf(out, "PC=0x%03X I=0x%03X SP=%d DT=%d ST=%d\n", vm.PC, vm.I, vm.SP, vm.DelayTimer, vm.SoundTimer)
	for i, v := range vm.V {
		fmt.Fprintf(out, "V%X=0x%02X", i, v)
		if i%8 == 7 {
			fmt.Fprintln(out)
		} else {
			fmt.Fprint(out, " ")
		}
	}
}

func printDisplay(out io.Writer, fb *cpu.Framebuffer) {
	var sb strings.Builder
	for y := 0; y < cpu.DisplayHeight; y++ {
		for x := 0; x < cpu.DisplayWidth; x++ {
			if fb.Pixel(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	io.WriteString(out, sb.String())
}

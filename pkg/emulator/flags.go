package emulator

import (
	"flag"
)

// RegisterFlags binds the machine options shared by every host to flags.
func RegisterFlags(flags *flag.FlagSet, opts *Options) {
	flags.IntVar(&opts.CyclesPerFrame, "cycles", opts.CyclesPerFrame, "instructions executed per 60Hz frame")
	flags.BoolVar(&opts.Quirks.ShiftUsesVY, "vip-shift", opts.Quirks.ShiftUsesVY, "8xy6/8xyE shift Vy into Vx (COSMAC VIP behavior)")
	flags.BoolVar(&opts.Quirks.IndexOverflowFlag, "index-flag", opts.Quirks.IndexOverflowFlag, "Fx1E sets VF and wraps I instead of faulting")
	flags.BoolVar(&opts.Quiet, "q", opts.Quiet, "do not record machine events in the log")
}

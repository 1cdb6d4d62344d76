package main

import (
	"flag"
	"fmt"
	"strconv"
	"time"
)

// proverConfig is the resolved CLI configuration.
type proverConfig struct {
	ProgramPath  string
	EmulatorPath string
	ScriptGen    string

	OptionID   string
	OptionType string
	Strike     uint64 // US cents
	Spot       uint64 // US cents
	Quantity   uint64 // hundredths of a unit
	Expiry     time.Duration

	Algorithm string
	Interval  uint64
	Arity     uint64
	FeeRate   uint64

	Out      string
	Publish  bool
	Confirm  uint64
	LogLevel string
}

// flagSet wraps flag.FlagSet to add support for uint64 flags.
type flagSet struct {
	*flag.FlagSet
}

func newCustomFlagSet(name string) *flagSet {
	return &flagSet{FlagSet: flag.NewFlagSet(name, flag.ContinueOnError)}
}

// Uint64Var defines a uint64 flag. Go's standard flag package lacks uint64
// support, so we use a custom Value implementation.
func (fs *flagSet) Uint64Var(p *uint64, name string, value uint64, usage string) {
	fs.FlagSet.Var(&uint64Value{p: p}, name, usage)
	*p = value
}

// uint64Value implements flag.Value for uint64 flags.
type uint64Value struct {
	p *uint64
}

func (v *uint64Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatUint(*v.p, 10)
}

func (v *uint64Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid uint64 value %q", s)
	}
	*v.p = n
	return nil
}

// parseFlags parses args into a proverConfig. The second return is true when
// the process should exit immediately with the given code (help, version, or
// a parse error).
func parseFlags(args []string) (proverConfig, bool, int) {
	var cfg proverConfig
	fs := newCustomFlagSet("oraclevm-prover")

	fs.StringVar(&cfg.ProgramPath, "program", "", "RISC-V settlement program ELF")
	fs.StringVar(&cfg.EmulatorPath, "emulator", "bitvmx-cpu", "BitVMX emulator binary")
	fs.StringVar(&cfg.ScriptGen, "script-gen", "", "external verification-script generator (builtin template if empty)")

	fs.StringVar(&cfg.OptionID, "option-id", "", "option identifier string")
	fs.StringVar(&cfg.OptionType, "type", "call", "option type: call or put")
	fs.Uint64Var(&cfg.Strike, "strike-cents", 0, "strike price in US cents")
	fs.Uint64Var(&cfg.Spot, "spot-cents", 0, "spot price in US cents")
	fs.Uint64Var(&cfg.Quantity, "quantity", 100, "quantity in hundredths of a unit")
	fs.DurationVar(&cfg.Expiry, "expiry", 7*24*time.Hour, "time until option expiry")

	fs.StringVar(&cfg.Algorithm, "algorithm", "sha256", "trace hash algorithm: sha256 or blake2b-160")
	fs.Uint64Var(&cfg.Interval, "interval", 100, "checkpoint sampling interval")
	fs.Uint64Var(&cfg.Arity, "arity", 4, "bisection branching factor")
	fs.Uint64Var(&cfg.FeeRate, "fee-rate", 10, "fee rate in sats per vbyte for cost reporting")

	fs.StringVar(&cfg.Out, "out", "", "proof output file (stdout if empty)")
	fs.BoolVar(&cfg.Publish, "publish", false, "publish the anchor payload via Bitcoin Core RPC")
	fs.Uint64Var(&cfg.Confirm, "confirm", 0, "regtest blocks to mine after publishing")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level: debug, info, warn, error")

	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return cfg, true, 2
	}
	if *showVersion {
		fmt.Printf("oraclevm-prover %s (%s)\n", version, commit)
		return cfg, true, 0
	}
	return cfg, false, 0
}

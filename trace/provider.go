// provider.go abstracts the external RISC-V execution engine. The core only
// needs "run this program on these input bytes and hand back the per-step
// digest sequence plus the terminal state"; emulator location and invocation
// details are injected configuration, never protocol logic.
package trace

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/97woo/OracleVM/log"
)

// Execution is the result of one emulator run: the dense digest sequence and
// the terminal state derived from it.
type Execution struct {
	Digests []Digest
	Final   FinalState

	// ReportedSteps is the step count the emulator printed in its halt
	// message. The digest sequence length is authoritative; this is kept
	// only for diagnostics when the two disagree.
	ReportedSteps uint64
}

// Provider runs a program and returns its execution trace. Implementations
// must treat execution as deterministic: a failure is a hard abort of the
// proof attempt, never retried, since a second run of a broken environment
// would produce a non-comparable trace.
type Provider interface {
	Execute(ctx context.Context, input []byte) (*Execution, error)
}

// EmulatorConfig locates the BitVMX CPU emulator and the program image.
type EmulatorConfig struct {
	// EmulatorPath is the emulator binary.
	EmulatorPath string

	// ELFPath is the RISC-V program image to execute.
	ELFPath string
}

// Emulator is a Provider backed by the external BitVMX CPU emulator binary.
type Emulator struct {
	cfg EmulatorConfig
	log *log.Logger
}

// NewEmulator returns an emulator-backed Provider.
func NewEmulator(cfg EmulatorConfig, logger *log.Logger) (*Emulator, error) {
	if cfg.EmulatorPath == "" {
		return nil, fmt.Errorf("%w: emulator path not configured", ErrExternalTool)
	}
	if cfg.ELFPath == "" {
		return nil, fmt.Errorf("%w: program image not configured", ErrExternalTool)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Emulator{cfg: cfg, log: logger.Module("emulator")}, nil
}

// Execute runs the emulator in trace mode and parses its output.
func (e *Emulator) Execute(ctx context.Context, input []byte) (*Execution, error) {
	args := []string{
		"execute",
		"--elf", e.cfg.ELFPath,
		"--input", hex.EncodeToString(input),
		"--trace",
		"--checkpoints",
		"--stdout",
	}
	cmd := exec.CommandContext(ctx, e.cfg.EmulatorPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.log.Debug("running emulator", "elf", e.cfg.ELFPath, "input_bytes", len(input))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: emulator: %v: %s", ErrExternalTool, err, stderr.String())
	}

	// The emulator splits its output across stdout and stderr.
	res, err := ParseEmulatorOutput(stdout.String() + "\n" + stderr.String())
	if err != nil {
		return nil, err
	}
	if res.ReportedSteps != res.Final.TotalSteps {
		e.log.Warn("halt step count disagrees with trace length",
			"reported", res.ReportedSteps, "trace", res.Final.TotalSteps)
	}
	e.log.Info("execution complete",
		"steps", res.Final.TotalSteps, "return_value", res.Final.ReturnValue)
	return res, nil
}

// ParseEmulatorOutput parses the emulator transcript. Trace lines have the
// form "pc;reg0;...;regN;hash" with the step digest in the last field; the
// halt line has the form "Halt(value, steps)". The number of trace lines is
// the authoritative step count.
func ParseEmulatorOutput(out string) (*Execution, error) {
	var (
		digests  []Digest
		haltSeen bool
		payout   uint64
		reported uint64
	)

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Halt("):
			v, s, err := parseHaltLine(line)
			if err != nil {
				return nil, err
			}
			payout, reported, haltSeen = v, s, true
		case strings.Contains(line, ";") && !strings.HasPrefix(line, "Hello"):
			fields := strings.Split(line, ";")
			if len(fields) < 14 {
				continue // register dump or partial line, not a trace record
			}
			d, err := hex.DecodeString(strings.TrimSpace(fields[len(fields)-1]))
			if err != nil {
				return nil, fmt.Errorf("%w: bad trace digest %q", ErrExternalTool, fields[len(fields)-1])
			}
			digests = append(digests, d)
		}
	}

	if !haltSeen {
		return nil, fmt.Errorf("%w: no halt record in emulator output", ErrExternalTool)
	}
	if len(digests) == 0 {
		return nil, fmt.Errorf("%w: no trace records in emulator output", ErrExternalTool)
	}

	n := uint64(len(digests))
	return &Execution{
		Digests: digests,
		Final: FinalState{
			ReturnValue: payout,
			TotalSteps:  n,
			HaltMarker:  HaltNormal,
			FinalDigest: digests[n-1],
		},
		ReportedSteps: reported,
	}, nil
}

// parseHaltLine parses "Halt(value, steps)".
func parseHaltLine(line string) (value, steps uint64, err error) {
	body := strings.TrimPrefix(line, "Halt(")
	body = strings.TrimSuffix(strings.TrimSpace(body), ")")
	parts := strings.SplitN(body, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: malformed halt record %q", ErrExternalTool, line)
	}
	value, err = strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: malformed halt value in %q", ErrExternalTool, line)
	}
	steps, err = strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: malformed halt steps in %q", ErrExternalTool, line)
	}
	return value, steps, nil
}

// Package trace models the per-step digest sequence produced by the BitVMX
// RISC-V emulator and the sparse checkpoints sampled from it for the
// challenge protocol.
//
// A trace is an ordered sequence of step digests, index 0..N-1, N >= 1.
// Everything here is immutable once built: a settlement attempt derives its
// checkpoints and commitments from a single execution run and never mutates
// them afterwards.
package trace

import (
	"errors"
	"fmt"
)

// Trace errors.
var (
	ErrEmptyTrace      = errors.New("trace: empty trace")
	ErrBadInterval     = errors.New("trace: checkpoint interval must be >= 1")
	ErrNonMonotonic    = errors.New("trace: checkpoint steps not strictly increasing")
	ErrMissingTerminal = errors.New("trace: terminal checkpoint missing")
	ErrExternalTool    = errors.New("trace: external tool failure")
)

// Digest is an opaque fixed-length step digest emitted by the execution
// engine. The width depends on the configured hash algorithm (20 or 32
// bytes); this package never interprets the bytes.
type Digest []byte

// Checkpoint binds a step index to its digest. Checkpoint lists are strictly
// increasing in Step and always end at the terminal step N-1.
type Checkpoint struct {
	Step   uint64 `json:"step"`
	Digest Digest `json:"hash"`
}

// SampleCheckpoints reduces a dense digest sequence to checkpoints at steps
// 0, k, 2k, ... plus, always, the terminal step N-1. When N-1 is itself a
// multiple of k it appears exactly once. N = len(digests) is the single
// source of truth for the trace length; a halt-reported step count is never
// consulted here.
func SampleCheckpoints(digests []Digest, interval uint64) ([]Checkpoint, error) {
	n := uint64(len(digests))
	if n == 0 {
		return nil, ErrEmptyTrace
	}
	if interval == 0 {
		return nil, ErrBadInterval
	}

	cps := make([]Checkpoint, 0, n/interval+2)
	for step := uint64(0); step < n; step += interval {
		cps = append(cps, Checkpoint{Step: step, Digest: digests[step]})
	}
	// Terminal checkpoint is an invariant of the sampler, not an afterthought.
	if cps[len(cps)-1].Step != n-1 {
		cps = append(cps, Checkpoint{Step: n - 1, Digest: digests[n-1]})
	}
	return cps, nil
}

// VerifyCheckpoints checks the checkpoint-list invariants against a trace of
// totalSteps steps: non-empty, strictly increasing step indices, all indices
// in range, and the last checkpoint at the terminal step.
func VerifyCheckpoints(cps []Checkpoint, totalSteps uint64) error {
	if totalSteps == 0 {
		return ErrEmptyTrace
	}
	if len(cps) == 0 {
		return ErrMissingTerminal
	}
	prev := cps[0].Step
	if prev > totalSteps-1 {
		return fmt.Errorf("%w: step %d beyond terminal %d", ErrNonMonotonic, prev, totalSteps-1)
	}
	for _, cp := range cps[1:] {
		if cp.Step <= prev {
			return fmt.Errorf("%w: %d after %d", ErrNonMonotonic, cp.Step, prev)
		}
		if cp.Step > totalSteps-1 {
			return fmt.Errorf("%w: step %d beyond terminal %d", ErrNonMonotonic, cp.Step, totalSteps-1)
		}
		prev = cp.Step
	}
	if prev != totalSteps-1 {
		return ErrMissingTerminal
	}
	return nil
}

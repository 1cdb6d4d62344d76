// Package challenge plans and tracks the interactive n-ary bisection
// protocol that narrows a disputed execution down to a single step.
//
// Each round, the party under challenge reveals the checkpoint digests at
// the cut points of the currently disputed segment, splitting it into arity
// sub-segments; the challenger then selects the sub-segment where the
// parties first disagree. After at most ceil(log_arity(N)) rounds the
// disputed segment is one step long and an external single-step replay
// settles the question.
//
// Rounds are strictly ordered: a reveal for round i+1 is meaningless until
// round i's selection is confirmed. Each move carries an on-chain deadline
// expressed as a block height; missing it is not an error to retry but a
// terminal default judgement against the silent party.
package challenge

import (
	"errors"
	"fmt"
	"math"

	"github.com/97woo/OracleVM/trace"
)

// Challenge errors.
var (
	ErrBadArity      = errors.New("challenge: arity must be >= 2")
	ErrBadTotalSteps = errors.New("challenge: total steps must be >= 1")
	ErrNoDispute     = errors.New("challenge: single-step trace needs no bisection")
	ErrOutOfTurn     = errors.New("challenge: move out of turn")
	ErrClosed        = errors.New("challenge: dispute already closed")
	ErrPastDeadline  = errors.New("challenge: move after round deadline")
	ErrBadReveal     = errors.New("challenge: reveal does not match cut points")
	ErrBadSegment    = errors.New("challenge: segment index out of range")
)

// Params are the inputs to bisection planning.
type Params struct {
	// TotalSteps is the trace length N, >= 1.
	TotalSteps uint64

	// Arity is the branching factor of each round, >= 2.
	Arity uint32
}

// Plan bounds the interactive protocol for a given trace length and arity.
type Plan struct {
	Params

	// MaxRounds is ceil(log_arity(TotalSteps)), 0 iff TotalSteps == 1.
	MaxRounds uint32
}

// NewPlan validates the parameters and computes the round bound.
func NewPlan(p Params) (*Plan, error) {
	if p.TotalSteps < 1 {
		return nil, ErrBadTotalSteps
	}
	if p.Arity < 2 {
		return nil, ErrBadArity
	}

	// Integer ceil(log_arity(TotalSteps)): grow a span by the arity until it
	// covers the trace. Exact, no float drift.
	var rounds uint32
	span := uint64(1)
	for span < p.TotalSteps {
		if span > math.MaxUint64/uint64(p.Arity) {
			rounds++
			break
		}
		span *= uint64(p.Arity)
		rounds++
	}
	return &Plan{Params: p, MaxRounds: rounds}, nil
}

// Boundaries returns the interior cut points that split the step segment
// [lo, hi] into up to arity sub-segments. Cut points are strictly between lo
// and hi; short segments yield fewer distinct cuts.
func Boundaries(lo, hi uint64, arity uint32) []uint64 {
	if hi <= lo {
		return nil
	}
	span := hi - lo
	cuts := make([]uint64, 0, arity-1)
	for i := uint32(1); i < arity; i++ {
		cut := lo + span*uint64(i)/uint64(arity)
		if cut <= lo || cut >= hi {
			continue
		}
		if len(cuts) > 0 && cuts[len(cuts)-1] == cut {
			continue
		}
		cuts = append(cuts, cut)
	}
	return cuts
}

// Party identifies a dispute participant.
type Party uint8

const (
	// PartyNone means the dispute has no winner yet.
	PartyNone Party = iota

	// PartyProver is the party whose execution claim is under challenge; it
	// must reveal checkpoints each round.
	PartyProver

	// PartyChallenger disputes the claim and selects sub-segments.
	PartyChallenger
)

// String returns the party name.
func (p Party) String() string {
	switch p {
	case PartyProver:
		return "prover"
	case PartyChallenger:
		return "challenger"
	default:
		return "none"
	}
}

type phase uint8

const (
	phaseReveal phase = iota
	phaseSelect
	phaseClosed
)

// Dispute tracks one bisection dispute through its rounds. It only orders
// moves and deadlines; confirmation of each move is the chain's business.
type Dispute struct {
	arity  uint32
	window uint64 // blocks allowed per move

	lo, hi   uint64 // currently disputed segment, inclusive step indices
	round    uint32
	phase    phase
	deadline uint64 // absolute block height for the pending move

	cuts    []uint64 // cut points awaiting or produced by the current reveal
	reveals []trace.Checkpoint

	converged    bool
	disputedStep uint64
	winner       Party
}

// NewDispute opens a dispute over the full trace [0, N-1]. window is the
// per-move deadline in blocks, startHeight the height at which the dispute
// opened.
func NewDispute(p Params, window, startHeight uint64) (*Dispute, error) {
	if _, err := NewPlan(p); err != nil {
		return nil, err
	}
	if p.TotalSteps == 1 {
		return nil, ErrNoDispute
	}
	d := &Dispute{
		arity:    p.Arity,
		window:   window,
		lo:       0,
		hi:       p.TotalSteps - 1,
		phase:    phaseReveal,
		deadline: startHeight + window,
	}
	d.cuts = Boundaries(d.lo, d.hi, d.arity)
	d.checkConvergence()
	return d, nil
}

// Segment returns the currently disputed inclusive step range.
func (d *Dispute) Segment() (lo, hi uint64) { return d.lo, d.hi }

// Round returns the number of completed rounds.
func (d *Dispute) Round() uint32 { return d.round }

// Converged reports whether the dispute has narrowed to a single step.
func (d *Dispute) Converged() bool { return d.converged }

// DisputedStep returns the step to replay. Only meaningful once Converged.
func (d *Dispute) DisputedStep() uint64 { return d.disputedStep }

// Winner returns the party that won by the counterpart's default, or
// PartyNone while the dispute is live or was settled by replay.
func (d *Dispute) Winner() Party { return d.winner }

// CutPoints returns the checkpoint steps the prover must reveal this round.
func (d *Dispute) CutPoints() []uint64 {
	out := make([]uint64, len(d.cuts))
	copy(out, d.cuts)
	return out
}

// Reveal records the prover's confirmed checkpoint reveal for the current
// round. The checkpoints must cover exactly the current cut points, in
// order. height is the confirmation height of the reveal transaction.
func (d *Dispute) Reveal(height uint64, cps []trace.Checkpoint) error {
	if d.phase == phaseClosed || d.converged {
		return ErrClosed
	}
	if d.phase != phaseReveal {
		return ErrOutOfTurn
	}
	if height > d.deadline {
		return ErrPastDeadline
	}
	if len(cps) != len(d.cuts) {
		return fmt.Errorf("%w: got %d checkpoints, want %d", ErrBadReveal, len(cps), len(d.cuts))
	}
	for i, cp := range cps {
		if cp.Step != d.cuts[i] {
			return fmt.Errorf("%w: checkpoint %d at step %d, want %d", ErrBadReveal, i, cp.Step, d.cuts[i])
		}
	}
	d.reveals = append([]trace.Checkpoint{}, cps...)
	d.phase = phaseSelect
	d.deadline = height + d.window
	return nil
}

// SelectSegment records the challenger's confirmed selection of the
// sub-segment where the parties disagree, narrowing the dispute. Segments
// are indexed left to right over [lo, cut_1, ..., cut_k, hi].
func (d *Dispute) SelectSegment(height uint64, idx uint32) error {
	if d.phase == phaseClosed || d.converged {
		return ErrClosed
	}
	if d.phase != phaseSelect {
		return ErrOutOfTurn
	}
	if height > d.deadline {
		return ErrPastDeadline
	}

	points := make([]uint64, 0, len(d.cuts)+2)
	points = append(points, d.lo)
	points = append(points, d.cuts...)
	points = append(points, d.hi)
	if uint64(idx) >= uint64(len(points)-1) {
		return ErrBadSegment
	}

	d.lo, d.hi = points[idx], points[idx+1]
	d.round++
	d.cuts = Boundaries(d.lo, d.hi, d.arity)
	d.reveals = nil
	d.phase = phaseReveal
	d.deadline = height + d.window
	d.checkConvergence()
	return nil
}

// ExpireAt closes the dispute by default judgement if the pending move's
// deadline has passed at the given height. The silent party forfeits: a
// missed reveal loses for the prover, a missed selection loses for the
// challenger. Returns the winner, or PartyNone if the dispute is still live.
func (d *Dispute) ExpireAt(height uint64) Party {
	if d.phase == phaseClosed || d.converged || height <= d.deadline {
		return PartyNone
	}
	switch d.phase {
	case phaseReveal:
		d.winner = PartyChallenger
	case phaseSelect:
		d.winner = PartyProver
	}
	d.phase = phaseClosed
	return d.winner
}

// checkConvergence closes the interactive phase once the disputed segment is
// one step long; the transition lo -> lo+1 is what the external single-step
// replay checks.
func (d *Dispute) checkConvergence() {
	if d.hi-d.lo <= 1 {
		d.converged = true
		d.disputedStep = d.lo
		d.phase = phaseClosed
	}
}

package proof

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/97woo/OracleVM/anchor"
	"github.com/97woo/OracleVM/challenge"
	"github.com/97woo/OracleVM/crypto"
	"github.com/97woo/OracleVM/log"
	"github.com/97woo/OracleVM/merkle"
	"github.com/97woo/OracleVM/metrics"
	"github.com/97woo/OracleVM/script"
	"github.com/97woo/OracleVM/trace"
)

// Builder errors.
var (
	ErrConfig  = errors.New("proof: invalid builder configuration")
	ErrProgram = errors.New("proof: cannot read program image")
)

// Config fixes the commitment parameters for every proof the builder
// produces. The hash algorithm is recorded in each proof so a verifier never
// has to guess which digest variant was used.
type Config struct {
	// Algorithm hashes trace commitments used during the challenge.
	Algorithm crypto.HashAlgorithm

	// CheckpointInterval is the sampling stride k.
	CheckpointInterval uint64

	// Arity is the bisection branching factor.
	Arity uint32

	// ProgramPath is the RISC-V settlement program image.
	ProgramPath string

	// FeeRate prices the verification script, sats per vbyte.
	FeeRate uint64
}

// Builder turns one option settlement run into a SettlementProof.
type Builder struct {
	cfg      Config
	provider trace.Provider
	gen      script.Generator
	logger   *log.Logger

	builds   *metrics.Counter
	failures *metrics.Counter
	steps    *metrics.Gauge
}

// NewBuilder validates the configuration and wires the two external
// collaborators: the execution engine and the script generator.
func NewBuilder(cfg Config, provider trace.Provider, gen script.Generator) (*Builder, error) {
	if !cfg.Algorithm.Valid() {
		return nil, fmt.Errorf("%w: unknown hash algorithm", ErrConfig)
	}
	if cfg.CheckpointInterval == 0 {
		return nil, fmt.Errorf("%w: zero checkpoint interval", ErrConfig)
	}
	if cfg.Arity < 2 {
		return nil, fmt.Errorf("%w: arity %d", ErrConfig, cfg.Arity)
	}
	if cfg.ProgramPath == "" {
		return nil, fmt.Errorf("%w: program path not set", ErrConfig)
	}
	if provider == nil || gen == nil {
		return nil, fmt.Errorf("%w: nil collaborator", ErrConfig)
	}
	reg := metrics.Default()
	return &Builder{
		cfg:      cfg,
		provider: provider,
		gen:      gen,
		logger:   log.Default().Module("proof"),
		builds:   reg.Counter("proof_builds_total"),
		failures: reg.Counter("proof_build_failures_total"),
		steps:    reg.Gauge("proof_last_trace_steps"),
	}, nil
}

// SettlementProof is the JSON proof document. It binds the program image,
// the execution commitments, the challenge plan, and the anchor payload for
// one settlement run.
type SettlementProof struct {
	OptionID      string    `json:"option_id"`
	GeneratedAt   time.Time `json:"generated_at"`
	HashAlgorithm string    `json:"hash_algorithm"`

	ProgramHash string `json:"program_hash"`
	TotalSteps  uint64 `json:"total_steps"`
	Payout      uint64 `json:"payout"`

	Checkpoints     []trace.Checkpoint `json:"checkpoints"`
	TraceRoot       string             `json:"trace_root"`
	AnchorRoot      string             `json:"anchor_root"`
	StateCommitment string             `json:"state_commitment"`
	FinalState      trace.FinalState   `json:"final_state"`

	MaxRounds  uint32      `json:"max_rounds"`
	ScriptCost script.Cost `json:"script_cost"`

	AnchorPayload string `json:"anchor_payload"`
}

// JSON renders the proof document.
func (p *SettlementProof) JSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Build runs the settlement program on the given option and assembles the
// proof. Any collaborator failure aborts the attempt; nothing is retried.
func (b *Builder) Build(ctx context.Context, optionID string, in OptionInput, expiry time.Time) (*SettlementProof, error) {
	p, err := b.build(ctx, optionID, in, expiry)
	if err != nil {
		b.failures.Inc()
		b.logger.Error("proof build failed", "option_id", optionID, "err", err)
		return nil, err
	}
	b.builds.Inc()
	b.steps.Set(int64(p.TotalSteps))
	b.logger.Info("proof built",
		"option_id", optionID,
		"steps", p.TotalSteps,
		"max_rounds", p.MaxRounds,
		"payout", p.Payout)
	return p, nil
}

func (b *Builder) build(ctx context.Context, optionID string, in OptionInput, expiry time.Time) (*SettlementProof, error) {
	input, err := in.Pack()
	if err != nil {
		return nil, err
	}

	elf, err := os.ReadFile(b.cfg.ProgramPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProgram, err)
	}
	programHash := crypto.SHA256.Sum(elf)

	res, err := b.provider.Execute(ctx, input)
	if err != nil {
		return nil, err
	}

	cps, err := trace.SampleCheckpoints(res.Digests, b.cfg.CheckpointInterval)
	if err != nil {
		return nil, err
	}

	traceRoot := merkle.Root(b.cfg.Algorithm, res.Digests)
	// The anchored digest is always the 32-byte root, whatever algorithm the
	// challenge rounds use.
	anchorRoot := traceRoot
	if b.cfg.Algorithm != crypto.SHA256 {
		anchorRoot = merkle.Root(crypto.SHA256, res.Digests)
	}

	plan, err := challenge.NewPlan(challenge.Params{
		TotalSteps: res.Final.TotalSteps,
		Arity:      b.cfg.Arity,
	})
	if err != nil {
		return nil, err
	}

	vs, err := b.gen.VerificationScript(ctx, len(input))
	if err != nil {
		return nil, err
	}

	var digest [anchor.TraceDigestSize]byte
	copy(digest[:], anchorRoot)
	payload := anchor.Payload{
		TxType:     anchor.TxSettle,
		OptionID:   anchor.DeriveOptionID(optionID),
		OptionType: in.OptionType,
		StrikeSats: in.StrikeSats(),
		ExpiryUnix: uint64(expiry.Unix()),
		Unit:       1.0,
	}
	encoded, err := payload.EncodeExtended(digest)
	if err != nil {
		return nil, err
	}

	return &SettlementProof{
		OptionID:        optionID,
		GeneratedAt:     time.Now().UTC(),
		HashAlgorithm:   b.cfg.Algorithm.String(),
		ProgramHash:     hex.EncodeToString(programHash),
		TotalSteps:      res.Final.TotalSteps,
		Payout:          res.Final.ReturnValue,
		Checkpoints:     cps,
		TraceRoot:       hex.EncodeToString(traceRoot),
		AnchorRoot:      hex.EncodeToString(anchorRoot),
		StateCommitment: hex.EncodeToString(res.Final.Commit()),
		FinalState:      res.Final,
		MaxRounds:       plan.MaxRounds,
		ScriptCost:      script.EstimateCost(vs, b.cfg.FeeRate),
		AnchorPayload:   hex.EncodeToString(encoded),
	}, nil
}

// Command oraclevm-prover runs the option-settlement program under the
// BitVMX emulator, assembles the settlement proof, and optionally anchors
// the resulting payload on Bitcoin.
//
// Usage:
//
//	oraclevm-prover --program settle.elf --option-id BTCCALL50000D_7 \
//	    --type call --strike-cents 5000000 --spot-cents 5200000 \
//	    --quantity 100 [--publish] [--out proof.json]
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/97woo/OracleVM/anchor"
	"github.com/97woo/OracleVM/chain"
	"github.com/97woo/OracleVM/crypto"
	"github.com/97woo/OracleVM/log"
	"github.com/97woo/OracleVM/proof"
	"github.com/97woo/OracleVM/script"
	"github.com/97woo/OracleVM/trace"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	log.SetDefault(log.New(level))
	logger := log.Default().Module("prover")

	if cfg.ProgramPath == "" || cfg.OptionID == "" || cfg.Strike == 0 {
		fmt.Fprintln(os.Stderr, "required: --program, --option-id, --strike-cents")
		return 2
	}

	alg, err := crypto.ParseHashAlgorithm(cfg.Algorithm)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	optType := anchor.Call
	switch cfg.OptionType {
	case "call":
	case "put":
		optType = anchor.Put
	default:
		fmt.Fprintf(os.Stderr, "unknown option type %q\n", cfg.OptionType)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := trace.NewEmulator(trace.EmulatorConfig{
		EmulatorPath: cfg.EmulatorPath,
		ELFPath:      cfg.ProgramPath,
	}, log.Default())
	if err != nil {
		logger.Error("emulator setup failed", "err", err)
		return 1
	}

	var gen script.Generator = script.HashLockGenerator{}
	if cfg.ScriptGen != "" {
		gen = &script.CommandGenerator{Path: cfg.ScriptGen}
	}

	builder, err := proof.NewBuilder(proof.Config{
		Algorithm:          alg,
		CheckpointInterval: cfg.Interval,
		Arity:              uint32(cfg.Arity),
		ProgramPath:        cfg.ProgramPath,
		FeeRate:            cfg.FeeRate,
	}, provider, gen)
	if err != nil {
		logger.Error("builder setup failed", "err", err)
		return 1
	}

	in := proof.OptionInput{
		OptionType:         optType,
		StrikeCents:        uint32(cfg.Strike),
		SpotCents:          uint32(cfg.Spot),
		QuantityHundredths: uint32(cfg.Quantity),
	}
	p, err := builder.Build(ctx, cfg.OptionID, in, time.Now().Add(cfg.Expiry))
	if err != nil {
		logger.Error("proof generation failed", "err", err)
		return 1
	}

	doc, err := p.JSON()
	if err != nil {
		logger.Error("encode proof", "err", err)
		return 1
	}
	if cfg.Out == "" {
		fmt.Println(string(doc))
	} else if err := os.WriteFile(cfg.Out, doc, 0o644); err != nil {
		logger.Error("write proof", "path", cfg.Out, "err", err)
		return 1
	}

	if !cfg.Publish {
		return 0
	}
	return publish(logger, p, cfg.Confirm)
}

// publish anchors the proof's payload through a Bitcoin Core wallet.
func publish(logger *log.Logger, p *proof.SettlementProof, confirm uint64) int {
	payload, err := hex.DecodeString(p.AnchorPayload)
	if err != nil {
		logger.Error("decode payload", "err", err)
		return 1
	}
	chainCfg, err := chain.ConfigFromEnv()
	if err != nil {
		logger.Error("chain config", "err", err)
		return 1
	}
	pub, err := chain.NewPublisher(chainCfg)
	if err != nil {
		logger.Error("connect to node", "err", err)
		return 1
	}
	defer pub.Close()

	txid, err := pub.PublishAnchor(payload)
	if err != nil {
		logger.Error("publish anchor", "err", err)
		return 1
	}
	fmt.Printf("anchored %s in %s\n", p.OptionID, txid)

	if confirm > 0 {
		if err := pub.Confirm(int64(confirm)); err != nil {
			logger.Error("confirm", "err", err)
			return 1
		}
	}
	return 0
}

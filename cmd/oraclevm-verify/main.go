// Command oraclevm-verify decodes an anchor payload, either from a hex
// string or from a confirmed Bitcoin transaction, and prints the decoded
// fields together with the advisory validation report.
//
// Exit codes: 0 decoded and clean, 1 decode/RPC failure, 2 bad usage,
// 3 decoded but with validation findings.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/97woo/OracleVM/anchor"
	"github.com/97woo/OracleVM/chain"
	"github.com/97woo/OracleVM/log"
)

// Build-time version info, overridable with ldflags.
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// verifyOutput is the JSON document printed for each verified payload.
type verifyOutput struct {
	TxType      string  `json:"tx_type"`
	OptionID    string  `json:"option_id"`
	OptionType  string  `json:"option_type"`
	StrikeSats  uint64  `json:"strike_sats"`
	ExpiryUnix  uint64  `json:"expiry_unix"`
	Expiry      string  `json:"expiry"`
	Unit        float32 `json:"unit"`
	TraceDigest string  `json:"trace_digest,omitempty"`

	Valid    bool             `json:"valid"`
	Findings []anchor.Finding `json:"findings,omitempty"`
}

func run(args []string) int {
	fs := flag.NewFlagSet("oraclevm-verify", flag.ContinueOnError)
	payloadHex := fs.String("payload", "", "anchor payload as hex (28 or 60 bytes)")
	txid := fs.String("txid", "", "read the payload from this confirmed transaction")
	price := fs.Uint64("btc-usd", 0, "reference BTC/USD price (built-in default if 0)")
	logLevel := fs.String("log-level", "warn", "log level: debug, info, warn, error")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Printf("oraclevm-verify %s (%s)\n", version, commit)
		return 0
	}

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	log.SetDefault(log.New(level))

	if (*payloadHex == "") == (*txid == "") {
		fmt.Fprintln(os.Stderr, "exactly one of --payload or --txid is required")
		return 2
	}

	var rec *anchor.Record
	if *payloadHex != "" {
		raw, err := hex.DecodeString(*payloadHex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "payload is not hex: %v\n", err)
			return 1
		}
		rec, err = anchor.Decode(raw)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	} else {
		rec, err = readFromChain(*txid)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	report := rec.Validate(anchor.RefParams{BTCUSD: *price, Now: time.Now()})
	out := verifyOutput{
		TxType:     rec.TxType.String(),
		OptionID:   hex.EncodeToString(rec.OptionID[:]),
		OptionType: rec.OptionType.String(),
		StrikeSats: rec.StrikeSats,
		ExpiryUnix: rec.ExpiryUnix,
		Expiry:     time.Unix(int64(rec.ExpiryUnix), 0).UTC().Format(time.RFC3339),
		Unit:       rec.Unit,
		Valid:      report.Valid(),
		Findings:   report.Findings,
	}
	if rec.IsExtended() {
		out.TraceDigest = hex.EncodeToString(rec.TraceDigest)
	}

	doc, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(string(doc))

	if !report.Valid() {
		return 3
	}
	return 0
}

// readFromChain fetches the anchor record from a confirmed transaction.
func readFromChain(txid string) (*anchor.Record, error) {
	cfg, err := chain.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	pub, err := chain.NewPublisher(cfg)
	if err != nil {
		return nil, err
	}
	defer pub.Close()
	return pub.ReadAnchor(txid)
}

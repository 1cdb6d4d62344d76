package chain

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"

	"github.com/97woo/OracleVM/anchor"
	"github.com/97woo/OracleVM/log"
	"github.com/97woo/OracleVM/metrics"
)

// Publisher errors. ErrRPC wraps any node failure; it is fatal to the
// current operation and never retried here.
var (
	ErrRPC        = errors.New("chain: bitcoin rpc failure")
	ErrIncomplete = errors.New("chain: wallet could not fully sign transaction")
	ErrNoAnchor   = errors.New("chain: transaction carries no anchor output")
)

// Publisher writes anchor payloads into OP_RETURN outputs via a Bitcoin Core
// wallet and reads confirmed payloads back.
type Publisher struct {
	client *rpcclient.Client
	logger *log.Logger

	published *metrics.Counter
	read      *metrics.Counter
}

// NewPublisher connects to the node described by cfg. The connection uses
// HTTP POST mode without TLS, matching a local bitcoind RPC endpoint.
func NewPublisher(cfg Config) (*Publisher, error) {
	if _, err := cfg.Params(); err != nil {
		return nil, err
	}
	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         cfg.RPCHost,
		User:         cfg.RPCUser,
		Pass:         cfg.RPCPass,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrRPC, err)
	}
	reg := metrics.Default()
	return &Publisher{
		client:    client,
		logger:    log.Default().Module("chain"),
		published: reg.Counter("chain_anchors_published"),
		read:      reg.Counter("chain_anchors_read"),
	}, nil
}

// Close shuts down the RPC client.
func (p *Publisher) Close() {
	p.client.Shutdown()
}

// PublishAnchor wraps the payload in an OP_RETURN output, lets the wallet
// fund and sign the transaction, and broadcasts it. The payload must be a
// valid 28- or 60-byte anchor encoding.
func (p *Publisher) PublishAnchor(payload []byte) (*chainhash.Hash, error) {
	pkScript, err := anchor.OpReturnScript(payload)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(wire.NewTxOut(0, pkScript))

	funded, err := p.client.FundRawTransaction(tx, btcjson.FundRawTransactionOpts{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fund: %v", ErrRPC, err)
	}
	p.logger.Debug("transaction funded",
		"fee_btc", btcutil.Amount(funded.Fee).ToBTC(),
		"change_position", funded.ChangePosition)
	signed, complete, err := p.client.SignRawTransactionWithWallet(funded.Transaction)
	if err != nil {
		return nil, fmt.Errorf("%w: sign: %v", ErrRPC, err)
	}
	if !complete {
		return nil, ErrIncomplete
	}
	txid, err := p.client.SendRawTransaction(signed, false)
	if err != nil {
		return nil, fmt.Errorf("%w: broadcast: %v", ErrRPC, err)
	}

	p.published.Inc()
	p.logger.Info("anchor published", "txid", txid.String(), "payload_bytes", len(payload))
	return txid, nil
}

// ReadAnchor fetches the transaction and decodes the anchor payload from its
// data-carrier output. anchor.Decode is the sole verifying entry point; this
// method only locates the bytes.
func (p *Publisher) ReadAnchor(txid string) (*anchor.Record, error) {
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, fmt.Errorf("%w: bad txid %q: %v", ErrRPC, txid, err)
	}
	raw, err := p.client.GetRawTransactionVerbose(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: get tx %s: %v", ErrRPC, txid, err)
	}
	rec, err := extractAnchor(raw.Vout)
	if err != nil {
		return nil, err
	}
	p.read.Inc()
	return rec, nil
}

// Confirm mines n regtest blocks to a fresh wallet address so that a
// just-broadcast anchor confirms. Only meaningful on regtest.
func (p *Publisher) Confirm(n int64) error {
	addr, err := p.client.GetNewAddress("")
	if err != nil {
		return fmt.Errorf("%w: new address: %v", ErrRPC, err)
	}
	if _, err := p.client.GenerateToAddress(n, addr, nil); err != nil {
		return fmt.Errorf("%w: generate: %v", ErrRPC, err)
	}
	return nil
}

// extractAnchor scans the outputs for the first nulldata script and decodes
// its payload.
func extractAnchor(vouts []btcjson.Vout) (*anchor.Record, error) {
	for _, out := range vouts {
		if out.ScriptPubKey.Type != "nulldata" {
			continue
		}
		pkScript, err := hex.DecodeString(out.ScriptPubKey.Hex)
		if err != nil {
			return nil, fmt.Errorf("%w: script hex: %v", ErrRPC, err)
		}
		payload, err := anchor.ParseOpReturn(pkScript)
		if err != nil {
			return nil, err
		}
		return anchor.Decode(payload)
	}
	return nil, ErrNoAnchor
}

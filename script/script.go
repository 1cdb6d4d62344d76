// Package script obtains the Bitcoin verification script used to check the
// disputed single step on-chain. The script bytes are opaque to the rest of
// the system: callers size them for cost estimation and embed them in the
// dispute transactions, but never interpret their contents.
package script

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/btcsuite/btcd/txscript"
)

// Errors returned by script generation.
var (
	ErrInputLength = errors.New("script: input length must be positive")
	ErrGenerator   = errors.New("script: generator tool failed")
)

// Generator produces a verification script for an input of the given byte
// length. Implementations may shell out to an external script-compilation
// tool or build a template locally; either way the returned bytes are
// opaque.
type Generator interface {
	VerificationScript(ctx context.Context, inputLen int) ([]byte, error)
}

// HashLockGenerator builds a SHA-256 hash-lock template locally: a data push
// sized for the input, the hash opcode, the expected 32-byte digest, and an
// equality check. It needs no external tooling and its output has the same
// size profile as the compiled script, which is all cost estimation uses.
type HashLockGenerator struct{}

// VerificationScript implements Generator.
func (HashLockGenerator) VerificationScript(_ context.Context, inputLen int) ([]byte, error) {
	if inputLen <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInputLength, inputLen)
	}
	var digest [32]byte
	return txscript.NewScriptBuilder().
		AddData(make([]byte, inputLen)).
		AddOp(txscript.OP_SHA256).
		AddData(digest[:]).
		AddOp(txscript.OP_EQUAL).
		Script()
}

// CommandGenerator invokes an external script-compilation tool. The tool is
// called as `<path> --input-len <n>` and must print the script as a single
// hex string on stdout. Any failure is a hard abort of the current proof
// attempt; the tool is never retried.
type CommandGenerator struct {
	// Path is the generator executable.
	Path string
}

// VerificationScript implements Generator by running the external tool.
func (g *CommandGenerator) VerificationScript(ctx context.Context, inputLen int) ([]byte, error) {
	if inputLen <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInputLength, inputLen)
	}
	cmd := exec.CommandContext(ctx, g.Path, "--input-len", strconv.Itoa(inputLen))
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrGenerator, g.Path, err)
	}
	return parseScriptOutput(out)
}

// parseScriptOutput decodes the tool's hex stdout into script bytes.
func parseScriptOutput(out []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrGenerator)
	}
	script, err := hex.DecodeString(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("%w: non-hex output: %v", ErrGenerator, err)
	}
	return script, nil
}

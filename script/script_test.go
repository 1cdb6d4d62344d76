package script

import (
	"context"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/txscript"
)

func TestHashLockGeneratorShape(t *testing.T) {
	gen := HashLockGenerator{}
	s, err := gen.VerificationScript(context.Background(), 16)
	if err != nil {
		t.Fatalf("VerificationScript error: %v", err)
	}
	// push(16) + 16 + OP_SHA256 + push(32) + 32 + OP_EQUAL
	if want := 1 + 16 + 1 + 1 + 32 + 1; len(s) != want {
		t.Errorf("script length = %d, want %d", len(s), want)
	}
	if s[17] != txscript.OP_SHA256 {
		t.Errorf("opcode at 17 = 0x%02x, want OP_SHA256", s[17])
	}
	if s[len(s)-1] != txscript.OP_EQUAL {
		t.Errorf("final opcode = 0x%02x, want OP_EQUAL", s[len(s)-1])
	}
}

func TestHashLockGeneratorDeterministic(t *testing.T) {
	gen := HashLockGenerator{}
	a, err := gen.VerificationScript(context.Background(), 64)
	if err != nil {
		t.Fatalf("VerificationScript error: %v", err)
	}
	b, _ := gen.VerificationScript(context.Background(), 64)
	if string(a) != string(b) {
		t.Error("same input length produced different scripts")
	}
}

func TestGeneratorsRejectBadLength(t *testing.T) {
	ctx := context.Background()
	if _, err := (HashLockGenerator{}).VerificationScript(ctx, 0); !errors.Is(err, ErrInputLength) {
		t.Errorf("hash lock, len 0: err = %v, want ErrInputLength", err)
	}
	cg := &CommandGenerator{Path: "/nonexistent"}
	if _, err := cg.VerificationScript(ctx, -1); !errors.Is(err, ErrInputLength) {
		t.Errorf("command, len -1: err = %v, want ErrInputLength", err)
	}
}

func TestCommandGeneratorMissingTool(t *testing.T) {
	cg := &CommandGenerator{Path: "/nonexistent/script-gen"}
	if _, err := cg.VerificationScript(context.Background(), 16); !errors.Is(err, ErrGenerator) {
		t.Errorf("err = %v, want ErrGenerator", err)
	}
}

func TestParseScriptOutput(t *testing.T) {
	got, err := parseScriptOutput([]byte("a914ab87\n"))
	if err != nil {
		t.Fatalf("parseScriptOutput error: %v", err)
	}
	if len(got) != 4 || got[0] != 0xa9 {
		t.Errorf("parsed bytes = %x", got)
	}

	if _, err := parseScriptOutput([]byte("  \n")); !errors.Is(err, ErrGenerator) {
		t.Errorf("empty output: err = %v, want ErrGenerator", err)
	}
	if _, err := parseScriptOutput([]byte("not-hex")); !errors.Is(err, ErrGenerator) {
		t.Errorf("non-hex output: err = %v, want ErrGenerator", err)
	}
}

func TestEstimateCost(t *testing.T) {
	c := EstimateCost(make([]byte, 51), 10)
	if c.ScriptBytes != 51 {
		t.Errorf("ScriptBytes = %d, want 51", c.ScriptBytes)
	}
	if c.WeightUnits != 204 {
		t.Errorf("WeightUnits = %d, want 204", c.WeightUnits)
	}
	if c.VBytes != 51 {
		t.Errorf("VBytes = %d, want 51", c.VBytes)
	}
	if c.FeeSats != 510 {
		t.Errorf("FeeSats = %d, want 510", c.FeeSats)
	}
}

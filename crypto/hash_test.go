package crypto

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func TestHashAlgorithmSizes(t *testing.T) {
	if got := SHA256.Size(); got != 32 {
		t.Errorf("SHA256.Size() = %d, want 32", got)
	}
	if got := Blake2b160.Size(); got != 20 {
		t.Errorf("Blake2b160.Size() = %d, want 20", got)
	}
	if got := HashAlgorithm(99).Size(); got != 0 {
		t.Errorf("unknown Size() = %d, want 0", got)
	}
}

func TestSumMatchesStdlibSHA256(t *testing.T) {
	msg := []byte("option settlement trace")
	want := sha256.Sum256(msg)
	got := SHA256.Sum(msg)
	if !bytes.Equal(got, want[:]) {
		t.Errorf("SHA256.Sum = %x, want %x", got, want)
	}
}

func TestSumConcatenation(t *testing.T) {
	// Sum over split slices must equal Sum over the concatenation.
	a, b := []byte("left"), []byte("right")
	joined := append(append([]byte{}, a...), b...)
	for _, alg := range []HashAlgorithm{SHA256, Blake2b160} {
		if !bytes.Equal(alg.Sum(a, b), alg.Sum(joined)) {
			t.Errorf("%s: split and joined inputs disagree", alg)
		}
	}
}

func TestSumDeterministic(t *testing.T) {
	for _, alg := range []HashAlgorithm{SHA256, Blake2b160} {
		first := alg.Sum([]byte("step-0"))
		second := alg.Sum([]byte("step-0"))
		if !bytes.Equal(first, second) {
			t.Errorf("%s: repeated Sum differs", alg)
		}
		if len(first) != alg.Size() {
			t.Errorf("%s: digest length %d, want %d", alg, len(first), alg.Size())
		}
	}
}

func TestParseHashAlgorithm(t *testing.T) {
	for _, alg := range []HashAlgorithm{SHA256, Blake2b160} {
		parsed, err := ParseHashAlgorithm(alg.String())
		if err != nil {
			t.Fatalf("ParseHashAlgorithm(%q) error: %v", alg.String(), err)
		}
		if parsed != alg {
			t.Errorf("ParseHashAlgorithm(%q) = %v, want %v", alg.String(), parsed, alg)
		}
	}
	if _, err := ParseHashAlgorithm("md5"); err == nil {
		t.Error("ParseHashAlgorithm(md5) should fail")
	}
}

func TestSumUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Sum on unknown algorithm should panic")
		}
	}()
	HashAlgorithm(99).Sum([]byte("x"))
}

// hash.go defines the digest algorithms used for trace and state commitments.
//
// The algorithm is an explicit, static protocol parameter: prover and verifier
// must agree on it before any commitment is exchanged, and it is recorded next
// to the commitments it produced. Selecting an algorithm at runtime based on
// what the environment happens to provide would make a prover/verifier
// mismatch silent instead of detectable.
package crypto

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Digest sizes in bytes.
const (
	SizeSHA256     = 32
	SizeBlake2b160 = 20
)

// HashAlgorithm identifies a commitment digest function.
type HashAlgorithm uint8

const (
	// SHA256 is the 32-byte digest used for everything anchored on-chain.
	// It is always available and is the interoperability baseline.
	SHA256 HashAlgorithm = iota + 1

	// Blake2b160 is the fast 20-byte digest used for dense per-step hashing
	// off-chain, where throughput matters more than on-chain script cost.
	Blake2b160
)

// String returns the canonical algorithm name as recorded in proof documents.
func (a HashAlgorithm) String() string {
	switch a {
	case SHA256:
		return "sha256"
	case Blake2b160:
		return "blake2b-160"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// Size returns the digest length in bytes, or 0 for an unknown algorithm.
func (a HashAlgorithm) Size() int {
	switch a {
	case SHA256:
		return SizeSHA256
	case Blake2b160:
		return SizeBlake2b160
	default:
		return 0
	}
}

// Valid reports whether a is a known algorithm.
func (a HashAlgorithm) Valid() bool {
	return a == SHA256 || a == Blake2b160
}

// ParseHashAlgorithm maps a canonical name back to its algorithm.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	switch s {
	case "sha256":
		return SHA256, nil
	case "blake2b-160":
		return Blake2b160, nil
	default:
		return 0, fmt.Errorf("crypto: unknown hash algorithm %q", s)
	}
}

// Sum hashes the concatenation of the given byte slices and returns the
// digest. It is a pure function: equal inputs always yield equal output.
// Sum panics on an unknown algorithm; callers validate with Valid first.
func (a HashAlgorithm) Sum(data ...[]byte) []byte {
	switch a {
	case SHA256:
		h := sha256.New()
		for _, d := range data {
			h.Write(d)
		}
		return h.Sum(nil)
	case Blake2b160:
		h, err := blake2b.New(SizeBlake2b160, nil)
		if err != nil {
			// Unreachable: blake2b.New only fails for oversized keys.
			panic(err)
		}
		for _, d := range data {
			h.Write(d)
		}
		return h.Sum(nil)
	default:
		panic(fmt.Sprintf("crypto: Sum on unknown hash algorithm %d", uint8(a)))
	}
}

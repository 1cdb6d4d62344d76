// state.go defines the terminal execution state and its canonical
// commitment encoding.
package trace

import (
	"encoding/hex"
	"strconv"

	"github.com/97woo/OracleVM/crypto"
)

// HaltMarker tags how an execution terminated.
const (
	// HaltNormal is the marker for a clean Halt(value, steps) exit.
	HaltNormal = "halt"
)

// FinalState is the terminal state of an execution run. It is committed to
// on-chain, so its serialization must be reproducible byte-for-byte across
// implementations.
type FinalState struct {
	ReturnValue uint64 `json:"return_value"`
	TotalSteps  uint64 `json:"total_steps"`
	HaltMarker  string `json:"halt_marker"`
	FinalDigest Digest `json:"final_digest"`
}

// CanonicalBytes serializes the state with sorted keys, fixed field order,
// and no whitespace. The digest is lowercase hex. Two FinalState values with
// equal fields always produce identical bytes.
func (s *FinalState) CanonicalBytes() []byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, `{"final_digest":"`...)
	buf = append(buf, hex.EncodeToString(s.FinalDigest)...)
	buf = append(buf, `","halt_marker":`...)
	buf = strconv.AppendQuote(buf, s.HaltMarker)
	buf = append(buf, `,"return_value":`...)
	buf = strconv.AppendUint(buf, s.ReturnValue, 10)
	buf = append(buf, `,"total_steps":`...)
	buf = strconv.AppendUint(buf, s.TotalSteps, 10)
	buf = append(buf, '}')
	return buf
}

// Commit hashes the canonical serialization with the 32-byte algorithm.
// On-chain commitments never depend on the fast truncated variant, so that
// any verifier can recompute them.
func (s *FinalState) Commit() Digest {
	return crypto.SHA256.Sum(s.CanonicalBytes())
}

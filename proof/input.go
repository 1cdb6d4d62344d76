// Package proof assembles settlement proofs: it drives the execution engine,
// derives the trace and state commitments, plans the challenge protocol, and
// produces the anchor payload ready for on-chain publication.
package proof

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/97woo/OracleVM/anchor"
)

// ErrInput rejects an option input the settlement program cannot price.
var ErrInput = errors.New("proof: invalid option input")

// OptionInput is the settlement program's input: the option terms and the
// observed spot price. Prices are in US cents, quantity in hundredths of a
// unit, matching the program's fixed-point convention.
type OptionInput struct {
	OptionType         anchor.OptionType
	StrikeCents        uint32
	SpotCents          uint32
	QuantityHundredths uint32
}

// inputSize is the packed input width: four little-endian u32 words.
const inputSize = 16

// Pack serializes the input as the four little-endian u32 words the RISC-V
// program reads: option type, strike, spot, quantity.
func (in *OptionInput) Pack() ([]byte, error) {
	if !in.OptionType.Valid() {
		return nil, fmt.Errorf("%w: option type 0x%02x", ErrInput, uint8(in.OptionType))
	}
	if in.StrikeCents == 0 {
		return nil, fmt.Errorf("%w: zero strike", ErrInput)
	}
	if in.QuantityHundredths == 0 {
		return nil, fmt.Errorf("%w: zero quantity", ErrInput)
	}

	buf := make([]byte, inputSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(in.OptionType))
	binary.LittleEndian.PutUint32(buf[4:8], in.StrikeCents)
	binary.LittleEndian.PutUint32(buf[8:12], in.SpotCents)
	binary.LittleEndian.PutUint32(buf[12:16], in.QuantityHundredths)
	return buf, nil
}

// StrikeSats converts the strike from US cents to the satoshi figure carried
// in the anchor payload.
func (in *OptionInput) StrikeSats() uint64 {
	// cents -> sats: cents * 1e8 / 100.
	return uint64(in.StrikeCents) * 1_000_000
}

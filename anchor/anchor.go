// Package anchor implements the fixed-width payload committed to Bitcoin in
// an OP_RETURN output, binding an option's metadata and, in the extended
// form, the final trace digest of its settlement execution.
//
// Two layouts exist. Compact, 28 bytes:
//
//	tx_type(1) || option_id(6) || option_type(1) || strike_sats(8, BE) ||
//	expiry_unix(8, BE) || unit(4, BE IEEE-754 single)
//
// Extended, 60 bytes, prepends the 32-byte final trace digest. Both fit the
// 80-byte OP_RETURN limit with the 2-byte script prefix. Decode is the sole
// entry point on the verifying side and is strict: any length other than 28
// or 60 is rejected before a single field is parsed.
package anchor

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Payload sizes in bytes.
const (
	CompactSize  = 28
	ExtendedSize = 60

	// TraceDigestSize is the anchored trace digest width in the extended
	// layout. Always the 32-byte algorithm, never the truncated one.
	TraceDigestSize = 32
)

// Codec errors. Structural: no partially decoded payload ever escapes.
var (
	ErrPayloadLength = errors.New("anchor: payload length must be 28 or 60 bytes")
	ErrTxType        = errors.New("anchor: unknown tx type")
	ErrOptionType    = errors.New("anchor: unknown option type")
	ErrUnitValue     = errors.New("anchor: unit is not a finite value")
)

// TxType is the protocol transaction kind carried in the first payload byte.
type TxType uint8

const (
	TxCreate    TxType = 0x00
	TxBuy       TxType = 0x01
	TxSettle    TxType = 0x02
	TxChallenge TxType = 0x03
)

// Valid reports whether t is a known transaction type.
func (t TxType) Valid() bool { return t <= TxChallenge }

// String returns the protocol name of the transaction type.
func (t TxType) String() string {
	switch t {
	case TxCreate:
		return "CREATE"
	case TxBuy:
		return "BUY"
	case TxSettle:
		return "SETTLE"
	case TxChallenge:
		return "CHALLENGE"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(t))
	}
}

// OptionType distinguishes calls from puts.
type OptionType uint8

const (
	Call OptionType = 0x00
	Put  OptionType = 0x01
)

// Valid reports whether o is a known option type.
func (o OptionType) Valid() bool { return o <= Put }

// String returns the protocol name of the option type.
func (o OptionType) String() string {
	switch o {
	case Call:
		return "CALL"
	case Put:
		return "PUT"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(o))
	}
}

// OptionID is the 6-byte identifier carried on-chain.
type OptionID [6]byte

// DeriveOptionID maps an option identifier string to its on-chain ID: the
// first six bytes of SHA-256 over the string.
func DeriveOptionID(id string) OptionID {
	sum := sha256.Sum256([]byte(id))
	var out OptionID
	copy(out[:], sum[:6])
	return out
}

// Payload is the decoded compact record.
type Payload struct {
	TxType     TxType
	OptionID   OptionID
	OptionType OptionType
	StrikeSats uint64 // strike price in satoshis
	ExpiryUnix uint64 // expiry as Unix seconds
	Unit       float32 // scaling factor, nominally 1.0
}

// Record is the result of decoding an anchor payload. TraceDigest is nil for
// the compact layout and exactly 32 bytes for the extended one.
type Record struct {
	Payload
	TraceDigest []byte
}

// IsExtended reports whether the record carried a trace digest.
func (r *Record) IsExtended() bool { return r.TraceDigest != nil }

// Encode packs the payload into its exact 28-byte compact layout. Fields
// outside their declared ranges fail encoding; no partial payload is
// produced.
func (p *Payload) Encode() ([]byte, error) {
	if !p.TxType.Valid() {
		return nil, fmt.Errorf("%w: 0x%02x", ErrTxType, uint8(p.TxType))
	}
	if !p.OptionType.Valid() {
		return nil, fmt.Errorf("%w: 0x%02x", ErrOptionType, uint8(p.OptionType))
	}
	f64 := float64(p.Unit)
	if math.IsNaN(f64) || math.IsInf(f64, 0) {
		return nil, ErrUnitValue
	}

	buf := make([]byte, CompactSize)
	buf[0] = byte(p.TxType)
	copy(buf[1:7], p.OptionID[:])
	buf[7] = byte(p.OptionType)
	binary.BigEndian.PutUint64(buf[8:16], p.StrikeSats)
	binary.BigEndian.PutUint64(buf[16:24], p.ExpiryUnix)
	binary.BigEndian.PutUint32(buf[24:28], math.Float32bits(p.Unit))
	return buf, nil
}

// EncodeExtended packs the 60-byte extended layout: the 32-byte trace digest
// followed by the compact record.
func (p *Payload) EncodeExtended(traceDigest [TraceDigestSize]byte) ([]byte, error) {
	compact, err := p.Encode()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, ExtendedSize)
	buf = append(buf, traceDigest[:]...)
	buf = append(buf, compact...)
	return buf, nil
}

// Decode parses an anchor payload. It rejects any input whose length is not
// exactly 28 or 60 bytes, then validates each enum field. Decode never
// consults the clock; advisory time-dependent checks live in Validate.
func Decode(data []byte) (*Record, error) {
	var (
		rec     Record
		compact []byte
	)
	switch len(data) {
	case CompactSize:
		compact = data
	case ExtendedSize:
		rec.TraceDigest = make([]byte, TraceDigestSize)
		copy(rec.TraceDigest, data[:TraceDigestSize])
		compact = data[TraceDigestSize:]
	default:
		return nil, fmt.Errorf("%w: got %d", ErrPayloadLength, len(data))
	}

	txType := TxType(compact[0])
	if !txType.Valid() {
		return nil, fmt.Errorf("%w: 0x%02x", ErrTxType, compact[0])
	}
	optType := OptionType(compact[7])
	if !optType.Valid() {
		return nil, fmt.Errorf("%w: 0x%02x", ErrOptionType, compact[7])
	}

	rec.TxType = txType
	copy(rec.OptionID[:], compact[1:7])
	rec.OptionType = optType
	rec.StrikeSats = binary.BigEndian.Uint64(compact[8:16])
	rec.ExpiryUnix = binary.BigEndian.Uint64(compact[16:24])
	rec.Unit = math.Float32frombits(binary.BigEndian.Uint32(compact[24:28]))
	return &rec, nil
}

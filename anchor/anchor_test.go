package anchor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"
)

func samplePayload() Payload {
	return Payload{
		TxType:     TxCreate,
		OptionID:   DeriveOptionID("BTCCALL50000D_7"),
		OptionType: Call,
		StrikeSats: 5_000_000_000,
		ExpiryUnix: uint64(time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC).Unix()),
		Unit:       1.0,
	}
}

func TestEncodeCompactLayout(t *testing.T) {
	p := samplePayload()
	data, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if len(data) != CompactSize {
		t.Fatalf("encoded length = %d, want %d", len(data), CompactSize)
	}

	if data[0] != 0x00 {
		t.Errorf("tx_type byte = 0x%02x, want 0x00 (CREATE)", data[0])
	}
	if !bytes.Equal(data[1:7], p.OptionID[:]) {
		t.Errorf("option_id bytes = %x, want %x", data[1:7], p.OptionID)
	}
	if data[7] != 0x00 {
		t.Errorf("option_type byte = 0x%02x, want 0x00 (CALL)", data[7])
	}
	if got := binary.BigEndian.Uint64(data[8:16]); got != p.StrikeSats {
		t.Errorf("strike = %d, want %d", got, p.StrikeSats)
	}
	if got := binary.BigEndian.Uint64(data[16:24]); got != p.ExpiryUnix {
		t.Errorf("expiry = %d, want %d", got, p.ExpiryUnix)
	}
	if got := math.Float32frombits(binary.BigEndian.Uint32(data[24:28])); got != 1.0 {
		t.Errorf("unit = %g, want 1.0", got)
	}
	// 1.0 as big-endian IEEE-754 single.
	if !bytes.Equal(data[24:28], []byte{0x3f, 0x80, 0x00, 0x00}) {
		t.Errorf("unit bytes = %x, want 3f800000", data[24:28])
	}
}

func TestCompactRoundTrip(t *testing.T) {
	p := samplePayload()
	data, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	rec, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if rec.IsExtended() {
		t.Error("compact record decoded as extended")
	}
	if rec.Payload != p {
		t.Errorf("round trip mismatch: got %+v, want %+v", rec.Payload, p)
	}
}

func TestExtendedRoundTrip(t *testing.T) {
	p := samplePayload()
	var digest [TraceDigestSize]byte
	for i := range digest {
		digest[i] = byte(i)
	}
	data, err := p.EncodeExtended(digest)
	if err != nil {
		t.Fatalf("EncodeExtended error: %v", err)
	}
	if len(data) != ExtendedSize {
		t.Fatalf("encoded length = %d, want %d", len(data), ExtendedSize)
	}
	rec, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if !rec.IsExtended() {
		t.Fatal("extended record decoded as compact")
	}
	if !bytes.Equal(rec.TraceDigest, digest[:]) {
		t.Errorf("trace digest = %x, want %x", rec.TraceDigest, digest)
	}
	if rec.Payload != p {
		t.Errorf("round trip mismatch: got %+v, want %+v", rec.Payload, p)
	}
}

func TestDecodeRejectsBadLengths(t *testing.T) {
	for _, n := range []int{0, 1, 27, 29, 59, 61, 80, 100} {
		_, err := Decode(make([]byte, n))
		if !errors.Is(err, ErrPayloadLength) {
			t.Errorf("len %d: err = %v, want ErrPayloadLength", n, err)
		}
	}
}

func TestDecodeRejectsUnknownEnums(t *testing.T) {
	p := samplePayload()
	data, _ := p.Encode()

	bad := append([]byte{}, data...)
	bad[0] = 0x07
	if _, err := Decode(bad); !errors.Is(err, ErrTxType) {
		t.Errorf("tx_type 0x07: err = %v, want ErrTxType", err)
	}

	bad = append([]byte{}, data...)
	bad[7] = 0x02
	if _, err := Decode(bad); !errors.Is(err, ErrOptionType) {
		t.Errorf("option_type 0x02: err = %v, want ErrOptionType", err)
	}
}

func TestEncodeRejectsBadFields(t *testing.T) {
	p := samplePayload()
	p.TxType = 0x09
	if _, err := p.Encode(); !errors.Is(err, ErrTxType) {
		t.Errorf("bad tx type: err = %v, want ErrTxType", err)
	}

	p = samplePayload()
	p.OptionType = 0x05
	if _, err := p.Encode(); !errors.Is(err, ErrOptionType) {
		t.Errorf("bad option type: err = %v, want ErrOptionType", err)
	}

	p = samplePayload()
	p.Unit = float32(math.NaN())
	if _, err := p.Encode(); !errors.Is(err, ErrUnitValue) {
		t.Errorf("NaN unit: err = %v, want ErrUnitValue", err)
	}
}

func TestAllTxTypesRoundTrip(t *testing.T) {
	for _, tt := range []TxType{TxCreate, TxBuy, TxSettle, TxChallenge} {
		p := samplePayload()
		p.TxType = tt
		data, err := p.Encode()
		if err != nil {
			t.Fatalf("%v: Encode error: %v", tt, err)
		}
		rec, err := Decode(data)
		if err != nil {
			t.Fatalf("%v: Decode error: %v", tt, err)
		}
		if rec.TxType != tt {
			t.Errorf("tx type = %v, want %v", rec.TxType, tt)
		}
	}
}

func TestDeriveOptionID(t *testing.T) {
	a := DeriveOptionID("option-a")
	b := DeriveOptionID("option-a")
	c := DeriveOptionID("option-b")
	if a != b {
		t.Error("DeriveOptionID not deterministic")
	}
	if a == c {
		t.Error("distinct identifiers mapped to the same OptionID")
	}
}

func TestTypeStrings(t *testing.T) {
	if TxCreate.String() != "CREATE" || TxChallenge.String() != "CHALLENGE" {
		t.Error("TxType names wrong")
	}
	if Call.String() != "CALL" || Put.String() != "PUT" {
		t.Error("OptionType names wrong")
	}
}

// script.go builds and parses the OP_RETURN script that carries an anchor
// payload on-chain: 0x6a || length_byte || payload, total <= 80 bytes.
package anchor

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// MaxScriptSize is the standardness limit on a data-carrier script.
const MaxScriptSize = 80

// Script errors.
var (
	ErrScriptTooLarge = errors.New("anchor: script exceeds 80-byte data-carrier limit")
	ErrNotOpReturn    = errors.New("anchor: script is not a simple OP_RETURN push")
)

// OpReturnScript wraps an encoded anchor payload in a data-carrier script.
// Both payload sizes use a direct push, so the script is exactly
// 2 + len(payload) bytes.
func OpReturnScript(payload []byte) ([]byte, error) {
	if len(payload) != CompactSize && len(payload) != ExtendedSize {
		return nil, fmt.Errorf("%w: got %d", ErrPayloadLength, len(payload))
	}
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(payload).
		Script()
	if err != nil {
		return nil, err
	}
	if len(script) > MaxScriptSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrScriptTooLarge, len(script))
	}
	return script, nil
}

// ParseOpReturn extracts the payload from a data-carrier script. The parse
// is strict: the script must be exactly OP_RETURN followed by one direct
// push whose length byte matches the remaining bytes. The returned slice is
// suitable for Decode but not yet validated.
func ParseOpReturn(script []byte) ([]byte, error) {
	if len(script) < 2 || script[0] != txscript.OP_RETURN {
		return nil, ErrNotOpReturn
	}
	pushLen := int(script[1])
	if pushLen > txscript.OP_PUSHDATA1-1 || len(script) != 2+pushLen {
		return nil, ErrNotOpReturn
	}
	payload := make([]byte, pushLen)
	copy(payload, script[2:])
	return payload, nil
}

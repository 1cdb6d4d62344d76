package script

// weightPerByte is the consensus weight of one non-witness script byte.
const weightPerByte = 4

// Cost is the estimated on-chain cost of carrying a verification script.
// It is reporting data only; nothing downstream gates on it.
type Cost struct {
	ScriptBytes int    `json:"script_bytes"`
	WeightUnits int    `json:"weight_units"`
	VBytes      int    `json:"vbytes"`
	FeeSats     uint64 `json:"fee_sats"`
}

// EstimateCost sizes a script at the given fee rate in sats per vbyte.
func EstimateCost(script []byte, feeRate uint64) Cost {
	weight := len(script) * weightPerByte
	vbytes := (weight + weightPerByte - 1) / weightPerByte
	return Cost{
		ScriptBytes: len(script),
		WeightUnits: weight,
		VBytes:      vbytes,
		FeeSats:     uint64(vbytes) * feeRate,
	}
}

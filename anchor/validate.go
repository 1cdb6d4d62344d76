// validate.go holds the advisory checks run over a decoded anchor record.
// These are findings for a verification report, not decode failures: they
// depend on reference data the codec does not own (a BTC/USD price, the
// clock), so a suspicious value is reported, never silently dropped and
// never a reason to reject a structurally valid payload.
package anchor

import (
	"fmt"
	"math"
	"time"

	"github.com/holiman/uint256"
)

// Advisory bounds.
const (
	// DefaultBTCUSD is the fallback reference price in whole US dollars.
	// A placeholder until an oracle-fed bound replaces it.
	DefaultBTCUSD = 52_000

	// MinStrikeUSD and MaxStrikeUSD bound the plausible fiat value of a
	// strike at the reference price.
	MinStrikeUSD = 1_000
	MaxStrikeUSD = 1_000_000

	// MaxExpiryWindow is how far in the future an expiry may lie.
	MaxExpiryWindow = 365 * 24 * time.Hour

	// MinUnit and MaxUnit bound the near-1.0 scaling factor.
	MinUnit = 0.9
	MaxUnit = 1.1
)

const satsPerBTC = 100_000_000

// Finding is one advisory validation failure.
type Finding struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Report collects the advisory findings for a decoded record.
type Report struct {
	Findings []Finding `json:"findings"`
}

// Valid reports whether the record passed every advisory check.
func (r *Report) Valid() bool { return len(r.Findings) == 0 }

func (r *Report) add(field, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{Field: field, Reason: fmt.Sprintf(format, args...)})
}

// RefParams carries the external reference data advisory checks depend on.
type RefParams struct {
	// BTCUSD is the reference price in whole US dollars per BTC.
	BTCUSD uint64

	// Now is the decode-time clock reading.
	Now time.Time
}

// Validate runs the advisory checks: strike fiat plausibility at the
// reference price, expiry inside (now, now+1y], and unit in [0.9, 1.1].
func (rec *Record) Validate(ref RefParams) *Report {
	report := &Report{}
	if ref.BTCUSD == 0 {
		ref.BTCUSD = DefaultBTCUSD
	}

	// Fiat value of the strike: sats * price / 1e8. 256-bit intermediate so
	// an adversarial strike near 2^64 cannot overflow the product.
	usd := new(uint256.Int).SetUint64(rec.StrikeSats)
	usd.Mul(usd, uint256.NewInt(ref.BTCUSD))
	usd.Div(usd, uint256.NewInt(satsPerBTC))
	if usd.LtUint64(MinStrikeUSD) || usd.GtUint64(MaxStrikeUSD) {
		report.add("strike", "fiat value $%s at $%d/BTC outside [$%d, $%d]",
			usd.Dec(), ref.BTCUSD, MinStrikeUSD, MaxStrikeUSD)
	}

	expiry := time.Unix(int64(rec.ExpiryUnix), 0)
	switch {
	case !expiry.After(ref.Now):
		report.add("expiry", "%s is not in the future", expiry.UTC().Format(time.RFC3339))
	case expiry.After(ref.Now.Add(MaxExpiryWindow)):
		report.add("expiry", "%s is more than a year out", expiry.UTC().Format(time.RFC3339))
	}

	unit := float64(rec.Unit)
	if math.IsNaN(unit) || unit < MinUnit || unit > MaxUnit {
		report.add("unit", "%g outside [%g, %g]", rec.Unit, MinUnit, MaxUnit)
	}
	return report
}

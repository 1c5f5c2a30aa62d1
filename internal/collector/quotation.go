package collector

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

const nanoExp = -9

// Quotation is the broker's fixed-point number: Units whole units plus
// Nano billionths. Both parts carry the same sign.
type Quotation struct {
	Units flexInt `json:"units"`
	Nano  flexInt `json:"nano"`
}

// Decimal returns Units + Nano/1e9 exactly.
func (q Quotation) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(q.Units)).Add(decimal.New(int64(q.Nano), nanoExp))
}

// Float64 returns the nearest float64 to the quotation.
func (q Quotation) Float64() float64 {
	return q.Decimal().InexactFloat64()
}

// flexInt accepts both JSON numbers and the quoted form the gateway uses
// for 64-bit integers.
type flexInt int64

func (v *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("quotation: %w", err)
	}
	*v = flexInt(n)
	return nil
}

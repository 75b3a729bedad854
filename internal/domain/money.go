// Package domain holds the exact-arithmetic value types shared by the
// backtesting modules. All financial state is carried as decimals so that a
// run is reproducible bit for bit; float64 only appears at the metrics
// boundary and in serialized output.
package domain

import (
	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the serialization precision for currency amounts.
const CurrencyPlaces = 2

// SharePlaces is the serialization precision for share quantities.
const SharePlaces = 6

// Money is an exact currency amount. The zero value is zero money.
type Money struct {
	dec decimal.Decimal
}

// MoneyFromFloat converts a float64 currency amount to Money.
func MoneyFromFloat(v float64) Money {
	return Money{dec: decimal.NewFromFloat(v)}
}

// MoneyFromInt converts an integer currency amount to Money.
func MoneyFromInt(v int64) Money {
	return Money{dec: decimal.NewFromInt(v)}
}

func (m Money) Add(n Money) Money { return Money{dec: m.dec.Add(n.dec)} }
func (m Money) Sub(n Money) Money { return Money{dec: m.dec.Sub(n.dec)} }
func (m Money) Neg() Money        { return Money{dec: m.dec.Neg()} }

// MulWeight scales the amount by a dimensionless factor (e.g. a target weight).
func (m Money) MulWeight(w float64) Money {
	return Money{dec: m.dec.Mul(decimal.NewFromFloat(w))}
}

// DivPrice converts a cash amount into a share quantity at the given price.
// Fractional shares are permitted.
func (m Money) DivPrice(price Money) Shares {
	return Shares{dec: m.dec.Div(price.dec)}
}

// Ratio returns m/n as a float64. Used for proportional scale-down factors.
func (m Money) Ratio(n Money) float64 {
	return m.dec.Div(n.dec).InexactFloat64()
}

func (m Money) IsZero() bool             { return m.dec.IsZero() }
func (m Money) IsPositive() bool         { return m.dec.IsPositive() }
func (m Money) IsNegative() bool         { return m.dec.IsNegative() }
func (m Money) LessThan(n Money) bool    { return m.dec.LessThan(n.dec) }
func (m Money) GreaterThan(n Money) bool { return m.dec.GreaterThan(n.dec) }
func (m Money) Equal(n Money) bool       { return m.dec.Equal(n.dec) }

// Float64 returns the amount as a float64. Metrics-boundary use only.
func (m Money) Float64() float64 { return m.dec.InexactFloat64() }

// Round returns the amount rounded to currency precision.
func (m Money) Round() Money { return Money{dec: m.dec.Round(CurrencyPlaces)} }

func (m Money) String() string { return m.dec.StringFixed(CurrencyPlaces) }

// MarshalJSON serializes the amount at currency precision as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.dec.StringFixed(CurrencyPlaces)), nil
}

// UnmarshalJSON parses a JSON number or numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	return m.dec.UnmarshalJSON(b)
}

// Shares is an exact fractional share quantity. The zero value is zero shares.
type Shares struct {
	dec decimal.Decimal
}

// SharesFromFloat converts a float64 share count to Shares.
func SharesFromFloat(v float64) Shares {
	return Shares{dec: decimal.NewFromFloat(v)}
}

func (s Shares) Add(n Shares) Shares { return Shares{dec: s.dec.Add(n.dec)} }
func (s Shares) Sub(n Shares) Shares { return Shares{dec: s.dec.Sub(n.dec)} }

// MulPrice values the share quantity at the given price.
func (s Shares) MulPrice(price Money) Money {
	return Money{dec: s.dec.Mul(price.dec)}
}

func (s Shares) IsZero() bool          { return s.dec.IsZero() }
func (s Shares) IsPositive() bool      { return s.dec.IsPositive() }
func (s Shares) IsNegative() bool      { return s.dec.IsNegative() }
func (s Shares) LessThan(n Shares) bool { return s.dec.LessThan(n.dec) }

// Float64 returns the share count as a float64.
func (s Shares) Float64() float64 { return s.dec.InexactFloat64() }

func (s Shares) String() string { return s.dec.StringFixed(SharePlaces) }

// MarshalJSON serializes the quantity at share precision as a JSON number.
func (s Shares) MarshalJSON() ([]byte, error) {
	return []byte(s.dec.StringFixed(SharePlaces)), nil
}

// UnmarshalJSON parses a JSON number or numeric string.
func (s *Shares) UnmarshalJSON(b []byte) error {
	return s.dec.UnmarshalJSON(b)
}

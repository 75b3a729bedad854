package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Arithmetic(t *testing.T) {
	a := MoneyFromFloat(100.10)
	b := MoneyFromFloat(0.20)

	assert.Equal(t, "100.30", a.Add(b).String())
	assert.Equal(t, "99.90", a.Sub(b).String())
	assert.Equal(t, "-100.10", a.Neg().String())

	// Exactness where float64 would drift: 0.1 + 0.2 == 0.3
	sum := MoneyFromFloat(0.1).Add(MoneyFromFloat(0.2))
	assert.True(t, sum.Equal(MoneyFromFloat(0.3)))
}

func TestMoney_DivPriceRoundTrip(t *testing.T) {
	cash := MoneyFromInt(1000)
	price := MoneyFromFloat(33.33)

	shares := cash.DivPrice(price)
	back := shares.MulPrice(price)

	// Division precision bounds the round-trip error well below a cent
	assert.InDelta(t, 1000.0, back.Float64(), 1e-9)
}

func TestMoney_MulWeight(t *testing.T) {
	total := MoneyFromInt(1000)

	half := total.MulWeight(0.5)
	assert.Equal(t, "500.00", half.String())

	third := total.MulWeight(0.3)
	assert.Equal(t, "300.00", third.Round().String())
}

func TestMoney_JSON(t *testing.T) {
	m := MoneyFromFloat(1234.5)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "1234.50", string(b))

	var back Money
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, m.Equal(back))
}

func TestShares_JSON(t *testing.T) {
	s := SharesFromFloat(10.5)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, "10.500000", string(b))

	var back Shares
	require.NoError(t, json.Unmarshal(b, &back))
	assert.InDelta(t, 10.5, back.Float64(), 1e-9)
}

func TestMoney_Comparisons(t *testing.T) {
	zero := Money{}
	one := MoneyFromInt(1)

	assert.True(t, zero.IsZero())
	assert.True(t, one.IsPositive())
	assert.True(t, one.Neg().IsNegative())
	assert.True(t, zero.LessThan(one))
	assert.True(t, one.GreaterThan(zero))
}

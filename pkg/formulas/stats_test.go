package formulas

import (
	"math"
	"testing"
)

func makeReturns(value float64, count int) []float64 {
	returns := make([]float64, count)
	for i := range returns {
		returns[i] = value
	}
	return returns
}

func TestAnnualizedVolatility(t *testing.T) {
	tests := []struct {
		name      string
		returns   []float64
		expected  float64
		tolerance float64
	}{
		{
			name:      "empty returns",
			returns:   []float64{},
			expected:  0.0,
			tolerance: 0.0,
		},
		{
			name:      "single return",
			returns:   []float64{0.05},
			expected:  0.0,
			tolerance: 0.0,
		},
		{
			name:      "constant returns",
			returns:   makeReturns(0.01, 12),
			expected:  0.0,
			tolerance: 0.0001,
		},
		{
			name:      "alternating returns",
			returns:   []float64{0.02, -0.02, 0.02, -0.02, 0.02, -0.02},
			expected:  0.0219 * math.Sqrt(12),
			tolerance: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnnualizedVolatility(tt.returns, MonthlyPeriodsPerYear)
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("AnnualizedVolatility() = %v, want %v (±%v)", result, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestConsistency(t *testing.T) {
	tests := []struct {
		name     string
		returns  []float64
		expected float64
	}{
		{"empty", []float64{}, 0.0},
		{"all positive", []float64{0.01, 0.02, 0.03}, 1.0},
		{"all negative", []float64{-0.01, -0.02}, 0.0},
		{"half positive", []float64{0.01, -0.01, 0.02, -0.02}, 0.5},
		{"zero is not positive", []float64{0.0, 0.0, 0.01}, 1.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Consistency(tt.returns)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("Consistency() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestConsistency_Bounds(t *testing.T) {
	series := [][]float64{
		{0.5, -0.5, 0.25},
		makeReturns(-0.1, 30),
		makeReturns(0.1, 30),
		{},
	}

	for _, returns := range series {
		c := Consistency(returns)
		if c < 0 || c > 1 {
			t.Errorf("Consistency() = %v, want value in [0,1]", c)
		}
	}
}

func TestCalculateAnnualReturn(t *testing.T) {
	tests := []struct {
		name      string
		returns   []float64
		expected  float64
		tolerance float64
	}{
		{
			name:      "empty returns",
			returns:   []float64{},
			expected:  0.0,
			tolerance: 0.0,
		},
		{
			name:      "one year of 1% monthly returns",
			returns:   makeReturns(0.01, 12),
			expected:  0.1268, // 1.01^12 - 1
			tolerance: 0.001,
		},
		{
			name:      "one year of negative monthly returns",
			returns:   makeReturns(-0.01, 12),
			expected:  -0.1136, // 0.99^12 - 1
			tolerance: 0.001,
		},
		{
			name:      "very short series uses cumulative return",
			returns:   []float64{0.01, 0.02},
			expected:  0.0302,
			tolerance: 0.001,
		},
		{
			name:      "zero returns",
			returns:   makeReturns(0.0, 12),
			expected:  0.0,
			tolerance: 0.0001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateAnnualReturn(tt.returns, MonthlyPeriodsPerYear)
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("CalculateAnnualReturn() = %v, want %v (±%v)", result, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestMean_StdDev(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}

	if m := Mean(data); math.Abs(m-3.0) > 1e-9 {
		t.Errorf("Mean() = %v, want 3.0", m)
	}

	// Sample standard deviation
	if sd := StdDev(data); math.Abs(sd-1.5811) > 0.001 {
		t.Errorf("StdDev() = %v, want ~1.5811", sd)
	}

	if m := Mean(nil); m != 0 {
		t.Errorf("Mean(nil) = %v, want 0", m)
	}
	if sd := StdDev(nil); sd != 0 {
		t.Errorf("StdDev(nil) = %v, want 0", sd)
	}
}

func TestVariance(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}

	// Sample variance, the square of the sample standard deviation.
	if v := Variance(data); math.Abs(v-2.5) > 1e-9 {
		t.Errorf("Variance() = %v, want 2.5", v)
	}

	sd := StdDev(data)
	if v := Variance(data); math.Abs(v-sd*sd) > 1e-9 {
		t.Errorf("Variance() = %v, want StdDev^2 = %v", v, sd*sd)
	}

	if v := Variance(nil); v != 0 {
		t.Errorf("Variance(nil) = %v, want 0", v)
	}
	if v := Variance(makeReturns(0.01, 12)); math.Abs(v) > 1e-12 {
		t.Errorf("Variance(constant) = %v, want 0", v)
	}
}

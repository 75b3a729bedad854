package formulas

import (
	"math"
	"testing"
)

func TestCalculateSharpeRatio(t *testing.T) {
	tests := []struct {
		name      string
		returns   []float64
		riskFree  float64
		expected  float64
		tolerance float64
	}{
		{
			name:      "empty returns",
			returns:   []float64{},
			riskFree:  0.02,
			expected:  0.0,
			tolerance: 0.0,
		},
		{
			name:      "single return",
			returns:   []float64{0.05},
			riskFree:  0.0,
			expected:  0.0,
			tolerance: 0.0,
		},
		{
			name:      "zero variance returns zero not NaN",
			returns:   makeReturns(0.01, 12),
			riskFree:  0.0,
			expected:  0.0,
			tolerance: 0.0,
		},
		{
			name:      "positive excess return",
			returns:   []float64{0.02, 0.01, 0.03, 0.015, 0.025, 0.02},
			riskFree:  0.0,
			expected:  9.80, // mean 0.02 / stddev ~0.00707 * sqrt(12)
			tolerance: 0.05,
		},
		{
			name:      "risk free rate reduces sharpe",
			returns:   []float64{0.02, 0.01, 0.03, 0.015, 0.025, 0.02},
			riskFree:  0.12, // 1% per month
			expected:  4.90,
			tolerance: 0.05,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateSharpeRatio(tt.returns, tt.riskFree, MonthlyPeriodsPerYear)
			if math.IsNaN(result) {
				t.Fatalf("CalculateSharpeRatio() returned NaN")
			}
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("CalculateSharpeRatio() = %v, want %v (±%v)", result, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestCalculateSortinoRatio(t *testing.T) {
	// No returns below MAR yields 0
	result := CalculateSortinoRatio(makeReturns(0.02, 12), 0.0, 0.0, MonthlyPeriodsPerYear)
	if result != 0 {
		t.Errorf("CalculateSortinoRatio() with no downside = %v, want 0", result)
	}

	// Mixed returns produce a finite positive ratio when mean is positive
	returns := []float64{0.03, -0.01, 0.02, -0.02, 0.04, 0.01}
	result = CalculateSortinoRatio(returns, 0.0, 0.0, MonthlyPeriodsPerYear)
	if math.IsNaN(result) || math.IsInf(result, 0) {
		t.Fatalf("CalculateSortinoRatio() = %v, want finite", result)
	}
	if result <= 0 {
		t.Errorf("CalculateSortinoRatio() = %v, want positive", result)
	}
}

package formulas

import (
	"math"
	"testing"
)

func TestSmoothSeries(t *testing.T) {
	values := []float64{100, 102, 104, 106, 108, 110}

	smoothed := SmoothSeries(values, 3)
	if len(smoothed) != len(values) {
		t.Fatalf("SmoothSeries() length = %d, want %d", len(smoothed), len(values))
	}

	// Warm-up entries are backfilled with the raw values.
	for i := 0; i < 2; i++ {
		if smoothed[i] != values[i] {
			t.Errorf("SmoothSeries()[%d] = %v, want raw value %v", i, smoothed[i], values[i])
		}
	}

	// First real EMA value is the SMA of the window: (100+102+104)/3.
	if math.Abs(smoothed[2]-102.0) > 0.001 {
		t.Errorf("SmoothSeries()[2] = %v, want 102.0", smoothed[2])
	}

	// The EMA of a rising series lags below the raw values.
	for i := 3; i < len(values); i++ {
		if smoothed[i] >= values[i] {
			t.Errorf("SmoothSeries()[%d] = %v, want < raw value %v", i, smoothed[i], values[i])
		}
	}
}

func TestSmoothSeries_ShortSeries(t *testing.T) {
	values := []float64{100, 105}

	smoothed := SmoothSeries(values, 3)
	if len(smoothed) != 2 || smoothed[0] != 100 || smoothed[1] != 105 {
		t.Errorf("SmoothSeries(short) = %v, want unchanged copy", smoothed)
	}

	// The copy must not alias the input.
	smoothed[0] = 0
	if values[0] != 100 {
		t.Error("SmoothSeries(short) returned the input slice, want a copy")
	}
}

func TestCalculateSMA(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		length   int
		expected *float64
	}{
		{
			name:     "trailing window average",
			values:   []float64{1, 2, 3, 4, 5, 6},
			length:   3,
			expected: ptr(5.0), // (4+5+6)/3
		},
		{
			name:     "window equals series",
			values:   []float64{2, 4, 6},
			length:   3,
			expected: ptr(4.0),
		},
		{
			name:     "insufficient data",
			values:   []float64{1, 2},
			length:   3,
			expected: nil,
		},
		{
			name:     "zero length",
			values:   []float64{1, 2, 3},
			length:   0,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateSMA(tt.values, tt.length)

			if tt.expected == nil {
				if result != nil {
					t.Errorf("CalculateSMA() = %v, want nil", *result)
				}
				return
			}

			if result == nil {
				t.Fatalf("CalculateSMA() = nil, want %v", *tt.expected)
			}
			if math.Abs(*result-*tt.expected) > 0.001 {
				t.Errorf("CalculateSMA() = %v, want %v", *result, *tt.expected)
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }

package formulas

import (
	"math"
	"testing"
)

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name      string
		prices    []float64
		want      float64
		tolerance float64
	}{
		{
			name:      "empty series",
			prices:    []float64{},
			want:      0.0,
			tolerance: 0.0,
		},
		{
			name:      "single price",
			prices:    []float64{100.0},
			want:      0.0,
			tolerance: 0.0,
		},
		{
			name:      "monotonically increasing",
			prices:    []float64{10.0, 11.0, 12.0, 13.0},
			want:      0.0,
			tolerance: 0.0,
		},
		{
			name:      "flat series",
			prices:    []float64{50.0, 50.0, 50.0},
			want:      0.0,
			tolerance: 0.0,
		},
		{
			name:      "trough against earlier peak",
			prices:    []float64{100.0, 80.0, 120.0},
			want:      -0.2,
			tolerance: 1e-12,
		},
		{
			name:      "deepest of several drawdowns",
			prices:    []float64{100.0, 50.0, 75.0, 150.0, 90.0},
			want:      -0.5,
			tolerance: 1e-12,
		},
		{
			name:      "decline after later peak",
			prices:    []float64{100.0, 150.0, 120.0},
			want:      -0.2,
			tolerance: 1e-12,
		},
		{
			name:      "monotonically decreasing",
			prices:    []float64{100.0, 90.0, 80.0},
			want:      -0.2,
			tolerance: 1e-12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MaxDrawdown(tt.prices)
			if math.Abs(result-tt.want) > tt.tolerance {
				t.Errorf("MaxDrawdown() = %v, want %v (±%v)", result, tt.want, tt.tolerance)
			}
			if result > 0 {
				t.Errorf("MaxDrawdown() = %v, must never be positive", result)
			}
		})
	}
}

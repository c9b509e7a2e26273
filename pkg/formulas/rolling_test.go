package formulas

import (
	"math"
	"testing"
)

func TestRollingMean(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		window    int
		want      []float64
		tolerance float64
	}{
		{
			name:      "window of three",
			values:    []float64{1, 2, 3, 4, 5},
			window:    3,
			want:      []float64{0, 0, 2, 3, 4},
			tolerance: 1e-12,
		},
		{
			name:      "window equals length",
			values:    []float64{2, 4, 6},
			window:    3,
			want:      []float64{0, 0, 4},
			tolerance: 1e-12,
		},
		{
			name:      "window longer than series",
			values:    []float64{1, 2},
			window:    3,
			want:      []float64{0, 0},
			tolerance: 0,
		},
		{
			name:      "empty series",
			values:    []float64{},
			window:    3,
			want:      []float64{},
			tolerance: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RollingMean(tt.values, tt.window)
			if len(result) != len(tt.want) {
				t.Fatalf("RollingMean() length = %v, want %v", len(result), len(tt.want))
			}
			for i := range result {
				if math.Abs(result[i]-tt.want[i]) > tt.tolerance {
					t.Errorf("RollingMean()[%d] = %v, want %v", i, result[i], tt.want[i])
				}
			}
		})
	}
}

func TestRollingStdDev(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	result := RollingStdDev(values, 3)

	// Sample deviation of any three consecutive integers is exactly 1.
	want := []float64{0, 0, 1, 1, 1}
	if len(result) != len(want) {
		t.Fatalf("RollingStdDev() length = %v, want %v", len(result), len(want))
	}
	for i := range result {
		if math.Abs(result[i]-want[i]) > 1e-12 {
			t.Errorf("RollingStdDev()[%d] = %v, want %v", i, result[i], want[i])
		}
	}
}

func TestRollingStdDevDegenerateWindows(t *testing.T) {
	if got := RollingStdDev([]float64{1, 2, 3}, 1); got[2] != 0 {
		t.Errorf("window of one should yield zeros, got %v", got)
	}
	if got := RollingStdDev([]float64{1, 2}, 5); got[0] != 0 || got[1] != 0 {
		t.Errorf("short series should yield zeros, got %v", got)
	}
}

func TestTrailingVolatility(t *testing.T) {
	tests := []struct {
		name      string
		prices    []float64
		window    int
		want      float64
		tolerance float64
	}{
		{
			name:      "empty prices",
			prices:    []float64{},
			window:    20,
			want:      0.0,
			tolerance: 0.0,
		},
		{
			name:      "too few prices for window",
			prices:    []float64{100, 101, 102},
			window:    20,
			want:      0.0,
			tolerance: 0.0,
		},
		{
			name:      "exactly window returns",
			prices:    []float64{100.0, 110.0, 99.0},
			window:    2,
			want:      0.14142135623730953, // sample stddev of {0.1, -0.1}
			tolerance: 1e-12,
		},
		{
			name:      "uses only trailing window",
			prices:    []float64{50.0, 100.0, 110.0, 99.0},
			window:    2,
			want:      0.14142135623730953, // leading jump is outside the window
			tolerance: 1e-12,
		},
		{
			name:      "constant prices",
			prices:    []float64{100, 100, 100, 100},
			window:    3,
			want:      0.0,
			tolerance: 1e-12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TrailingVolatility(tt.prices, tt.window)
			if math.Abs(result-tt.want) > tt.tolerance {
				t.Errorf("TrailingVolatility() = %v, want %v (±%v)", result, tt.want, tt.tolerance)
			}
		})
	}
}

func TestTrailingVolatilityNeedsWindowPlusOnePrices(t *testing.T) {
	// window returns require window+1 prices: one fewer must yield 0.
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	if got := TrailingVolatility(prices, 20); got != 0 {
		t.Errorf("TrailingVolatility() with 20 prices and window 20 = %v, want 0", got)
	}
	prices = append(prices, 120)
	if got := TrailingVolatility(prices, 20); got == 0 {
		t.Error("TrailingVolatility() with 21 prices and window 20 should be non-zero")
	}
}

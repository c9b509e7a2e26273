package portfolio

import (
	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/marketdata"
	"github.com/aristath/quantbench/pkg/formulas"
)

// Calculator enriches positions with market metrics from a price index.
// It is stateless apart from the shared read-only index, so one instance
// can serve any number of goroutines.
type Calculator struct {
	idx    *marketdata.Index
	window int
	log    zerolog.Logger
}

// NewCalculator creates a new calculator
func NewCalculator(idx *marketdata.Index, window int, log zerolog.Logger) *Calculator {
	return &Calculator{
		idx:    idx,
		window: window,
		log:    log.With().Str("component", "calculator").Logger(),
	}
}

// Compute fills in Value, Volatility and Drawdown for one position.
// A symbol with no market data yields a zeroed position with a warning.
// Any panic during computation is contained the same way: the run keeps
// going and the position carries zeros.
func (c *Calculator) Compute(pos Position) (result Position) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().
				Str("symbol", pos.Symbol).
				Interface("panic", r).
				Msg("Position computation failed")
			result = zeroed(pos)
		}
	}()

	latest, ok := c.idx.Latest(pos.Symbol)
	if !ok {
		c.log.Warn().
			Str("symbol", pos.Symbol).
			Msg("No market data for symbol")
		return zeroed(pos)
	}

	history := c.idx.History(pos.Symbol)

	result = Position{
		Symbol:     pos.Symbol,
		Quantity:   pos.Quantity,
		Value:      formulas.Round2(pos.Quantity * latest.Price),
		Volatility: formulas.Round4(formulas.TrailingVolatility(history, c.window)),
		Drawdown:   formulas.Round4(formulas.MaxDrawdown(history)),
	}
	return result
}

// ComputeAll enriches a batch sequentially, pairing each result with its
// ordinal. Slices index as ordinals because the batch comes from Flatten.
func (c *Calculator) ComputeAll(positions []Position) []Computed {
	out := make([]Computed, len(positions))
	for i, pos := range positions {
		out[i] = Computed{Ordinal: i, Position: c.Compute(pos)}
	}
	return out
}

func zeroed(pos Position) Position {
	return Position{Symbol: pos.Symbol, Quantity: pos.Quantity}
}

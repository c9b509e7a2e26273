package portfolio

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenPreOrder(t *testing.T) {
	flat := Flatten(sampleTree())

	symbols := make([]string, len(flat))
	for i, p := range flat {
		symbols[i] = p.Symbol
	}
	// Node's own positions first, then each child subtree in order.
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA", "TSLA", "JPM"}, symbols)
}

func TestFlattenEmpty(t *testing.T) {
	assert.Empty(t, Flatten(nil))
	assert.Empty(t, Flatten(&Node{Name: "empty"}))
}

func TestRebindByOrdinal(t *testing.T) {
	tree := sampleTree()
	flat := Flatten(tree)

	computed := make([]Computed, len(flat))
	for i, p := range flat {
		p.Value = float64(100 * (i + 1)) // distinct per ordinal
		computed[i] = Computed{Ordinal: i, Position: p}
	}

	Rebind(tree, computed, zerolog.Nop())

	assert.Equal(t, 100.0, tree.Positions[0].Value)
	assert.Equal(t, 200.0, tree.Positions[1].Value)
	assert.Equal(t, 300.0, tree.Children[0].Positions[0].Value)
	assert.Equal(t, 400.0, tree.Children[0].Children[0].Positions[0].Value)
	assert.Equal(t, 500.0, tree.Children[1].Positions[0].Value)
}

func TestRebindDuplicatePositions(t *testing.T) {
	// Two nodes hold identical (symbol, quantity) pairs; ordinals must keep
	// their results apart regardless.
	tree := &Node{
		Name:      "root",
		Positions: []Position{{Symbol: "AAPL", Quantity: 10}},
		Children: []*Node{
			{Name: "twin", Positions: []Position{{Symbol: "AAPL", Quantity: 10}}},
		},
	}

	computed := []Computed{
		{Ordinal: 0, Position: Position{Symbol: "AAPL", Quantity: 10, Value: 111}},
		{Ordinal: 1, Position: Position{Symbol: "AAPL", Quantity: 10, Value: 222}},
	}
	Rebind(tree, computed, zerolog.Nop())

	assert.Equal(t, 111.0, tree.Positions[0].Value)
	assert.Equal(t, 222.0, tree.Children[0].Positions[0].Value)
}

func TestRebindMissingOrdinalDropsPosition(t *testing.T) {
	tree := sampleTree()
	flat := Flatten(tree)
	require.Len(t, flat, 5)

	// Ordinal 1 (root's MSFT) never came back.
	computed := make([]Computed, 0, len(flat)-1)
	for i, p := range flat {
		if i == 1 {
			continue
		}
		p.Value = 1
		computed = append(computed, Computed{Ordinal: i, Position: p})
	}

	Rebind(tree, computed, zerolog.Nop())

	require.Len(t, tree.Positions, 1, "unbound position must be dropped")
	assert.Equal(t, "AAPL", tree.Positions[0].Symbol)
	assert.Equal(t, 4, tree.CountPositions())
}

func TestFlattenRebindRoundTrip(t *testing.T) {
	tree := sampleTree()
	computed := make([]Computed, 0)
	for i, p := range Flatten(tree) {
		computed = append(computed, Computed{Ordinal: i, Position: p})
	}

	before := tree.Clone()
	Rebind(tree, computed, zerolog.Nop())
	assert.Equal(t, before, tree, "identity rebind must not change the tree")
}

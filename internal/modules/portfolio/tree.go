// Package portfolio implements the recursive portfolio aggregation that the
// benchmark harness measures: enriching every position in a nested portfolio
// tree with market metrics and rolling the results up to each node.
package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
)

// Position is a single holding inside a portfolio node. Quantity comes from
// the input file; Value, Volatility and Drawdown are filled in by the
// calculator during a run.
type Position struct {
	Symbol     string  `json:"symbol" msgpack:"symbol"`
	Quantity   float64 `json:"quantity" msgpack:"quantity"`
	Value      float64 `json:"value" msgpack:"value"`
	Volatility float64 `json:"volatility" msgpack:"volatility"`
	Drawdown   float64 `json:"drawdown" msgpack:"drawdown"`
}

// Node is one level of the portfolio tree. Aggregate fields are zero on
// input and populated by Aggregate after the positions are enriched.
type Node struct {
	Name      string     `json:"name,omitempty"`
	Positions []Position `json:"positions,omitempty"`
	Children  []*Node    `json:"sub_portfolios,omitempty"`

	TotalValue          float64 `json:"total_value"`
	AggregateVolatility float64 `json:"aggregate_volatility"`
	MaxDrawdown         float64 `json:"max_drawdown"`
}

// Clone returns a deep copy of the tree. Runs operate on clones so the same
// input tree can be handed to several strategies without cross-talk.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		Name:                n.Name,
		TotalValue:          n.TotalValue,
		AggregateVolatility: n.AggregateVolatility,
		MaxDrawdown:         n.MaxDrawdown,
	}
	if n.Positions != nil {
		out.Positions = make([]Position, len(n.Positions))
		copy(out.Positions, n.Positions)
	}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			out.Children[i] = child.Clone()
		}
	}
	return out
}

// CountPositions returns the number of positions in the whole tree.
func (n *Node) CountPositions() int {
	if n == nil {
		return 0
	}
	count := len(n.Positions)
	for _, child := range n.Children {
		count += child.CountPositions()
	}
	return count
}

// Depth returns the number of levels in the tree (1 for a leaf-only root).
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	max := 0
	for _, child := range n.Children {
		if d := child.Depth(); d > max {
			max = d
		}
	}
	return max + 1
}

// LoadTree reads a portfolio tree from a JSON file.
func LoadTree(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio file: %w", err)
	}

	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio file %s: %w", path, err)
	}
	return &root, nil
}

// SaveTree writes a portfolio tree as indented JSON.
func SaveTree(path string, root *Node) error {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal portfolio: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write portfolio file: %w", err)
	}
	return nil
}

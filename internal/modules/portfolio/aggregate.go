package portfolio

import "github.com/aristath/quantbench/pkg/formulas"

// Aggregate rolls position metrics up the tree, post-order. For each node:
//
//   - TotalValue is the sum of its position values plus child totals.
//   - AggregateVolatility is the value-weighted mean of position and child
//     volatilities, 0 when the node's total value is 0.
//   - MaxDrawdown is the worst (most negative) drawdown in the subtree,
//     never above 0.
//
// Totals round to cents, volatility and drawdown to four decimals.
func Aggregate(root *Node) {
	if root == nil {
		return
	}

	for _, child := range root.Children {
		Aggregate(child)
	}

	total := 0.0
	weightedVol := 0.0
	maxDD := 0.0

	for _, pos := range root.Positions {
		total += pos.Value
		weightedVol += pos.Value * pos.Volatility
		if pos.Drawdown < maxDD {
			maxDD = pos.Drawdown
		}
	}
	for _, child := range root.Children {
		total += child.TotalValue
		weightedVol += child.TotalValue * child.AggregateVolatility
		if child.MaxDrawdown < maxDD {
			maxDD = child.MaxDrawdown
		}
	}

	root.TotalValue = formulas.Round2(total)
	if total > 0 {
		root.AggregateVolatility = formulas.Round4(weightedVol / total)
	} else {
		root.AggregateVolatility = 0
	}
	root.MaxDrawdown = formulas.Round4(maxDD)
}

package portfolio

import "github.com/rs/zerolog"

// Flatten collects every position in the tree in pre-order: a node's own
// positions first, then each child subtree in order. A position's index in
// the returned slice is its ordinal, the key used to bind computed results
// back onto the tree. Flatten and Rebind must walk in the same order.
func Flatten(root *Node) []Position {
	var out []Position
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		out = append(out, n.Positions...)
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}

// Computed pairs an enriched position with the ordinal it was flattened at.
type Computed struct {
	Ordinal  int      `msgpack:"ordinal"`
	Position Position `msgpack:"position"`
}

// Rebind writes computed positions back into the tree by ordinal, walking
// the same pre-order as Flatten. A position whose ordinal is missing from
// the results is dropped from its node with a warning.
func Rebind(root *Node, computed []Computed, log zerolog.Logger) {
	byOrdinal := make(map[int]Position, len(computed))
	for _, c := range computed {
		byOrdinal[c.Ordinal] = c.Position
	}

	ordinal := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if len(n.Positions) > 0 {
			kept := n.Positions[:0]
			for _, pos := range n.Positions {
				enriched, ok := byOrdinal[ordinal]
				if ok {
					kept = append(kept, enriched)
				} else {
					log.Warn().
						Int("ordinal", ordinal).
						Str("symbol", pos.Symbol).
						Msg("No computed result for position, dropping")
				}
				ordinal++
			}
			n.Positions = kept
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
}

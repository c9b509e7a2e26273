package portfolio

import (
	"fmt"
	"math/rand/v2"
)

// GenerateTree builds a nested demo portfolio over the given symbols,
// deterministic for a seed. Every node carries 2-4 positions; every level
// above the last has two children, so depth controls the overall size.
func GenerateTree(symbols []string, depth int, seed int64) *Node {
	root := &Node{Name: "root"}
	if len(symbols) == 0 {
		return root
	}
	if depth < 1 {
		depth = 1
	}

	rng := rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))

	var build func(n *Node, level int)
	build = func(n *Node, level int) {
		numPositions := 2 + rng.IntN(3)
		for i := 0; i < numPositions; i++ {
			n.Positions = append(n.Positions, Position{
				Symbol:   symbols[rng.IntN(len(symbols))],
				Quantity: float64(1 + rng.IntN(500)),
			})
		}
		if level >= depth {
			return
		}
		for i := 0; i < 2; i++ {
			child := &Node{Name: fmt.Sprintf("%s.%d", n.Name, i+1)}
			n.Children = append(n.Children, child)
			build(child, level+1)
		}
	}
	build(root, 1)
	return root
}

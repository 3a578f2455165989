package nn

import "math"

// Node is a single neuron slot inside a Brain's node arena
type Node struct {
	ID    int
	Layer int

	input  float64
	output float64

	// outgoing holds indices into the owning Brain's connection arena.
	// Rebuilt from the connection list whenever topology is established.
	outgoing []int
}

// Output returns the value produced by the last evaluation
func (n *Node) Output() float64 {
	return n.output
}

// activate produces the node output and pushes it into every downstream
// accumulator. Layer 0 nodes pass their assigned value through.
func (n *Node) activate(nodes []Node, conns []Connection) {
	if n.Layer > 0 {
		n.output = sigmoid(n.input)
	}
	for _, ci := range n.outgoing {
		c := &conns[ci]
		nodes[c.To].input += c.Weight * n.output
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

var (
	// ErrInvalidTopology is returned when a Brain cannot be built from the
	// requested input count and hidden layer sizes
	ErrInvalidTopology = errors.New("invalid brain topology")
	// ErrInputSize is returned when the input vector length does not match
	ErrInputSize = errors.New("input vector size mismatch")
	// ErrNodeNotFound is returned by node lookups for unknown ids
	ErrNodeNotFound = errors.New("node not found")
	// ErrTopologyMismatch is returned when two Brains cannot be compared edge by edge
	ErrTopologyMismatch = errors.New("brain topology mismatch")
)

// Brain is a fixed-topology layered feed-forward network.
//
// Nodes and connections live in arenas owned exclusively by the Brain. Node
// ids are dense: inputs 0..n-1, then the bias node, then hidden nodes layer
// by layer, and the single output node last. Edges only ever join adjacent
// layers, which is what makes single-pass evaluation in layer order correct.
type Brain struct {
	inputs int
	hidden []int
	layers int

	nodes       []Node
	connections []Connection

	// order is the evaluation order: node ids grouped by ascending layer
	order []int
}

// NewBrain builds a fully connected layered network with weights drawn
// uniformly from [-1, 1]
func NewBrain(inputs int, hidden []int, rng *rand.Rand) (*Brain, error) {
	if inputs < 0 {
		return nil, fmt.Errorf("%w: negative input count %d", ErrInvalidTopology, inputs)
	}
	for i, size := range hidden {
		if size <= 0 {
			return nil, fmt.Errorf("%w: hidden layer %d has size %d", ErrInvalidTopology, i, size)
		}
	}

	b := &Brain{
		inputs: inputs,
		hidden: append([]int(nil), hidden...),
		layers: 2 + len(hidden),
	}

	// Layer 0: inputs followed by bias
	for i := 0; i <= inputs; i++ {
		b.nodes = append(b.nodes, Node{ID: i, Layer: 0})
	}
	for l, size := range hidden {
		for i := 0; i < size; i++ {
			b.nodes = append(b.nodes, Node{ID: len(b.nodes), Layer: l + 1})
		}
	}
	b.nodes = append(b.nodes, Node{ID: len(b.nodes), Layer: b.layers - 1})

	// Fully connect every layer to the next
	byLayer := b.nodesByLayer()
	for l := 0; l < b.layers-1; l++ {
		for _, from := range byLayer[l] {
			for _, to := range byLayer[l+1] {
				b.connections = append(b.connections, Connection{
					From:   from,
					To:     to,
					Weight: randomWeight(rng),
				})
			}
		}
	}

	b.generateNet()
	return b, nil
}

// nodesByLayer groups node ids by layer, ids ascending within a layer
func (b *Brain) nodesByLayer() [][]int {
	layers := make([][]int, b.layers)
	for _, n := range b.nodes {
		layers[n.Layer] = append(layers[n.Layer], n.ID)
	}
	return layers
}

// generateNet rebuilds outgoing edge lists and the evaluation order.
// Only needed when topology is (re)established, never for weight changes.
func (b *Brain) generateNet() {
	for i := range b.nodes {
		b.nodes[i].outgoing = b.nodes[i].outgoing[:0]
	}
	for ci, c := range b.connections {
		b.nodes[c.From].outgoing = append(b.nodes[c.From].outgoing, ci)
	}

	b.order = make([]int, len(b.nodes))
	for i := range b.nodes {
		b.order[i] = i
	}
	sort.SliceStable(b.order, func(i, j int) bool {
		return b.nodes[b.order[i]].Layer < b.nodes[b.order[j]].Layer
	})
}

// Inputs returns the number of input nodes
func (b *Brain) Inputs() int {
	return b.inputs
}

// Hidden returns a copy of the hidden layer sizes
func (b *Brain) Hidden() []int {
	return append([]int(nil), b.hidden...)
}

// Layers returns the number of layers including input and output
func (b *Brain) Layers() int {
	return b.layers
}

// BiasID returns the id of the bias node
func (b *Brain) BiasID() int {
	return b.inputs
}

// OutputID returns the id of the output node
func (b *Brain) OutputID() int {
	return len(b.nodes) - 1
}

// NumNodes returns the node count
func (b *Brain) NumNodes() int {
	return len(b.nodes)
}

// Connections returns a copy of the connection list
func (b *Brain) Connections() []Connection {
	return append([]Connection(nil), b.connections...)
}

// Node looks up a node by id
func (b *Brain) Node(id int) (*Node, error) {
	if id < 0 || id >= len(b.nodes) || b.nodes[id].ID != id {
		return nil, fmt.Errorf("%w: id %d", ErrNodeNotFound, id)
	}
	return &b.nodes[id], nil
}

// Weights returns connection weights in edge order
func (b *Brain) Weights() []float64 {
	w := make([]float64, len(b.connections))
	for i, c := range b.connections {
		w[i] = c.Weight
	}
	return w
}

// SetWeights overwrites connection weights in edge order
func (b *Brain) SetWeights(w []float64) error {
	if len(w) != len(b.connections) {
		return fmt.Errorf("%w: got %d weights for %d connections", ErrTopologyMismatch, len(w), len(b.connections))
	}
	for i := range b.connections {
		b.connections[i].Weight = w[i]
	}
	return nil
}

// FeedForward evaluates the network for one input vector and returns the
// output node value. Accumulators are reset before returning so the Brain is
// immediately reusable.
func (b *Brain) FeedForward(inputs []float64) (float64, error) {
	if len(inputs) != b.inputs {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrInputSize, len(inputs), b.inputs)
	}

	for i, v := range inputs {
		b.nodes[i].output = v
	}
	b.nodes[b.BiasID()].output = 1

	for _, id := range b.order {
		b.nodes[id].activate(b.nodes, b.connections)
	}

	out := b.nodes[b.OutputID()].output

	for i := range b.nodes {
		b.nodes[i].input = 0
	}
	return out, nil
}

// Mutate gives every connection a chance to change its weight, with
// p.Probability per call. Reports whether the weights were touched.
func (b *Brain) Mutate(p MutationPolicy, rng *rand.Rand) bool {
	if rng.Float64() >= p.Probability {
		return false
	}
	for i := range b.connections {
		b.connections[i].mutate(p, rng)
	}
	return true
}

// Clone returns an independent deep copy of the Brain
func (b *Brain) Clone() *Brain {
	clone := &Brain{
		inputs:      b.inputs,
		hidden:      append([]int(nil), b.hidden...),
		layers:      b.layers,
		nodes:       make([]Node, len(b.nodes)),
		connections: make([]Connection, 0, len(b.connections)),
	}
	for i, n := range b.nodes {
		clone.nodes[i] = Node{ID: n.ID, Layer: n.Layer}
	}
	for _, c := range b.connections {
		from, err := clone.Node(c.From)
		if err != nil {
			panic(fmt.Sprintf("clone: connection source: %v", err))
		}
		to, err := clone.Node(c.To)
		if err != nil {
			panic(fmt.Sprintf("clone: connection target: %v", err))
		}
		clone.connections = append(clone.connections, Connection{From: from.ID, To: to.ID, Weight: c.Weight})
	}
	clone.generateNet()
	return clone
}

// Distance is the mean absolute weight difference over corresponding
// connections. Both Brains must share the same topology.
func (b *Brain) Distance(other *Brain) (float64, error) {
	if len(b.connections) != len(other.connections) {
		return 0, fmt.Errorf("%w: %d vs %d connections", ErrTopologyMismatch, len(b.connections), len(other.connections))
	}
	if len(b.connections) == 0 {
		return 0, nil
	}
	var sum float64
	for i, c := range b.connections {
		o := other.connections[i]
		if c.From != o.From || c.To != o.To {
			return 0, fmt.Errorf("%w: edge %d joins %d->%d vs %d->%d", ErrTopologyMismatch, i, c.From, c.To, o.From, o.To)
		}
		sum += math.Abs(c.Weight - o.Weight)
	}
	return sum / float64(len(b.connections)), nil
}

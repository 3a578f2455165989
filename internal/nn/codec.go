package nn

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidRecord is returned when a persisted Brain cannot be reconstructed
var ErrInvalidRecord = errors.New("invalid brain record")

// NodeRecord is the persisted form of a Node
type NodeRecord struct {
	ID    int `json:"id"`
	Layer int `json:"layer"`
}

// ConnectionRecord is the persisted form of a Connection
type ConnectionRecord struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
}

// Record holds everything needed to rebuild a Brain exactly
type Record struct {
	Inputs      int                `json:"inputs"`
	Hidden      []int              `json:"hidden"`
	Nodes       []NodeRecord       `json:"nodes"`
	Connections []ConnectionRecord `json:"connections"`
}

// Record snapshots the Brain
func (b *Brain) Record() Record {
	r := Record{
		Inputs:      b.inputs,
		Hidden:      b.Hidden(),
		Nodes:       make([]NodeRecord, len(b.nodes)),
		Connections: make([]ConnectionRecord, len(b.connections)),
	}
	for i, n := range b.nodes {
		r.Nodes[i] = NodeRecord{ID: n.ID, Layer: n.Layer}
	}
	for i, c := range b.connections {
		r.Connections[i] = ConnectionRecord{From: c.From, To: c.To, Weight: c.Weight}
	}
	return r
}

// FromRecord rebuilds a Brain, rejecting any record that does not describe
// a fully connected layered network of the declared shape
func FromRecord(r Record) (*Brain, error) {
	if r.Inputs < 0 {
		return nil, fmt.Errorf("%w: negative input count %d", ErrInvalidRecord, r.Inputs)
	}
	layerSizes := make([]int, 0, len(r.Hidden)+2)
	layerSizes = append(layerSizes, r.Inputs+1)
	for i, size := range r.Hidden {
		if size <= 0 {
			return nil, fmt.Errorf("%w: hidden layer %d has size %d", ErrInvalidRecord, i, size)
		}
		layerSizes = append(layerSizes, size)
	}
	layerSizes = append(layerSizes, 1)

	total := 0
	for _, s := range layerSizes {
		total += s
	}
	if len(r.Nodes) != total {
		return nil, fmt.Errorf("%w: %d nodes, want %d", ErrInvalidRecord, len(r.Nodes), total)
	}

	b := &Brain{
		inputs: r.Inputs,
		hidden: append([]int(nil), r.Hidden...),
		layers: len(layerSizes),
		nodes:  make([]Node, total),
	}

	// Ids are dense and layers follow construction order
	id := 0
	for layer, size := range layerSizes {
		for i := 0; i < size; i++ {
			nr := r.Nodes[id]
			if nr.ID != id || nr.Layer != layer {
				return nil, fmt.Errorf("%w: node %d is (id=%d, layer=%d), want layer %d", ErrInvalidRecord, id, nr.ID, nr.Layer, layer)
			}
			b.nodes[id] = Node{ID: id, Layer: layer}
			id++
		}
	}

	want := 0
	for l := 0; l < len(layerSizes)-1; l++ {
		want += layerSizes[l] * layerSizes[l+1]
	}
	if len(r.Connections) != want {
		return nil, fmt.Errorf("%w: %d connections, want %d", ErrInvalidRecord, len(r.Connections), want)
	}

	seen := make(map[[2]int]bool, want)
	b.connections = make([]Connection, len(r.Connections))
	for i, cr := range r.Connections {
		from, err := b.Node(cr.From)
		if err != nil {
			return nil, fmt.Errorf("%w: connection %d: %v", ErrInvalidRecord, i, err)
		}
		to, err := b.Node(cr.To)
		if err != nil {
			return nil, fmt.Errorf("%w: connection %d: %v", ErrInvalidRecord, i, err)
		}
		if to.Layer != from.Layer+1 {
			return nil, fmt.Errorf("%w: connection %d joins layer %d to %d", ErrInvalidRecord, i, from.Layer, to.Layer)
		}
		key := [2]int{cr.From, cr.To}
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate connection %d->%d", ErrInvalidRecord, cr.From, cr.To)
		}
		seen[key] = true
		b.connections[i] = Connection{From: cr.From, To: cr.To, Weight: cr.Weight}
	}

	b.generateNet()
	return b, nil
}

// MarshalJSON encodes the Brain as its Record
func (b *Brain) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Record())
}

// UnmarshalJSON decodes and validates a Record into the Brain
func (b *Brain) UnmarshalJSON(data []byte) error {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	decoded, err := FromRecord(r)
	if err != nil {
		return err
	}
	*b = *decoded
	return nil
}

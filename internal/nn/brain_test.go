package nn

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBrain(t *testing.T, inputs int, hidden []int, seed int64) *Brain {
	t.Helper()
	b, err := NewBrain(inputs, hidden, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return b
}

func TestNewBrainTopologySizing(t *testing.T) {
	b := newTestBrain(t, 4, nil, 1)

	assert.Equal(t, 6, b.NumNodes())
	assert.Len(t, b.Connections(), 5)
	assert.Equal(t, 2, b.Layers())
	assert.Equal(t, 4, b.BiasID())
	assert.Equal(t, 5, b.OutputID())
	for _, c := range b.Connections() {
		assert.Equal(t, b.OutputID(), c.To)
		assert.GreaterOrEqual(t, c.Weight, -1.0)
		assert.LessOrEqual(t, c.Weight, 1.0)
	}
}

func TestNewBrainHiddenLayers(t *testing.T) {
	b := newTestBrain(t, 3, []int{4, 2}, 1)

	// 3 inputs + bias, 4, 2, 1 output
	assert.Equal(t, 11, b.NumNodes())
	assert.Equal(t, 4, b.Layers())
	assert.Len(t, b.Connections(), 4*4+4*2+2*1)

	for _, c := range b.Connections() {
		from, err := b.Node(c.From)
		require.NoError(t, err)
		to, err := b.Node(c.To)
		require.NoError(t, err)
		assert.Equal(t, from.Layer+1, to.Layer, "edge %d->%d", c.From, c.To)
	}

	out, err := b.Node(b.OutputID())
	require.NoError(t, err)
	assert.Equal(t, 3, out.Layer)
}

func TestNewBrainRejectsInvalidTopology(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := NewBrain(-1, nil, rng)
	assert.ErrorIs(t, err, ErrInvalidTopology)

	_, err = NewBrain(3, []int{2, 0}, rng)
	assert.ErrorIs(t, err, ErrInvalidTopology)
}

func TestNodeLookupMiss(t *testing.T) {
	b := newTestBrain(t, 2, nil, 1)

	_, err := b.Node(99)
	assert.True(t, errors.Is(err, ErrNodeNotFound))
	_, err = b.Node(-1)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestFeedForwardDeterministic(t *testing.T) {
	b := newTestBrain(t, 3, []int{5}, 7)
	in := []float64{0.2, 0.9, 0.4}

	first, err := b.FeedForward(in)
	require.NoError(t, err)
	second, err := b.FeedForward(in)
	require.NoError(t, err)

	assert.Equal(t, math.Float64bits(first), math.Float64bits(second))
}

func TestFeedForwardInputPassThrough(t *testing.T) {
	b := newTestBrain(t, 3, nil, 3)

	// Edge order is inputs 0..2 then bias, all into the output node
	const w, bias, x = 0.7, -0.3, 0.5
	require.NoError(t, b.SetWeights([]float64{0, w, 0, bias}))

	out, err := b.FeedForward([]float64{0, x, 0})
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(w*x+bias), out, 1e-12)
}

func TestFeedForwardRejectsWrongInputSize(t *testing.T) {
	b := newTestBrain(t, 3, nil, 1)

	_, err := b.FeedForward([]float64{1, 2})
	assert.ErrorIs(t, err, ErrInputSize)
}

func TestFeedForwardResetsAccumulators(t *testing.T) {
	b := newTestBrain(t, 2, []int{3}, 5)

	_, err := b.FeedForward([]float64{1, 1})
	require.NoError(t, err)
	for i := range b.nodes {
		assert.Zero(t, b.nodes[i].input, "node %d", i)
	}
}

func TestCloneFidelityAndIndependence(t *testing.T) {
	b := newTestBrain(t, 3, []int{4}, 11)
	clone := b.Clone()
	in := []float64{0.1, 0.5, 0.8}

	want, err := b.FeedForward(in)
	require.NoError(t, err)
	got, err := clone.FeedForward(in)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	before := b.Weights()
	always := MutationPolicy{Probability: 1, ReplaceRate: 1}
	require.True(t, clone.Mutate(always, rand.New(rand.NewSource(2))))
	assert.Equal(t, before, b.Weights())
	assert.NotEqual(t, before, clone.Weights())
}

func TestMutateRate(t *testing.T) {
	b := newTestBrain(t, 3, nil, 1)
	rng := rand.New(rand.NewSource(42))
	p := DefaultMutationPolicy()

	const trials = 1000
	changed := 0
	for i := 0; i < trials; i++ {
		before := b.Weights()
		b.Mutate(p, rng)
		after := b.Weights()
		for j := range before {
			if before[j] != after[j] {
				changed++
				break
			}
		}
	}

	// Weights sitting on the clamp can survive a perturbation unchanged, so
	// the observed rate is at most the invocation probability.
	rate := float64(changed) / trials
	assert.InDelta(t, 0.8, rate, 0.06)
}

func TestMutateNeverWithZeroProbability(t *testing.T) {
	b := newTestBrain(t, 3, nil, 1)
	before := b.Weights()

	applied := b.Mutate(MutationPolicy{Probability: 0, ReplaceRate: 1}, rand.New(rand.NewSource(1)))
	assert.False(t, applied)
	assert.Equal(t, before, b.Weights())
}

func TestMutateClampsPerturbation(t *testing.T) {
	b := newTestBrain(t, 4, []int{3}, 1)
	p := MutationPolicy{Probability: 1, PerturbScale: 10, WeightLimit: 1}
	rng := rand.New(rand.NewSource(9))

	for i := 0; i < 50; i++ {
		b.Mutate(p, rng)
	}
	for _, w := range b.Weights() {
		assert.LessOrEqual(t, math.Abs(w), 1.0)
	}
}

func TestDistance(t *testing.T) {
	a := newTestBrain(t, 3, nil, 1)

	d, err := a.Distance(a.Clone())
	require.NoError(t, err)
	assert.Zero(t, d)

	b := a.Clone()
	w := b.Weights()
	for i := range w {
		w[i] += 0.5
	}
	require.NoError(t, b.SetWeights(w))
	d, err = a.Distance(b)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, d, 1e-12)

	other := newTestBrain(t, 3, []int{2}, 1)
	_, err = a.Distance(other)
	assert.ErrorIs(t, err, ErrTopologyMismatch)
}

func TestRecordRoundTrip(t *testing.T) {
	b := newTestBrain(t, 3, []int{4, 2}, 13)

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded Brain
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, b.Weights(), decoded.Weights())
	assert.Equal(t, b.Hidden(), decoded.Hidden())

	in := []float64{0.3, 0.6, 0.9}
	want, err := b.FeedForward(in)
	require.NoError(t, err)
	got, err := decoded.FeedForward(in)
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(want), math.Float64bits(got))
}

func TestFromRecordRejectsMalformed(t *testing.T) {
	good := newTestBrain(t, 2, []int{2}, 1).Record()

	cases := map[string]func(r *Record){
		"negative inputs":   func(r *Record) { r.Inputs = -1 },
		"missing node":      func(r *Record) { r.Nodes = r.Nodes[:len(r.Nodes)-1] },
		"wrong layer":       func(r *Record) { r.Nodes[0].Layer = 1 },
		"unknown endpoint":  func(r *Record) { r.Connections[0].To = 42 },
		"backward edge":     func(r *Record) { r.Connections[0].From, r.Connections[0].To = r.Connections[0].To, r.Connections[0].From },
		"duplicate edge":    func(r *Record) { r.Connections[1] = r.Connections[0] },
		"missing edge":      func(r *Record) { r.Connections = r.Connections[1:] },
		"zero hidden layer": func(r *Record) { r.Hidden = []int{0} },
	}
	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			r := good
			r.Hidden = append([]int(nil), good.Hidden...)
			r.Nodes = append([]NodeRecord(nil), good.Nodes...)
			r.Connections = append([]ConnectionRecord(nil), good.Connections...)
			corrupt(&r)

			_, err := FromRecord(r)
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	var b Brain
	err := json.Unmarshal([]byte(`{"inputs": "three"}`), &b)
	assert.Error(t, err)
}

package gcn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ritzau/gcn-trainer/pkg/graphdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// testGraph builds a small connected graph for model tests.
func testGraph(t *testing.T, nodes, features, classes int, rng *rand.Rand) *graphdata.Graph {
	t.Helper()

	data := make([]float64, nodes*features)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	labels := make([]int, nodes)
	for i := range labels {
		labels[i] = i % classes
	}

	// Ring topology keeps everything connected and the edge list easy to
	// emit in sorted order
	var rows, cols []int
	for i := 0; i < nodes; i++ {
		prev := (i + nodes - 1) % nodes
		next := (i + 1) % nodes
		if prev < next {
			rows = append(rows, i, i)
			cols = append(cols, prev, next)
		} else {
			rows = append(rows, i, i)
			cols = append(cols, next, prev)
		}
	}

	g, err := graphdata.New(mat.NewDense(nodes, features, data), labels, rows, cols, classes)
	require.NoError(t, err)
	return g
}

func TestForwardOutputShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := testGraph(t, 6, 3, 4, rng)

	for _, hidden := range []int{2, 8, 32} {
		model := New(3, hidden, 4, 0.5, false)
		model.ResetParameters(rng)

		out := model.Forward(g.Adj, g.Features, false, nil)
		n, c := out.Dims()
		assert.Equal(t, 6, n, "hidden=%d", hidden)
		assert.Equal(t, 4, c, "hidden=%d", hidden)
	}
}

func TestLogSoftmaxRowsNormalize(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	g := testGraph(t, 5, 3, 3, rng)

	model := New(3, 8, 3, 0.5, false)
	model.ResetParameters(rng)

	out := model.Forward(g.Adj, g.Features, false, nil)
	n, c := out.Dims()
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < c; j++ {
			sum += math.Exp(out.At(i, j))
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "row %d", i)
	}
}

func TestReturnEmbedsSkipsLogSoftmax(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := testGraph(t, 5, 3, 3, rng)

	model := New(3, 8, 3, 0.5, true)
	model.ResetParameters(rng)

	out := model.Forward(g.Adj, g.Features, false, nil)
	n, c := out.Dims()

	normalized := true
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < c; j++ {
			sum += math.Exp(out.At(i, j))
		}
		if math.Abs(sum-1) > 1e-9 {
			normalized = false
		}
	}
	assert.False(t, normalized, "embeddings should not be log-probabilities")
}

func TestResetParametersVariesWithSeed(t *testing.T) {
	a := New(3, 8, 2, 0.5, false)
	b := New(3, 8, 2, 0.5, false)

	a.ResetParameters(rand.New(rand.NewSource(1)))
	b.ResetParameters(rand.New(rand.NewSource(2)))

	assert.False(t, mat.EqualApprox(a.Convs[0].W, b.Convs[0].W, 1e-12),
		"different seeds must give different weights")

	// Same seed reproduces the same initialization
	c := New(3, 8, 2, 0.5, false)
	c.ResetParameters(rand.New(rand.NewSource(1)))
	assert.True(t, mat.EqualApprox(a.Convs[0].W, c.Convs[0].W, 0))
}

func TestEvalForwardDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	g := testGraph(t, 6, 3, 3, rng)

	model := New(3, 8, 3, 0.5, false)
	model.ResetParameters(rng)

	out1 := model.Forward(g.Adj, g.Features, false, nil)
	out2 := model.Forward(g.Adj, g.Features, false, nil)
	assert.True(t, mat.EqualApprox(out1, out2, 0), "eval-mode forward must be deterministic")
}

func TestCloneIsDeepCopy(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g := testGraph(t, 6, 3, 3, rng)

	model := New(3, 8, 3, 0.5, false)
	model.ResetParameters(rng)

	clone := model.Clone()
	before := model.Forward(g.Adj, g.Features, false, nil)
	cloneOut := clone.Forward(g.Adj, g.Features, false, nil)
	require.True(t, mat.EqualApprox(before, cloneOut, 1e-12), "clone must predict like the original")

	// Mutating the original must not affect the clone
	model.ResetParameters(rand.New(rand.NewSource(99)))
	afterClone := clone.Forward(g.Adj, g.Features, false, nil)
	assert.True(t, mat.EqualApprox(cloneOut, afterClone, 1e-12), "clone must be independent of the original")
}

func TestBackwardMatchesNumericGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	g := testGraph(t, 5, 3, 2, rng)

	model := New(3, 4, 2, 0, false)
	model.ResetParameters(rng)
	// Freeze running stats so repeated training-mode forwards are pure
	for _, bn := range model.BNs {
		bn.Momentum = 0
	}

	idx := []int{0, 1, 2, 3, 4}
	loss := func() float64 {
		logp := model.Forward(g.Adj, g.Features, true, nil)
		return NLLLoss(logp, g.Labels, idx)
	}

	logp := model.Forward(g.Adj, g.Features, true, nil)
	model.Backward(g.Adj, NLLGrad(logp, g.Labels, idx))

	const eps = 1e-5
	for _, p := range model.Params() {
		// Probe a few entries per parameter
		probes := []int{0, len(p.Data) / 2, len(p.Data) - 1}
		for _, j := range probes {
			orig := p.Data[j]
			p.Data[j] = orig + eps
			up := loss()
			p.Data[j] = orig - eps
			down := loss()
			p.Data[j] = orig

			numeric := (up - down) / (2 * eps)
			assert.InDelta(t, numeric, p.Grad[j], 1e-4,
				"%s[%d]: analytic %g vs numeric %g", p.Name, j, p.Grad[j], numeric)
		}
	}
}

func TestTrainingStepReducesLoss(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := testGraph(t, 12, 3, 2, rng)

	model := New(3, 8, 2, 0, false)
	model.ResetParameters(rng)
	opt := NewAdam(model.Params(), 0.05)

	idx := make([]int, g.NumNodes())
	for i := range idx {
		idx[i] = i
	}

	logp := model.Forward(g.Adj, g.Features, true, nil)
	initial := NLLLoss(logp, g.Labels, idx)

	var final float64
	for e := 0; e < 30; e++ {
		opt.ZeroGrad()
		logp := model.Forward(g.Adj, g.Features, true, nil)
		final = NLLLoss(logp, g.Labels, idx)
		model.Backward(g.Adj, NLLGrad(logp, g.Labels, idx))
		opt.Step()
	}

	assert.Less(t, final, initial, "loss should decrease over training steps")
}

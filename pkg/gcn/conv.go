// Package gcn implements a stacked graph convolutional network on gonum
// dense matrices with a sparse CSR adjacency, including the closed-form
// gradients needed to train it.
package gcn

import (
	"math"
	"math/rand"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Conv is a single graph convolution: out = Â·X·W + b, where Â is the
// normalized adjacency held by the graph.
type Conv struct {
	InDim  int
	OutDim int

	W *mat.Dense // InDim × OutDim
	B []float64  // OutDim

	dW *mat.Dense
	dB []float64

	agg *mat.Dense // cached Â·X from the last forward pass
}

// NewConv creates a convolution layer with zeroed weights; call Reset to
// initialize them.
func NewConv(inDim, outDim int) *Conv {
	return &Conv{
		InDim:  inDim,
		OutDim: outDim,
		W:      mat.NewDense(inDim, outDim, nil),
		B:      make([]float64, outDim),
		dW:     mat.NewDense(inDim, outDim, nil),
		dB:     make([]float64, outDim),
	}
}

// Reset reinitializes the weights with Glorot-uniform values and zeroes
// the bias.
func (c *Conv) Reset(rng *rand.Rand) {
	limit := math.Sqrt(6.0 / float64(c.InDim+c.OutDim))
	data := c.W.RawMatrix().Data
	for i := range data {
		data[i] = (2*rng.Float64() - 1) * limit
	}
	for i := range c.B {
		c.B[i] = 0
	}
}

// Forward computes Â·X·W + b and caches the aggregate Â·X for backward.
func (c *Conv) Forward(adj *sparse.CSR, x *mat.Dense) *mat.Dense {
	c.agg = spMM(adj, x)

	n, _ := c.agg.Dims()
	out := mat.NewDense(n, c.OutDim, nil)
	out.Mul(c.agg, c.W)
	for i := 0; i < n; i++ {
		floats.Add(out.RawRowView(i), c.B)
	}
	return out
}

// Backward consumes the gradient w.r.t. this layer's output, accumulates
// the weight and bias gradients, and returns the gradient w.r.t. the
// layer input. Â is symmetric, so propagating through the aggregation is
// another multiply by Â.
func (c *Conv) Backward(adj *sparse.CSR, dOut *mat.Dense) *mat.Dense {
	// dW = (Â·X)ᵀ · dOut
	c.dW.Mul(c.agg.T(), dOut)

	// dB = column sums of dOut
	n, _ := dOut.Dims()
	for j := range c.dB {
		c.dB[j] = 0
	}
	for i := 0; i < n; i++ {
		floats.Add(c.dB, dOut.RawRowView(i))
	}

	// dX = Â · (dOut · Wᵀ)
	dAgg := mat.NewDense(n, c.InDim, nil)
	dAgg.Mul(dOut, c.W.T())
	return spMM(adj, dAgg)
}

// Clone returns a deep copy of the layer's parameters. Caches and
// gradients are not carried over.
func (c *Conv) Clone() *Conv {
	clone := NewConv(c.InDim, c.OutDim)
	clone.W.Copy(c.W)
	copy(clone.B, c.B)
	return clone
}

// spMM multiplies a sparse matrix by a dense one, scattering each stored
// entry across the corresponding dense row.
func spMM(a *sparse.CSR, x *mat.Dense) *mat.Dense {
	r, _ := a.Dims()
	_, f := x.Dims()
	out := mat.NewDense(r, f, nil)
	a.DoNonZero(func(i, j int, v float64) {
		floats.AddScaled(out.RawRowView(i), v, x.RawRowView(j))
	})
	return out
}

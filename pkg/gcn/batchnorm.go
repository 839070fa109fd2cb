package gcn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// BatchNorm normalizes each feature column over the node dimension, with
// learned scale/shift and running statistics for evaluation mode.
type BatchNorm struct {
	Dim      int
	Momentum float64
	Eps      float64

	Gamma []float64
	Beta  []float64

	RunningMean []float64
	RunningVar  []float64

	dGamma []float64
	dBeta  []float64

	// caches from the last training-mode forward
	xhat   *mat.Dense
	invStd []float64
}

// NewBatchNorm creates a batch norm layer with identity scale and the
// usual momentum of 0.1.
func NewBatchNorm(dim int) *BatchNorm {
	bn := &BatchNorm{
		Dim:         dim,
		Momentum:    0.1,
		Eps:         1e-5,
		Gamma:       make([]float64, dim),
		Beta:        make([]float64, dim),
		RunningMean: make([]float64, dim),
		RunningVar:  make([]float64, dim),
		dGamma:      make([]float64, dim),
		dBeta:       make([]float64, dim),
	}
	bn.Reset()
	return bn
}

// Reset restores identity scale, zero shift, and fresh running statistics.
func (bn *BatchNorm) Reset() {
	for i := 0; i < bn.Dim; i++ {
		bn.Gamma[i] = 1
		bn.Beta[i] = 0
		bn.RunningMean[i] = 0
		bn.RunningVar[i] = 1
	}
}

// Forward normalizes x column-wise. In training mode the batch statistics
// are used and folded into the running estimates; in evaluation mode the
// running estimates are used unchanged.
func (bn *BatchNorm) Forward(x *mat.Dense, training bool) *mat.Dense {
	n, d := x.Dims()
	out := mat.NewDense(n, d, nil)

	if !training {
		for j := 0; j < d; j++ {
			inv := 1 / math.Sqrt(bn.RunningVar[j]+bn.Eps)
			for i := 0; i < n; i++ {
				out.Set(i, j, bn.Gamma[j]*(x.At(i, j)-bn.RunningMean[j])*inv+bn.Beta[j])
			}
		}
		return out
	}

	bn.xhat = mat.NewDense(n, d, nil)
	bn.invStd = make([]float64, d)

	for j := 0; j < d; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += x.At(i, j)
		}
		mean := sum / float64(n)

		var sqSum float64
		for i := 0; i < n; i++ {
			diff := x.At(i, j) - mean
			sqSum += diff * diff
		}
		biasedVar := sqSum / float64(n)

		inv := 1 / math.Sqrt(biasedVar+bn.Eps)
		bn.invStd[j] = inv
		for i := 0; i < n; i++ {
			xh := (x.At(i, j) - mean) * inv
			bn.xhat.Set(i, j, xh)
			out.Set(i, j, bn.Gamma[j]*xh+bn.Beta[j])
		}

		// Running stats track the unbiased variance
		unbiasedVar := biasedVar
		if n > 1 {
			unbiasedVar = sqSum / float64(n-1)
		}
		bn.RunningMean[j] = (1-bn.Momentum)*bn.RunningMean[j] + bn.Momentum*mean
		bn.RunningVar[j] = (1-bn.Momentum)*bn.RunningVar[j] + bn.Momentum*unbiasedVar
	}

	return out
}

// Backward consumes the gradient w.r.t. the normalized output, records
// dGamma/dBeta, and returns the gradient w.r.t. the input. Requires a
// preceding training-mode Forward.
func (bn *BatchNorm) Backward(dOut *mat.Dense) *mat.Dense {
	n, d := dOut.Dims()
	dx := mat.NewDense(n, d, nil)

	for j := 0; j < d; j++ {
		var sumDy, sumDyXhat float64
		for i := 0; i < n; i++ {
			dy := dOut.At(i, j)
			sumDy += dy
			sumDyXhat += dy * bn.xhat.At(i, j)
		}
		bn.dBeta[j] = sumDy
		bn.dGamma[j] = sumDyXhat

		scale := bn.Gamma[j] * bn.invStd[j] / float64(n)
		for i := 0; i < n; i++ {
			dy := dOut.At(i, j)
			dx.Set(i, j, scale*(float64(n)*dy-sumDy-bn.xhat.At(i, j)*sumDyXhat))
		}
	}

	return dx
}

// Clone returns a deep copy of the learned parameters and running
// statistics.
func (bn *BatchNorm) Clone() *BatchNorm {
	clone := NewBatchNorm(bn.Dim)
	copy(clone.Gamma, bn.Gamma)
	copy(clone.Beta, bn.Beta)
	copy(clone.RunningMean, bn.RunningMean)
	copy(clone.RunningVar, bn.RunningVar)
	return clone
}

package gcn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestLogSoftmaxNormalizes(t *testing.T) {
	z := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		-100, 0, 100, // stresses the max-shift
	})

	logp := LogSoftmax(z)

	for i := 0; i < 2; i++ {
		var sum float64
		for j := 0; j < 3; j++ {
			v := logp.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 1) {
				t.Fatalf("logp[%d][%d] = %g", i, j, v)
			}
			sum += math.Exp(v)
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "row %d", i)
	}
}

func TestNLLLoss(t *testing.T) {
	// Uniform log-probs over 4 classes: loss is log(4) for any labels
	logp := mat.NewDense(2, 4, []float64{
		math.Log(0.25), math.Log(0.25), math.Log(0.25), math.Log(0.25),
		math.Log(0.25), math.Log(0.25), math.Log(0.25), math.Log(0.25),
	})

	loss := NLLLoss(logp, []int{0, 3}, []int{0, 1})
	assert.InDelta(t, math.Log(4), loss, 1e-12)

	// Restricting to a subset only scores those rows
	confident := mat.NewDense(2, 2, []float64{
		math.Log(0.9), math.Log(0.1),
		math.Log(0.5), math.Log(0.5),
	})
	loss = NLLLoss(confident, []int{0, 0}, []int{0})
	assert.InDelta(t, -math.Log(0.9), loss, 1e-12)

	assert.Equal(t, 0.0, NLLLoss(logp, []int{0, 0}, nil))
}

func TestNLLGradRowsSumToZero(t *testing.T) {
	logp := LogSoftmax(mat.NewDense(3, 3, []float64{
		1, 0, -1,
		0.5, 0.5, 0.5,
		-2, 3, 1,
	}))

	grad := NLLGrad(logp, []int{0, 1, 2}, []int{0, 2})

	// Selected rows: softmax - onehot sums to zero
	for _, i := range []int{0, 2} {
		var sum float64
		for j := 0; j < 3; j++ {
			sum += grad.At(i, j)
		}
		assert.InDelta(t, 0, sum, 1e-12, "row %d", i)
	}

	// Unselected row carries no gradient
	for j := 0; j < 3; j++ {
		assert.Equal(t, 0.0, grad.At(1, j))
	}
}

func TestArgmax(t *testing.T) {
	out := mat.NewDense(3, 3, []float64{
		0.1, 0.7, 0.2,
		5, -1, 2,
		-3, -2, -1,
	})

	assert.Equal(t, []int{1, 0, 2}, Argmax(out))
}

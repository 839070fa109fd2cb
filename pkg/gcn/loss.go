package gcn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogSoftmax returns row-wise log-softmax of z, shifted by the row max
// for stability.
func LogSoftmax(z *mat.Dense) *mat.Dense {
	n, c := z.Dims()
	out := mat.NewDense(n, c, nil)

	for i := 0; i < n; i++ {
		row := z.RawRowView(i)
		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}

		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(v - maxVal)
		}
		logSum := maxVal + math.Log(sumExp)

		outRow := out.RawRowView(i)
		for j, v := range row {
			outRow[j] = v - logSum
		}
	}

	return out
}

// NLLLoss computes the mean negative log-likelihood of the true labels
// over the given node positions, from row-wise log-probabilities.
func NLLLoss(logProbs *mat.Dense, labels []int, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum -= logProbs.At(i, labels[i])
	}
	return sum / float64(len(idx))
}

// NLLGrad returns the gradient of NLLLoss w.r.t. the logits feeding the
// log-softmax: (softmax - onehot)/|idx| on the selected rows, zero
// elsewhere.
func NLLGrad(logProbs *mat.Dense, labels []int, idx []int) *mat.Dense {
	n, c := logProbs.Dims()
	grad := mat.NewDense(n, c, nil)
	if len(idx) == 0 {
		return grad
	}

	scale := 1 / float64(len(idx))
	for _, i := range idx {
		gRow := grad.RawRowView(i)
		lRow := logProbs.RawRowView(i)
		for j := 0; j < c; j++ {
			gRow[j] = math.Exp(lRow[j]) * scale
		}
		gRow[labels[i]] -= scale
	}

	return grad
}

// Argmax returns the predicted class per row.
func Argmax(out *mat.Dense) []int {
	n, c := out.Dims()
	preds := make([]int, n)
	for i := 0; i < n; i++ {
		row := out.RawRowView(i)
		best := 0
		for j := 1; j < c; j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		preds[i] = best
	}
	return preds
}

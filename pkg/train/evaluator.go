// Package train runs the epoch loop: forward, loss, backward, optimizer
// step, per-split evaluation, and best-model tracking.
package train

import "fmt"

// Evaluator scores predictions with the benchmark metric registered for a
// dataset name. Every node-classification benchmark handled here is
// accuracy-scored.
type Evaluator struct {
	Dataset string
}

// NewEvaluator returns the metric evaluator for the named dataset.
func NewEvaluator(name string) *Evaluator {
	return &Evaluator{Dataset: name}
}

// Accuracy returns the fraction of correctly predicted labels over the
// given node positions.
func (e *Evaluator) Accuracy(yTrue, yPred []int, idx []int) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("evaluator %s: %d labels vs %d predictions", e.Dataset, len(yTrue), len(yPred))
	}
	if len(idx) == 0 {
		return 0, nil
	}

	correct := 0
	for _, i := range idx {
		if i < 0 || i >= len(yTrue) {
			return 0, fmt.Errorf("evaluator %s: index %d outside [0,%d)", e.Dataset, i, len(yTrue))
		}
		if yTrue[i] == yPred[i] {
			correct++
		}
	}

	return float64(correct) / float64(len(idx)), nil
}

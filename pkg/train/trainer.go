package train

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/ritzau/gcn-trainer/pkg/gcn"
	"github.com/ritzau/gcn-trainer/pkg/graphdata"
	"github.com/ritzau/gcn-trainer/pkg/logging"
	"github.com/ritzau/gcn-trainer/pkg/pubsub"
)

// Topics published during a run when a publisher is attached.
const (
	TopicStatus  = "training_status"
	TopicMetrics = "epoch_metrics"
)

// Trainer owns one training run over a fixed graph and split.
type Trainer struct {
	Model  *gcn.GCN
	Graph  *graphdata.Graph
	Split  graphdata.Split
	Eval   *Evaluator
	Epochs int

	opt *gcn.Adam
	rng *rand.Rand

	// Publisher is optional; when set, status and per-epoch metrics are
	// published for live subscribers.
	Publisher pubsub.Publisher
}

// Result carries the outcome of a run: the snapshot of the model at its
// best validation accuracy, and that snapshot's accuracy on every split.
type Result struct {
	BestModel    *gcn.GCN
	BestEpoch    int
	BestValidAcc float64

	TrainAcc float64
	ValidAcc float64
	TestAcc  float64
}

// New prepares a trainer. The model's parameters are freshly initialized
// from rng, and the optimizer is bound to them.
func New(model *gcn.GCN, g *graphdata.Graph, split graphdata.Split, eval *Evaluator, epochs int, lr float64, rng *rand.Rand) *Trainer {
	model.ResetParameters(rng)
	return &Trainer{
		Model:  model,
		Graph:  g,
		Split:  split,
		Eval:   eval,
		Epochs: epochs,
		opt:    gcn.NewAdam(model.Params(), lr),
		rng:    rng,
	}
}

// Run executes the full epoch budget. There is no early stopping; the
// loop ends when the budget elapses or ctx is cancelled. Errors from the
// evaluator abort the run.
func (t *Trainer) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	t.publishStatus("training", "training started", 0)

	for epoch := 1; epoch <= t.Epochs; epoch++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("training cancelled at epoch %d: %w", epoch, ctx.Err())
		default:
		}

		loss := t.step()

		trainAcc, validAcc, testAcc, err := t.Evaluate(t.Model)
		if err != nil {
			return nil, fmt.Errorf("epoch %d: %w", epoch, err)
		}

		if validAcc > result.BestValidAcc || result.BestModel == nil {
			result.BestModel = t.Model.Clone()
			result.BestEpoch = epoch
			result.BestValidAcc = validAcc
		}

		logging.Info("epoch",
			"epoch", epoch,
			"loss", loss,
			"train", fmt.Sprintf("%.2f%%", 100*trainAcc),
			"valid", fmt.Sprintf("%.2f%%", 100*validAcc),
			"test", fmt.Sprintf("%.2f%%", 100*testAcc),
		)
		t.publishMetrics(pubsub.EpochMetrics{
			Epoch:    epoch,
			Loss:     loss,
			TrainAcc: trainAcc,
			ValidAcc: validAcc,
			TestAcc:  testAcc,
			BestAcc:  result.BestValidAcc,
		})
	}

	// Score the retained snapshot on every split
	var err error
	result.TrainAcc, result.ValidAcc, result.TestAcc, err = t.Evaluate(result.BestModel)
	if err != nil {
		return nil, fmt.Errorf("final evaluation: %w", err)
	}

	t.publishStatus("done", "training complete", t.Epochs)
	return result, nil
}

// step performs one full-graph training step and returns the loss. The
// forward pass covers the whole graph because convolutions aggregate
// across split boundaries; only the train rows contribute to the loss.
func (t *Trainer) step() float64 {
	t.opt.ZeroGrad()

	logProbs := t.Model.Forward(t.Graph.Adj, t.Graph.Features, true, t.rng)
	loss := gcn.NLLLoss(logProbs, t.Graph.Labels, t.Split.Train)

	t.Model.Backward(t.Graph.Adj, gcn.NLLGrad(logProbs, t.Graph.Labels, t.Split.Train))
	t.opt.Step()

	return loss
}

// Evaluate scores a model on the three splits in evaluation mode.
func (t *Trainer) Evaluate(model *gcn.GCN) (trainAcc, validAcc, testAcc float64, err error) {
	out := model.Forward(t.Graph.Adj, t.Graph.Features, false, nil)
	preds := gcn.Argmax(out)

	if trainAcc, err = t.Eval.Accuracy(t.Graph.Labels, preds, t.Split.Train); err != nil {
		return 0, 0, 0, err
	}
	if validAcc, err = t.Eval.Accuracy(t.Graph.Labels, preds, t.Split.Valid); err != nil {
		return 0, 0, 0, err
	}
	if testAcc, err = t.Eval.Accuracy(t.Graph.Labels, preds, t.Split.Test); err != nil {
		return 0, 0, 0, err
	}
	return trainAcc, validAcc, testAcc, nil
}

// Predict returns the model's predicted class for every node.
func (t *Trainer) Predict(model *gcn.GCN) []int {
	out := model.Forward(t.Graph.Adj, t.Graph.Features, false, nil)
	return gcn.Argmax(out)
}

func (t *Trainer) publishStatus(state, message string, epoch int) {
	if t.Publisher == nil {
		return
	}
	err := t.Publisher.Publish(TopicStatus, state, pubsub.TrainingStatus{
		State:   state,
		Message: message,
		Epoch:   epoch,
		Total:   t.Epochs,
	})
	if err != nil {
		logging.Warn("failed to publish training status", "error", err)
	}
}

func (t *Trainer) publishMetrics(m pubsub.EpochMetrics) {
	if t.Publisher == nil {
		return
	}
	if err := t.Publisher.Publish(TopicMetrics, "epoch", m); err != nil {
		logging.Warn("failed to publish epoch metrics", "error", err)
	}
}

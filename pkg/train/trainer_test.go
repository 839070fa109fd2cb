package train

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/ritzau/gcn-trainer/pkg/dataset"
	"github.com/ritzau/gcn-trainer/pkg/gcn"
	"github.com/ritzau/gcn-trainer/pkg/graphdata"
	"github.com/ritzau/gcn-trainer/pkg/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smokeTrainer(t *testing.T, epochs int, pub pubsub.Publisher) *Trainer {
	t.Helper()
	rng := rand.New(rand.NewSource(21))

	g, err := dataset.Synthetic(10, 4, 3, 2, rng)
	require.NoError(t, err)

	split, err := graphdata.RandomSplit(g.NumNodes(), graphdata.DefaultFractions, rng)
	require.NoError(t, err)

	model := gcn.New(g.NumFeatures(), 8, g.NumClasses, 0.5, false)
	tr := New(model, g, split, NewEvaluator("synthetic"), epochs, 0.01, rng)
	tr.Publisher = pub
	return tr
}

func TestRunEndToEnd(t *testing.T) {
	tr := smokeTrainer(t, 2, nil)

	result, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.BestModel)

	for name, acc := range map[string]float64{
		"best valid": result.BestValidAcc,
		"train":      result.TrainAcc,
		"valid":      result.ValidAcc,
		"test":       result.TestAcc,
	} {
		assert.GreaterOrEqual(t, acc, 0.0, name)
		assert.LessOrEqual(t, acc, 1.0, name)
	}
	assert.GreaterOrEqual(t, result.BestEpoch, 1)
	assert.LessOrEqual(t, result.BestEpoch, 2)
}

func TestRunSnapshotIsIndependent(t *testing.T) {
	tr := smokeTrainer(t, 2, nil)

	result, err := tr.Run(context.Background())
	require.NoError(t, err)

	// The snapshot must not be the live model
	require.NotSame(t, tr.Model, result.BestModel)

	before := tr.Predict(result.BestModel)
	tr.Model.ResetParameters(rand.New(rand.NewSource(1234)))
	after := tr.Predict(result.BestModel)
	assert.Equal(t, before, after, "snapshot predictions must survive live-model mutation")
}

func TestRunPublishesMetrics(t *testing.T) {
	pub := pubsub.NewSSEPublisher()
	defer pub.Close()
	pub.ConfigureTopic(TopicMetrics, pubsub.TopicConfig{BufferSize: 10, ReplayAll: true})
	pub.ConfigureTopic(TopicStatus, pubsub.TopicConfig{BufferSize: 1, ReplayAll: false})

	tr := smokeTrainer(t, 2, pub)
	_, err := tr.Run(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	sub, err := pub.Subscribe(ctx, TopicMetrics)
	require.NoError(t, err)
	defer sub.Close()

	received := 0
	for received < 2 {
		select {
		case <-sub.Events():
			received++
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("got %d epoch events, want 2", received)
		}
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	tr := smokeTrainer(t, 1000, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateBounds(t *testing.T) {
	tr := smokeTrainer(t, 1, nil)

	trainAcc, validAcc, testAcc, err := tr.Evaluate(tr.Model)
	require.NoError(t, err)
	for name, acc := range map[string]float64{"train": trainAcc, "valid": validAcc, "test": testAcc} {
		assert.GreaterOrEqual(t, acc, 0.0, name)
		assert.LessOrEqual(t, acc, 1.0, name)
	}
}

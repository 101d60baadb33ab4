package trainer

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"modelfixtures/internal/dataset"
	"modelfixtures/internal/metrics"
	"modelfixtures/internal/model"
)

func newXORNetwork(t *testing.T) *model.Network {
	t.Helper()
	net, err := model.NewNetwork(model.Config{
		InputSize: 2,
		Layers: []model.LayerSpec{
			{Units: 16, Activation: model.ReLU},
			{Units: 16, Activation: model.ReLU},
			{Units: 1, Activation: model.Linear},
		},
		Loss:      model.MeanSquaredError{},
		Optimizer: model.NewAdam(0.01),
		Rand:      rand.New(rand.NewSource(3)),
	})
	require.NoError(t, err)
	return net
}

func TestMakeBatch(t *testing.T) {
	ds := dataset.FizzBuzz(1, 10, 7)
	batch := makeBatch(ds, []int{2, 4})
	require.Equal(t, 2, batch.Size())
	require.Equal(t, dataset.Bin(3, 7), batch.Inputs.RawRowView(0))
	require.Equal(t, dataset.FizzBuzzLabel(5), batch.Targets.RawRowView(1))
}

func TestRunReducesLoss(t *testing.T) {
	net := newXORNetwork(t)
	ds := dataset.XOR()
	before := Evaluate(net, ds, net.Loss(), metrics.MeanAbsoluteError{})

	core, logs := observer.New(zap.InfoLevel)
	history, err := Run(context.Background(), RunConfig{Epochs: 300, BatchSize: 4, LogEvery: 100, Seed: 5},
		net, ds, metrics.MeanAbsoluteError{}, zap.New(core))
	require.NoError(t, err)
	require.Len(t, history.Epochs, 300)
	require.Equal(t, "mae", history.Metric)
	require.Less(t, history.Last().Loss, history.Epochs[0].Loss)

	after := Evaluate(net, ds, net.Loss(), metrics.MeanAbsoluteError{})
	require.Less(t, after.Loss, before.Loss)

	entries := logs.FilterMessage("epoch").All()
	require.Len(t, entries, 3)
	require.EqualValues(t, 300, entries[2].ContextMap()["epoch"])
}

func TestRunRejectsMismatchedDataset(t *testing.T) {
	net := newXORNetwork(t)
	_, err := Run(context.Background(), RunConfig{Epochs: 1, BatchSize: 4},
		net, dataset.FizzBuzz(1, 10, 7), metrics.CategoricalAccuracy{}, nil)
	require.Error(t, err)
}

func TestRunRejectsBadConfig(t *testing.T) {
	net := newXORNetwork(t)
	_, err := Run(context.Background(), RunConfig{Epochs: 0, BatchSize: 4}, net, dataset.XOR(), metrics.MeanAbsoluteError{}, nil)
	require.Error(t, err)
	_, err = Run(context.Background(), RunConfig{Epochs: 1, BatchSize: 0}, net, dataset.XOR(), metrics.MeanAbsoluteError{}, nil)
	require.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	history, err := Run(ctx, RunConfig{Epochs: 10, BatchSize: 4}, newXORNetwork(t), dataset.XOR(), metrics.MeanAbsoluteError{}, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, history.Epochs)
}

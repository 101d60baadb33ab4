package trainer

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"modelfixtures/internal/dataset"
	"modelfixtures/internal/metrics"
	"modelfixtures/internal/model"
)

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Epochs    int
	BatchSize int
	LogEvery  int
	Seed      int64
	NoShuffle bool
}

// Epoch is the summary of one pass over the dataset.
type Epoch struct {
	Loss   float64
	Metric float64
}

// History holds one entry per completed epoch.
type History struct {
	Metric string
	Epochs []Epoch
}

// Last returns the final epoch summary.
func (h History) Last() Epoch {
	if len(h.Epochs) == 0 {
		return Epoch{}
	}
	return h.Epochs[len(h.Epochs)-1]
}

// Run trains mdl on ds for cfg.Epochs full passes.
func Run(ctx context.Context, cfg RunConfig, mdl model.Model, ds dataset.Dataset, metric metrics.Metric, logger *zap.Logger) (History, error) {
	if cfg.Epochs <= 0 {
		return History{}, errors.New("trainer: epochs must be > 0")
	}
	if cfg.BatchSize <= 0 {
		return History{}, errors.New("trainer: batch size must be > 0")
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ds.Validate(); err != nil {
		return History{}, err
	}
	if ds.InputSize != mdl.InputSize() || ds.OutputSize != mdl.OutputSize() {
		return History{}, errors.Errorf("trainer: dataset %s is %dx%d but model is %dx%d",
			ds.Name, ds.InputSize, ds.OutputSize, mdl.InputSize(), mdl.OutputSize())
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	history := History{Metric: metric.Name(), Epochs: make([]Epoch, 0, cfg.Epochs)}
	var window metrics.Window

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return history, errors.Wrapf(err, "trainer: stopped at epoch %d", epoch)
		}

		order := dataset.EpochOrder(ds.Len(), rng, !cfg.NoShuffle)
		for _, idx := range dataset.Batches(order, cfg.BatchSize) {
			batch := makeBatch(ds, idx)

			start := time.Now()
			loss, pred := mdl.TrainStep(batch)
			computeTime := time.Since(start)

			window.Record(batch.Size(), computeTime, loss, metric.Eval(pred, batch.Targets))
		}

		snap := window.Snapshot()
		history.Epochs = append(history.Epochs, Epoch{Loss: snap.Loss, Metric: snap.Metric})

		if epoch%cfg.LogEvery == 0 || epoch == cfg.Epochs {
			logger.Info("epoch",
				zap.String("dataset", ds.Name),
				zap.Int("epoch", epoch),
				zap.Int("epochs", cfg.Epochs),
				zap.Float64("loss", snap.Loss),
				zap.Float64(metric.Name(), snap.Metric),
				zap.Float64("samples_per_sec", snap.SamplesPerSec),
				zap.Float64("step_ms", snap.AvgComputeMS),
			)
		}
	}

	return history, nil
}

// Evaluate scores mdl on the whole dataset without updating it.
func Evaluate(mdl model.Model, ds dataset.Dataset, loss model.Loss, metric metrics.Metric) Epoch {
	batch := makeBatch(ds, dataset.EpochOrder(ds.Len(), nil, false))
	pred := mdl.Predict(batch.Inputs)
	value, _ := loss.Evaluate(pred, batch.Targets)
	return Epoch{Loss: value, Metric: metric.Eval(pred, batch.Targets)}
}

func makeBatch(ds dataset.Dataset, idx []int) model.Batch {
	inputs := mat.NewDense(len(idx), ds.InputSize, nil)
	targets := mat.NewDense(len(idx), ds.OutputSize, nil)
	for row, i := range idx {
		s := ds.Samples[i]
		inputs.SetRow(row, s.Features)
		targets.SetRow(row, s.Label)
	}
	return model.Batch{Inputs: inputs, Targets: targets}
}

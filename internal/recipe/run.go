package recipe

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"modelfixtures/internal/config"
	"modelfixtures/internal/dataset"
	"modelfixtures/internal/model"
	"modelfixtures/internal/tflite"
	"modelfixtures/internal/trainer"
)

// Result describes a finished run.
type Result struct {
	Output  string
	Bytes   int
	Seed    int64
	History trainer.History
	Final   trainer.Epoch
}

// Run builds the dataset, trains the network, converts it to TFLite and
// writes it to cfg.Output, replacing any existing file. A zero cfg.Seed draws
// a seed from the clock.
func Run(ctx context.Context, r Recipe, cfg config.Config, logger *zap.Logger) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, errors.Wrap(err, "invalid config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("recipe", r.Name))

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ds := r.Dataset()
	if err := ds.Validate(); err != nil {
		return Result{}, err
	}

	net, err := model.NewNetwork(model.Config{
		InputSize: ds.InputSize,
		Layers:    r.Layers,
		Loss:      r.Loss,
		Optimizer: model.NewAdam(cfg.LearningRate),
		Rand:      rand.New(rand.NewSource(seed)),
	})
	if err != nil {
		return Result{}, err
	}
	logger.Info("training",
		zap.Int("samples", ds.Len()),
		zap.Int("epochs", cfg.Epochs),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Int64("seed", seed),
	)

	history, err := trainer.Run(ctx, trainer.RunConfig{
		Epochs:    cfg.Epochs,
		BatchSize: cfg.BatchSize,
		LogEvery:  cfg.LogEvery,
		Seed:      seed,
	}, net, ds, r.Metric, logger)
	if err != nil {
		return Result{}, err
	}
	final := trainer.Evaluate(net, ds, r.Loss, r.Metric)

	buf, err := tflite.Convert(net, tflite.Options{Description: r.Name})
	if err != nil {
		return Result{}, errors.Wrap(err, "convert")
	}
	exported, err := checkExport(buf, ds)
	if err != nil {
		return Result{}, err
	}
	logger.Debug("exported graph", zap.String("summary", exported.Summary()))

	if err := writeFile(cfg.Output, buf); err != nil {
		return Result{}, err
	}
	logger.Info("model written",
		zap.String("path", cfg.Output),
		zap.Int("bytes", len(buf)),
		zap.Float64("loss", final.Loss),
		zap.Float64(r.Metric.Name(), final.Metric),
	)

	if cfg.SamplesOut != "" {
		if err := dataset.WriteShardFile(cfg.SamplesOut, ds); err != nil {
			return Result{}, errors.Wrap(err, "write samples")
		}
		logger.Info("samples written", zap.String("path", cfg.SamplesOut), zap.Int("samples", ds.Len()))
	}

	return Result{
		Output:  cfg.Output,
		Bytes:   len(buf),
		Seed:    seed,
		History: history,
		Final:   final,
	}, nil
}

// checkExport loads buf back and verifies its input and output widths.
func checkExport(buf []byte, ds dataset.Dataset) (*tflite.Model, error) {
	m, err := tflite.Load(buf)
	if err != nil {
		return nil, errors.Wrap(err, "reload exported model")
	}
	in, out := m.InputShape(), m.OutputShape()
	if len(in) != 2 || int(in[1]) != ds.InputSize {
		return nil, errors.Errorf("exported input shape %v, want [1 %d]", in, ds.InputSize)
	}
	if len(out) != 2 || int(out[1]) != ds.OutputSize {
		return nil, errors.Errorf("exported output shape %v, want [1 %d]", out, ds.OutputSize)
	}
	return m, nil
}

func writeFile(path string, buf []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create output dir")
		}
	}
	return errors.Wrap(os.WriteFile(path, buf, 0o644), "write model")
}

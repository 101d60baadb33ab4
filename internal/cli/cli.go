// Package cli is the shared entry point of the training commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	arg "github.com/alexflint/go-arg"
	"go.uber.org/zap"

	"modelfixtures/internal/config"
	"modelfixtures/internal/logging"
	"modelfixtures/internal/recipe"
)

// Args are the optional command-line flags. Unset flags keep the recipe
// defaults, so running without arguments reproduces the fixture exactly.
type Args struct {
	Config     string `arg:"--config" help:"YAML config applied on top of the recipe defaults"`
	Out        string `arg:"--out" help:"output .tflite path"`
	Epochs     int    `arg:"--epochs" help:"number of training epochs"`
	BatchSize  int    `arg:"--batch-size" help:"minibatch size"`
	Seed       int64  `arg:"--seed" help:"PRNG seed, 0 draws one from the clock"`
	LogEvery   int    `arg:"--log-every" help:"log every N epochs"`
	LogLevel   string `arg:"--log-level" help:"debug, info, warn or error"`
	LogFile    string `arg:"--log-file" help:"also append logs to this rotated file"`
	SamplesOut string `arg:"--samples-out" help:"write the training set as a tar shard"`
}

// Resolve merges recipe defaults, the optional config file and the flags.
func Resolve(r recipe.Recipe, args Args) (*config.Config, error) {
	cfg := r.Defaults()
	if args.Config != "" {
		loaded, err := config.Load(args.Config, cfg)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	cfg.ApplyOverrides(config.Overrides{
		Output:     args.Out,
		Epochs:     args.Epochs,
		BatchSize:  args.BatchSize,
		Seed:       args.Seed,
		LogEvery:   args.LogEvery,
		LogLevel:   args.LogLevel,
		LogFile:    args.LogFile,
		SamplesOut: args.SamplesOut,
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Main parses os.Args, runs r and exits non-zero on failure.
func Main(r recipe.Recipe) {
	var args Args
	arg.MustParse(&args)

	cfg, err := Resolve(r, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := recipe.Run(ctx, r, *cfg, logger); err != nil {
		logger.Error("training failed", zap.Error(err))
		logger.Sync()
		stop()
		os.Exit(1)
	}
}

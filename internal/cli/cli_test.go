package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"modelfixtures/internal/recipe"
)

func TestResolveDefaults(t *testing.T) {
	cfg, err := Resolve(recipe.FizzBuzz(), Args{})
	require.NoError(t, err)
	require.Equal(t, "fizzbuzz_model.tflite", cfg.Output)
	require.Equal(t, 3600, cfg.Epochs)
	require.Equal(t, 64, cfg.BatchSize)
	require.Zero(t, cfg.Seed)
}

func TestResolveFlagsBeatConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epochs: 40\noutput: from-file.tflite\n"), 0o644))

	cfg, err := Resolve(recipe.XOR(), Args{Config: path, Out: "from-flag.tflite", Seed: 7})
	require.NoError(t, err)
	require.Equal(t, 40, cfg.Epochs)
	require.Equal(t, "from-flag.tflite", cfg.Output)
	require.Equal(t, int64(7), cfg.Seed)
	require.Equal(t, 4, cfg.BatchSize)
}

func TestResolveBadConfigFile(t *testing.T) {
	_, err := Resolve(recipe.XOR(), Args{Config: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
}

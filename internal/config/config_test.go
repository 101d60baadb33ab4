package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func base() Config {
	return Config{Output: "xor_model.tflite", Epochs: 500, BatchSize: 4}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMergesOntoBase(t *testing.T) {
	path := writeConfig(t, "epochs: 50\nseed: 9\nlog_file: train.log\n")
	cfg, err := Load(path, base())
	require.NoError(t, err)
	require.Equal(t, 50, cfg.Epochs)
	require.Equal(t, 4, cfg.BatchSize)
	require.Equal(t, int64(9), cfg.Seed)
	require.Equal(t, "xor_model.tflite", cfg.Output)
	require.Equal(t, "train.log", cfg.LogFile)
	require.Equal(t, 100, cfg.LogEvery)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEmptyFileKeepsBase(t *testing.T) {
	cfg, err := Load(writeConfig(t, "\n"), base())
	require.NoError(t, err)
	require.Equal(t, 500, cfg.Epochs)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "epochz: 3\n"), base())
	require.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "batch_size: 0\n"), base())
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), base())
	require.Error(t, err)
}

func TestApplyOverrides(t *testing.T) {
	cfg := base()
	cfg.ApplyOverrides(Overrides{Output: "out.tflite", Epochs: 10, Seed: 3, SamplesOut: "s.tar"})
	require.Equal(t, "out.tflite", cfg.Output)
	require.Equal(t, 10, cfg.Epochs)
	require.Equal(t, 4, cfg.BatchSize)
	require.Equal(t, int64(3), cfg.Seed)
	require.Equal(t, "s.tar", cfg.SamplesOut)
}

func TestValidate(t *testing.T) {
	var nilCfg *Config
	require.Error(t, nilCfg.Validate())

	cfg := base()
	cfg.Output = ""
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Epochs = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.LearningRate = -1
	require.Error(t, cfg.Validate())
}

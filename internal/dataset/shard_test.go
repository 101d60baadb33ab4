package dataset

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShardRoundTrip(t *testing.T) {
	ds := XOR()
	path := filepath.Join(t.TempDir(), "samples", "xor.tar")
	require.NoError(t, WriteShardFile(path, ds))

	samples, err := ReadShard(path, 0)
	require.NoError(t, err)
	require.Len(t, samples, ds.Len())
	for _, s := range samples {
		require.Len(t, s.Features, 2)
		require.Equal(t, []float64{XORLabel(int(s.Features[0]), int(s.Features[1]))}, s.Label)
	}
}

func TestReadShardKeepsDatasetOrder(t *testing.T) {
	ds := XOR()
	path := filepath.Join(t.TempDir(), "xor.tar")
	require.NoError(t, WriteShardFile(path, ds))

	samples, err := ReadShard(path, 0)
	require.NoError(t, err)
	require.Equal(t, ds.Samples, samples)

	var keys []string
	for _, s := range samples {
		keys = append(keys, s.Key)
	}
	require.Equal(t, []string{"00", "10", "01", "11"}, keys)
	require.Equal(t, []float64{1, 0}, samples[1].Features)
	require.Equal(t, []float64{0, 1}, samples[2].Features)
}

func TestReadShardIgnoresUnknownEntries(t *testing.T) {
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	addRawEntry(t, tw, "a.x", "1 0")
	addRawEntry(t, tw, "a.txt", "notes")
	addRawEntry(t, tw, "a.y", "1")
	require.NoError(t, tw.Close())

	path := filepath.Join(t.TempDir(), "shard.tar")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	samples, err := ReadShard(path, 4)
	require.NoError(t, err)
	require.Equal(t, []Sample{{Key: "a", Features: []float64{1, 0}, Label: []float64{1}}}, samples)
}

func TestReadShardIncomplete(t *testing.T) {
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	addRawEntry(t, tw, "a.x", "1 0")
	require.NoError(t, tw.Close())

	path := filepath.Join(t.TempDir(), "shard.tar")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err := ReadShard(path, 4)
	require.Error(t, err)
}

func TestReadShardPendingOverflow(t *testing.T) {
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	addRawEntry(t, tw, "a.x", "0")
	addRawEntry(t, tw, "b.x", "1")
	addRawEntry(t, tw, "c.x", "1")
	require.NoError(t, tw.Close())

	path := filepath.Join(t.TempDir(), "shard.tar")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err := ReadShard(path, 2)
	require.ErrorIs(t, err, ErrPendingOverflow)
}

func addRawEntry(t *testing.T, tw *tar.Writer, name, data string) {
	t.Helper()
	hdr := &tar.Header{Name: name, Size: int64(len(data)), Mode: 0o644}
	require.NoError(t, tw.WriteHeader(hdr))
	_, err := tw.Write([]byte(data))
	require.NoError(t, err)
}

package dataset

import (
	"archive/tar"
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Shard entry extensions.
const (
	featuresExt = ".x"
	labelExt    = ".y"
)

// ErrPendingOverflow indicates the pairing map exceeded the configured bound.
var ErrPendingOverflow = errors.New("shard: pending pair buffer exceeded")

const defaultPendingCap = 1024

// WriteShard writes ds as a WebDataset-style tar: one <key>.x and one <key>.y
// text entry per sample, values separated by spaces.
func WriteShard(w io.Writer, ds Dataset) error {
	tw := tar.NewWriter(w)
	for _, s := range ds.Samples {
		if err := addEntry(tw, s.Key+featuresExt, formatVector(s.Features)); err != nil {
			return err
		}
		if err := addEntry(tw, s.Key+labelExt, formatVector(s.Label)); err != nil {
			return err
		}
	}
	return errors.Wrap(tw.Close(), "close tar")
}

// WriteShardFile writes ds to path, replacing any existing file.
func WriteShardFile(path string, ds Dataset) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create shard dir")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create shard")
	}
	bw := bufio.NewWriter(f)
	if err := WriteShard(bw, ds); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "flush shard")
	}
	return errors.Wrap(f.Close(), "close shard")
}

// ReadShard reads paired samples back from the shard at path. Samples come
// back in the order their pairs complete, which for a shard produced by
// WriteShard is the dataset order.
func ReadShard(path string, pendingCap int) ([]Sample, error) {
	if pendingCap <= 0 {
		pendingCap = defaultPendingCap
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open shard")
	}
	defer f.Close()

	tr := tar.NewReader(bufio.NewReader(f))
	pending := make(map[string]*partial)
	var samples []Sample

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read tar")
		}
		if hdr.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(hdr.Name)
		ext := strings.ToLower(filepath.Ext(name))
		key := strings.TrimSuffix(name, ext)
		if ext != featuresExt && ext != labelExt {
			// ignore unknown extension
			continue
		}

		payload, err := io.ReadAll(tr)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", name)
		}
		values, err := parseVector(string(payload))
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", name)
		}
		part := pending[key]
		if part == nil {
			part = &partial{}
			pending[key] = part
		}
		if ext == featuresExt {
			part.features = values
		} else {
			part.label = values
		}

		if len(pending) > pendingCap {
			return nil, ErrPendingOverflow
		}
		if part.ready() {
			samples = append(samples, Sample{Key: key, Features: part.features, Label: part.label})
			delete(pending, key)
		}
	}

	if len(pending) > 0 {
		return nil, errors.Errorf("%d samples incomplete", len(pending))
	}
	return samples, nil
}

type partial struct {
	features []float64
	label    []float64
}

func (p *partial) ready() bool {
	return p.features != nil && p.label != nil
}

func addEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{Name: name, Size: int64(len(data)), Mode: 0o644}
	if err := tw.WriteHeader(hdr); err != nil {
		return errors.Wrapf(err, "write header %s", name)
	}
	_, err := tw.Write(data)
	return errors.Wrapf(err, "write %s", name)
}

func formatVector(v []float64) []byte {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return []byte(strings.Join(parts, " "))
}

func parseVector(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

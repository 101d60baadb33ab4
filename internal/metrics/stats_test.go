package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestWindowSnapshot(t *testing.T) {
	var w Window
	w.Record(64, 20*time.Millisecond, 1.2, 0.5)
	w.Record(36, 10*time.Millisecond, 0.8, 1.0)
	snap := w.Snapshot()
	require.InDelta(t, 3333.33, snap.SamplesPerSec, 1)
	require.InDelta(t, 15.0, snap.AvgComputeMS, 1e-9)
	require.InDelta(t, (64*1.2+36*0.8)/100, snap.Loss, 1e-12)
	require.InDelta(t, (64*0.5+36*1.0)/100, snap.Metric, 1e-12)
	require.Equal(t, 2, snap.Steps)
	require.Zero(t, w.samples)
	require.Zero(t, w.steps)

	empty := w.Snapshot()
	require.Zero(t, empty.Loss)
	require.Zero(t, empty.SamplesPerSec)
}

func TestCategoricalAccuracy(t *testing.T) {
	pred := mat.NewDense(3, 4, []float64{
		0.7, 0.1, 0.1, 0.1,
		0.1, 0.1, 0.1, 0.7,
		0.1, 0.6, 0.2, 0.1,
	})
	target := mat.NewDense(3, 4, []float64{
		1, 0, 0, 0,
		0, 0, 0, 1,
		0, 0, 1, 0,
	})
	acc := CategoricalAccuracy{}
	require.Equal(t, "accuracy", acc.Name())
	require.InDelta(t, 2.0/3.0, acc.Eval(pred, target), 1e-12)
}

func TestMeanAbsoluteError(t *testing.T) {
	pred := mat.NewDense(4, 1, []float64{0.1, 0.9, 1.2, 0})
	target := mat.NewDense(4, 1, []float64{0, 1, 1, 0})
	require.InDelta(t, (0.1+0.1+0.2)/4, MeanAbsoluteError{}.Eval(pred, target), 1e-12)
}

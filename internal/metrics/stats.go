package metrics

import "time"

// Window accumulates per-step stats across one epoch.
type Window struct {
	samples   int
	compute   time.Duration
	steps     int
	lossSum   float64
	metricSum float64
}

// Record adds a new measurement to the window. loss and metric are batch
// means and are weighted by batchSize.
func (w *Window) Record(batchSize int, computeTime time.Duration, loss, metric float64) {
	w.samples += batchSize
	w.compute += computeTime
	w.steps++
	w.lossSum += loss * float64(batchSize)
	w.metricSum += metric * float64(batchSize)
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{Steps: w.steps}
	if w.compute > 0 {
		snap.SamplesPerSec = float64(w.samples) / w.compute.Seconds()
	}
	if w.steps > 0 {
		snap.AvgComputeMS = (w.compute.Seconds() * 1000) / float64(w.steps)
	}
	if w.samples > 0 {
		snap.Loss = w.lossSum / float64(w.samples)
		snap.Metric = w.metricSum / float64(w.samples)
	}

	*w = Window{}
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	Steps         int
	SamplesPerSec float64
	AvgComputeMS  float64
	Loss          float64
	Metric        float64
}

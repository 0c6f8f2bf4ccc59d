// Package statistics provides resampling estimates used to qualify check values.
package statistics

import (
	"math/rand"

	"github.com/spboyer/tabcheck/internal/metrics"
)

// Estimator reduces a sample to a single statistic.
type Estimator func([]float64) float64

// Interval is a percentile bootstrap confidence interval around Estimate.
type Interval struct {
	Estimate  float64 `json:"estimate"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Level     float64 `json:"level"`
	Resamples int     `json:"resamples"`
}

// Contains reports whether x lies within the interval bounds.
func (iv Interval) Contains(x float64) bool {
	return iv.Lower <= x && x <= iv.Upper
}

// Options tunes Bootstrap. Zero fields take the defaults below.
type Options struct {
	Level     float64
	Resamples int
	Seed      int64
}

const (
	DefaultLevel     = 0.95
	DefaultResamples = 2000
	DefaultSeed      = 7
)

func (o Options) withDefaults() Options {
	if o.Level <= 0 || o.Level >= 1 {
		o.Level = DefaultLevel
	}
	if o.Resamples <= 0 {
		o.Resamples = DefaultResamples
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	return o
}

// Bootstrap resamples values with replacement and returns the percentile
// interval of est over the resamples. The same seed always yields the same
// interval. With fewer than two values the interval collapses onto the
// estimate and no resampling happens.
func Bootstrap(values []float64, est Estimator, opts Options) Interval {
	opts = opts.withDefaults()
	point := est(values)
	n := len(values)
	if n < 2 {
		return Interval{Estimate: point, Lower: point, Upper: point, Level: opts.Level}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	stats := make([]float64, opts.Resamples)
	sample := make([]float64, n)
	for i := range stats {
		for j := range sample {
			sample[j] = values[rng.Intn(n)]
		}
		stats[i] = est(sample)
	}

	tail := (1 - opts.Level) / 2 * 100
	return Interval{
		Estimate:  point,
		Lower:     metrics.Percentile(stats, tail),
		Upper:     metrics.Percentile(stats, 100-tail),
		Level:     opts.Level,
		Resamples: opts.Resamples,
	}
}

// MeanInterval is Bootstrap of the sample mean at the given level.
func MeanInterval(values []float64, level float64) Interval {
	return Bootstrap(values, metrics.Mean, Options{Level: level})
}

package scoring

import (
	"context"
	"math"
	"math/rand"
	"sort"
)

// defaultBootstrapRepetitions is how many resamples generateBootstrapInterval
// draws before taking the highest-density interval of the resulting
// distribution. Tests override this via bootstrapRepetitions to stay fast.
const defaultBootstrapRepetitions = 1000

var bootstrapRepetitions = defaultBootstrapRepetitions

// optimalBlockLength estimates the stationary block bootstrap's block
// length from a paired frame. The source delegates this to
// arch.bootstrap.optimal_block_length, which fits an AR(1) model to each
// column and derives a length from its spectral density; no Go package in
// the retrieval pack offers an equivalent (see DESIGN.md), so this uses
// the commonly cited n^(1/3) rule of thumb, floored at 1 and capped at
// half the sample size so a single block can never span the whole frame.
func optimalBlockLength(frame Frame) int {
	n := len(frame)
	if n <= 1 {
		return 1
	}
	length := int(math.Round(math.Cbrt(float64(n))))
	if length < 1 {
		length = 1
	}
	if max := n / 2; max >= 1 && length > max {
		length = max
	}
	return length
}

// circularBlockResample draws a circular block bootstrap resample of
// frame: blocks of blockLength consecutive rows (wrapping around the end)
// are drawn with replacement until the resample reaches frame's length.
func circularBlockResample(frame Frame, blockLength int, rng *rand.Rand) Frame {
	n := len(frame)
	if n == 0 {
		return nil
	}
	out := make(Frame, 0, n)
	for len(out) < n {
		start := rng.Intn(n)
		for i := 0; i < blockLength && len(out) < n; i++ {
			out = append(out, frame[(start+i)%n])
		}
	}
	return out
}

// bootstrapMetricInterval builds a metric's confidence interval:
// for fewer than 5 rows it returns no interval; otherwise it estimates
// the block length, draws bootstrapRepetitions circular-block resamples,
// scores each one, and returns the 95% highest-density interval of the
// resulting distribution. The generator is deterministic given seed.
func bootstrapMetricInterval(ctx context.Context, metric Metric, threshold *Threshold, filtered Frame, score ScoreFunc, seed int64) (*[2]float64, error) {
	if len(filtered) < 5 {
		return nil, nil
	}

	blockLength := optimalBlockLength(filtered)
	rng := rand.New(rand.NewSource(seed))

	distribution := make([]float64, 0, bootstrapRepetitions)
	for i := 0; i < bootstrapRepetitions; i++ {
		resample := circularBlockResample(filtered, blockLength, rng)
		v, err := score(ctx, resample, threshold)
		if err != nil {
			return nil, err
		}
		if !math.IsNaN(v) {
			distribution = append(distribution, v)
		}
	}

	lo, hi := highestDensityInterval(distribution, 0.95)
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return nil, nil
	}
	return &[2]float64{lo, hi}, nil
}

// highestDensityInterval computes the narrowest interval covering prob's
// mass of values: empty and
// singleton inputs short-circuit, up to three values reduce to (min, max),
// and larger inputs take the narrowest sliding window. No further
// resampling happens at this layer; values here are already-aggregated
// scores, not raw observations.
func highestDensityInterval(values []float64, prob float64) (lo, hi float64) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}

	switch {
	case len(clean) == 0:
		return math.NaN(), math.NaN()
	case len(clean) == 1:
		return clean[0], clean[0]
	case len(clean) <= 3:
		sort.Float64s(clean)
		return clean[0], clean[len(clean)-1]
	}

	sorted := append([]float64(nil), clean...)
	sort.Float64s(sorted)

	n := len(sorted)
	windowSize := int(math.Ceil(prob * float64(n)))
	if windowSize < 1 {
		windowSize = 1
	}
	if windowSize > n {
		windowSize = n
	}

	bestLo, bestHi := sorted[0], sorted[windowSize-1]
	bestWidth := bestHi - bestLo
	for start := 1; start+windowSize-1 < n; start++ {
		width := sorted[start+windowSize-1] - sorted[start]
		if width < bestWidth {
			bestWidth = width
			bestLo, bestHi = sorted[start], sorted[start+windowSize-1]
		}
	}
	return bestLo, bestHi
}

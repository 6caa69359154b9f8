package features

import "math"

// Columnar rolling primitives. All of them are strictly causal: the value at
// index i depends only on inputs at indices <= i. NaN marks "window not yet
// filled" and propagates through any window that contains it.

func rollingMean(xs []float64, w int) []float64 {
	out := nanSlice(len(xs))
	for i := w - 1; i < len(xs); i++ {
		sum := 0.0
		ok := true
		for j := i - w + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				ok = false
				break
			}
			sum += xs[j]
		}
		if ok {
			out[i] = sum / float64(w)
		}
	}
	return out
}

// rollingStd is the sample standard deviation (ddof=1) over a window of w.
func rollingStd(xs []float64, w int) []float64 {
	out := nanSlice(len(xs))
	if w < 2 {
		return out
	}
	for i := w - 1; i < len(xs); i++ {
		sum := 0.0
		ok := true
		for j := i - w + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				ok = false
				break
			}
			sum += xs[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(w)
		ss := 0.0
		for j := i - w + 1; j <= i; j++ {
			d := xs[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(w-1))
	}
	return out
}

// pctChange is the simple percent change versus the immediately preceding
// value. The first element is NaN; a zero or NaN predecessor yields NaN.
func pctChange(xs []float64) []float64 {
	out := nanSlice(len(xs))
	for i := 1; i < len(xs); i++ {
		prev := xs[i-1]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(xs[i]) {
			continue
		}
		out[i] = (xs[i] - prev) / prev
	}
	return out
}

// ema computes an exponential moving average with alpha = 2/(span+1), seeded
// with the plain mean of the first span defined values. Seeding with anything
// else shifts every early value, so the seed is pinned by tests. Leading NaNs
// in the input (e.g. a MACD head) are skipped; output is NaN until the seed
// window fills.
func ema(xs []float64, span int) []float64 {
	out := nanSlice(len(xs))
	start := 0
	for start < len(xs) && math.IsNaN(xs[start]) {
		start++
	}
	seedEnd := start + span - 1
	if seedEnd >= len(xs) {
		return out
	}
	sum := 0.0
	for j := start; j <= seedEnd; j++ {
		if math.IsNaN(xs[j]) {
			return out
		}
		sum += xs[j]
	}
	out[seedEnd] = sum / float64(span)
	alpha := 2.0 / float64(span+1)
	for i := seedEnd + 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

// diff is the first difference; the first element is NaN.
func diff(xs []float64) []float64 {
	out := nanSlice(len(xs))
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i] - xs[i-1]
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	nan := math.NaN()
	for i := range out {
		out[i] = nan
	}
	return out
}

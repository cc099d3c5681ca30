package regime

import (
	"fmt"
	"math"
)

// eps keeps segment likelihoods finite when the MLE lands on 0 or 1,
// which happens whenever a segment is all ups or all downs.
const eps = 1e-20

// LogLikelihood computes the binomial log-likelihood of a binary series
// under its own MLE success probability:
// heads*log(p) + tails*log(1-p) with p = mean(xs).
func LogLikelihood(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	heads := 0
	for _, x := range xs {
		if x != 0 {
			heads++
		}
	}
	return segmentLL(heads, len(xs))
}

// segmentLL is the counts form of LogLikelihood.
func segmentLL(heads, total int) float64 {
	if total == 0 {
		return 0
	}
	p := float64(heads) / float64(total)
	tails := total - heads
	return float64(heads)*math.Log(p+eps) + float64(tails)*math.Log(1-p+eps)
}

// Scanner scans a binary movement series for the breakpoint of a
// two-segment binomial mixture, minimizing description length.
type Scanner struct {
	Stride          int     // half-width of the sliding detection window
	Smoothing       float64 // EMA factor applied to the raw code lengths
	MinObservations int     // detection is suppressed until this many splits were scored
}

// NewScanner returns a Scanner with the canonical tunables.
func NewScanner() Scanner {
	return Scanner{Stride: 6, Smoothing: 0.05, MinObservations: 20}
}

// Result holds the outcome of a breakpoint scan.
type Result struct {
	// MDL is the smoothed description length per candidate split.
	// MDL[i] scores the split after observation i, i.e. split index i+1.
	MDL []float64
	// BestSplit is the split index (1..N-1) minimizing the smoothed MDL.
	BestSplit int
	// ChangeIndex is the split at which the sliding-window detector first
	// proposed a regime change, or -1 when none qualified. This is the
	// point of detection; the dip itself sits earlier in the window.
	ChangeIndex int
	// PLeft and PRight are the MLE success probabilities either side of
	// BestSplit.
	PLeft, PRight float64
}

// Scan computes, for every candidate split n in [1, N-1], the two-segment
// code length -LL(x[:n]) - LL(x[n:]) + 0.5*(log(n) + log(N-n)), smooths the
// series with an EMA, and reports both the global minimum and the split at
// which the sliding window detector first fired. The detector fires when
// the minimum of the last 2*Stride smoothed values sits strictly inside the
// window and the window was on average lower before the minimum than after,
// i.e. the series dipped and is climbing out again.
func (s Scanner) Scan(xs []int) (Result, error) {
	n := len(xs)
	if n < 2 {
		return Result{}, fmt.Errorf("scan needs at least 2 observations, got %d", n)
	}
	if s.Stride <= 0 || s.Smoothing <= 0 || s.Smoothing > 1 {
		return Result{}, fmt.Errorf("invalid scanner settings: stride=%d smoothing=%v", s.Stride, s.Smoothing)
	}

	// prefix head counts so each segment likelihood is O(1)
	heads := make([]int, n+1)
	for i, x := range xs {
		heads[i+1] = heads[i]
		if x != 0 {
			heads[i+1]++
		}
	}

	res := Result{
		MDL:         make([]float64, 0, n-1),
		BestSplit:   1,
		ChangeIndex: -1,
	}

	best := math.Inf(1)
	for split := 1; split < n; split++ {
		leftHeads := heads[split]
		rightHeads := heads[n] - heads[split]
		cost := -segmentLL(leftHeads, split) - segmentLL(rightHeads, n-split)
		penalty := 0.5 * (math.Log(float64(split)) + math.Log(float64(n-split)))
		raw := cost + penalty

		var smoothed float64
		if split == 1 {
			smoothed = raw
		} else {
			prev := res.MDL[len(res.MDL)-1]
			smoothed = prev*(1-s.Smoothing) + raw*s.Smoothing
		}
		res.MDL = append(res.MDL, smoothed)

		if smoothed < best {
			best = smoothed
			res.BestSplit = split
		}

		if res.ChangeIndex < 0 && split > s.MinObservations && s.windowDip(res.MDL) {
			res.ChangeIndex = split
		}
	}

	res.PLeft = float64(heads[res.BestSplit]) / float64(res.BestSplit)
	res.PRight = float64(heads[n]-heads[res.BestSplit]) / float64(n-res.BestSplit)
	return res, nil
}

// Rates returns the MLE success probabilities either side of split n.
func Rates(xs []int, n int) (left, right float64) {
	if n <= 0 || n >= len(xs) {
		return 0, 0
	}
	return Rate(xs[:n]), Rate(xs[n:])
}

// Rate is the MLE success probability of a binary series.
func Rate(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	heads := 0
	for _, x := range xs {
		if x != 0 {
			heads++
		}
	}
	return float64(heads) / float64(len(xs))
}

// windowDip inspects the trailing 2*Stride smoothed values and reports
// whether they hold a qualifying interior minimum: the series fell into a
// dip inside the window and is climbing back out.
func (s Scanner) windowDip(mdl []float64) bool {
	start := len(mdl) - 2*s.Stride
	if start < 0 {
		start = 0
	}
	window := mdl[start:]

	minIdx := 0
	for i, v := range window {
		if v < window[minIdx] {
			minIdx = i
		}
	}
	if minIdx == 0 || minIdx >= 2*s.Stride {
		return false
	}
	return mean(window[:minIdx]) < mean(window[minIdx:])
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

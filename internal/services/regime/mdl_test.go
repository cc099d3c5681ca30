package regime

import (
	"math"
	"testing"
)

func stepSeries(zeros, ones int) []int {
	xs := make([]int, 0, zeros+ones)
	for i := 0; i < zeros; i++ {
		xs = append(xs, 0)
	}
	for i := 0; i < ones; i++ {
		xs = append(xs, 1)
	}
	return xs
}

func TestLogLikelihoodBalanced(t *testing.T) {
	got := LogLikelihood([]int{1, 1, 0, 0})
	want := 4 * math.Log(0.5+1e-20)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestLogLikelihoodDegenerate(t *testing.T) {
	if got := LogLikelihood([]int{1, 1, 1}); math.Abs(got) > 1e-9 {
		t.Fatalf("all-ones should be ~0, got %v", got)
	}
	if got := LogLikelihood(nil); got != 0 {
		t.Fatalf("empty should be 0, got %v", got)
	}
}

func TestScanTooShort(t *testing.T) {
	s := NewScanner()
	if _, err := s.Scan([]int{1}); err == nil {
		t.Fatalf("expected error for short series")
	}
}

func TestScanInvalidSettings(t *testing.T) {
	s := Scanner{Stride: 0, Smoothing: 0.05, MinObservations: 20}
	if _, err := s.Scan(stepSeries(10, 10)); err == nil {
		t.Fatalf("expected error for zero stride")
	}
	s = Scanner{Stride: 6, Smoothing: 1.5, MinObservations: 20}
	if _, err := s.Scan(stepSeries(10, 10)); err == nil {
		t.Fatalf("expected error for smoothing > 1")
	}
}

func TestScanMDLShape(t *testing.T) {
	xs := stepSeries(25, 25)
	s := NewScanner()
	res, err := s.Scan(xs)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(res.MDL) != len(xs)-1 {
		t.Fatalf("MDL length %d, want %d", len(res.MDL), len(xs)-1)
	}
	// the first smoothed value is the raw code length of split 1
	wantFirst := -LogLikelihood(xs[:1]) - LogLikelihood(xs[1:]) +
		0.5*(math.Log(1)+math.Log(float64(len(xs)-1)))
	if math.Abs(res.MDL[0]-wantFirst) > 1e-9 {
		t.Fatalf("MDL[0] = %v, want %v", res.MDL[0], wantFirst)
	}
}

func TestScanFindsStepBreakpoint(t *testing.T) {
	// 25 downs then 25 ups; an unsmoothed scan pins the split exactly.
	xs := stepSeries(25, 25)
	s := Scanner{Stride: 6, Smoothing: 1, MinObservations: 20}
	res, err := s.Scan(xs)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.BestSplit != 25 {
		t.Fatalf("BestSplit = %d, want 25", res.BestSplit)
	}
	// the window detector fires once the dip at 25 sits strictly inside
	// the trailing window and the climb-out is visible: split 32
	if res.ChangeIndex != 32 {
		t.Fatalf("ChangeIndex = %d, want 32", res.ChangeIndex)
	}
	if res.PLeft != 0 || res.PRight != 1 {
		t.Fatalf("rates = (%v, %v), want (0, 1)", res.PLeft, res.PRight)
	}
}

func TestScanChangeIndexWithDefaultSmoothing(t *testing.T) {
	// with the canonical EMA factor the smoothed curve lags, so the
	// detector fires later than in the unsmoothed scan
	xs := stepSeries(25, 25)
	res, err := NewScanner().Scan(xs)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.ChangeIndex != 40 {
		t.Fatalf("ChangeIndex = %d, want 40", res.ChangeIndex)
	}
}

func TestScanNoChangeOnStationarySeries(t *testing.T) {
	// a series of only downs has no breakpoint to find:
	// the code length reduces to the pure split penalty
	xs := make([]int, 80)
	s := Scanner{Stride: 6, Smoothing: 1, MinObservations: 20}
	res, err := s.Scan(xs)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.ChangeIndex != -1 {
		t.Fatalf("ChangeIndex = %d, want -1", res.ChangeIndex)
	}
}

func TestScanSmoothingIsEMA(t *testing.T) {
	xs := stepSeries(15, 15)
	const k = 0.05
	s := Scanner{Stride: 6, Smoothing: k, MinObservations: 20}
	res, err := s.Scan(xs)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	n := len(xs)
	prev := 0.0
	for split := 1; split < n; split++ {
		raw := -LogLikelihood(xs[:split]) - LogLikelihood(xs[split:]) +
			0.5*(math.Log(float64(split))+math.Log(float64(n-split)))
		want := raw
		if split > 1 {
			want = prev*(1-k) + raw*k
		}
		if math.Abs(res.MDL[split-1]-want) > 1e-9 {
			t.Fatalf("split %d: MDL = %v, want %v", split, res.MDL[split-1], want)
		}
		prev = want
	}
}

func TestRates(t *testing.T) {
	xs := stepSeries(4, 6)
	left, right := Rates(xs, 4)
	if left != 0 || right != 1 {
		t.Fatalf("rates = (%v, %v), want (0, 1)", left, right)
	}
	if l, r := Rates(xs, 0); l != 0 || r != 0 {
		t.Fatalf("out-of-range split should yield zeros, got (%v, %v)", l, r)
	}
}

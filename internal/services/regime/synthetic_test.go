package regime

import (
	"math/rand"
	"testing"
)

func TestMixtureBadBreakpoint(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := Mixture(rng, 0.3, 0.7, 0, 100); err == nil {
		t.Fatalf("expected error for breakpoint 0")
	}
	if _, err := Mixture(rng, 0.3, 0.7, 100, 100); err == nil {
		t.Fatalf("expected error for breakpoint == n")
	}
}

func TestMixtureSegments(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	xs, err := Mixture(rng, 0, 1, 30, 100)
	if err != nil {
		t.Fatalf("mixture: %v", err)
	}
	if len(xs) != 100 {
		t.Fatalf("len = %d, want 100", len(xs))
	}
	for i, x := range xs {
		if x != 0 && x != 1 {
			t.Fatalf("non-binary value %d at %d", x, i)
		}
		if i >= 30 && x != 1 {
			t.Fatalf("expected 1 after breakpoint at %d", i)
		}
	}
}

func TestMixtureScanRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	xs, err := Mixture(rng, 0.15, 0.85, 300, 600)
	if err != nil {
		t.Fatalf("mixture: %v", err)
	}
	res, err := NewScanner().Scan(xs)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	// with this much contrast the smoothed minimum lands near the truth
	if res.BestSplit < 250 || res.BestSplit > 350 {
		t.Fatalf("BestSplit = %d, want near 300", res.BestSplit)
	}
	if res.PLeft >= res.PRight {
		t.Fatalf("rates = (%v, %v), want increasing", res.PLeft, res.PRight)
	}
}

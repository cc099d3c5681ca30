package regime

import (
	"fmt"
	"testing"
)

func TestDetectorFiresOnceOnStep(t *testing.T) {
	s := Scanner{Stride: 6, Smoothing: 1, MinObservations: 20}
	d := NewDetector(s, 0)

	xs := stepSeries(25, 25)
	fires := 0
	var last Change
	for i, x := range xs {
		ch, ok := d.Observe(x, fmt.Sprintf("obs-%d", i))
		if ok {
			fires++
			last = ch
		}
	}
	if fires != 1 {
		t.Fatalf("fired %d times, want 1", fires)
	}
	// the incremental scan first proposes the change at split 29, after
	// the 30th observation
	if last.Index != 29 {
		t.Fatalf("Index = %d, want 29", last.Index)
	}
	if last.Label != "obs-29" {
		t.Fatalf("Label = %q, want obs-29", last.Label)
	}
	if last.PLeft != 4.0/29.0 || last.PRight != 1 {
		t.Fatalf("rates = (%v, %v), want (%v, 1)", last.PLeft, last.PRight, 4.0/29.0)
	}
	if d.Len() != len(xs) {
		t.Fatalf("Len = %d, want %d", d.Len(), len(xs))
	}
}

func TestDetectorReset(t *testing.T) {
	s := Scanner{Stride: 6, Smoothing: 1, MinObservations: 20}
	d := NewDetector(s, 0)
	for i, x := range stepSeries(25, 25) {
		d.Observe(x, fmt.Sprintf("obs-%d", i))
	}
	d.Reset()
	if d.Len() != 0 {
		t.Fatalf("Len after reset = %d, want 0", d.Len())
	}
	// detector is re-armed: the same step fires again
	fires := 0
	for i, x := range stepSeries(25, 25) {
		if _, ok := d.Observe(x, fmt.Sprintf("r-%d", i)); ok {
			fires++
		}
	}
	if fires != 1 {
		t.Fatalf("fired %d times after reset, want 1", fires)
	}
}

func TestDetectorBufferTrim(t *testing.T) {
	s := Scanner{Stride: 6, Smoothing: 1, MinObservations: 20}
	d := NewDetector(s, 40)
	for i := 0; i < 100; i++ {
		d.Observe(0, fmt.Sprintf("obs-%d", i))
	}
	if d.Len() != 40 {
		t.Fatalf("Len = %d, want 40", d.Len())
	}
}

func TestDetectorReportsOncePastSaturation(t *testing.T) {
	// after the buffer saturates, trimming must not re-arm the detector
	// while the reported change is still in view: the step is reported
	// exactly once no matter how long the new regime runs
	s := Scanner{Stride: 6, Smoothing: 1, MinObservations: 20}
	d := NewDetector(s, 60)

	xs := append(stepSeries(25, 25), stepSeries(0, 40)...)
	fires := 0
	for i, x := range xs {
		if _, ok := d.Observe(x, fmt.Sprintf("obs-%d", i)); ok {
			fires++
		}
	}
	if fires != 1 {
		t.Fatalf("fired %d times, want 1", fires)
	}
	if d.Len() != 60 {
		t.Fatalf("Len = %d, want 60", d.Len())
	}
}

func TestDetectorRearmsAfterChangeScrollsOut(t *testing.T) {
	// once the first change has left the buffer a genuine second change
	// is reported again
	s := Scanner{Stride: 6, Smoothing: 1, MinObservations: 20}
	d := NewDetector(s, 60)

	xs := append(stepSeries(25, 35), stepSeries(60, 0)...)
	var changes []Change
	for i, x := range xs {
		if ch, ok := d.Observe(x, fmt.Sprintf("obs-%d", i)); ok {
			changes = append(changes, ch)
		}
	}
	if len(changes) != 2 {
		t.Fatalf("fired %d times, want 2", len(changes))
	}
	if changes[0].Label != "obs-29" {
		t.Fatalf("first Label = %q, want obs-29", changes[0].Label)
	}
	if changes[1].Label != "obs-67" {
		t.Fatalf("second Label = %q, want obs-67", changes[1].Label)
	}
}

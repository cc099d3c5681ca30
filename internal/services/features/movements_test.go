package features

import (
	"testing"
	"time"

	"RegimeScan/internal/domain/models"
)

func barsFromCloses(start time.Time, closes []float64) []models.DailyBar {
	bars := make([]models.DailyBar, len(closes))
	for i, c := range closes {
		bars[i] = models.DailyBar{
			Date:   start.AddDate(0, 0, i),
			Symbol: "TEST",
			Close:  c,
		}
	}
	return bars
}

func TestMovements(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := barsFromCloses(start, []float64{1, 2, 2, 1, 3})

	ms := Movements(bars)
	if len(ms) != 4 {
		t.Fatalf("len = %d, want 4", len(ms))
	}
	want := []int{1, 0, 0, 1}
	for i, m := range ms {
		if m.Up != want[i] {
			t.Fatalf("movement %d = %d, want %d", i, m.Up, want[i])
		}
		// each movement carries the later of the two dates
		if !m.Date.Equal(bars[i+1].Date) {
			t.Fatalf("movement %d date = %v, want %v", i, m.Date, bars[i+1].Date)
		}
	}
}

func TestMovementsTooFewBars(t *testing.T) {
	if ms := Movements(nil); ms != nil {
		t.Fatalf("expected nil for no bars")
	}
	bars := barsFromCloses(time.Now(), []float64{1})
	if ms := Movements(bars); ms != nil {
		t.Fatalf("expected nil for a single bar")
	}
}

func TestSplit(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ms := Movements(barsFromCloses(start, []float64{1, 2, 1}))
	xs, dates := Split(ms)
	if len(xs) != 2 || len(dates) != 2 {
		t.Fatalf("lengths = (%d, %d), want (2, 2)", len(xs), len(dates))
	}
	if xs[0] != 1 || xs[1] != 0 {
		t.Fatalf("xs = %v, want [1 0]", xs)
	}
	if !dates[0].Equal(start.AddDate(0, 0, 1)) {
		t.Fatalf("dates[0] = %v", dates[0])
	}
}

func TestSubset(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := barsFromCloses(start, []float64{1, 2, 3, 4, 5})

	got := Subset(bars, start.AddDate(0, 0, 1), start.AddDate(0, 0, 3))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if !got[0].Date.Equal(start.AddDate(0, 0, 1)) {
		t.Fatalf("first = %v", got[0].Date)
	}

	// zero bounds are open
	if got := Subset(bars, time.Time{}, time.Time{}); len(got) != 5 {
		t.Fatalf("unbounded len = %d, want 5", len(got))
	}
	if got := Subset(bars, start.AddDate(0, 0, 4), time.Time{}); len(got) != 1 {
		t.Fatalf("from-only len = %d, want 1", len(got))
	}
}

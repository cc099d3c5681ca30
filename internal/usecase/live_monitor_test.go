package usecase

import (
	"context"
	"testing"
	"time"

	"RegimeScan/internal/domain/models"
)

// stepTicks yields one tick per second whose per-second closes fall
// `downs` times and then rise `ups` times.
func stepTicks(downs, ups int) []*models.Tick {
	price := 100.0
	ticks := []*models.Tick{{Symbol: "TEST", Timestamp: 0, Price: price, Volume: 1}}
	ts := int64(0)
	for i := 0; i < downs; i++ {
		ts++
		price -= 1
		ticks = append(ticks, &models.Tick{Symbol: "TEST", Timestamp: ts, Price: price, Volume: 1})
	}
	for i := 0; i < ups; i++ {
		ts++
		price += 1
		ticks = append(ticks, &models.Tick{Symbol: "TEST", Timestamp: ts, Price: price, Volume: 1})
	}
	return ticks
}

func TestLiveMonitorDetectsStep(t *testing.T) {
	pub := &fakePublisher{}
	m := newFakeMetrics()
	mon := NewLiveMonitor(nil, pub, m, stepScanner(), time.Second, nil)

	ctx := context.Background()
	for _, tick := range stepTicks(25, 26) {
		if err := mon.Process(ctx, tick); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	if len(pub.published) != 1 {
		t.Fatalf("published %d changes, want 1", len(pub.published))
	}
	ch := pub.published[0]
	if ch.Source != "live" {
		t.Fatalf("source = %q, want live", ch.Source)
	}
	if ch.SplitIndex != 29 {
		t.Fatalf("split index = %d, want 29", ch.SplitIndex)
	}
	if ch.PBefore != 4.0/29.0 || ch.PAfter != 1 {
		t.Fatalf("rates = (%v, %v), want (%v, 1)", ch.PBefore, ch.PAfter, 4.0/29.0)
	}
	if m.changes["live"] != 1 {
		t.Fatalf("metrics changes = %v", m.changes)
	}
}

func TestLiveMonitorSubSecondInterval(t *testing.T) {
	// intervals under a second must not collapse the bucket arithmetic
	pub := &fakePublisher{}
	mon := NewLiveMonitor(nil, pub, newFakeMetrics(), stepScanner(), 500*time.Millisecond, nil)

	ctx := context.Background()
	for _, tick := range stepTicks(25, 26) {
		if err := mon.Process(ctx, tick); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d changes, want 1", len(pub.published))
	}
	if pub.published[0].SplitIndex != 29 {
		t.Fatalf("split index = %d, want 29", pub.published[0].SplitIndex)
	}
}

func TestLiveMonitorIgnoresIntraBucketTicks(t *testing.T) {
	pub := &fakePublisher{}
	mon := NewLiveMonitor(nil, pub, newFakeMetrics(), stepScanner(), time.Minute, nil)

	ctx := context.Background()
	// many ticks inside a single minute never produce a movement
	for i := int64(0); i < 50; i++ {
		tick := &models.Tick{Symbol: "TEST", Timestamp: i, Price: float64(100 + i), Volume: 1}
		if err := mon.Process(ctx, tick); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if len(pub.published) != 0 {
		t.Fatalf("published %d changes, want 0", len(pub.published))
	}
}

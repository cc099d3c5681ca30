package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"RegimeScan/internal/domain/models"
	"RegimeScan/internal/services/regime"
)

type fakeSource struct {
	bars  []models.DailyBar
	calls int
	err   error
}

func (f *fakeSource) DailyBars(_ context.Context, symbol string) ([]models.DailyBar, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

type fakeStore struct {
	bars   []models.DailyBar
	stored []models.DailyBar
}

func (f *fakeStore) StoreBars(_ context.Context, bars []models.DailyBar) error {
	f.stored = append(f.stored, bars...)
	return nil
}

func (f *fakeStore) GetBars(_ context.Context, symbol string, from, to time.Time) ([]models.DailyBar, error) {
	return f.bars, nil
}

func (f *fakeStore) LatestDate(_ context.Context, symbol string) (time.Time, error) {
	if len(f.bars) == 0 {
		return time.Time{}, nil
	}
	return f.bars[len(f.bars)-1].Date, nil
}

type fakePublisher struct {
	published []*models.RegimeChange
}

func (f *fakePublisher) Publish(_ context.Context, c *models.RegimeChange) error {
	f.published = append(f.published, c)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	scans   int
	changes map[string]int
	errors  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{changes: map[string]int{}, errors: map[string]int{}}
}

func (f *fakeMetrics) RecordScan(string)             { f.scans++ }
func (f *fakeMetrics) RecordChange(_, source string) { f.changes[source]++ }
func (f *fakeMetrics) RecordError(kind string)       { f.errors[kind]++ }
func (f *fakeMetrics) RecordLastMDL(string, float64) {}
func (f *fakeMetrics) RecordLatency(string, float64) {}

// stepBars yields bars whose movement series is `downs` zeros then `ups` ones.
func stepBars(start time.Time, downs, ups int) []models.DailyBar {
	closes := make([]float64, 0, downs+ups+1)
	price := 100.0
	closes = append(closes, price)
	for i := 0; i < downs; i++ {
		price -= 1
		closes = append(closes, price)
	}
	for i := 0; i < ups; i++ {
		price += 1
		closes = append(closes, price)
	}
	bars := make([]models.DailyBar, len(closes))
	for i, c := range closes {
		bars[i] = models.DailyBar{Date: start.AddDate(0, 0, i), Symbol: "TEST", Close: c}
	}
	return bars
}

func stepScanner() regime.Scanner {
	return regime.Scanner{Stride: 6, Smoothing: 1, MinObservations: 20}
}

func TestScanDetectsAndPublishes(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{bars: stepBars(start, 25, 25)}
	pub := &fakePublisher{}
	m := newFakeMetrics()
	uc := NewScanUseCase(src, nil, pub, m, stepScanner(), nil)

	report, err := uc.Scan(context.Background(), &models.ScanRequest{Symbol: "TEST"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if report.Observations != 50 {
		t.Fatalf("observations = %d, want 50", report.Observations)
	}
	if report.BestSplit != 25 {
		t.Fatalf("best split = %d, want 25", report.BestSplit)
	}
	if report.Change == nil {
		t.Fatalf("expected a detected change")
	}
	if report.Change.SplitIndex != 32 {
		t.Fatalf("split index = %d, want 32", report.Change.SplitIndex)
	}
	if report.Change.Source != "scan" {
		t.Fatalf("source = %q, want scan", report.Change.Source)
	}
	if report.Change.PBefore != 7.0/32.0 || report.Change.PAfter != 1 {
		t.Fatalf("rates = (%v, %v), want (%v, 1)", report.Change.PBefore, report.Change.PAfter, 7.0/32.0)
	}
	// the change date is the movement at which the detector fired
	wantDate := start.AddDate(0, 0, 33)
	if !report.Change.ChangeDate.Equal(wantDate) {
		t.Fatalf("change date = %v, want %v", report.Change.ChangeDate, wantDate)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d changes, want 1", len(pub.published))
	}
	if m.scans != 1 || m.changes["scan"] != 1 {
		t.Fatalf("metrics: scans=%d changes=%v", m.scans, m.changes)
	}
}

func TestScanUsesStoreFirst(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{err: errors.New("should not be called")}
	store := &fakeStore{bars: stepBars(start, 25, 25)}
	uc := NewScanUseCase(src, store, nil, newFakeMetrics(), stepScanner(), nil)

	report, err := uc.Scan(context.Background(), &models.ScanRequest{Symbol: "TEST"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if src.calls != 0 {
		t.Fatalf("source called %d times, want 0", src.calls)
	}
	if report.BestSplit != 25 {
		t.Fatalf("best split = %d, want 25", report.BestSplit)
	}
}

func TestScanRefreshBypassesStore(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{bars: stepBars(start, 25, 25)}
	store := &fakeStore{bars: stepBars(start, 10, 10)}
	uc := NewScanUseCase(src, store, nil, newFakeMetrics(), stepScanner(), nil)

	report, err := uc.Scan(context.Background(), &models.ScanRequest{Symbol: "TEST", Refresh: true})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("source called %d times, want 1", src.calls)
	}
	if report.Observations != 50 {
		t.Fatalf("observations = %d, want 50", report.Observations)
	}
	// fresh bars are backfilled into the store
	if len(store.stored) != 51 {
		t.Fatalf("backfilled %d bars, want 51", len(store.stored))
	}
}

func TestScanDateRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{bars: stepBars(start, 25, 25)}
	uc := NewScanUseCase(src, nil, nil, newFakeMetrics(), stepScanner(), nil)

	req := &models.ScanRequest{
		Symbol: "TEST",
		From:   "2024-01-01",
		To:     "2024-01-11", // 11 bars -> 10 movements, too few to matter
	}
	report, err := uc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if report.Observations != 10 {
		t.Fatalf("observations = %d, want 10", report.Observations)
	}
	if report.Change != nil {
		t.Fatalf("unexpected change on truncated series")
	}
}

func TestScanSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	m := newFakeMetrics()
	uc := NewScanUseCase(src, nil, nil, m, stepScanner(), nil)

	if _, err := uc.Scan(context.Background(), &models.ScanRequest{Symbol: "TEST"}); err == nil {
		t.Fatalf("expected error")
	}
	if m.errors["source_fetch"] != 1 {
		t.Fatalf("errors = %v", m.errors)
	}
}

package alphavantage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"RegimeScan/pkg/cache"
)

const dailyPayload = `{
  "Meta Data": {"2. Symbol": "TEST"},
  "Time Series (Daily)": {
    "2024-01-03": {"1. open": "11.0", "2. high": "11.5", "3. low": "10.8", "4. close": "11.2", "5. volume": "900"},
    "2024-01-02": {"1. open": "10.0", "2. high": "10.9", "3. low": "9.8", "4. close": "10.5", "5. volume": "1200"}
  }
}`

func newTestServer(t *testing.T, payload string) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if got := r.URL.Query().Get("function"); got != "TIME_SERIES_DAILY" {
			t.Errorf("function = %q", got)
		}
		if got := r.URL.Query().Get("symbol"); got != "TEST" {
			t.Errorf("symbol = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestDailyBars(t *testing.T) {
	srv, _ := newTestServer(t, dailyPayload)
	c := New("k", 5*time.Second, 1000, WithBaseURL(srv.URL))

	bars, err := c.DailyBars(context.Background(), "TEST")
	if err != nil {
		t.Fatalf("DailyBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("len = %d, want 2", len(bars))
	}
	// ascending order regardless of response order
	if !bars[0].Date.Before(bars[1].Date) {
		t.Fatalf("bars not sorted ascending: %v then %v", bars[0].Date, bars[1].Date)
	}
	if bars[0].Close != 10.5 || bars[1].Close != 11.2 {
		t.Fatalf("closes = (%v, %v)", bars[0].Close, bars[1].Close)
	}
	if bars[0].Volume != 1200 {
		t.Fatalf("volume = %v, want 1200", bars[0].Volume)
	}
	if bars[0].Symbol != "TEST" {
		t.Fatalf("symbol = %q", bars[0].Symbol)
	}
}

func TestDailyBarsCached(t *testing.T) {
	srv, hits := newTestServer(t, dailyPayload)
	c := New("k", 5*time.Second, 1000,
		WithBaseURL(srv.URL),
		WithCache(cache.NewMemoryCache(), time.Hour),
	)

	if _, err := c.DailyBars(context.Background(), "TEST"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := c.DailyBars(context.Background(), "TEST"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if *hits != 1 {
		t.Fatalf("server hits = %d, want 1", *hits)
	}
}

func TestDailyBarsNoData(t *testing.T) {
	srv, _ := newTestServer(t, `{"Note": "rate limited"}`)
	c := New("k", 5*time.Second, 1000, WithBaseURL(srv.URL))

	_, err := c.DailyBars(context.Background(), "TEST")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestDailyBarsEmptySymbol(t *testing.T) {
	c := New("k", time.Second, 1000)
	if _, err := c.DailyBars(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty symbol")
	}
}

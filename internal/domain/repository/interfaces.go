package repository

import (
	"context"
	"time"

	"RegimeScan/internal/domain/models"
)

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// PriceSource provides historical daily bars for a symbol.
type PriceSource interface {
	DailyBars(ctx context.Context, symbol string) ([]models.DailyBar, error)
}

// BarStore persists and reads back daily bars.
type BarStore interface {
	StoreBars(ctx context.Context, bars []models.DailyBar) error
	GetBars(ctx context.Context, symbol string, from, to time.Time) ([]models.DailyBar, error)
	LatestDate(ctx context.Context, symbol string) (time.Time, error)
}

// Publisher emits detected regime changes to the event backend.
type Publisher interface {
	Publish(ctx context.Context, c *models.RegimeChange) error
	Close() error
}

// ChangeStore persists detection history.
type ChangeStore interface {
	Store(ctx context.Context, c *models.RegimeChange) error
	Recent(ctx context.Context, symbol string, limit int) ([]models.RegimeChange, error)
	Health(ctx context.Context) error
}

type Metrics interface {
	RecordScan(symbol string)
	RecordChange(symbol, source string)
	RecordError(kind string)
	RecordLastMDL(symbol string, v float64)
	RecordLatency(op string, seconds float64)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"RegimeScan/internal/domain/models"
	domrepo "RegimeScan/internal/domain/repository"
	pkgch "RegimeScan/pkg/clickhouse"
	applogger "RegimeScan/pkg/logger"
)

// CHChangeStore implements ChangeStore backed by ClickHouse.
type CHChangeStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHChangeStore(ch *pkgch.Client) *CHChangeStore {
	return &CHChangeStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHChangeStore) SetLogger(l *applogger.Logger) { s.l = l }

var _ domrepo.ChangeStore = (*CHChangeStore)(nil)

func (s *CHChangeStore) Store(ctx context.Context, c *models.RegimeChange) error {
	if c == nil || c.Symbol == "" {
		return fmt.Errorf("change invalid")
	}
	const q = `
        INSERT INTO regimescan.regime_changes
        (symbol, detected_at, change_date, split_index, p_before, p_after, mdl, source)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		c.Symbol,
		c.DetectedAt,
		c.ChangeDate,
		int32(c.SplitIndex),
		c.PBefore,
		c.PAfter,
		c.MDL,
		c.Source,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_change error",
				applogger.String("symbol", c.Symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store change: %w", err)
	}
	return nil
}

func (s *CHChangeStore) Recent(ctx context.Context, symbol string, limit int) ([]models.RegimeChange, error) {
	start := time.Now()
	if limit <= 0 {
		limit = 50
	}
	const q = `
        SELECT symbol, detected_at, change_date, split_index, p_before, p_after, mdl, source
        FROM regimescan.regime_changes
        WHERE symbol = ?
        ORDER BY detected_at DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse recent_changes query error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("recent changes: %w", err)
	}
	defer rows.Close()

	out := make([]models.RegimeChange, 0, limit)
	for rows.Next() {
		var c models.RegimeChange
		var split int32
		if err := rows.Scan(&c.Symbol, &c.DetectedAt, &c.ChangeDate, &split, &c.PBefore, &c.PAfter, &c.MDL, &c.Source); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		c.SplitIndex = int(split)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse recent_changes ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHChangeStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"RegimeScan/internal/domain/models"
	domrepo "RegimeScan/internal/domain/repository"
	pkgch "RegimeScan/pkg/clickhouse"
	applogger "RegimeScan/pkg/logger"
)

// Schema statements for the regimescan database.
var Schema = []string{
	`CREATE DATABASE IF NOT EXISTS regimescan`,
	`CREATE TABLE IF NOT EXISTS regimescan.daily_bars (
        date Date,
        symbol LowCardinality(String),
        open Float64,
        high Float64,
        low Float64,
        close Float64,
        volume Float64
    ) ENGINE = ReplacingMergeTree()
    ORDER BY (symbol, date)`,
	`CREATE TABLE IF NOT EXISTS regimescan.regime_changes (
        symbol LowCardinality(String),
        detected_at DateTime,
        change_date Date,
        split_index Int32,
        p_before Float64,
        p_after Float64,
        mdl Float64,
        source LowCardinality(String)
    ) ENGINE = MergeTree()
    ORDER BY (symbol, detected_at)`,
}

// CHBarStore implements BarStore backed by ClickHouse.
type CHBarStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client) *CHBarStore {
	return &CHBarStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

var _ domrepo.BarStore = (*CHBarStore)(nil)

func (s *CHBarStore) StoreBars(ctx context.Context, bars []models.DailyBar) error {
	if len(bars) == 0 {
		return nil
	}
	// Chunked multi-row VALUES insert to reduce round-trips.
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, b := range bars[start:end] {
			if b.Symbol == "" || b.Date.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, b.Date, b.Symbol, b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := "INSERT INTO regimescan.daily_bars (date, symbol, open, high, low, close, volume) VALUES " + strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_bars error",
					applogger.String("symbol", bars[start].Symbol),
					applogger.Int("rows", end-start),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store bars: %w", err)
		}
	}
	return nil
}

func (s *CHBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time) ([]models.DailyBar, error) {
	start := time.Now()
	const q = `
        SELECT date, symbol, open, high, low, close, volume
        FROM regimescan.daily_bars FINAL
        WHERE symbol = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `
	f, t := from, to
	if f.IsZero() {
		f = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if t.IsZero() {
		t = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	rows, err := s.db.QueryContext(ctx, q, symbol, f, t)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_bars query error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.DailyBar, 0, 1024)
	for rows.Next() {
		var b models.DailyBar
		if err := rows.Scan(&b.Date, &b.Symbol, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_bars ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHBarStore) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	const q = `SELECT max(date) FROM regimescan.daily_bars WHERE symbol = ?`
	var d time.Time
	if err := s.db.QueryRowContext(ctx, q, symbol).Scan(&d); err != nil {
		return time.Time{}, fmt.Errorf("latest date: %w", err)
	}
	return d, nil
}

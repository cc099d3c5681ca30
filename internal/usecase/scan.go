package usecase

import (
	"context"
	"fmt"
	"time"

	"RegimeScan/internal/domain/models"
	drepo "RegimeScan/internal/domain/repository"
	"RegimeScan/internal/services/features"
	"RegimeScan/internal/services/regime"
	applogger "RegimeScan/pkg/logger"
	"RegimeScan/pkg/util"
)

// ScanUseCase runs breakpoint scans over daily bars. Bars come from the
// store when present, from the price source otherwise.
type ScanUseCase struct {
	source    drepo.PriceSource
	store     drepo.BarStore
	publisher drepo.Publisher
	metrics   drepo.Metrics
	scanner   regime.Scanner
	l         *applogger.Logger
}

// NewScanUseCase creates a new ScanUseCase. store and publisher may be nil.
func NewScanUseCase(source drepo.PriceSource, store drepo.BarStore, publisher drepo.Publisher, metrics drepo.Metrics, scanner regime.Scanner, l *applogger.Logger) *ScanUseCase {
	return &ScanUseCase{
		source:    source,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		scanner:   scanner,
		l:         l,
	}
}

// Sync fetches the full daily history for symbol and persists it.
func (u *ScanUseCase) Sync(ctx context.Context, symbol string) (int, error) {
	if u.source == nil {
		return 0, fmt.Errorf("no price source configured")
	}
	bars, err := u.source.DailyBars(ctx, symbol)
	if err != nil {
		u.metrics.RecordError("sync_fetch")
		return 0, fmt.Errorf("sync %s: %w", symbol, err)
	}
	if u.store != nil {
		if err := u.store.StoreBars(ctx, bars); err != nil {
			u.metrics.RecordError("sync_store")
			return 0, fmt.Errorf("sync %s: %w", symbol, err)
		}
	}
	if u.l != nil {
		u.l.Info("synced daily bars",
			applogger.String("symbol", symbol),
			applogger.Int("bars", len(bars)),
		)
	}
	return len(bars), nil
}

// Scan loads bars for the request range, derives the up/down series and
// scans it for a regime breakpoint. A detected change is published when a
// publisher is configured.
func (u *ScanUseCase) Scan(ctx context.Context, req *models.ScanRequest) (*models.ScanReport, error) {
	start := time.Now()
	from := util.ParseDateDefault(req.From, time.Time{})
	to := util.ParseDateDefault(req.To, time.Time{})

	bars, err := u.loadBars(ctx, req.Symbol, from, to, req.Refresh)
	if err != nil {
		return nil, err
	}
	bars = features.Subset(bars, from, to)

	ms := features.Movements(bars)
	xs, dates := features.Split(ms)
	res, err := u.scanner.Scan(xs)
	if err != nil {
		u.metrics.RecordError("scan")
		return nil, fmt.Errorf("scan %s: %w", req.Symbol, err)
	}

	report := &models.ScanReport{
		Symbol:       req.Symbol,
		Observations: len(xs),
		BestSplit:    res.BestSplit,
		SplitDate:    dates[res.BestSplit],
		PBefore:      res.PLeft,
		PAfter:       res.PRight,
	}
	if len(bars) > 0 {
		report.From = bars[0].Date
		report.To = bars[len(bars)-1].Date
	}
	report.Series = make([]models.MDLPoint, len(res.MDL))
	for i, v := range res.MDL {
		// res.MDL[i] scores the split after observation i
		report.Series[i] = models.MDLPoint{Date: dates[i+1], MDL: v}
	}

	if res.ChangeIndex > 0 {
		source := req.Source
		if source == "" {
			source = "scan"
		}
		pb, pa := regime.Rates(xs, res.ChangeIndex)
		change := &models.RegimeChange{
			Symbol:     req.Symbol,
			DetectedAt: time.Now().UTC(),
			ChangeDate: dates[res.ChangeIndex],
			SplitIndex: res.ChangeIndex,
			PBefore:    pb,
			PAfter:     pa,
			MDL:        res.MDL[res.ChangeIndex-1],
			Source:     source,
		}
		report.Change = change
		u.metrics.RecordChange(req.Symbol, source)
		if u.publisher != nil {
			if err := u.publisher.Publish(ctx, change); err != nil {
				u.metrics.RecordError("publish")
				if u.l != nil {
					u.l.Error("publish change failed",
						applogger.String("symbol", req.Symbol),
						applogger.Error(err),
					)
				}
			}
		}
	}

	if len(res.MDL) > 0 {
		u.metrics.RecordLastMDL(req.Symbol, res.MDL[len(res.MDL)-1])
	}
	u.metrics.RecordScan(req.Symbol)
	u.metrics.RecordLatency("scan", time.Since(start).Seconds())
	if u.l != nil {
		u.l.Info("scan complete",
			applogger.String("symbol", req.Symbol),
			applogger.Int("observations", len(xs)),
			applogger.Int("best_split", res.BestSplit),
			applogger.Bool("change", report.Change != nil),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return report, nil
}

// loadBars prefers the store, falling back to the price source and
// backfilling the store on the way through.
func (u *ScanUseCase) loadBars(ctx context.Context, symbol string, from, to time.Time, refresh bool) ([]models.DailyBar, error) {
	if u.store != nil && !refresh {
		bars, err := u.store.GetBars(ctx, symbol, from, to)
		if err == nil && len(bars) >= 2 {
			return bars, nil
		}
		if err != nil && u.l != nil {
			u.l.Warn("bar store read failed, falling back to source",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}
	if u.source == nil {
		return nil, fmt.Errorf("no bars for %s and no price source configured", symbol)
	}
	bars, err := u.source.DailyBars(ctx, symbol)
	if err != nil {
		u.metrics.RecordError("source_fetch")
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if u.store != nil {
		if err := u.store.StoreBars(ctx, bars); err != nil && u.l != nil {
			u.l.Warn("bar backfill failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}
	return bars, nil
}

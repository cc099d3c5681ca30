package usecase

import (
	"context"
	"fmt"
	"time"

	"RegimeScan/internal/domain/models"
	applogger "RegimeScan/pkg/logger"
	"RegimeScan/pkg/queue"
)

// RescanPayload is the queue message for a scheduled re-scan.
type RescanPayload struct {
	Symbol string `json:"symbol"`
}

// RescanJob re-runs the breakpoint scan for one symbol. Detections made
// here are published with source "watch".
type RescanJob struct {
	scan *ScanUseCase
	l    *applogger.Logger
}

func NewRescanJob(scan *ScanUseCase, l *applogger.Logger) *RescanJob {
	return &RescanJob{scan: scan, l: l}
}

func (j *RescanJob) Name() string { return "rescan" }
func (j *RescanJob) Type() string { return "rescan" }

func (j *RescanJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RescanPayload](payload)
	if err != nil {
		return fmt.Errorf("rescan payload: %w", err)
	}
	if p.Symbol == "" {
		return fmt.Errorf("rescan payload: empty symbol")
	}
	report, err := j.scan.Scan(ctx, &models.ScanRequest{Symbol: p.Symbol, Refresh: true, Source: "watch"})
	if err != nil {
		return err
	}
	if j.l != nil && report.Change != nil {
		j.l.Info("watch rescan detected change",
			applogger.String("symbol", p.Symbol),
			applogger.Int("split", report.Change.SplitIndex),
		)
	}
	return nil
}

var _ queue.Job = (*RescanJob)(nil)

// Watcher enqueues periodic re-scans for the configured symbols.
type Watcher struct {
	q        queue.QueueService
	symbols  []string
	interval time.Duration
	l        *applogger.Logger
	stopCh   chan struct{}
}

func NewWatcher(q queue.QueueService, symbols []string, interval time.Duration, l *applogger.Logger) *Watcher {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Watcher{q: q, symbols: symbols, interval: interval, l: l, stopCh: make(chan struct{})}
}

// Start launches the enqueue loop.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case <-ticker.C:
				w.enqueueAll(ctx)
			}
		}
	}()
}

func (w *Watcher) enqueueAll(ctx context.Context) {
	for _, s := range w.symbols {
		if err := w.q.PublishMessage(ctx, "rescan", RescanPayload{Symbol: s}); err != nil {
			if w.l != nil {
				w.l.Error("enqueue rescan failed",
					applogger.String("symbol", s),
					applogger.Error(err),
				)
			}
			continue
		}
		if w.l != nil {
			w.l.Debug("rescan enqueued", applogger.String("symbol", s))
		}
	}
}

// Stop stops the enqueue loop.
func (w *Watcher) Stop() { close(w.stopCh) }

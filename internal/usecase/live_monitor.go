package usecase

import (
	"context"
	"sync"
	"time"

	"RegimeScan/internal/domain/models"
	drepo "RegimeScan/internal/domain/repository"
	mid "RegimeScan/internal/middleware"
	"RegimeScan/internal/services/regime"
	applogger "RegimeScan/pkg/logger"
	"RegimeScan/pkg/util"
)

// LiveMonitor consumes the market stream, samples trades into fixed
// intervals, derives per-interval up/down movements and feeds them to an
// online breakpoint detector per symbol. Detected changes are published.
type LiveMonitor struct {
	stream         drepo.MarketStream
	pipe           *mid.RealtimePipeline
	publisher      drepo.Publisher
	metrics        drepo.Metrics
	scanner        regime.Scanner
	sampleInterval time.Duration
	l              *applogger.Logger

	mu     sync.Mutex
	states map[string]*symbolState
}

type symbolState struct {
	detector   *regime.Detector
	bucket     int64   // current sample bucket
	lastPrice  float64 // latest price seen in the current bucket
	prevClose  float64 // close of the previous completed bucket
	havePrev   bool
	haveBucket bool
}

// NewLiveMonitor creates a new LiveMonitor. The pipeline is optional.
func NewLiveMonitor(stream drepo.MarketStream, publisher drepo.Publisher, metrics drepo.Metrics, scanner regime.Scanner, sampleInterval time.Duration, l *applogger.Logger) *LiveMonitor {
	if sampleInterval <= 0 {
		sampleInterval = time.Minute
	}
	return &LiveMonitor{
		stream:         stream,
		publisher:      publisher,
		metrics:        metrics,
		scanner:        scanner,
		sampleInterval: sampleInterval,
		l:              l,
		states:         make(map[string]*symbolState),
	}
}

// SetPipeline inserts a validation/throttle pipeline in front of the sampler.
func (m *LiveMonitor) SetPipeline(p *mid.RealtimePipeline) { m.pipe = p }

// IsConnected returns true if the market stream is connected.
func (m *LiveMonitor) IsConnected() bool { return m.stream.IsConnected() }

// Start connects the stream and launches the consume loop.
func (m *LiveMonitor) Start(ctx context.Context) error {
	if err := m.stream.Connect(ctx); err != nil {
		return err
	}
	if err := m.stream.Subscribe(ctx); err != nil {
		return err
	}
	if m.pipe != nil {
		m.pipe.Start(ctx)
	}
	tickCh, errCh := m.stream.Read(ctx)
	go m.consume(ctx, tickCh, errCh)
	return nil
}

func (m *LiveMonitor) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				m.metrics.RecordError("stream")
				if rerr := m.stream.Reconnect(ctx); rerr != nil {
					if m.l != nil {
						m.l.Error("stream reconnect failed", applogger.Error(rerr))
					}
					return
				}
				tickCh, errCh = m.stream.Read(ctx)
			}
		case t := <-tickCh:
			if t == nil {
				continue
			}
			if m.pipe != nil {
				_ = m.pipe.Process(ctx, t)
			} else {
				_ = m.Process(ctx, t)
			}
		}
	}
}

// Process samples one tick. Implements the pipeline's downstream processor.
func (m *LiveMonitor) Process(ctx context.Context, t *models.Tick) error {
	// Bucket in nanoseconds so sub-second sample intervals stay valid.
	interval := int64(m.sampleInterval)
	bucket := t.Timestamp * int64(time.Second) / interval

	m.mu.Lock()
	st, ok := m.states[t.Symbol]
	if !ok {
		st = &symbolState{detector: regime.NewDetector(m.scanner, 0)}
		m.states[t.Symbol] = st
	}

	var (
		fire   bool
		change regime.Change
		label  string
	)
	if st.haveBucket && bucket > st.bucket {
		// previous bucket closed; emit a movement against the one before it
		closeTime := time.Unix(0, (st.bucket+1)*interval).UTC()
		label = closeTime.Format(time.RFC3339)
		if st.havePrev {
			x := 0
			if st.lastPrice > st.prevClose {
				x = 1
			}
			change, fire = st.detector.Observe(x, label)
		}
		st.prevClose = st.lastPrice
		st.havePrev = true
		st.bucket = bucket
	} else if !st.haveBucket {
		st.bucket = bucket
		st.haveBucket = true
	}
	st.lastPrice = t.Price
	m.mu.Unlock()

	if fire {
		m.emit(ctx, t.Symbol, change)
	}
	return nil
}

func (m *LiveMonitor) emit(ctx context.Context, symbol string, ch regime.Change) {
	changeDate := util.ParseTimeDefault(ch.Label, time.Now().UTC())
	rc := &models.RegimeChange{
		Symbol:     symbol,
		DetectedAt: time.Now().UTC(),
		ChangeDate: changeDate,
		SplitIndex: ch.Index,
		PBefore:    ch.PLeft,
		PAfter:     ch.PRight,
		MDL:        ch.MDL,
		Source:     "live",
	}
	m.metrics.RecordChange(symbol, "live")
	m.metrics.RecordLastMDL(symbol, ch.MDL)
	if m.l != nil {
		m.l.Info("live regime change",
			applogger.String("symbol", symbol),
			applogger.Int("split", ch.Index),
			applogger.Float64("p_before", ch.PLeft),
			applogger.Float64("p_after", ch.PRight),
		)
	}
	if m.publisher != nil {
		if err := m.publisher.Publish(ctx, rc); err != nil {
			m.metrics.RecordError("publish")
			if m.l != nil {
				m.l.Error("publish change failed",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (m *LiveMonitor) Shutdown(ctx context.Context) error {
	if m.pipe != nil {
		m.pipe.Stop()
	}
	return m.stream.Close()
}

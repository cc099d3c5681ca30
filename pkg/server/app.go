package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "RegimeScan/internal/domain/repository"
	"RegimeScan/internal/usecase"
	pkgch "RegimeScan/pkg/clickhouse"
	"RegimeScan/pkg/config"
	xhttp "RegimeScan/pkg/http"
	pkgkafka "RegimeScan/pkg/kafka"
	applogger "RegimeScan/pkg/logger"
	pkgqueue "RegimeScan/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	monitor     *usecase.LiveMonitor
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	queue       *pkgqueue.RedisQueue
	watcher     *usecase.Watcher
	publisher   drepo.Publisher
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with its core dependencies. Optional
// pieces are attached via the With* setters.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:         cfg,
		l:           l,
		httpHandler: handler,
		chClient:    chClient,
	}
}

// WithLiveMonitor attaches the live stream monitor.
func (a *App) WithLiveMonitor(m *usecase.LiveMonitor) { a.monitor = m }

// WithConsumer attaches the Kafka consumer and its handler.
func (a *App) WithConsumer(c *pkgkafka.Consumer, kh pkgkafka.MessageHandler) {
	a.consumer = c
	a.kh = kh
}

// WithQueue attaches the Redis job queue and the periodic watcher.
func (a *App) WithQueue(q *pkgqueue.RedisQueue, w *usecase.Watcher) {
	a.queue = q
	a.watcher = w
}

// WithPublisher attaches the change publisher for lifecycle management.
func (a *App) WithPublisher(p drepo.Publisher) { a.publisher = p }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.l
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.monitor != nil {
		go func() {
			if err := a.monitor.Start(ctx); err != nil {
				l.Error("live monitor error", applogger.Error(err))
			}
		}()
		l.Info("live monitor started", applogger.Strings("symbols", a.cfg.Stream.Symbols))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			l.Error("queue start error", applogger.Error(err))
		} else {
			// Error logs are aggregated and drained through the queue so
			// repeated failures show up as one entry with a count.
			l.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   30 * time.Second,
				CountThreshold: 100,
				Topic:          "log_report",
				Publisher:      a.queue,
			})
			if a.watcher != nil {
				a.watcher.Start(ctx)
				l.Info("watcher started",
					applogger.Strings("symbols", a.cfg.Stream.Symbols),
					applogger.Duration("interval_ms", a.cfg.Watch.Interval),
				)
			}
		}
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx, l)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context, l *applogger.Logger) error {
	if a.watcher != nil {
		a.watcher.Stop()
	}

	l.RemoveCollector()

	if a.monitor != nil {
		if err := a.monitor.Shutdown(ctx); err != nil {
			l.Warn("live monitor stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			l.Warn("queue stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			l.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}

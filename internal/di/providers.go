package di

import (
	"context"
	"fmt"
	"time"

	"RegimeScan/internal/domain/repository"
	"RegimeScan/internal/handler/api"
	mid "RegimeScan/internal/middleware"
	internalrepo "RegimeScan/internal/repository"
	"RegimeScan/internal/service/alphavantage"
	"RegimeScan/internal/service/stream"
	"RegimeScan/internal/services/regime"
	"RegimeScan/internal/usecase"
	pkgcache "RegimeScan/pkg/cache"
	pkgch "RegimeScan/pkg/clickhouse"
	"RegimeScan/pkg/config"
	xhttp "RegimeScan/pkg/http"
	pkgkafka "RegimeScan/pkg/kafka"
	applogger "RegimeScan/pkg/logger"
	"RegimeScan/pkg/metrics"
	pkgqueue "RegimeScan/pkg/queue"
	"RegimeScan/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{Level: "info", Format: "json", Output: "stdout"}
	if cfg.Environment == "development" {
		lc.Level = "debug"
		lc.Format = "console"
	}
	return applogger.New(lc)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideScanner builds the breakpoint scanner from config.
func ProvideScanner(cfg *config.Config) regime.Scanner {
	stride, smoothing, minObs := cfg.DetectorDefaults()
	return regime.Scanner{Stride: stride, Smoothing: smoothing, MinObservations: minObs}
}

// ProvideClickHouseClient creates a ClickHouse client and applies the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.Schema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideRedisCache creates the Redis cache when enabled, nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "regimescan"
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(prefix),
	)
}

// ProvideCacheService layers memory over Redis when available.
func ProvideCacheService(rc *pkgcache.RedisCache) pkgcache.Service {
	if rc != nil {
		return pkgcache.NewLayeredCache(rc)
	}
	return pkgcache.NewMemoryCache()
}

// ProvidePriceSource creates the Alpha Vantage daily bar client.
func ProvidePriceSource(cfg *config.Config, cs pkgcache.Service, l *applogger.Logger) repository.PriceSource {
	opts := []alphavantage.Option{
		alphavantage.WithCache(cs, cfg.AlphaVantage.CacheTTL),
		alphavantage.WithLogger(l),
	}
	if cfg.AlphaVantage.BaseURL != "" {
		opts = append(opts, alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL))
	}
	return alphavantage.New(cfg.AlphaVantage.APIKey, cfg.AlphaVantage.Timeout, cfg.AlphaVantage.MaxPerMinute, opts...)
}

// ProvideBarStore creates the ClickHouse bar store.
func ProvideBarStore(ch *pkgch.Client, l *applogger.Logger) repository.BarStore {
	s := internalrepo.NewCHBarStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideChangeStore creates the ClickHouse change store.
func ProvideChangeStore(ch *pkgch.Client, l *applogger.Logger) repository.ChangeStore {
	s := internalrepo.NewCHChangeStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideKafkaProducer creates a Kafka producer when the broker backend is
// selected, nil otherwise.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Events.Backend != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher routes detections through Kafka or straight to the store.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer, changes repository.ChangeStore) repository.Publisher {
	if cfg.Events.Backend == "kafka" && producer != nil {
		return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	}
	return internalrepo.NewStorePublisher(changes)
}

// ProvideKafkaConsumer creates the change event consumer for the broker
// backend, nil otherwise.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Events.Backend != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideChangesHandler registers the handler for the changes topic.
func ProvideChangesHandler(store repository.ChangeStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaChangesHandler {
	return usecase.NewKafkaChangesHandler(cfg.Kafka.Topic, store, m)
}

// ProvideScanUseCase builds the scan use case.
func ProvideScanUseCase(
	source repository.PriceSource,
	store repository.BarStore,
	publisher repository.Publisher,
	m repository.Metrics,
	scanner regime.Scanner,
	l *applogger.Logger,
) *usecase.ScanUseCase {
	return usecase.NewScanUseCase(source, store, publisher, m, scanner, l)
}

// ProvideLiveMonitor builds the live monitor with its stream and pipeline,
// or nil when no stream credentials are configured.
func ProvideLiveMonitor(
	cfg *config.Config,
	publisher repository.Publisher,
	m repository.Metrics,
	scanner regime.Scanner,
	l *applogger.Logger,
) *usecase.LiveMonitor {
	if cfg.Stream.APIKey == "" || len(cfg.Stream.Symbols) == 0 {
		return nil
	}
	ms := stream.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		l,
	)
	monitor := usecase.NewLiveMonitor(ms, publisher, m, scanner, cfg.Stream.SampleInterval, l)
	pipe := mid.NewRealtimePipeline(monitor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	monitor.SetPipeline(pipe)
	return monitor
}

// ProvideHTTPHandler builds the API handler.
func ProvideHTTPHandler(l *applogger.Logger, scan *usecase.ScanUseCase, changes repository.ChangeStore) xhttp.Handler {
	return api.NewRegimeEchoHandler(l, scan, changes)
}

// QueueBundle groups the job queue with its periodic watcher.
type QueueBundle struct {
	Queue   *pkgqueue.RedisQueue
	Watcher *usecase.Watcher
}

// ProvideQueueBundle builds the Redis-backed rescan queue when both Redis
// and the watch loop are enabled, nil otherwise.
func ProvideQueueBundle(
	cfg *config.Config,
	rc *pkgcache.RedisCache,
	scan *usecase.ScanUseCase,
	l *applogger.Logger,
) *QueueBundle {
	if rc == nil || !cfg.Watch.Enabled {
		return nil
	}
	workers := cfg.Watch.Workers
	if workers <= 0 {
		workers = 2
	}
	qc := &pkgqueue.QueueConfig{
		Workers:    workers,
		QueueSize:  256,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}
	jobs := []pkgqueue.Job{
		usecase.NewRescanJob(scan, l),
		usecase.NewLogReportJob(l),
	}
	q := pkgqueue.NewRedisConsumer(l, qc, rc.Client(), jobs,
		pkgqueue.WithKeyPrefix("regimescan:queue"),
	)
	w := usecase.NewWatcher(q, cfg.Stream.Symbols, cfg.Watch.Interval, l)
	return &QueueBundle{Queue: q, Watcher: w}
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	monitor *usecase.LiveMonitor,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaChangesHandler,
	qb *QueueBundle,
	publisher repository.Publisher,
) *server.App {
	app := server.New(cfg, l, handler, chClient)
	if monitor != nil {
		app.WithLiveMonitor(monitor)
	}
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
		app.WithConsumer(consumer, kh)
	}
	if qb != nil {
		app.WithQueue(qb.Queue, qb.Watcher)
	}
	app.WithPublisher(publisher)
	return app
}

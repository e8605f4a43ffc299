package di

import (
	"context"
	"fmt"
	"time"

	"CoeffRisk/internal/domain/repository"
	domsvc "CoeffRisk/internal/domain/service"
	"CoeffRisk/internal/handler/api"
	internalrepo "CoeffRisk/internal/repository"
	svcmetrics "CoeffRisk/internal/service/metrics"
	"CoeffRisk/internal/service/pricefeed"
	"CoeffRisk/internal/service/ratelimit"
	"CoeffRisk/internal/services/risk"
	"CoeffRisk/internal/usecase"
	"CoeffRisk/pkg/cache"
	pkgch "CoeffRisk/pkg/clickhouse"
	"CoeffRisk/pkg/config"
	xhttp "CoeffRisk/pkg/http"
	"CoeffRisk/pkg/http/middleware"
	pkgkafka "CoeffRisk/pkg/kafka"
	applogger "CoeffRisk/pkg/logger"
	"CoeffRisk/pkg/metrics"
	"CoeffRisk/pkg/server"
)

// lookbackSlack covers weekends and holidays missing from one side of the
// intersection when histories are read back from ClickHouse.
const lookbackSlack = 50

// ProvideLogger builds the root logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New()
}

// ProvideCache selects the payload cache backend.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	backend := cfg.Cache.Backend
	if backend == "none" {
		return cache.Nop{}, nil
	}
	if backend == "memory" {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryCleanup(time.Minute),
		), nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
		cache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	if backend == "redis" {
		return rc, nil
	}
	return cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize)), nil
}

// ProvideClickHouseClient connects to ClickHouse only when the price source
// or the archive needs it; otherwise it returns nil.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.NeedsClickHouse() {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvidePriceSource assembles the history source chain:
// fetcher (HTTP or ClickHouse), optional archive, then cache.
func ProvidePriceSource(cfg *config.Config, ch *pkgch.Client, c cache.Service, l *applogger.Logger) (repository.PriceSource, error) {
	var src repository.PriceSource

	switch cfg.PriceFeed.Source {
	case "clickhouse":
		s := internalrepo.NewCHPriceSource(ch, cfg.ClickHouse.Database, cfg.Risk.Lookback+lookbackSlack, cfg.Risk.BaseCurrency)
		s.SetLogger(l)
		// already local, nothing to cache
		return s, nil
	default:
		opts := []pricefeed.Option{
			pricefeed.WithTimeout(cfg.PriceFeed.Timeout),
			pricefeed.WithRetry(cfg.PriceFeed.Retries, 500*time.Millisecond),
			pricefeed.WithLogger(l),
		}
		if cfg.PriceFeed.ProxyURL != "" {
			opts = append(opts, pricefeed.WithProxy(cfg.PriceFeed.ProxyURL))
		}
		if cfg.PriceFeed.APIKey != "" {
			opts = append(opts, pricefeed.WithFMP(cfg.PriceFeed.FMPURL, cfg.PriceFeed.APIKey))
		}
		client, err := pricefeed.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("price feed: %w", err)
		}
		src = client
	}

	if cfg.PriceFeed.Archive && ch != nil {
		store := internalrepo.NewCHPriceSource(ch, cfg.ClickHouse.Database, cfg.Risk.Lookback+lookbackSlack, cfg.Risk.BaseCurrency)
		store.SetLogger(l)
		src = pricefeed.NewArchived(src, store, l)
	}

	return pricefeed.NewCached(src, c, cfg.PriceFeed.CacheTTL, l), nil
}

// ProvideRiskEngine builds the engine from the risk section.
func ProvideRiskEngine(cfg *config.Config) domsvc.RiskEngine {
	return risk.NewEngine(risk.Params{
		Lookback:     cfg.Risk.Lookback,
		MinOverlap:   cfg.Risk.MinOverlap,
		MaxAssets:    cfg.Risk.MaxAssets,
		BaseCurrency: cfg.Risk.BaseCurrency,
	})
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideResultPublisher publishes finished analyses, nil without Kafka.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ResultPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.ResultTopic)
}

// ProvidePortfolioAnalysis creates the analysis use case.
func ProvidePortfolioAnalysis(
	cfg *config.Config,
	source repository.PriceSource,
	engine domsvc.RiskEngine,
	m repository.Metrics,
	pub repository.ResultPublisher,
	l *applogger.Logger,
) *usecase.PortfolioAnalysis {
	opts := []usecase.AnalysisOption{usecase.WithLimits(cfg.Risk.Benchmark, cfg.Risk.MaxAssets)}
	if pub != nil {
		opts = append(opts, usecase.WithPublisher(pub))
	}
	return usecase.NewPortfolioAnalysis(source, engine, m, l, opts...)
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when Kafka is off.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaRequestsHandler handles analysis requests from the request topic.
func ProvideKafkaRequestsHandler(cfg *config.Config, analysis *usecase.PortfolioAnalysis, m repository.Metrics, l *applogger.Logger) pkgkafka.MessageHandler {
	return usecase.NewKafkaRequestsHandler(cfg.Kafka.RequestTopic, analysis, m, l)
}

// ProvideAnalysisHandler registers the /api routes behind a per-client limiter.
func ProvideAnalysisHandler(cfg *config.Config, analysis *usecase.PortfolioAnalysis, l *applogger.Logger) *api.AnalysisEchoHandler {
	limiter := ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec)
	return api.NewAnalysisEchoHandler(l, analysis, cfg.Risk.MaxAssets,
		middleware.RateLimit(limiter, svcmetrics.RateLimited.Inc),
	)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.AnalysisEchoHandler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, xhttp.WithCORS(cfg.Server.CORSOrigins...))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	pub repository.ResultPublisher,
	ch *pkgch.Client,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, httpServer, consumer, kh, pub, ch, c)
}

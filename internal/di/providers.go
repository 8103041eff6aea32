package di

import (
	"context"
	"fmt"
	"time"

	domrepo "RugDetector/internal/domain/repository"
	domsvc "RugDetector/internal/domain/service"
	"RugDetector/internal/handler/api"
	mid "RugDetector/internal/middleware"
	internalrepo "RugDetector/internal/repository"
	"RugDetector/internal/schema"
	svccache "RugDetector/internal/service/cache"
	"RugDetector/internal/service/chainfeed"
	"RugDetector/internal/service/ratelimit"
	"RugDetector/internal/services/extractor"
	"RugDetector/internal/services/inference"
	"RugDetector/internal/services/proof"
	"RugDetector/internal/usecase"
	"RugDetector/pkg/cache"
	pkgch "RugDetector/pkg/clickhouse"
	"RugDetector/pkg/config"
	xhttp "RugDetector/pkg/http"
	pkgkafka "RugDetector/pkg/kafka"
	applogger "RugDetector/pkg/logger"
	"RugDetector/pkg/metrics"
	"RugDetector/pkg/server"
)

// Version reported by /health.
const Version = "1.0.0"

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideRegistry builds the feature schema registry.
func ProvideRegistry() *schema.Registry {
	return schema.New()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append(
		[]string{fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", cfg.ClickHouse.Database)},
		internalrepo.SchemaStatements(analysisTable(cfg))...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

func analysisTable(cfg *config.Config) string {
	table := cfg.ClickHouse.Table
	if table == "" {
		table = "analyses"
	}
	return cfg.ClickHouse.Database + "." + table
}

// ProvideAnalysisStore creates the analyses store, or nil without ClickHouse.
func ProvideAnalysisStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.AnalysisStore {
	if chClient == nil {
		return nil
	}
	store := internalrepo.NewClickHouseAnalysisStore(chClient.DB(), analysisTable(cfg))
	store.SetLogger(l)
	return store
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
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

// ProvidePublisher creates the analysis publisher, or nil without Kafka.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaAnalysisPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer for scoring requests, or nil
// when no score topic is configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.ScoreTopic == "" {
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

// ProvideCache creates the analysis cache per config. Redis gets a memory
// layer in front so hot contracts skip the network round trip.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Backend == "redis" {
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix("rugdetector"),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return cache.NewLayeredCache(rc), nil
	}
	return cache.NewMemoryCache(), nil
}

// ProvideExtractor picks the feature producer: explorer-backed when an API
// is configured, otherwise the deterministic simulated baseline.
func ProvideExtractor(reg *schema.Registry, cfg *config.Config, l *applogger.Logger) domsvc.FeatureExtractor {
	if !cfg.Explorer.Enabled || cfg.Explorer.BaseURL == "" {
		return extractor.NewSimulated(reg)
	}
	opts := []extractor.ExplorerOption{}
	if cfg.Explorer.RateCapacity > 0 && cfg.Explorer.RatePerSec > 0 {
		opts = append(opts, extractor.WithRateLimit(cfg.Explorer.RateCapacity, cfg.Explorer.RatePerSec))
	}
	if cfg.Cache.Backend == "redis" {
		// Share fetched contract artifacts across replicas
		opts = append(opts, extractor.WithArtifactCache(svccache.NewRedis(svccache.Config{
			Addr:     fmt.Sprintf("%s:%d", cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})))
	}
	return extractor.NewExplorer(
		reg,
		xhttp.NewClient(xhttp.WithTimeout(15*time.Second)),
		ratelimit.New(),
		l,
		cfg.Explorer.BaseURL,
		cfg.Explorer.APIKey,
		opts...,
	)
}

// ProvideClassifier picks the inference backend. Backends that fail to load
// degrade to the heuristic with a logged warning rather than refusing to
// start, mirroring how the service behaves when model files are missing.
func ProvideClassifier(reg *schema.Registry, cfg *config.Config, l *applogger.Logger) domsvc.Classifier {
	switch cfg.Inference.Backend {
	case "mlp":
		m, err := inference.NewMLP(cfg.Inference.WeightsPath)
		if err == nil {
			return m
		}
		l.Warn("mlp backend unavailable, falling back to heuristic", applogger.Error(err))
	case "onnx":
		o, err := inference.NewONNX(inference.ONNXConfig{
			ModelPath:   cfg.Inference.ModelPath,
			LibraryPath: cfg.Inference.LibraryPath,
		})
		if err == nil {
			return o
		}
		l.Warn("onnx backend unavailable, falling back to heuristic", applogger.Error(err))
	case "remote":
		timeout := cfg.Inference.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		return inference.NewRemote(cfg.Inference.RemoteURL, timeout)
	}
	return inference.NewHeuristic(reg)
}

// ProvideProver creates the commitment prover bound to the model hash.
func ProvideProver(classifier domsvc.Classifier) domsvc.Prover {
	return proof.New(classifier.ModelHash())
}

// ProvideAnalyzer wires the analysis pipeline.
func ProvideAnalyzer(
	reg *schema.Registry,
	fx domsvc.FeatureExtractor,
	classifier domsvc.Classifier,
	prover domsvc.Prover,
	c cache.Service,
	store domrepo.AnalysisStore,
	publisher domrepo.Publisher,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Analyzer {
	opts := []usecase.AnalyzerOption{}
	if cfg.Cache.TTL > 0 {
		opts = append(opts, usecase.WithCacheTTL(cfg.Cache.TTL))
	}
	return usecase.NewAnalyzer(reg, fx, classifier, prover, c, store, publisher, m, l, opts...)
}

// ProvideScoreHandler registers the handler for the scoring-requests topic.
func ProvideScoreHandler(analyzer *usecase.Analyzer, m domrepo.Metrics, cfg *config.Config) *usecase.KafkaScoreHandler {
	if cfg.Kafka.ScoreTopic == "" {
		return nil
	}
	return usecase.NewKafkaScoreHandler(cfg.Kafka.ScoreTopic, analyzer, m)
}

// ProvideMonitor creates the chain feed monitor, or nil when disabled.
func ProvideMonitor(cfg *config.Config, analyzer *usecase.Analyzer, m domrepo.Metrics, l *applogger.Logger) *usecase.TokenMonitor {
	if !cfg.ChainFeed.Enabled {
		return nil
	}
	feed := chainfeed.New(
		cfg.ChainFeed.APIKey,
		cfg.ChainFeed.WebSocketURL,
		cfg.ChainFeed.Blockchains,
		cfg.ChainFeed.ReconnectDelay,
		cfg.ChainFeed.PingInterval,
		l,
	)
	pipeOpts := []mid.PipelineOption{}
	if cfg.ChainFeed.MaxRPS > 0 {
		pipeOpts = append(pipeOpts, mid.WithMaxRPS(cfg.ChainFeed.MaxRPS))
	}
	if cfg.ChainFeed.BufferSize > 0 {
		pipeOpts = append(pipeOpts, mid.WithBufferSize(cfg.ChainFeed.BufferSize))
	}
	// Pipeline sits between the feed and the analyzer
	monitor := usecase.NewTokenMonitor(feed, analyzer, m, nil, l)
	monitor.AttachPipeline(mid.NewEventPipeline(monitor, m, pipeOpts...))
	return monitor
}

// ProvideHTTPHandler creates the detector API handler.
func ProvideHTTPHandler(l *applogger.Logger, analyzer *usecase.Analyzer, reg *schema.Registry) xhttp.Handler {
	return api.NewDetectorHandler(l, analyzer, reg, Version)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	httpHandler xhttp.Handler,
	monitor *usecase.TokenMonitor,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaScoreHandler,
	chClient *pkgch.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	var handler pkgkafka.MessageHandler
	if kh != nil {
		handler = kh
	}
	return server.New(cfg, httpHandler, monitor, consumer, handler, chClient)
}

package di

import (
	"context"
	"fmt"
	"time"

	"VolaPulse/internal/domain/repository"
	"VolaPulse/internal/handler/api"
	"VolaPulse/internal/indicator"
	"VolaPulse/internal/service/redelivery"
	"VolaPulse/internal/usecase"
	"VolaPulse/pkg/config"
	xhttp "VolaPulse/pkg/http"
	pkgkafka "VolaPulse/pkg/kafka"
	"VolaPulse/pkg/logger"
	"VolaPulse/pkg/metrics"
	pkgrabbit "VolaPulse/pkg/rabbitmq"
	pkgsqs "VolaPulse/pkg/sqs"
	"VolaPulse/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBroker creates the queue backend selected by config. Queue.Type is
// validated against the closed set, so the default arm is unreachable.
func ProvideBroker(cfg *config.Config, log *logger.Logger) (repository.Broker, error) {
	switch cfg.Queue.Type {
	case "rabbitmq":
		return pkgrabbit.New(log,
			pkgrabbit.WithAddress(cfg.RabbitMQ.Host, cfg.RabbitMQ.Port),
			pkgrabbit.WithVHost(cfg.RabbitMQ.VHost),
			pkgrabbit.WithCredentials(cfg.RabbitMQ.User, cfg.RabbitMQ.Password),
			pkgrabbit.WithTopology(cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, cfg.RabbitMQ.RoutingKey),
			pkgrabbit.WithPublishKey(cfg.RabbitMQ.PublishKey),
			pkgrabbit.WithDLQ(cfg.RabbitMQ.DLQ),
			pkgrabbit.WithConnectRetry(cfg.RabbitMQ.ConnectAttempts, cfg.RabbitMQ.ConnectDelay),
		)
	case "sqs":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return pkgsqs.New(ctx, log,
			pkgsqs.WithQueueURL(cfg.SQS.QueueURL),
			pkgsqs.WithOutboundURL(cfg.SQS.OutboundURL),
			pkgsqs.WithDLQURL(cfg.SQS.DLQURL),
			pkgsqs.WithRegion(cfg.SQS.Region),
			pkgsqs.WithBatchSize(cfg.SQS.BatchSize),
			pkgsqs.WithWaitTime(cfg.SQS.WaitTime),
			pkgsqs.WithPollBackoff(cfg.SQS.PollBackoff),
		)
	case "kafka":
		return pkgkafka.New(log,
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithTopic(cfg.Kafka.Topic),
			pkgkafka.WithGroupID(cfg.Kafka.GroupID),
			pkgkafka.WithOutboundTopic(cfg.Kafka.OutboundTopic),
			pkgkafka.WithDLQ(cfg.Kafka.DLQTopic),
			pkgkafka.WithFetch(cfg.Kafka.MinBytes, cfg.Kafka.MaxBytes),
			pkgkafka.WithRetryBackoff(cfg.Kafka.BackoffMin, cfg.Kafka.BackoffMax),
		)
	default:
		return nil, fmt.Errorf("invalid queue type: %s", cfg.Queue.Type)
	}
}

// ProvideTracker creates the redelivery tracker: Redis when configured,
// in-process memory otherwise.
func ProvideTracker(cfg *config.Config) (repository.RedeliveryTracker, error) {
	if cfg.Redelivery.Redis.Enabled {
		tracker, err := redelivery.NewRedisTracker(
			redelivery.WithAddr(cfg.Redelivery.Redis.Addr),
			redelivery.WithAuth(cfg.Redelivery.Redis.Password, cfg.Redelivery.Redis.DB),
			redelivery.WithTTL(cfg.Redelivery.TTL),
		)
		if err != nil {
			return nil, fmt.Errorf("redelivery tracker: %w", err)
		}
		return tracker, nil
	}
	return redelivery.NewMemoryTracker(), nil
}

// ProvideAnalyzer creates the volatility indicator engine.
func ProvideAnalyzer(cfg *config.Config) *indicator.Engine {
	return indicator.NewEngine(indicator.Config{
		BollingerWindow: cfg.Analysis.BollingerWindow,
		BollingerStd:    cfg.Analysis.BollingerStd,
		ATRWindow:       cfg.Analysis.ATRWindow,
		StdWindow:       cfg.Analysis.StdWindow,
		HVWindow:        cfg.Analysis.HVWindow,
		KeltnerWindow:   cfg.Analysis.KeltnerWindow,
		KeltnerFactor:   cfg.Analysis.KeltnerFactor,
		ChaikinWindow:   cfg.Analysis.ChaikinWindow,
		DonchianWindow:  cfg.Analysis.DonchianWindow,
	})
}

// ProvideRouter creates the output router.
func ProvideRouter(cfg *config.Config, broker repository.Broker, m repository.Metrics, log *logger.Logger) *usecase.OutputRouter {
	return usecase.NewOutputRouter(cfg.Output.Mode, broker, m, log)
}

// ProvidePipeline creates the message pipeline.
func ProvidePipeline(
	engine *indicator.Engine,
	router *usecase.OutputRouter,
	broker repository.Broker,
	tracker repository.RedeliveryTracker,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.Pipeline {
	return usecase.NewPipeline(engine, router, broker, tracker, m, log, engine.MinLen(), cfg.Redelivery.MaxAttempts)
}

// ProvideHealthHandler creates the ops health handler.
func ProvideHealthHandler(cfg *config.Config, log *logger.Logger) xhttp.Handler {
	return api.NewHealthHandler(log, cfg.Queue.Type, cfg.Output.Mode)
}

// ProvideHTTPServer creates the ops HTTP server.
func ProvideHTTPServer(handler xhttp.Handler, log *logger.Logger, cfg *config.Config) *xhttp.Server {
	return xhttp.NewServer(handler, log,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	broker repository.Broker,
	pipeline *usecase.Pipeline,
	tracker repository.RedeliveryTracker,
	httpServer *xhttp.Server,
) *server.App {
	return server.New(cfg, log, broker, pipeline, tracker, httpServer)
}

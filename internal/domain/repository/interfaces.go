package repository

import (
	"context"

	"VolaPulse/internal/domain/models"
)

// Decision tells a broker what to do with a handled delivery. The pipeline
// computes it as a total function of the failure kind, so brokers never have
// to interpret errors themselves.
type Decision int

const (
	// Ack removes the message from the queue.
	Ack Decision = iota
	// Drop rejects the message without requeue (poison message).
	Drop
	// Retry rejects the message and requeues it for redelivery.
	Retry
)

func (d Decision) String() string {
	switch d {
	case Ack:
		return "ack"
	case Drop:
		return "drop"
	case Retry:
		return "retry"
	default:
		return "unknown"
	}
}

// Delivery is one in-flight message handed from a broker to the pipeline.
// The broker owns the underlying receipt and settles it exactly once based
// on the handler's decision.
type Delivery struct {
	Body        []byte
	ID          string
	Redelivered bool
}

// Handler processes a single delivery and returns an ack decision.
type Handler interface {
	Handle(ctx context.Context, d Delivery) Decision
}

// Broker is the uniform consume/publish capability over the queue backends.
type Broker interface {
	// Consume delivers messages to h one at a time, in order, until ctx is
	// cancelled. The broker settles each delivery per the returned decision.
	Consume(ctx context.Context, h Handler) error
	// Publish sends a payload to the configured outbound destination.
	Publish(ctx context.Context, payload []byte) error
	// PublishDeadLetter sends a payload to the dead-letter destination.
	PublishDeadLetter(ctx context.Context, payload []byte) error
	Close() error
}

// Analyzer computes a volatility analysis record from a symbol and its series.
type Analyzer interface {
	Analyze(symbol string, data models.Series) (*models.AnalysisResult, error)
}

// Sink receives enriched records from the output router.
type Sink interface {
	Write(ctx context.Context, result *models.AnalysisResult) error
}

// RedeliveryTracker counts processing attempts per message so the pipeline
// can dead-letter instead of requeueing forever.
type RedeliveryTracker interface {
	// Incr increments and returns the attempt count for a message id.
	Incr(ctx context.Context, id string) (int, error)
	// Clear forgets a message id after it has been settled.
	Clear(ctx context.Context, id string) error
	Close() error
}

// Metrics records pipeline observations.
type Metrics interface {
	RecordProcessed(symbol, outcome string)
	RecordRouted(mode, symbol string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/go-playground/validator/v10"

	"VolaPulse/internal/domain/models"
	"VolaPulse/internal/domain/repository"
	"VolaPulse/pkg/logger"
)

// Failure kinds. The ack decision is a total function of these, so adding a
// kind forces a decision in decide below.
const (
	kindDecode      = "decode"
	kindValidation  = "validation"
	kindComputation = "computation"
	kindSink        = "sink"
)

// Pipeline drives a delivery through decode, validate, compute and route,
// and settles it with an ack decision. One delivery at a time.
type Pipeline struct {
	analyzer repository.Analyzer
	router   *OutputRouter
	broker   repository.Broker
	tracker  repository.RedeliveryTracker
	metrics  repository.Metrics
	log      *logger.Logger
	validate *validator.Validate
	minLen   int
	maxTries int
}

// NewPipeline creates the message pipeline. maxTries bounds computation-error
// redeliveries before dead-lettering; 0 disables the cap and requeues forever.
func NewPipeline(
	analyzer repository.Analyzer,
	router *OutputRouter,
	broker repository.Broker,
	tracker repository.RedeliveryTracker,
	metrics repository.Metrics,
	log *logger.Logger,
	minLen int,
	maxTries int,
) *Pipeline {
	return &Pipeline{
		analyzer: analyzer,
		router:   router,
		broker:   broker,
		tracker:  tracker,
		metrics:  metrics,
		log:      log,
		validate: validator.New(),
		minLen:   minLen,
		maxTries: maxTries,
	}
}

// Handle processes one delivery. It never returns an error: every failure is
// converted to a log entry plus an ack decision.
func (p *Pipeline) Handle(ctx context.Context, d repository.Delivery) repository.Decision {
	start := time.Now()

	req, kind, err := p.decode(d.Body)
	if err == nil {
		err = p.process(ctx, req)
		if err != nil {
			kind = kindComputation
		}
	}

	symbol := "unknown"
	if req != nil && req.Symbol != "" {
		symbol = req.Symbol
	}

	decision := repository.Ack
	if err != nil {
		p.metrics.RecordError(kind)
		decision = p.decide(ctx, d, kind, err)
	} else if p.tracker != nil {
		if cerr := p.tracker.Clear(ctx, trackingID(d)); cerr != nil {
			p.log.Warn("redelivery clear failed", logger.Error(cerr))
		}
	}

	p.metrics.RecordProcessed(symbol, decision.String())
	p.metrics.RecordLatency("pipeline_handle", time.Since(start).Seconds())
	return decision
}

// decode parses and validates the raw payload.
func (p *Pipeline) decode(body []byte) (*models.AnalysisRequest, string, error) {
	var req models.AnalysisRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, kindDecode, fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := p.validate.Struct(&req); err != nil {
		return &req, kindValidation, fmt.Errorf("validate payload: %w", err)
	}
	if !req.Data.Consistent() {
		return &req, kindValidation, fmt.Errorf(
			"series lengths differ: close_prices=%d highs=%d lows=%d",
			len(req.Data.ClosePrices), len(req.Data.Highs), len(req.Data.Lows))
	}
	if req.Data.Len() < p.minLen {
		return &req, kindValidation, fmt.Errorf(
			"series too short: need %d points, got %d", p.minLen, req.Data.Len())
	}
	return &req, "", nil
}

// process computes the analysis and routes the result. Routing failures are
// sink-kind: the message is still considered handled.
func (p *Pipeline) process(ctx context.Context, req *models.AnalysisRequest) error {
	start := time.Now()
	result, err := p.analyzer.Analyze(req.Symbol, req.Data)
	p.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("analyze %s: %w", req.Symbol, err)
	}

	if err := p.router.Route(ctx, result); err != nil {
		// Best-effort outbound: report and carry on, the inbound side acks.
		p.log.Error("output routing failed", logger.String("symbol", req.Symbol), logger.Error(err))
		p.metrics.RecordError(kindSink)
		return nil
	}
	return nil
}

// decide maps a failure kind to an ack decision.
func (p *Pipeline) decide(ctx context.Context, d repository.Delivery, kind string, err error) repository.Decision {
	switch kind {
	case kindDecode, kindValidation:
		// Poison message: redelivery would never succeed.
		p.log.Error("rejecting message", logger.String("kind", kind), logger.Error(err))
		return repository.Drop
	case kindComputation:
		return p.retryOrDeadLetter(ctx, d, err)
	default:
		p.log.Error("unclassified failure", logger.String("kind", kind), logger.Error(err))
		return repository.Retry
	}
}

// retryOrDeadLetter requeues a computation failure until the redelivery cap,
// then dead-letters the raw payload and drops.
func (p *Pipeline) retryOrDeadLetter(ctx context.Context, d repository.Delivery, err error) repository.Decision {
	if p.maxTries <= 0 || p.tracker == nil {
		p.log.Error("processing failed, requeueing", logger.Error(err))
		return repository.Retry
	}

	id := trackingID(d)
	n, terr := p.tracker.Incr(ctx, id)
	if terr != nil {
		// Tracker trouble must not block processing; fall back to requeue.
		p.log.Warn("redelivery tracking failed", logger.Error(terr))
		return repository.Retry
	}
	if n < p.maxTries {
		p.log.Error("processing failed, requeueing",
			logger.Int("attempt", n), logger.Int("max", p.maxTries), logger.Error(err))
		return repository.Retry
	}

	p.log.Error("redelivery cap reached, dead-lettering",
		logger.Int("attempts", n), logger.Error(err))
	if derr := p.broker.PublishDeadLetter(ctx, d.Body); derr != nil {
		p.log.Error("dead-letter publish failed", logger.Error(derr))
		p.metrics.RecordError("dead_letter")
	}
	if cerr := p.tracker.Clear(ctx, id); cerr != nil {
		p.log.Warn("redelivery clear failed", logger.Error(cerr))
	}
	return repository.Drop
}

// trackingID keys redelivery counts. Brokers that do not assign message ids
// fall back to a payload hash.
func trackingID(d repository.Delivery) string {
	if d.ID != "" {
		return d.ID
	}
	h := fnv.New64a()
	h.Write(d.Body)
	return fmt.Sprintf("%x", h.Sum64())
}

var _ repository.Handler = (*Pipeline)(nil)

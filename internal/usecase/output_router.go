package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"VolaPulse/internal/domain/models"
	"VolaPulse/internal/domain/repository"
	"VolaPulse/pkg/logger"
)

// OutputMode selects the sink an analysis result is routed to.
type OutputMode string

const (
	ModeQueue    OutputMode = "queue"
	ModeLog      OutputMode = "log"
	ModeStdout   OutputMode = "stdout"
	ModeRest     OutputMode = "rest"
	ModeS3       OutputMode = "s3"
	ModeDatabase OutputMode = "database"
)

// ParseMode maps a configured mode string to an OutputMode. Unknown values
// fall back to log so a typo never stops the pipeline.
func ParseMode(s string, log *logger.Logger) OutputMode {
	switch m := OutputMode(s); m {
	case ModeQueue, ModeLog, ModeStdout, ModeRest, ModeS3, ModeDatabase:
		return m
	default:
		log.Warn("unknown output mode, falling back to log", logger.String("mode", s))
		return ModeLog
	}
}

// OutputRouter dispatches results to the sink for the configured mode.
// Its table is built once and covers every mode, so Route never misses.
type OutputRouter struct {
	mode    OutputMode
	sinks   map[OutputMode]repository.Sink
	metrics repository.Metrics
}

// NewOutputRouter builds the dispatch table for all recognized modes.
func NewOutputRouter(mode string, broker repository.Broker, metrics repository.Metrics, log *logger.Logger) *OutputRouter {
	return &OutputRouter{
		mode: ParseMode(mode, log),
		sinks: map[OutputMode]repository.Sink{
			ModeQueue:    &queueSink{broker: broker},
			ModeLog:      &logSink{log: log},
			ModeStdout:   &stdoutSink{out: os.Stdout},
			ModeRest:     &stubSink{mode: ModeRest, log: log},
			ModeS3:       &stubSink{mode: ModeS3, log: log},
			ModeDatabase: &stubSink{mode: ModeDatabase, log: log},
		},
		metrics: metrics,
	}
}

// SetStdout redirects the stdout sink, for tests.
func (r *OutputRouter) SetStdout(w io.Writer) {
	r.sinks[ModeStdout] = &stdoutSink{out: w}
}

// Mode returns the effective output mode after fallback.
func (r *OutputRouter) Mode() OutputMode { return r.mode }

// Route hands a result to the configured sink.
func (r *OutputRouter) Route(ctx context.Context, result *models.AnalysisResult) error {
	if err := r.sinks[r.mode].Write(ctx, result); err != nil {
		return fmt.Errorf("sink %s: %w", r.mode, err)
	}
	r.metrics.RecordRouted(string(r.mode), result.Symbol)
	return nil
}

// queueSink republishes the serialized result through the broker.
type queueSink struct {
	broker repository.Broker
}

func (s *queueSink) Write(ctx context.Context, result *models.AnalysisResult) error {
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return s.broker.Publish(ctx, b)
}

// logSink writes the result as a structured log entry.
type logSink struct {
	log *logger.Logger
}

func (s *logSink) Write(_ context.Context, result *models.AnalysisResult) error {
	s.log.Info("analysis result",
		logger.String("symbol", result.Symbol),
		logger.Any("result", result))
	return nil
}

// stdoutSink prints the serialized result.
type stdoutSink struct {
	out io.Writer
}

func (s *stdoutSink) Write(_ context.Context, result *models.AnalysisResult) error {
	b, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = fmt.Fprintln(s.out, string(b))
	return err
}

// stubSink stands in for sinks that are not built yet. It must not block the
// pipeline, so it warns and reports success.
type stubSink struct {
	mode OutputMode
	log  *logger.Logger
}

func (s *stubSink) Write(_ context.Context, result *models.AnalysisResult) error {
	s.log.Warn("output mode not implemented, discarding result",
		logger.String("mode", string(s.mode)),
		logger.String("symbol", result.Symbol))
	return nil
}

package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"VolaPulse/internal/domain/models"
)

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Symbol:       "AAPL",
		AnalysisType: models.AnalysisTypeVolatility,
		ATR:          2,
		StdDev:       5.7663,
	}
}

func TestRouterQueueModePublishesOnce(t *testing.T) {
	broker := &fakeBroker{}
	r := NewOutputRouter("queue", broker, fakeMetrics{}, testLogger(t))

	if err := r.Route(context.Background(), sampleResult()); err != nil {
		t.Fatalf("route: %v", err)
	}
	if len(broker.published) != 1 {
		t.Fatalf("want one publish, got %d", len(broker.published))
	}

	var res models.AnalysisResult
	if err := json.Unmarshal(broker.published[0], &res); err != nil {
		t.Fatalf("payload not a serialized result: %v", err)
	}
	if res.Symbol != "AAPL" || res.ATR != 2 {
		t.Fatalf("round-tripped result mismatch: %+v", res)
	}
}

func TestRouterLogModeDoesNotPublish(t *testing.T) {
	broker := &fakeBroker{}
	r := NewOutputRouter("log", broker, fakeMetrics{}, testLogger(t))

	if err := r.Route(context.Background(), sampleResult()); err != nil {
		t.Fatalf("route: %v", err)
	}
	if len(broker.published) != 0 {
		t.Fatalf("log mode must not publish, got %d", len(broker.published))
	}
}

func TestRouterStdoutMode(t *testing.T) {
	broker := &fakeBroker{}
	r := NewOutputRouter("stdout", broker, fakeMetrics{}, testLogger(t))

	var buf bytes.Buffer
	r.SetStdout(&buf)

	if err := r.Route(context.Background(), sampleResult()); err != nil {
		t.Fatalf("route: %v", err)
	}

	var res models.AnalysisResult
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatalf("stdout output not valid json: %v\n%s", err, buf.String())
	}
	if res.Symbol != "AAPL" {
		t.Fatalf("unexpected symbol %q", res.Symbol)
	}
}

func TestRouterUnknownModeFallsBackToLog(t *testing.T) {
	broker := &fakeBroker{}
	r := NewOutputRouter("carrier-pigeon", broker, fakeMetrics{}, testLogger(t))

	if r.Mode() != ModeLog {
		t.Fatalf("mode = %s, want fallback to log", r.Mode())
	}
	if err := r.Route(context.Background(), sampleResult()); err != nil {
		t.Fatalf("route: %v", err)
	}
	if len(broker.published) != 0 {
		t.Fatalf("fallback mode must not publish")
	}
}

func TestRouterStubModesSucceed(t *testing.T) {
	for _, mode := range []string{"rest", "s3", "database"} {
		broker := &fakeBroker{}
		r := NewOutputRouter(mode, broker, fakeMetrics{}, testLogger(t))
		if err := r.Route(context.Background(), sampleResult()); err != nil {
			t.Fatalf("mode %s: %v", mode, err)
		}
		if len(broker.published) != 0 {
			t.Fatalf("mode %s must not publish", mode)
		}
	}
}

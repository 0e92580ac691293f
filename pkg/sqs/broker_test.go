package sqs

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"VolaPulse/internal/domain/repository"
	"VolaPulse/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// fakeAPI serves one canned batch, then cancels the consume context so the
// poll loop terminates.
type fakeAPI struct {
	cancel   context.CancelFunc
	messages []types.Message

	receives int
	deletes  []string
	sends    []awssqs.SendMessageInput
}

func (f *fakeAPI) ReceiveMessage(_ context.Context, _ *awssqs.ReceiveMessageInput, _ ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error) {
	f.receives++
	if f.receives > 1 {
		f.cancel()
		return &awssqs.ReceiveMessageOutput{}, nil
	}
	return &awssqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeAPI) DeleteMessage(_ context.Context, params *awssqs.DeleteMessageInput, _ ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(params.ReceiptHandle))
	return &awssqs.DeleteMessageOutput{}, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, params *awssqs.SendMessageInput, _ ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error) {
	f.sends = append(f.sends, *params)
	return &awssqs.SendMessageOutput{MessageId: aws.String("sent-1")}, nil
}

type decisionHandler struct {
	decision repository.Decision
	seen     []repository.Delivery
}

func (h *decisionHandler) Handle(_ context.Context, d repository.Delivery) repository.Decision {
	h.seen = append(h.seen, d)
	return h.decision
}

func consumeOnce(t *testing.T, api *fakeAPI, h repository.Handler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	api.cancel = cancel

	b := NewWithAPI(api, testLogger(t),
		WithQueueURL("https://sqs.us-east-1.amazonaws.com/1/inbound"),
		WithPollBackoff(time.Millisecond))
	if err := b.Consume(ctx, h); err != nil {
		t.Fatalf("consume: %v", err)
	}
}

func TestConsumeAckDeletesMessage(t *testing.T) {
	api := &fakeAPI{messages: []types.Message{{
		Body:          aws.String(`{"symbol":"AAPL"}`),
		MessageId:     aws.String("m1"),
		ReceiptHandle: aws.String("r1"),
	}}}
	h := &decisionHandler{decision: repository.Ack}

	consumeOnce(t, api, h)

	if len(h.seen) != 1 {
		t.Fatalf("handler saw %d deliveries, want 1", len(h.seen))
	}
	if string(h.seen[0].Body) != `{"symbol":"AAPL"}` || h.seen[0].ID != "m1" {
		t.Fatalf("unexpected delivery: %+v", h.seen[0])
	}
	if len(api.deletes) != 1 || api.deletes[0] != "r1" {
		t.Fatalf("acked message must be deleted once, got %v", api.deletes)
	}
}

func TestConsumeDropDeletesMessage(t *testing.T) {
	api := &fakeAPI{messages: []types.Message{{
		Body:          aws.String("{bad"),
		MessageId:     aws.String("m2"),
		ReceiptHandle: aws.String("r2"),
	}}}

	consumeOnce(t, api, &decisionHandler{decision: repository.Drop})

	if len(api.deletes) != 1 || api.deletes[0] != "r2" {
		t.Fatalf("dropped message must be deleted once, got %v", api.deletes)
	}
}

func TestConsumeRetryLeavesMessageInPlace(t *testing.T) {
	api := &fakeAPI{messages: []types.Message{{
		Body:          aws.String(`{"symbol":"AAPL"}`),
		MessageId:     aws.String("m3"),
		ReceiptHandle: aws.String("r3"),
	}}}

	consumeOnce(t, api, &decisionHandler{decision: repository.Retry})

	if len(api.deletes) != 0 {
		t.Fatalf("retry must not delete, got %v", api.deletes)
	}
}

func TestPublishWithoutDestinationIsSkipped(t *testing.T) {
	api := &fakeAPI{}
	b := NewWithAPI(api, testLogger(t), WithQueueURL("https://sqs/inbound"))

	if err := b.Publish(context.Background(), []byte("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.sends) != 0 {
		t.Fatalf("no destination configured, nothing should be sent")
	}
}

func TestPublishSendsToOutbound(t *testing.T) {
	api := &fakeAPI{}
	b := NewWithAPI(api, testLogger(t),
		WithQueueURL("https://sqs/inbound"),
		WithOutboundURL("https://sqs/outbound"))

	if err := b.Publish(context.Background(), []byte(`{"symbol":"AAPL"}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(api.sends) != 1 {
		t.Fatalf("want one send, got %d", len(api.sends))
	}
	if aws.ToString(api.sends[0].QueueUrl) != "https://sqs/outbound" {
		t.Fatalf("sent to %s", aws.ToString(api.sends[0].QueueUrl))
	}
}

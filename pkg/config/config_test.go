package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
queue:
  type: rabbitmq
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.Environment != "development" {
		t.Fatalf("environment = %q", c.Environment)
	}
	if c.RabbitMQ.Host != "localhost" || c.RabbitMQ.Port != 5672 {
		t.Fatalf("rabbitmq defaults not applied: %+v", c.RabbitMQ)
	}
	if c.RabbitMQ.ConnectAttempts != 5 || c.RabbitMQ.ConnectDelay != 5*time.Second {
		t.Fatalf("connect retry defaults not applied: %+v", c.RabbitMQ)
	}
	if c.SQS.BatchSize != 10 || c.SQS.WaitTime != 10*time.Second || c.SQS.PollBackoff != 5*time.Second {
		t.Fatalf("sqs defaults not applied: %+v", c.SQS)
	}
	if c.Output.Mode != "queue" {
		t.Fatalf("output mode default = %q", c.Output.Mode)
	}
	if c.Redelivery.MaxAttempts != 5 {
		t.Fatalf("redelivery default = %d", c.Redelivery.MaxAttempts)
	}
	if c.Analysis.BollingerWindow != 20 || c.Analysis.ATRWindow != 14 {
		t.Fatalf("analysis defaults not applied: %+v", c.Analysis)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
rabbitmq:
  host: mq.internal
  exchange: custom_exchange
output:
  mode: stdout
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.RabbitMQ.Host != "mq.internal" || c.RabbitMQ.Exchange != "custom_exchange" {
		t.Fatalf("yaml values not applied: %+v", c.RabbitMQ)
	}
	if c.Output.Mode != "stdout" {
		t.Fatalf("output mode = %q", c.Output.Mode)
	}
}

func TestLoadRejectsUnknownQueueType(t *testing.T) {
	path := writeConfig(t, `
queue:
  type: zeromq
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for unknown queue type")
	}
}

func TestLoadRejectsKafkaWithoutBrokers(t *testing.T) {
	path := writeConfig(t, `
queue:
  type: kafka
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error when kafka has no brokers")
	}
}

func TestLoadRejectsSQSWithoutQueueURL(t *testing.T) {
	path := writeConfig(t, `
queue:
  type: sqs
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error when sqs has no queue url")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
queue:
  type: rabbitmq
`)

	t.Setenv("QUEUE_TYPE", "sqs")
	t.Setenv("SQS_QUEUE_URL", "https://sqs.us-east-1.amazonaws.com/1/inbound")
	t.Setenv("OUTPUT_MODE", "LOG")
	t.Setenv("RABBITMQ_HOST", "mq.prod")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Queue.Type != "sqs" {
		t.Fatalf("queue type = %q", c.Queue.Type)
	}
	if c.SQS.QueueURL != "https://sqs.us-east-1.amazonaws.com/1/inbound" {
		t.Fatalf("sqs url = %q", c.SQS.QueueURL)
	}
	if c.Output.Mode != "log" {
		t.Fatalf("output mode = %q, want lowered", c.Output.Mode)
	}
	if c.RabbitMQ.Host != "mq.prod" {
		t.Fatalf("rabbitmq host = %q", c.RabbitMQ.Host)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

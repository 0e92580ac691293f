package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Log         struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Queue struct {
		Type string `yaml:"type" default:"rabbitmq" validate:"oneof=rabbitmq sqs kafka"`
	} `yaml:"queue"`
	RabbitMQ struct {
		Host            string        `yaml:"host" default:"localhost"`
		Port            int           `yaml:"port" default:"5672"`
		VHost           string        `yaml:"vhost" default:"/"`
		User            string        `yaml:"user" default:"guest"`
		Password        string        `yaml:"password" default:"guest"`
		Exchange        string        `yaml:"exchange" default:"stock_analysis"`
		Queue           string        `yaml:"queue" default:"volatility_analysis_queue"`
		RoutingKey      string        `yaml:"routing_key" default:"#"`
		PublishKey      string        `yaml:"publish_key" default:"stock_data"`
		DLQ             string        `yaml:"dlq" default:"volatility_analysis_dlq"`
		ConnectAttempts int           `yaml:"connect_attempts" default:"5" validate:"gte=1"`
		ConnectDelay    time.Duration `yaml:"connect_delay" default:"5s"`
	} `yaml:"rabbitmq"`
	SQS struct {
		QueueURL    string        `yaml:"queue_url"`
		OutboundURL string        `yaml:"outbound_url"`
		DLQURL      string        `yaml:"dlq_url"`
		Region      string        `yaml:"region" default:"us-east-1"`
		BatchSize   int           `yaml:"batch_size" default:"10" validate:"gte=1,lte=10"`
		WaitTime    time.Duration `yaml:"wait_time" default:"10s"`
		PollBackoff time.Duration `yaml:"poll_backoff" default:"5s"`
	} `yaml:"sqs"`
	Kafka struct {
		Brokers       []string      `yaml:"brokers"`
		Topic         string        `yaml:"topic" default:"stock_data"`
		GroupID       string        `yaml:"group_id" default:"volatility"`
		OutboundTopic string        `yaml:"outbound_topic" default:"volatility_results"`
		DLQTopic      string        `yaml:"dlq_topic" default:"volatility_dlq"`
		MinBytes      int           `yaml:"min_bytes" default:"1"`
		MaxBytes      int           `yaml:"max_bytes" default:"10485760"`
		BackoffMin    time.Duration `yaml:"backoff_min" default:"100ms"`
		BackoffMax    time.Duration `yaml:"backoff_max" default:"5s"`
	} `yaml:"kafka"`
	Output struct {
		Mode string `yaml:"mode" default:"queue" validate:"oneof=queue log stdout rest s3 database"`
	} `yaml:"output"`
	Redelivery struct {
		MaxAttempts int           `yaml:"max_attempts" default:"5" validate:"gte=0"`
		TTL         time.Duration `yaml:"ttl" default:"24h"`
		Redis       struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"redelivery"`
	Analysis struct {
		BollingerWindow int     `yaml:"bollinger_window" default:"20" validate:"gte=2"`
		BollingerStd    float64 `yaml:"bollinger_std" default:"2"`
		ATRWindow       int     `yaml:"atr_window" default:"14" validate:"gte=1"`
		StdWindow       int     `yaml:"std_window" default:"20" validate:"gte=2"`
		HVWindow        int     `yaml:"hv_window" default:"20" validate:"gte=2"`
		KeltnerWindow   int     `yaml:"keltner_window" default:"20" validate:"gte=2"`
		KeltnerFactor   float64 `yaml:"keltner_factor" default:"2"`
		ChaikinWindow   int     `yaml:"chaikin_window" default:"10" validate:"gte=1"`
		DonchianWindow  int     `yaml:"donchian_window" default:"20" validate:"gte=1"`
	} `yaml:"analysis"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// The variable names match the original worker's deployment surface.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("QUEUE_TYPE"); v != "" {
		c.Queue.Type = strings.ToLower(v)
	}
	if v := os.Getenv("RABBITMQ_HOST"); v != "" {
		c.RabbitMQ.Host = v
	}
	if v := os.Getenv("RABBITMQ_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.RabbitMQ.Port = p
		}
	}
	if v := os.Getenv("RABBITMQ_VHOST"); v != "" {
		c.RabbitMQ.VHost = v
	}
	if v := os.Getenv("RABBITMQ_USER"); v != "" {
		c.RabbitMQ.User = v
	}
	if v := os.Getenv("RABBITMQ_PASS"); v != "" {
		c.RabbitMQ.Password = v
	}
	if v := os.Getenv("RABBITMQ_EXCHANGE"); v != "" {
		c.RabbitMQ.Exchange = v
	}
	if v := os.Getenv("RABBITMQ_QUEUE"); v != "" {
		c.RabbitMQ.Queue = v
	}
	if v := os.Getenv("RABBITMQ_ROUTING_KEY"); v != "" {
		c.RabbitMQ.RoutingKey = v
	}
	if v := os.Getenv("DLQ_NAME"); v != "" {
		c.RabbitMQ.DLQ = v
	}
	if v := os.Getenv("SQS_QUEUE_URL"); v != "" {
		c.SQS.QueueURL = v
	}
	if v := os.Getenv("SQS_OUTBOUND_URL"); v != "" {
		c.SQS.OutboundURL = v
	}
	if v := os.Getenv("SQS_DLQ_URL"); v != "" {
		c.SQS.DLQURL = v
	}
	if v := os.Getenv("SQS_REGION"); v != "" {
		c.SQS.Region = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("OUTPUT_MODE"); v != "" {
		c.Output.Mode = strings.ToLower(v)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Queue.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when queue.type is 'kafka'")
	}
	if c.Queue.Type == "sqs" && c.SQS.QueueURL == "" {
		return fmt.Errorf("sqs.queue_url is required when queue.type is 'sqs'")
	}
	return nil
}

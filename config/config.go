// Package config loads the pipeline configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/poiesic/linestream/ai"
	"github.com/poiesic/linestream/awsutil"
	"github.com/poiesic/linestream/delivery"
	"github.com/poiesic/linestream/ingestion"
	"github.com/poiesic/linestream/stream"
	"gopkg.in/yaml.v3"
)

// Queue backends.
const (
	QueueKinesis = "kinesis"
	QueueKafka   = "kafka"
	QueueBadger  = "badger"
)

// Blob backends.
const (
	BlobS3    = "s3"
	BlobMinIO = "minio"
)

// Queue configures the stream service.
type Queue struct {
	Backend      string        `yaml:"backend"`
	Stream       string        `yaml:"stream"`
	OutputStream string        `yaml:"outputStream"`
	Consumer     string        `yaml:"consumer"`
	Brokers      []string      `yaml:"brokers"`
	Path         string        `yaml:"path"` // badger directory, empty for in-memory
	MaxBatchSize int           `yaml:"maxBatchSize"`
	FetchSize    int           `yaml:"fetchSize"`
	PollInterval time.Duration `yaml:"pollInterval"`
}

// Blob configures where ingest objects are read from.
type Blob struct {
	Backend   string `yaml:"backend"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Region    string `yaml:"region"`
	UseTLS    bool   `yaml:"useTLS"`
}

// Delivery configures the destination of enriched records.
type Delivery struct {
	Mode     string `yaml:"mode"`
	Endpoint string `yaml:"endpoint"`
	Index    string `yaml:"index"`
	DocType  string `yaml:"docType"`
	Sign     bool   `yaml:"sign"` // SigV4 sign bulk requests
}

// Ingest configures the ingest triggers.
type Ingest struct {
	PartitionBy string `yaml:"partitionBy"`
	Listen      string `yaml:"listen"`
}

// Config is the complete pipeline configuration.
type Config struct {
	AWS        awsutil.Config `yaml:"aws"`
	Queue      Queue          `yaml:"queue"`
	Blob       Blob           `yaml:"blob"`
	Classifier ai.Config      `yaml:"classifier"`
	Delivery   Delivery       `yaml:"delivery"`
	Ingest     Ingest         `yaml:"ingest"`
	PoolSize   int            `yaml:"poolSize"` // 0 keeps each component's default
}

// Default returns a configuration for a single-machine setup: a badger queue,
// a MinIO blob store and a local search service.
func Default() *Config {
	return &Config{
		AWS: awsutil.Config{Region: "us-east-1"},
		Queue: Queue{
			Backend:      QueueBadger,
			Stream:       "text-lines",
			OutputStream: "enriched-lines",
			Consumer:     "sentiment",
			Brokers:      []string{"localhost:9092"},
			MaxBatchSize: stream.DefaultMaxBatchSize,
			FetchSize:    100,
			PollInterval: time.Second,
		},
		Blob: Blob{
			Backend:  BlobMinIO,
			Endpoint: "localhost:9000",
			Region:   "us-east-1",
		},
		Classifier: *ai.DefaultConfig(),
		Delivery: Delivery{
			Mode:     string(delivery.ModeBulkIndex),
			Endpoint: "http://localhost:9200/",
			Index:    "text_lines",
			DocType:  delivery.DefaultDocType,
		},
		Ingest: Ingest{
			PartitionBy: string(ingestion.PartitionByRecord),
			Listen:      ":8080",
		},
	}
}

// Load reads a YAML file over the defaults. ${VAR} references are expanded
// from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize puts names in canonical form and fills zero values.
func (c *Config) Normalize() {
	c.Queue.Backend = strings.ToLower(strings.TrimSpace(c.Queue.Backend))
	if c.Queue.MaxBatchSize == 0 {
		c.Queue.MaxBatchSize = stream.DefaultMaxBatchSize
	}
	if c.Queue.FetchSize <= 0 {
		c.Queue.FetchSize = 100
	}
	if c.Queue.PollInterval <= 0 {
		c.Queue.PollInterval = time.Second
	}

	c.Blob.Backend = strings.ToLower(strings.TrimSpace(c.Blob.Backend))
	if c.Blob.Region == "" {
		c.Blob.Region = c.AWS.Region
	}

	c.Classifier.Normalize()

	c.Delivery.Mode = strings.ToUpper(strings.TrimSpace(c.Delivery.Mode))
	c.Delivery.Endpoint = strings.TrimSuffix(strings.TrimSpace(c.Delivery.Endpoint), "/")
	if c.Delivery.DocType == "" {
		c.Delivery.DocType = delivery.DefaultDocType
	}

	c.Ingest.PartitionBy = strings.ToLower(strings.TrimSpace(c.Ingest.PartitionBy))
	if c.Ingest.PartitionBy == "" {
		c.Ingest.PartitionBy = string(ingestion.PartitionByRecord)
	}
}

// Validate checks that the configuration is complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	var errs []error
	switch c.Queue.Backend {
	case QueueBadger:
	case QueueKinesis:
		if c.AWS.Region == "" {
			errs = append(errs, errors.New("aws.region is required for kinesis"))
		}
	case QueueKafka:
		if len(c.Queue.Brokers) == 0 {
			errs = append(errs, errors.New("queue.brokers is required for kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("queue.backend: unknown backend %q", c.Queue.Backend))
	}
	if c.Queue.Stream == "" {
		errs = append(errs, errors.New("queue.stream is required"))
	}
	if c.Queue.Consumer == "" {
		errs = append(errs, errors.New("queue.consumer is required"))
	}
	if c.Queue.MaxBatchSize < 1 || c.Queue.MaxBatchSize > stream.DefaultMaxBatchSize {
		errs = append(errs, fmt.Errorf("queue.maxBatchSize must be between 1 and %d", stream.DefaultMaxBatchSize))
	}

	switch c.Blob.Backend {
	case BlobS3:
	case BlobMinIO:
		if c.Blob.Endpoint == "" {
			errs = append(errs, errors.New("blob.endpoint is required for minio"))
		}
	default:
		errs = append(errs, fmt.Errorf("blob.backend: unknown backend %q", c.Blob.Backend))
	}

	if err := c.Classifier.Validate(); err != nil {
		errs = append(errs, err)
	}

	mode, err := delivery.ParseMode(c.Delivery.Mode)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("delivery.mode: %w", err))
	case mode == delivery.ModeBulkIndex:
		if c.Delivery.Endpoint == "" {
			errs = append(errs, errors.New("delivery.endpoint is required for BULK_INDEX"))
		}
		if c.Delivery.Index == "" {
			errs = append(errs, errors.New("delivery.index is required for BULK_INDEX"))
		}
	case mode == delivery.ModeQueueForward:
		if c.Queue.OutputStream == "" {
			errs = append(errs, errors.New("queue.outputStream is required for QUEUE_FORWARD"))
		} else if c.Queue.OutputStream == c.Queue.Stream {
			errs = append(errs, errors.New("queue.outputStream must differ from queue.stream"))
		}
	}

	if _, err := ingestion.ParsePartitionBy(c.Ingest.PartitionBy); err != nil {
		errs = append(errs, fmt.Errorf("ingest.partitionBy: %w", err))
	}
	if c.PoolSize < 0 {
		errs = append(errs, errors.New("poolSize cannot be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

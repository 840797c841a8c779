// Package events publishes computed recommendation and analysis results to
// Kafka for downstream consumers (audit, notifications, CRM sync).
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/planvisor/pkg/models"
)

// Topics carried by the publisher.
const (
	TopicRecommendations   = "plan.recommendations"
	TopicMigrationAnalyses = "plan.migration.analyses"
)

var (
	// ErrPublisherClosed is returned when publishing on a closed publisher.
	ErrPublisherClosed = errors.New("publisher is closed")

	// ErrInvalidBrokers is returned when no brokers are configured.
	ErrInvalidBrokers = errors.New("no kafka brokers configured")
)

// Config holds Kafka connection settings.
type Config struct {
	Brokers      []string      `yaml:"brokers"`
	ClientID     string        `yaml:"client_id"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaPublisher implements the recommendation service's EventPublisher
// over a shared kafka-go writer.
type KafkaPublisher struct {
	writer *kafka.Writer
	mu     sync.Mutex
	closed bool
}

// NewKafkaPublisher creates a publisher.
func NewKafkaPublisher(cfg Config) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrInvalidBrokers
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Compression:  kafka.Gzip,
		RequiredAcks: kafka.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if cfg.ClientID != "" {
		writer.Transport = &kafka.Transport{ClientID: cfg.ClientID}
	}
	return &KafkaPublisher{writer: writer}, nil
}

// PublishRecommendation announces a computed recommendation response,
// keyed by organization so consumers see per-org ordering.
func (p *KafkaPublisher) PublishRecommendation(ctx context.Context, resp *models.PlanRecommendationResponse) error {
	return p.send(ctx, TopicRecommendations, resp.OrganizationID, resp)
}

// PublishMigrationAnalysis announces a completed migration deep dive.
func (p *KafkaPublisher) PublishMigrationAnalysis(ctx context.Context, analysis *models.DetailedMigrationCostBenefit) error {
	return p.send(ctx, TopicMigrationAnalyses, analysis.OrganizationID, analysis)
}

func (p *KafkaPublisher) send(ctx context.Context, topic, key string, payload interface{}) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPublisherClosed
	}
	p.mu.Unlock()

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %v", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
}

// Close closes the underlying writer. Safe to call more than once.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

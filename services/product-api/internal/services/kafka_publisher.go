package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/nimeshabuddhika/product-api/pkg"
	kafkautils "github.com/nimeshabuddhika/product-api/pkg/kafka"
	"github.com/nimeshabuddhika/product-api/pkg/views"
	"go.uber.org/zap"
)

type ProductPublisher interface {
	PublishProductEvent(ctx context.Context, event views.ProductEvent) error
	Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishProductEvent(context.Context, views.ProductEvent) error { return nil }
func (NoopPublisher) Close()                                                      {}

type KafkaPublisherConfig struct {
	Brokers    string
	Topic      string
	Partitions int
}

type KafkaPublisherImpl struct {
	logger   *zap.Logger
	producer *kafka.Producer
	topic    string
}

// NewKafkaPublisher creates the product topic if needed and returns a publisher producing to it.
func NewKafkaPublisher(ctx context.Context, logger *zap.Logger, cnf KafkaPublisherConfig) (ProductPublisher, error) {
	if cnf.Partitions <= 0 {
		cnf.Partitions = 1
	}
	topicConfig := kafkautils.KafkaConfig{
		BootstrapServers: cnf.Brokers,
		Topics: []kafkautils.TopicConfig{
			{
				Topic:             cnf.Topic,
				NumPartitions:     cnf.Partitions,
				ReplicationFactor: 1,
				Config: map[string]string{
					"cleanup.policy": "delete",
				},
			},
		},
	}
	if err := kafkautils.InitKafkaTopics(logger, ctx, topicConfig); err != nil {
		return nil, fmt.Errorf("failed to initialize kafka topics: %w", err)
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cnf.Brokers,
		"acks":               "all",  // Wait for all replicas
		"enable.idempotence": "true", // Ensure messages are not sent twice
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	logger.Info("kafka producer created successfully", zap.String("brokers", cnf.Brokers), zap.String("topic", cnf.Topic))
	go handleDeliveryReports(logger, p) // Async error handling
	return &KafkaPublisherImpl{
		logger:   logger,
		producer: p,
		topic:    cnf.Topic,
	}, nil
}

func (k *KafkaPublisherImpl) PublishProductEvent(_ context.Context, event views.ProductEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// Keyed by product id so every event for one product lands on the same partition
	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.Product.ID),
		Value: msgBytes,
		Headers: []kafka.Header{
			{Key: pkg.HeaderTraceId, Value: []byte(event.TraceID)},
			{Key: "type", Value: []byte(event.Type)},
		},
	}, nil)
}

// Close flushes outstanding messages before closing the producer.
func (k *KafkaPublisherImpl) Close() {
	if remaining := k.producer.Flush(5000); remaining > 0 {
		k.logger.Warn("kafka producer closed with undelivered messages", zap.Int("remaining", remaining))
	}
	k.producer.Close()
}

func handleDeliveryReports(logger *zap.Logger, p *kafka.Producer) {
	for e := range p.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				logger.Error("failed to publish message", zap.Error(ev.TopicPartition.Error), zap.ByteString("key", ev.Key))
			}
		}
	}
}

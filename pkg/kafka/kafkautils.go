package kafkautils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const (
	topicInitMaxElapsed = 2 * time.Minute
	adminOpTimeout      = 30 * time.Second
)

type KafkaConfig struct {
	BootstrapServers string
	Topics           []TopicConfig
}

type TopicConfig struct {
	Topic             string
	NumPartitions     int
	ReplicationFactor int
	Config            map[string]string
}

func (t TopicConfig) toSpecification() kafka.TopicSpecification {
	partitions, replicas := t.NumPartitions, t.ReplicationFactor
	if partitions <= 0 {
		partitions = 1
	}
	if replicas <= 0 {
		replicas = 1
	}
	return kafka.TopicSpecification{
		Topic:             t.Topic,
		NumPartitions:     partitions,
		ReplicationFactor: replicas,
		Config:            t.Config,
	}
}

// InitKafkaTopics makes sure every configured topic exists, treating an existing
// topic as success. Brokers that are still starting are retried with exponential
// backoff for up to two minutes or until ctx is done.
func InitKafkaTopics(logger *zap.Logger, ctx context.Context, cnf KafkaConfig) error {
	if len(cnf.Topics) == 0 {
		return errors.New("no kafka topics configured")
	}
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": cnf.BootstrapServers})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	topics := make([]kafka.TopicSpecification, 0, len(cnf.Topics))
	for _, topic := range cnf.Topics {
		topics = append(topics, topic.toSpecification())
	}

	attempt := 0
	operation := func() error {
		attempt++
		results, err := admin.CreateTopics(ctx, topics, kafka.SetAdminOperationTimeout(adminOpTimeout))
		if err != nil {
			logger.Warn("kafka topic creation attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			return fmt.Errorf("failed to create topics: %w", err)
		}
		for _, result := range results {
			switch result.Error.Code() {
			case kafka.ErrNoError:
				logger.Info("kafka topic created", zap.String("topic", result.Topic))
			case kafka.ErrTopicAlreadyExists:
				logger.Info("kafka topic already exists", zap.String("topic", result.Topic))
			default:
				return fmt.Errorf("kafka topic %s creation failed: %v", result.Topic, result.Error)
			}
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = topicInitMaxElapsed
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

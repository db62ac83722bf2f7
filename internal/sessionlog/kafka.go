package sessionlog

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/deltawash/deltawash/internal/domain"
)

// KafkaPublisher republishes finalized SessionRecords onto a topic for
// the operational-analytics subsystem to consume as a stream instead of
// tailing the JSONL log. It keeps one long-lived sync producer rather
// than dialing per record.
type KafkaPublisher struct {
	topic    string
	producer sarama.SyncProducer
}

// NewKafkaPublisher dials brokers once and returns a publisher bound to
// topic. The caller is responsible for calling Close when the pipeline
// shuts down.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("sessionlog: kafka producer: %w", err)
	}
	return &KafkaPublisher{topic: topic, producer: producer}, nil
}

// Publish sends record as a JSON-encoded message keyed by session id, so
// consumers that care about per-session ordering can partition on it.
func (k *KafkaPublisher) Publish(record domain.SessionRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("sessionlog: marshal for kafka: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(record.SessionID),
		Value: sarama.ByteEncoder(value),
	}

	_, _, err = k.producer.SendMessage(msg)
	return err
}

// Close releases the underlying producer's connections.
func (k *KafkaPublisher) Close() error {
	return k.producer.Close()
}

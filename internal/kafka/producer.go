package kafka

import (
	"context"
	"encoding/json"

	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
	kafkago "github.com/segmentio/kafka-go"
)

// Producer is a wrapper around the Kafka writer
type Producer struct {
	writer *kafkago.Writer
	topic  string
	log    *logger.Logger
}

// ProduceMessage writes a message and waits for the broker acknowledgement
func (p *Producer) ProduceMessage(ctx context.Context, key []byte, value []byte, headers []MessageHeader) error {
	var kafkaHeaders []kafkago.Header
	if len(headers) > 0 {
		kafkaHeaders = make([]kafkago.Header, len(headers))
		for i, h := range headers {
			kafkaHeaders[i] = kafkago.Header{Key: h.Key, Value: h.Value}
		}
	}

	err := p.writer.WriteMessages(ctx, kafkago.Message{
		Key:     key,
		Value:   value,
		Headers: kafkaHeaders,
	})
	if err != nil {
		p.log.Errorf("Failed to produce message to %s: %v", p.topic, err)
		return errors.Wrapf(err, "failed to produce message to %s", p.topic)
	}
	return nil
}

// PublishJSON marshals v and writes it under key
func (p *Producer) PublishJSON(ctx context.Context, key string, v interface{}) error {
	value, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message")
	}
	headers := []MessageHeader{{Key: "content-type", Value: []byte("application/json")}}
	return p.ProduceMessage(ctx, []byte(key), value, headers)
}

// Close flushes pending writes and closes the producer
func (p *Producer) Close() error {
	p.log.Info("Closing producer")
	return p.writer.Close()
}

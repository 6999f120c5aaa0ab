package kafka

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
	kafkago "github.com/segmentio/kafka-go"
)

// MessageHandler is a function that processes Kafka messages
type MessageHandler func(ctx context.Context, msg *Message) error

// messageReader is the part of *kafkago.Reader the consumer uses
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer wraps a consumer-group reader
type Consumer struct {
	reader     messageReader
	topic      string
	backoff    time.Duration
	maxBackoff time.Duration
	log        *logger.Logger
}

func newConsumer(reader messageReader, topic string, backoff, maxBackoff time.Duration) *Consumer {
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	if maxBackoff < backoff {
		maxBackoff = backoff
	}
	return &Consumer{
		reader:     reader,
		topic:      topic,
		backoff:    backoff,
		maxBackoff: maxBackoff,
		log:        logger.GetLogger("kafka.consumer"),
	}
}

// ConsumeMessages fetches messages until ctx is done, passing each to handler.
// A message whose handler fails is handled again with exponential backoff
// before the next one is fetched; its offset is committed only on success.
func (c *Consumer) ConsumeMessages(ctx context.Context, handler MessageHandler) error {
	c.log.Infof("Starting consumer for topic: %s", c.topic)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, io.EOF) {
				c.log.Infof("Consumer stopped for topic: %s", c.topic)
				return nil
			}
			return errors.Wrapf(err, "failed to fetch message from %s", c.topic)
		}

		if !c.handleWithRetry(ctx, handler, fromKafka(m)) {
			c.log.Infof("Consumer stopped for topic: %s", c.topic)
			return nil
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.Errorf("Error committing offset %d: %v", m.Offset, err)
		}
	}
}

// handleWithRetry reports false if ctx ended before handler succeeded
func (c *Consumer) handleWithRetry(ctx context.Context, handler MessageHandler, msg *Message) bool {
	delay := c.backoff
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg)
		if err == nil {
			return true
		}
		c.log.Errorw("Error processing message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"attempt", attempt,
			"retryIn", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
		delay = min(2*delay, c.maxBackoff)
	}
}

// Close closes the reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func fromKafka(m kafkago.Message) *Message {
	msg := &Message{
		Key:       m.Key,
		Value:     m.Value,
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Timestamp: m.Time,
	}
	if len(m.Headers) > 0 {
		msg.Headers = make([]MessageHeader, len(m.Headers))
		for i, h := range m.Headers {
			msg.Headers[i] = MessageHeader{Key: h.Key, Value: h.Value}
		}
	}
	return msg
}

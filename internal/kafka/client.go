package kafka

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
	kafkago "github.com/segmentio/kafka-go"
)

// Config holds broker and client settings
type Config struct {
	Brokers         []string
	GroupID         string
	SessionTimeout  time.Duration
	DefaultTimeout  time.Duration
	BatchTimeout    time.Duration
	StartFromOldest bool
	// RetryBackoff is the first delay before a failed message is handled again;
	// it doubles up to MaxRetryBackoff
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Brokers:         []string{"localhost:9092"},
		GroupID:         "portfolio-pilot",
		SessionTimeout:  30 * time.Second,
		DefaultTimeout:  10 * time.Second,
		BatchTimeout:    10 * time.Millisecond,
		StartFromOldest: true,
		RetryBackoff:    200 * time.Millisecond,
		MaxRetryBackoff: 10 * time.Second,
	}
}

// Message represents a Kafka message
type Message struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Headers   []MessageHeader
}

// MessageHeader represents a Kafka message header
type MessageHeader struct {
	Key   string
	Value []byte
}

// Client creates producers and consumers sharing one configuration
type Client struct {
	config *Config
	log    *logger.Logger
}

// NewClient creates a new Kafka client
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if len(config.Brokers) == 0 {
		return nil, errors.InvalidArgument("at least one kafka broker is required")
	}

	return &Client{
		config: config,
		log:    logger.GetLogger("kafka.client"),
	}, nil
}

// NewProducer creates a producer writing to topic
func (c *Client) NewProducer(topic string) *Producer {
	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.config.Brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           c.config.BatchTimeout,
		WriteTimeout:           c.config.DefaultTimeout,
		AllowAutoTopicCreation: true,
	}
	return &Producer{
		writer: writer,
		topic:  topic,
		log:    logger.GetLogger("kafka.producer"),
	}
}

// NewConsumer creates a consumer-group reader for topic
func (c *Client) NewConsumer(topic string) *Consumer {
	startOffset := kafkago.LastOffset
	if c.config.StartFromOldest {
		startOffset = kafkago.FirstOffset
	}
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        c.config.Brokers,
		GroupID:        c.config.GroupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		SessionTimeout: c.config.SessionTimeout,
		StartOffset:    startOffset,
	})
	return newConsumer(reader, topic, c.config.RetryBackoff, c.config.MaxRetryBackoff)
}

// EnsureTopicExists creates topic through the cluster controller if it is missing
func (c *Client) EnsureTopicExists(ctx context.Context, topic string, partitions int, replicationFactor int) error {
	conn, err := kafkago.DialContext(ctx, "tcp", c.config.Brokers[0])
	if err != nil {
		return errors.Wrap(err, "failed to dial kafka broker")
	}
	defer conn.Close()

	existing, err := conn.ReadPartitions(topic)
	if err == nil && len(existing) > 0 {
		c.log.Infof("Topic %s already exists", topic)
		return nil
	}

	controller, err := conn.Controller()
	if err != nil {
		return errors.Wrap(err, "failed to find kafka controller")
	}
	controllerConn, err := kafkago.DialContext(ctx, "tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return errors.Wrap(err, "failed to dial kafka controller")
	}
	defer controllerConn.Close()

	c.log.Infof("Creating topic %s with %d partitions and replication factor %d", topic, partitions, replicationFactor)
	err = controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replicationFactor,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to create topic %s", topic)
	}
	return nil
}

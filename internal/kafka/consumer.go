package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"push-service/internal/logging"
	"push-service/internal/models"
	"push-service/internal/validation"
)

// RequestIDHeader carries the producer's request id, if any.
const RequestIDHeader = "request_id"

type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Queue accepts validated push tasks. It reports false when full.
type Queue interface {
	QueueTask(task models.Task) bool
}

// Consumer feeds push requests from a Kafka topic into the worker pool.
// Offsets are committed only once a message is queued or found invalid.
type Consumer struct {
	reader     reader
	queue      Queue
	logger     *logging.Logger
	retryDelay time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, queue Queue, logger *logging.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.FirstOffset,
		MaxWait:     time.Second,
	})
	return &Consumer{reader: r, queue: queue, logger: logger, retryDelay: time.Second}
}

// Start reads until ctx is cancelled or the reader is closed.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Info("Kafka consumer started")
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					c.logger.Info("Kafka consumer stopped")
					return
				}
				c.logger.Errorf("Fetch message failed: %v", err)
				if !c.sleep(ctx) {
					return
				}
				continue
			}

			for !c.handleMessage(msg) {
				if !c.sleep(ctx) {
					c.logger.Warnf("Kafka consumer stopped with offset %d uncommitted", msg.Offset)
					return
				}
			}
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Errorf("Commit of offset %d failed: %v", msg.Offset, err)
			}
		}
	}()
}

// handleMessage reports whether msg is finished with and may be committed.
// Invalid messages are finished; a full queue is not.
func (c *Consumer) handleMessage(msg kafka.Message) bool {
	requestID := messageRequestID(msg)
	log := c.logger.WithRequestID(requestID)

	req, err := validation.Parse(msg.Value)
	if err != nil {
		log.Errorf("Dropping invalid push message at offset %d: %v", msg.Offset, err)
		return true
	}
	if !c.queue.QueueTask(models.Task{
		RequestID: requestID,
		Request:   req,
		Timestamp: msg.Time,
	}) {
		log.Warnf("Queue full, holding push message at offset %d", msg.Offset)
		return false
	}
	return true
}

func (c *Consumer) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.retryDelay):
		return true
	}
}

func messageRequestID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == RequestIDHeader && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	if len(msg.Key) > 0 {
		return string(msg.Key)
	}
	return uuid.New().String()
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Errorf("Kafka reader close failed: %v", err)
	}
}

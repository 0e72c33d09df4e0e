package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stayloop/stays-service/internal/utils"
)

// Handler processes one decoded booking event. Returning a transient error
// triggers a retry; anything else (or exhausted retries) routes the raw
// message to the DLQ.
type Handler func(ctx context.Context, ev BookingEvent) error

// ErrTransient marks failures worth retrying (network blips, upstream
// timeouts). Wrap with fmt.Errorf("...: %w", ErrTransient).
var ErrTransient = errors.New("transient failure")

// errDLQ marks a failed DLQ write. The offset must not be committed in that
// case, or the message is gone from both the topic and the DLQ.
var errDLQ = errors.New("dlq write failed")

// messageWriter is the part of kafka.Writer the consumer needs for DLQ
// routing.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader     *kafka.Reader
	dlqWriter  messageWriter
	topic      string
	maxRetries int
	handler    Handler
}

func NewConsumer(brokers []string, topic, groupID, dlqTopic string, maxRetries int, handler Handler) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" || groupID == "" {
		return nil, fmt.Errorf("topic and group ID are required")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	c := &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			MinBytes:    1,
			MaxBytes:    10e6,
			MaxWait:     500 * time.Millisecond,
			Logger:      kafka.LoggerFunc(func(string, ...interface{}) {}),
			ErrorLogger: kafka.LoggerFunc(utils.Logger.Errorf),
		}),
		topic:      topic,
		maxRetries: maxRetries,
		handler:    handler,
	}

	if dlqTopic != "" {
		c.dlqWriter = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        dlqTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			Logger:       kafka.LoggerFunc(func(string, ...interface{}) {}),
			ErrorLogger:  kafka.LoggerFunc(utils.Logger.Errorf),
		}
	}

	return c, nil
}

// Start consumes until the context is canceled. Offsets are committed after
// every message, so delivery is at-least-once and handlers must be
// idempotent.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			utils.Logger.Errorf("fetching message: %v", err)
			time.Sleep(time.Second)
			continue
		}

		if err := c.process(ctx, msg); err != nil {
			utils.Logger.WithField("key", string(msg.Key)).
				Errorf("processing message: %v", err)
			if errors.Is(err, errDLQ) {
				// The message is neither handled nor parked. Leave the
				// offset uncommitted so it is redelivered.
				continue
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			utils.Logger.Errorf("committing offset: %v", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	var ev BookingEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		// Undecodable payloads can never succeed; straight to the DLQ.
		return c.sendToDLQ(ctx, msg, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}

		lastErr = c.handler(ctx, ev)
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			break
		}
	}

	return c.sendToDLQ(ctx, msg, lastErr)
}

func backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * 500 * time.Millisecond
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func isTransient(err error) bool {
	if errors.Is(err, ErrTransient) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"timeout",
		"deadline exceeded",
		"no such host",
		"broken pipe",
		"connection reset",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func (c *Consumer) sendToDLQ(ctx context.Context, msg kafka.Message, cause error) error {
	if c.dlqWriter == nil {
		return cause
	}

	retries := 0
	for _, h := range msg.Headers {
		if h.Key == HeaderRetryCount {
			retries, _ = strconv.Atoi(string(h.Value))
		}
	}

	dlqMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Time:  time.Now(),
		Headers: append(msg.Headers,
			kafka.Header{Key: HeaderOriginalTopic, Value: []byte(c.topic)},
			kafka.Header{Key: HeaderRetryCount, Value: []byte(strconv.Itoa(retries + 1))},
			kafka.Header{Key: "dlq-error", Value: []byte(cause.Error())},
		),
	}
	if err := c.dlqWriter.WriteMessages(ctx, dlqMsg); err != nil {
		return fmt.Errorf("%w: %v (original error: %v)", errDLQ, err, cause)
	}
	return nil
}

func (c *Consumer) Close() error {
	err := c.reader.Close()
	if c.dlqWriter != nil {
		if dlqErr := c.dlqWriter.Close(); err == nil {
			err = dlqErr
		}
	}
	return err
}

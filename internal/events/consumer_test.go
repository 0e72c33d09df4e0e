package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stretchr/testify/require"
)

func TestNewConsumerValidation(t *testing.T) {
	noop := func(ctx context.Context, ev BookingEvent) error { return nil }

	_, err := NewConsumer(nil, "booking-events", "group", "", 3, noop)
	require.Error(t, err)

	_, err = NewConsumer([]string{"localhost:9092"}, "", "group", "", 3, noop)
	require.Error(t, err)

	_, err = NewConsumer([]string{"localhost:9092"}, "booking-events", "", "", 3, noop)
	require.Error(t, err)

	_, err = NewConsumer([]string{"localhost:9092"}, "booking-events", "group", "", 3, nil)
	require.Error(t, err)

	c, err := NewConsumer([]string{"localhost:9092"}, "booking-events", "group", "booking-events-dlq", 3, noop)
	require.NoError(t, err)
	require.NotNil(t, c.dlqWriter)
	require.NoError(t, c.Close())
}

func eventMessage(t *testing.T) kafka.Message {
	t.Helper()
	ev := NewBookingEvent(EventBookingCreated, &models.Booking{ID: uuid.New()})
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(ev.BookingID.String()), Value: raw}
}

func TestProcess_TransientErrorsAreRetried(t *testing.T) {
	calls := 0
	c := &Consumer{
		topic:      "booking-events",
		maxRetries: 1,
		handler: func(ctx context.Context, ev BookingEvent) error {
			calls++
			if calls == 1 {
				return fmt.Errorf("sending email: %w", ErrTransient)
			}
			return nil
		},
	}

	require.NoError(t, c.process(context.Background(), eventMessage(t)))
	require.Equal(t, 2, calls)
}

func TestProcess_RetriesExhaustedSurfacesError(t *testing.T) {
	calls := 0
	failure := fmt.Errorf("upstream down: %w", ErrTransient)
	c := &Consumer{
		topic:      "booking-events",
		maxRetries: 1,
		handler: func(ctx context.Context, ev BookingEvent) error {
			calls++
			return failure
		},
	}

	// Without a DLQ writer the final error comes back to the caller.
	err := c.process(context.Background(), eventMessage(t))
	require.ErrorIs(t, err, ErrTransient)
	require.Equal(t, 2, calls)
}

func TestProcess_PermanentErrorIsNotRetried(t *testing.T) {
	calls := 0
	c := &Consumer{
		topic:      "booking-events",
		maxRetries: 3,
		handler: func(ctx context.Context, ev BookingEvent) error {
			calls++
			return errors.New("unknown event type")
		},
	}

	require.Error(t, c.process(context.Background(), eventMessage(t)))
	require.Equal(t, 1, calls)
}

func TestProcess_UndecodablePayload(t *testing.T) {
	calls := 0
	c := &Consumer{
		topic:      "booking-events",
		maxRetries: 3,
		handler: func(ctx context.Context, ev BookingEvent) error {
			calls++
			return nil
		},
	}

	err := c.process(context.Background(), kafka.Message{Value: []byte("{not json")})
	require.Error(t, err)
	require.Equal(t, 0, calls)
}

type fakeMessageWriter struct {
	messages []kafka.Message
	failErr  error
}

func (w *fakeMessageWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.failErr != nil {
		return w.failErr
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeMessageWriter) Close() error { return nil }

func TestProcess_ExhaustedMessageIsParkedInDLQ(t *testing.T) {
	writer := &fakeMessageWriter{}
	c := &Consumer{
		topic:      "booking-events",
		maxRetries: 0,
		dlqWriter:  writer,
		handler: func(ctx context.Context, ev BookingEvent) error {
			return fmt.Errorf("upstream down: %w", ErrTransient)
		},
	}

	msg := eventMessage(t)
	require.NoError(t, c.process(context.Background(), msg))
	require.Len(t, writer.messages, 1)

	parked := writer.messages[0]
	require.Equal(t, msg.Key, parked.Key)
	require.Equal(t, msg.Value, parked.Value)

	headers := map[string]string{}
	for _, h := range parked.Headers {
		headers[h.Key] = string(h.Value)
	}
	require.Equal(t, "booking-events", headers[HeaderOriginalTopic])
	require.Equal(t, "1", headers[HeaderRetryCount])
	require.Contains(t, headers["dlq-error"], "upstream down")
}

func TestProcess_DLQWriteFailureIsNotSwallowed(t *testing.T) {
	c := &Consumer{
		topic:      "booking-events",
		maxRetries: 0,
		dlqWriter:  &fakeMessageWriter{failErr: errors.New("broker unreachable")},
		handler: func(ctx context.Context, ev BookingEvent) error {
			return errors.New("unknown event type")
		},
	}

	err := c.process(context.Background(), eventMessage(t))
	require.ErrorIs(t, err, errDLQ)
}

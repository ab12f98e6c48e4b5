package kafka

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSeatStatus(t *testing.T) {
	event, err := DecodeSeatStatus([]byte(`{"presentationId":"p1","seatIds":["s1","s2"],"status":"sold","userId":"u1"}`))
	require.NoError(t, err)
	assert.Equal(t, "p1", event.PresentationID)
	assert.Equal(t, models.SeatStatusSold, event.Status)
	assert.Equal(t, "u1", event.UserID)

	for _, raw := range []string{
		`not json`,
		`{"presentationId":"p1","seatIds":[],"status":"sold"}`,
		`{"presentationId":"","seatIds":["s1"],"status":"sold"}`,
		`{"presentationId":"p1","seatIds":["s1"],"status":"refunded"}`,
	} {
		_, err := DecodeSeatStatus([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestConsumerProcess(t *testing.T) {
	var buf bytes.Buffer
	c := &Consumer{logger: logger.NewLoggerWithWriter(&buf)}

	var got []models.SeatStatusChangeEvent
	handle := func(_ context.Context, e models.SeatStatusChangeEvent) error {
		got = append(got, e)
		return nil
	}

	err := c.process(context.Background(), kafka.Message{Topic: "t", Value: []byte(`{"presentationId":"p","seatIds":["a"],"status":"available"}`)}, handle)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Malformed messages are skipped, not retried.
	err = c.process(context.Background(), kafka.Message{Topic: "t", Value: []byte(`{`)}, handle)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, buf.String(), "Skipping malformed seat event")

	failing := func(context.Context, models.SeatStatusChangeEvent) error { return errors.New("db down") }
	err = c.process(context.Background(), kafka.Message{Topic: "t", Value: []byte(`{"presentationId":"p","seatIds":["a"],"status":"sold"}`)}, failing)
	assert.EqualError(t, err, "db down")
}

func TestNopPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NopPublisher{Logger: logger.NewLoggerWithWriter(&buf)}
	assert.NoError(t, p.Publish(context.Background(), "topic", "key", map[string]string{"a": "b"}))
	assert.Contains(t, buf.String(), "dropping topic event key")
}

package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	failures int
	calls    int
	written  []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.calls++
	if w.calls <= w.failures {
		return errors.New("leader not available")
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

var fastRetry = RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: time.Millisecond}

func TestProducer_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("retries until success", func(t *testing.T) {
		w := &fakeWriter{failures: 2}
		p := &Producer{writer: w, retry: fastRetry}

		err := p.Send(ctx, "purchases", "p1", []byte(`{}`))
		require.NoError(t, err)
		assert.Equal(t, 3, w.calls)
		require.Len(t, w.written, 1)
		assert.Equal(t, "purchases", w.written[0].Topic)
		assert.Equal(t, []byte("p1"), w.written[0].Key)
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		w := &fakeWriter{failures: 10}
		p := &Producer{writer: w, retry: fastRetry}

		err := p.Send(ctx, "purchases", "p1", []byte(`{}`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "leader not available")
		assert.Equal(t, 3, w.calls)
		assert.Empty(t, w.written)
	})

	t.Run("close", func(t *testing.T) {
		w := &fakeWriter{}
		p := &Producer{writer: w, retry: fastRetry}
		assert.NoError(t, p.Close())
		assert.True(t, w.closed)
	})
}

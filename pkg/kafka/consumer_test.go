package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"deskbook/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.messages) > 0 {
		msg := f.messages[0]
		f.messages = f.messages[1:]
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func (f *fakeReader) committedOffsets() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.committed...)
}

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func newTestConsumer(reader fetcher, dlq messageWriter, handler MessageHandler) *Consumer {
	c := &Consumer{
		reader:     reader,
		topic:      "deskbook.bookings",
		groupID:    "test",
		maxRetries: 2,
		handler:    handler,
		log:        logger.Discard(),
	}
	if dlq != nil {
		c.dlqWriter = dlq
	}
	return c
}

func runUntil(t *testing.T, c *Consumer, done func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- c.Start(ctx) }()

	deadline := time.After(5 * time.Second)
	for !done() {
		select {
		case <-deadline:
			cancel()
			t.Fatal("consumer did not reach the expected state")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-result; !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
}

func TestConsumer_CommitsHandledMessages(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{{Offset: 1}, {Offset: 2}}}
	var handled int
	var mu sync.Mutex

	c := newTestConsumer(reader, nil, func(ctx context.Context, msg Message) error {
		mu.Lock()
		handled++
		mu.Unlock()
		return nil
	})

	runUntil(t, c, func() bool { return len(reader.committedOffsets()) == 2 })

	mu.Lock()
	defer mu.Unlock()
	if handled != 2 {
		t.Errorf("handled = %d, want 2", handled)
	}
}

func TestConsumer_RetriesTransientThenSucceeds(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{{Offset: 7}}}
	dlq := &fakeWriter{}
	attempts := 0

	c := newTestConsumer(reader, dlq, func(ctx context.Context, msg Message) error {
		attempts++
		if attempts < 2 {
			return NewTransientError("mongo unavailable", nil)
		}
		return nil
	})

	runUntil(t, c, func() bool { return len(reader.committedOffsets()) == 1 })

	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if dlq.count() != 0 {
		t.Errorf("DLQ received %d messages, want 0", dlq.count())
	}
}

func TestConsumer_PermanentFailureGoesToDLQ(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{{Offset: 3, Key: []byte("b1")}}}
	dlq := &fakeWriter{}
	attempts := 0

	c := newTestConsumer(reader, dlq, func(ctx context.Context, msg Message) error {
		attempts++
		return NewPermanentError("malformed payload", nil)
	})

	runUntil(t, c, func() bool { return len(reader.committedOffsets()) == 1 })

	if attempts != 1 {
		t.Errorf("attempts = %d, permanent errors must not be retried", attempts)
	}
	if dlq.count() != 1 {
		t.Fatalf("DLQ received %d messages, want 1", dlq.count())
	}

	var original string
	for _, h := range dlq.messages[0].Headers {
		if h.Key == HeaderOriginalTopic {
			original = string(h.Value)
		}
	}
	if original != "deskbook.bookings" {
		t.Errorf("original-topic header = %q", original)
	}
}

func TestConsumer_DLQFailureLeavesOffset(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{{Offset: 4}}}
	dlq := &fakeWriter{err: errors.New("broker down")}
	var attempts int
	var mu sync.Mutex

	c := newTestConsumer(reader, dlq, func(ctx context.Context, msg Message) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return NewPermanentError("malformed payload", nil)
	})

	runUntil(t, c, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts == 1
	})

	if got := reader.committedOffsets(); len(got) != 0 {
		t.Errorf("committed = %v, want nothing committed", got)
	}
}

package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSink records flushed batches in memory.
type captureSink struct {
	mu      sync.Mutex
	batches [][]Event
	err     error
}

func (s *captureSink) WriteEvents(ctx context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	batch := make([]Event, len(events))
	copy(batch, events)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *captureSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func TestQueue_ManualFlush(t *testing.T) {
	sink := &captureSink{}
	q := NewQueue(sink, FlushPolicy{MaxBatch: 100}, 10)

	q.Emit(NewEvent(EventScoreComputed, uuid.New(), nil))
	q.Emit(NewEvent(EventBadgeAwarded, uuid.New(), map[string]interface{}{"badge": "FIRST_GIVER"}))
	assert.Equal(t, 2, q.Pending())

	require.NoError(t, q.Flush(context.Background()))

	assert.Equal(t, 0, q.Pending())
	assert.Equal(t, 2, sink.total())
}

func TestQueue_FlushEmptyIsNoop(t *testing.T) {
	sink := &captureSink{}
	q := NewQueue(sink, DefaultFlushPolicy(), 10)

	require.NoError(t, q.Flush(context.Background()))
	assert.Empty(t, sink.batches)
}

func TestQueue_SizeThresholdTriggersFlush(t *testing.T) {
	sink := &captureSink{}
	q := NewQueue(sink, FlushPolicy{MaxBatch: 3}, 10)

	q.Emit(NewEvent(EventScoreComputed, uuid.New(), nil))
	q.Emit(NewEvent(EventScoreComputed, uuid.New(), nil))
	assert.Equal(t, 0, sink.total(), "below threshold, nothing flushed")

	q.Emit(NewEvent(EventScoreComputed, uuid.New(), nil))

	assert.Equal(t, 3, sink.total())
	assert.Equal(t, 0, q.Pending())
}

func TestQueue_DropsWhenFull(t *testing.T) {
	sink := &captureSink{err: errors.New("sink down")}
	q := NewQueue(sink, FlushPolicy{MaxBatch: 100}, 2)

	q.Emit(NewEvent(EventScoreComputed, uuid.New(), nil))
	q.Emit(NewEvent(EventScoreComputed, uuid.New(), nil))
	q.Emit(NewEvent(EventScoreComputed, uuid.New(), nil))

	assert.Equal(t, 2, q.Pending())
	assert.Equal(t, int64(1), q.Dropped())
}

func TestQueue_SinkFailureRequeues(t *testing.T) {
	sink := &captureSink{err: errors.New("sink down")}
	q := NewQueue(sink, FlushPolicy{MaxBatch: 100}, 10)

	q.Emit(NewEvent(EventFlagRaised, uuid.New(), nil))
	q.Emit(NewEvent(EventFlagRaised, uuid.New(), nil))

	err := q.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, q.Pending(), "failed batch should be requeued")

	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()

	require.NoError(t, q.Flush(context.Background()))
	assert.Equal(t, 2, sink.total())
	assert.Equal(t, 0, q.Pending())
}

func TestQueue_IntervalFlushViaInjectedTicks(t *testing.T) {
	sink := &captureSink{}
	q := NewQueue(sink, FlushPolicy{MaxBatch: 100, Interval: time.Hour}, 10)

	ticks := make(chan time.Time)
	q.runTicks(ticks, func() {})

	q.Emit(NewEvent(EventSuggestionGenerated, uuid.New(), nil))
	ticks <- time.Now()

	// The flush runs on the queue goroutine; stopping waits for it.
	require.NoError(t, q.Stop(context.Background()))
	assert.Equal(t, 1, sink.total())
}

func TestQueue_StopDrainsBuffer(t *testing.T) {
	sink := &captureSink{}
	q := NewQueue(sink, FlushPolicy{MaxBatch: 100, Interval: time.Hour}, 10)
	q.Start()

	q.Emit(NewEvent(EventBadgeAwarded, uuid.New(), nil))
	require.NoError(t, q.Stop(context.Background()))

	assert.Equal(t, 1, sink.total())
	assert.Equal(t, 0, q.Pending())
}

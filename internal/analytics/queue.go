package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/pepoapp/trust-engine/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	eventsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_events_emitted_total",
			Help: "Total number of scoring events emitted",
		},
		[]string{"type"},
	)

	eventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_events_dropped_total",
			Help: "Total number of scoring events dropped because the queue was full",
		},
	)

	eventsFlushedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_events_flushed_total",
			Help: "Total number of scoring events flushed to the sink",
		},
	)
)

// Sink receives flushed event batches.
type Sink interface {
	WriteEvents(ctx context.Context, events []Event) error
}

// Publisher is the producer-facing side of the queue.
type Publisher interface {
	Emit(event Event)
}

// FlushPolicy decides when buffered events are flushed.
type FlushPolicy struct {
	// MaxBatch flushes as soon as this many events are buffered.
	MaxBatch int
	// Interval flushes whatever is buffered on this cadence.
	Interval time.Duration
}

// DefaultFlushPolicy returns the standard flush policy.
func DefaultFlushPolicy() FlushPolicy {
	return FlushPolicy{MaxBatch: 64, Interval: 10 * time.Second}
}

// Queue is a bounded in-memory event queue with explicit ownership: events
// above capacity are dropped and counted, never silently grown. Flushing is
// driven by the policy's size threshold, the interval ticks, or a manual
// Flush call.
type Queue struct {
	mu       sync.Mutex
	buf      []Event
	capacity int
	policy   FlushPolicy
	sink     Sink
	dropped  int64

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

var _ Publisher = (*Queue)(nil)

// NewQueue creates a bounded queue draining into sink.
func NewQueue(sink Sink, policy FlushPolicy, capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	if policy.MaxBatch <= 0 {
		policy.MaxBatch = DefaultFlushPolicy().MaxBatch
	}
	return &Queue{
		buf:      make([]Event, 0, capacity),
		capacity: capacity,
		policy:   policy,
		sink:     sink,
		done:     make(chan struct{}),
	}
}

// Emit buffers an event. When the buffer is full the event is dropped and
// counted. Reaching the batch threshold triggers a flush.
func (q *Queue) Emit(event Event) {
	q.mu.Lock()
	if len(q.buf) >= q.capacity {
		q.dropped++
		q.mu.Unlock()
		eventsDroppedTotal.Inc()
		logger.Warn("event queue full, dropping event",
			zap.String("type", string(event.Type)),
			zap.String("subject_id", event.SubjectID.String()),
		)
		return
	}
	q.buf = append(q.buf, event)
	shouldFlush := len(q.buf) >= q.policy.MaxBatch
	q.mu.Unlock()

	eventsEmittedTotal.WithLabelValues(string(event.Type)).Inc()

	if shouldFlush {
		if err := q.Flush(context.Background()); err != nil {
			logger.Error("size-triggered event flush failed", zap.Error(err))
		}
	}
}

// Flush drains the buffer into the sink. On sink failure the batch is
// requeued (up to capacity) so an outage does not lose everything buffered.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	if len(q.buf) == 0 {
		q.mu.Unlock()
		return nil
	}
	batch := q.buf
	q.buf = make([]Event, 0, q.capacity)
	q.mu.Unlock()

	if err := q.sink.WriteEvents(ctx, batch); err != nil {
		q.mu.Lock()
		space := q.capacity - len(q.buf)
		if space > len(batch) {
			space = len(batch)
		}
		q.buf = append(q.buf, batch[:space]...)
		q.dropped += int64(len(batch) - space)
		q.mu.Unlock()
		return err
	}

	eventsFlushedTotal.Add(float64(len(batch)))
	return nil
}

// Start launches interval flushing. Stop with Stop.
func (q *Queue) Start() {
	interval := q.policy.Interval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	q.runTicks(ticker.C, ticker.Stop)
}

// runTicks drives flushes from a tick channel. Split from Start so tests can
// drive the loop without real timers.
func (q *Queue) runTicks(ticks <-chan time.Time, stop func()) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer stop()
		for {
			select {
			case <-q.done:
				return
			case <-ticks:
				if err := q.Flush(context.Background()); err != nil {
					logger.Error("interval event flush failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop halts interval flushing and performs a final drain.
func (q *Queue) Stop(ctx context.Context) error {
	q.once.Do(func() {
		close(q.done)
	})
	q.wg.Wait()
	return q.Flush(ctx)
}

// Dropped reports how many events have been dropped since startup.
func (q *Queue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Pending reports how many events are currently buffered.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pepoapp/trust-engine/internal/badges"
	"github.com/pepoapp/trust-engine/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	batchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_batch_runs_total",
			Help: "Total number of batch recompute runs",
		},
		[]string{"status"},
	)
	batchRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engine_batch_run_duration_seconds",
			Help:    "Duration of batch recompute runs",
			Buckets: prometheus.DefBuckets,
		},
	)
)

const userPageSize = 200

// Worker periodically recomputes trust scores, regenerates suggestions and
// sweeps badge rules for all active users. Per-user failures are logged and
// skipped; cancellation is honored between subjects so partial progress is
// kept.
type Worker struct {
	users           UserLister
	trust           TrustRecomputer
	suggestions     SuggestionGenerator
	badges          BadgeEvaluator
	interval        time.Duration
	concurrency     int
	suggestionLimit int

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewWorker creates a new batch worker
func NewWorker(users UserLister, trustSvc TrustRecomputer, suggestionSvc SuggestionGenerator, badgeSvc BadgeEvaluator, interval time.Duration, concurrency, suggestionLimit int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		users:           users,
		trust:           trustSvc,
		suggestions:     suggestionSvc,
		badges:          badgeSvc,
		interval:        interval,
		concurrency:     concurrency,
		suggestionLimit: suggestionLimit,
		done:            make(chan struct{}),
	}
}

// Start launches the periodic loop. The first run happens after one interval.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	w.wg.Add(1)
	go w.run(ctx, ticker.C, ticker.Stop)
}

func (w *Worker) run(ctx context.Context, ticks <-chan time.Time, stop func()) {
	defer w.wg.Done()
	defer stop()

	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		case <-ticks:
			if err := w.RunOnce(ctx); err != nil {
				logger.Error("batch run aborted", zap.Error(err))
			}
		}
	}
}

// Stop terminates the loop and waits for an in-flight run to finish.
func (w *Worker) Stop() {
	w.once.Do(func() { close(w.done) })
	w.wg.Wait()
}

// RunOnce executes a single batch pass: recompute every active user, then
// expire stale suggestions. Returns the context error when interrupted.
func (w *Worker) RunOnce(ctx context.Context) error {
	start := time.Now()
	processed := 0

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			batchRunsTotal.WithLabelValues("interrupted").Inc()
			return err
		}

		userIDs, err := w.users.ListActiveUserIDs(ctx, userPageSize, offset)
		if err != nil {
			batchRunsTotal.WithLabelValues("failed").Inc()
			return err
		}
		if len(userIDs) == 0 {
			break
		}

		if err := w.processPage(ctx, userIDs); err != nil {
			batchRunsTotal.WithLabelValues("interrupted").Inc()
			return err
		}
		processed += len(userIDs)

		if len(userIDs) < userPageSize {
			break
		}
		offset += userPageSize
	}

	if _, err := w.suggestions.CleanupExpired(ctx); err != nil {
		logger.Error("suggestion cleanup failed", zap.Error(err))
	}

	batchRunsTotal.WithLabelValues("completed").Inc()
	batchRunDuration.Observe(time.Since(start).Seconds())
	logger.Info("batch run completed",
		zap.Int("users_processed", processed),
		zap.Duration("duration", time.Since(start)),
	)

	return nil
}

// processPage fans the page out across bounded workers. Only cancellation
// stops the page; per-user errors are logged and skipped.
func (w *Worker) processPage(ctx context.Context, userIDs []uuid.UUID) error {
	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup

	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			defer func() { <-sem }()
			w.processUser(ctx, id)
		}(userID)
	}

	wg.Wait()
	return ctx.Err()
}

func (w *Worker) processUser(ctx context.Context, userID uuid.UUID) {
	if _, err := w.trust.ComputeTrustScore(ctx, userID); err != nil {
		logger.Warn("batch trust recompute failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	if _, err := w.suggestions.GenerateSuggestions(ctx, userID, w.suggestionLimit); err != nil {
		logger.Warn("batch suggestion generation failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	if _, err := w.badges.EvaluateBadges(ctx, userID, badges.SubjectUser); err != nil {
		logger.Warn("batch badge evaluation failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

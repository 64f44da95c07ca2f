package signals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pepoapp/trust-engine/pkg/common"
	"github.com/pepoapp/trust-engine/pkg/logger"
	"github.com/pepoapp/trust-engine/pkg/resilience"
	"go.uber.org/zap"
)

// Store wraps a Source with bounded retries. Transient fetch failures are
// retried with backoff; after exhaustion the error surfaces as
// TRANSIENT_SIGNAL_FAILURE so callers can defer instead of scoring against
// partial data. NOT_FOUND passes through without retrying.
type Store struct {
	source Source
	retry  resilience.RetryConfig
}

var _ Source = (*Store)(nil)

// NewStore creates a retrying store over the given source.
func NewStore(source Source, maxAttempts int) *Store {
	cfg := resilience.SignalFetchRetryConfig(maxAttempts)
	cfg.RetryableChecker = func(err error) bool {
		// Known-permanent outcomes are not worth retrying.
		if _, ok := common.AsAppError(err); ok {
			return false
		}
		return true
	}
	return &Store{source: source, retry: cfg}
}

func (s *Store) GetActivitySignals(ctx context.Context, userID uuid.UUID) (*ActivitySignals, error) {
	result, err := s.fetch(ctx, "activity", userID, func(ctx context.Context) (interface{}, error) {
		return s.source.GetActivitySignals(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*ActivitySignals), nil
}

func (s *Store) GetFeedbackSignals(ctx context.Context, userID uuid.UUID) (*FeedbackSignals, error) {
	result, err := s.fetch(ctx, "feedback", userID, func(ctx context.Context) (interface{}, error) {
		return s.source.GetFeedbackSignals(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*FeedbackSignals), nil
}

func (s *Store) GetVerificationSignals(ctx context.Context, userID uuid.UUID) (*VerificationSignals, error) {
	result, err := s.fetch(ctx, "verification", userID, func(ctx context.Context) (interface{}, error) {
		return s.source.GetVerificationSignals(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*VerificationSignals), nil
}

func (s *Store) GetEngagementSignals(ctx context.Context, userID uuid.UUID) (*EngagementSignals, error) {
	result, err := s.fetch(ctx, "engagement", userID, func(ctx context.Context) (interface{}, error) {
		return s.source.GetEngagementSignals(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*EngagementSignals), nil
}

func (s *Store) GetNGOCandidates(ctx context.Context, filter CandidateFilter) ([]*NGOCandidate, error) {
	result, err := s.fetch(ctx, "ngo_candidates", uuid.Nil, func(ctx context.Context) (interface{}, error) {
		return s.source.GetNGOCandidates(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*NGOCandidate), nil
}

func (s *Store) ListActiveUserIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	result, err := s.fetch(ctx, "active_users", uuid.Nil, func(ctx context.Context) (interface{}, error) {
		return s.source.ListActiveUserIDs(ctx, limit, offset)
	})
	if err != nil {
		return nil, err
	}
	return result.([]uuid.UUID), nil
}

func (s *Store) fetch(ctx context.Context, kind string, userID uuid.UUID, op resilience.Operation) (interface{}, error) {
	result, err := resilience.Retry(ctx, s.retry, op)
	if err == nil {
		return result, nil
	}

	if appErr, ok := common.AsAppError(err); ok {
		return nil, appErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	logger.WithContext(ctx).Warn("signal fetch failed after retries",
		zap.String("signal_kind", kind),
		zap.String("user_id", userID.String()),
		zap.Int("max_attempts", s.retry.MaxAttempts),
		zap.Error(err),
	)

	return nil, common.NewTransientSignalError("signal store unavailable", err)
}

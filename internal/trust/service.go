package trust

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pepoapp/trust-engine/internal/analytics"
	"github.com/pepoapp/trust-engine/internal/signals"
	"github.com/pepoapp/trust-engine/pkg/common"
	"github.com/pepoapp/trust-engine/pkg/config"
	"github.com/pepoapp/trust-engine/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var scoresComputedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "engine_trust_scores_computed_total",
		Help: "Total number of trust score computations persisted",
	},
)

const maxReportPenalty = 30

// Service computes and serves trust scores
type Service struct {
	store      signals.Source
	repo       RepositoryInterface
	cache      Cache
	events     analytics.Publisher
	weights    config.TrustWeights
	thresholds LevelThresholds
	staleness  time.Duration
	now        func() time.Time
}

// NewService creates a new trust service
func NewService(store signals.Source, repo RepositoryInterface, cache Cache, events analytics.Publisher, weights config.TrustWeights, thresholds LevelThresholds, staleness time.Duration) *Service {
	return &Service{
		store:      store,
		repo:       repo,
		cache:      cache,
		events:     events,
		weights:    weights,
		thresholds: thresholds,
		staleness:  staleness,
		now:        time.Now,
	}
}

// ComputeTrustScore recomputes a user's trust score from current signals and
// persists it. The computation is deterministic for a given signal snapshot.
// A transient signal failure propagates unchanged so callers can keep the
// previous score instead of scoring against partial data.
func (s *Service) ComputeTrustScore(ctx context.Context, userID uuid.UUID) (*TrustScore, error) {
	activity, err := s.store.GetActivitySignals(ctx, userID)
	if err != nil {
		return nil, err
	}
	feedback, err := s.store.GetFeedbackSignals(ctx, userID)
	if err != nil {
		return nil, err
	}

	score := s.scoreFromSignals(userID, activity, feedback)

	if err := s.repo.UpsertScore(ctx, score); err != nil {
		return nil, err
	}
	scoresComputedTotal.Inc()

	if s.cache != nil {
		if err := s.cache.SetScore(ctx, score, s.staleness); err != nil {
			logger.WithContext(ctx).Warn("trust score cache write failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}

	if s.events != nil {
		s.events.Emit(analytics.NewEvent(analytics.EventScoreComputed, userID, map[string]interface{}{
			"total_score": score.TotalScore,
			"level":       string(score.Level),
		}))
	}

	logger.WithContext(ctx).Debug("trust score computed",
		zap.String("user_id", userID.String()),
		zap.Float64("total_score", score.TotalScore),
		zap.String("level", string(score.Level)),
	)

	return score, nil
}

// GetTrustScore returns the user's trust score, recomputing when the stored
// snapshot is missing or older than the staleness window. If recomputation is
// blocked by a transient signal failure, a stale previous score is returned
// rather than an error.
func (s *Service) GetTrustScore(ctx context.Context, userID uuid.UUID) (*TrustScore, error) {
	now := s.now()

	if s.cache != nil {
		cached, err := s.cache.GetScore(ctx, userID)
		if err != nil {
			logger.WithContext(ctx).Warn("trust score cache read failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		} else if cached != nil && cached.IsFresh(s.staleness, now) {
			return cached, nil
		}
	}

	previous, err := s.repo.GetScore(ctx, userID)
	if err != nil && !common.IsKind(err, common.KindNotFound) {
		return nil, err
	}
	if previous != nil && previous.IsFresh(s.staleness, now) {
		if s.cache != nil {
			_ = s.cache.SetScore(ctx, previous, s.staleness)
		}
		return previous, nil
	}

	score, err := s.ComputeTrustScore(ctx, userID)
	if err != nil {
		if common.IsKind(err, common.KindTransientSignal) && previous != nil {
			logger.WithContext(ctx).Warn("signal store unavailable, serving stale trust score",
				zap.String("user_id", userID.String()),
				zap.Time("computed_at", previous.ComputedAt),
			)
			return previous, nil
		}
		return nil, err
	}

	return score, nil
}

// GetTrustScores returns stored scores for a batch of users. Users without a
// stored score are omitted.
func (s *Service) GetTrustScores(ctx context.Context, userIDs []uuid.UUID) ([]*TrustScore, error) {
	if len(userIDs) == 0 {
		return []*TrustScore{}, nil
	}
	return s.repo.GetScores(ctx, userIDs)
}

// GetLevelDistribution returns how many users sit in each trust tier.
func (s *Service) GetLevelDistribution(ctx context.Context) ([]LevelCount, error) {
	return s.repo.GetLevelDistribution(ctx)
}

// GetTopScores lists the highest stored scores.
func (s *Service) GetTopScores(ctx context.Context, limit, offset int) ([]*TrustScore, int64, error) {
	return s.repo.GetTopScores(ctx, limit, offset)
}

// scoreFromSignals blends the sub-scores into a snapshot. Pure given its
// inputs and the clock.
func (s *Service) scoreFromSignals(userID uuid.UUID, activity *signals.ActivitySignals, feedback *signals.FeedbackSignals) *TrustScore {
	giving := computeGivingScore(activity)
	receiving := computeReceivingScore(activity)
	fb := computeFeedbackScore(feedback)

	total := s.weights.Giving*giving + s.weights.Receiving*receiving + s.weights.Feedback*fb
	total -= reportPenalty(activity.ReportCount)
	total = clampScore(total)

	return &TrustScore{
		UserID:            userID,
		GivingScore:       giving,
		ReceivingScore:    receiving,
		FeedbackScore:     fb,
		TotalScore:        total,
		Level:             LevelForScore(total, s.thresholds),
		CompletionRate:    completionRate(activity),
		ResponseTimeHours: activity.AvgResponseHours,
		ComputedAt:        s.now().UTC(),
	}
}

func completionRate(a *signals.ActivitySignals) float64 {
	if a.GiveawaysCreated == 0 {
		return 0
	}
	return float64(a.CompletedGiveaways) / float64(a.GiveawaysCreated)
}

func computeGivingScore(a *signals.ActivitySignals) float64 {
	score := float64(a.CompletedGiveaways)*8 + float64(a.CompletedPickupsAsGiver)*4
	if a.GiveawaysCreated > 0 {
		completionRatio := float64(a.CompletedGiveaways) / float64(a.GiveawaysCreated)
		score *= 0.6 + 0.4*completionRatio
	}
	return clampScore(score)
}

func computeReceivingScore(a *signals.ActivitySignals) float64 {
	score := float64(a.CompletedPickupsAsReceiver)*10 + float64(a.WinCount)*3
	return clampScore(score)
}

func computeFeedbackScore(f *signals.FeedbackSignals) float64 {
	// No ratings yet reads as neutral rather than untrustworthy.
	if f.RatingCount == 0 {
		return 50
	}
	base := f.AverageRating / 5 * 100
	score := 0.7*base + 0.3*f.WouldRecommendRate*100
	score -= float64(f.NegativeCount)*4 + float64(f.FlaggedCount)*8
	return clampScore(score)
}

func reportPenalty(reportCount int) float64 {
	penalty := float64(reportCount) * 5
	if penalty > maxReportPenalty {
		penalty = maxReportPenalty
	}
	return penalty
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

package fraud

import (
	"context"
	"sort"
	"strings"
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

var flagsRaisedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "engine_fraud_flags_raised_total",
		Help: "Total number of fraud flags raised",
	},
)

const (
	signalVelocity       = "giveaway_velocity"
	signalCompletion     = "completion_ratio"
	signalAccountAge     = "account_age_activity"
	signalParticipation  = "participation_spam"
	signalReportFeedback = "reports_feedback"
)

var signalReasons = map[string]string{
	signalVelocity:       "rapid giveaway creation",
	signalCompletion:     "low giveaway completion ratio",
	signalAccountAge:     "high activity on a new account",
	signalParticipation:  "participation spam pattern",
	signalReportFeedback: "reports and negative feedback",
}

var signalFlagTypes = map[string]FlagType{
	signalVelocity:       FlagTypeVelocityAbuse,
	signalCompletion:     FlagTypeLowCompletion,
	signalAccountAge:     FlagTypeNewAccountActivity,
	signalParticipation:  FlagTypeParticipationSpam,
	signalReportFeedback: FlagTypeReportAnomaly,
}

// Service evaluates fraud risk and manages flag resolution
type Service struct {
	store     signals.Source
	repo      RepositoryInterface
	events    analytics.Publisher
	weights   config.FraudWeights
	threshold float64
	now       func() time.Time
}

// NewService creates a new fraud service
func NewService(store signals.Source, repo RepositoryInterface, events analytics.Publisher, weights config.FraudWeights, threshold float64) *Service {
	return &Service{
		store:     store,
		repo:      repo,
		events:    events,
		weights:   weights,
		threshold: threshold,
		now:       time.Now,
	}
}

// EvaluateFraudRisk scores a user's anomaly signals and raises a PENDING flag
// when the score crosses the threshold and no pending flag already covers an
// equal or higher score. The assessment is returned either way.
func (s *Service) EvaluateFraudRisk(ctx context.Context, userID uuid.UUID) (*RiskAssessment, error) {
	activity, err := s.store.GetActivitySignals(ctx, userID)
	if err != nil {
		return nil, err
	}
	feedback, err := s.store.GetFeedbackSignals(ctx, userID)
	if err != nil {
		return nil, err
	}

	assessment := s.assess(userID, activity, feedback)

	if assessment.RiskScore >= s.threshold {
		highest, exists, err := s.repo.GetHighestPendingScore(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !exists || assessment.RiskScore > highest {
			reasons := topReasons(assessment.Components, 3)
			flag := &FraudFlag{
				ID:          uuid.New(),
				UserID:      userID,
				RiskScore:   assessment.RiskScore,
				FlagType:    dominantFlagType(assessment.Components),
				Band:        assessment.Band,
				Description: strings.Join(reasons, "; "),
				Reasons:     reasons,
				Status:      FlagStatusPending,
				CreatedAt:   s.now().UTC(),
			}
			if err := s.repo.CreateFlag(ctx, flag); err != nil {
				return nil, err
			}
			flagsRaisedTotal.Inc()
			assessment.Flagged = true
			assessment.FlagID = &flag.ID

			if s.events != nil {
				s.events.Emit(analytics.NewEvent(analytics.EventFlagRaised, userID, map[string]interface{}{
					"flag_id":    flag.ID.String(),
					"risk_score": flag.RiskScore,
					"band":       string(flag.Band),
				}))
			}

			logger.WithContext(ctx).Info("fraud flag raised",
				zap.String("user_id", userID.String()),
				zap.String("flag_id", flag.ID.String()),
				zap.Float64("risk_score", flag.RiskScore),
				zap.String("band", string(flag.Band)),
			)
		}
	}

	return assessment, nil
}

// ResolveFlag settles a pending flag exactly once. A flag already resolved
// fails with INVALID_STATE; losing a resolution race fails with
// CONCURRENCY_CONFLICT. A suspend action deactivates the user in the same
// transaction as the flag update.
func (s *Service) ResolveFlag(ctx context.Context, flagID uuid.UUID, req *ResolveFlagRequest, adminID uuid.UUID) (*FraudFlag, error) {
	flag, err := s.repo.GetFlagByID(ctx, flagID)
	if err != nil {
		return nil, err
	}
	if flag.Status == FlagStatusResolved {
		return nil, common.NewInvalidStateError("flag is already resolved")
	}

	resolvedAt := s.now().UTC()
	updated, err := s.repo.ResolveFlag(ctx, flagID, req.Resolution, req.Action, adminID, resolvedAt)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, common.NewConcurrencyConflictError("flag was resolved concurrently")
	}

	flag.Status = FlagStatusResolved
	flag.Resolution = &req.Resolution
	flag.Action = &req.Action
	flag.ResolvedBy = &adminID
	flag.ResolvedAt = &resolvedAt

	if s.events != nil {
		s.events.Emit(analytics.NewEvent(analytics.EventFlagResolved, flag.UserID, map[string]interface{}{
			"flag_id":    flag.ID.String(),
			"resolution": string(req.Resolution),
			"action":     string(req.Action),
		}))
	}

	logger.WithContext(ctx).Info("fraud flag resolved",
		zap.String("flag_id", flagID.String()),
		zap.String("resolution", string(req.Resolution)),
		zap.String("action", string(req.Action)),
		zap.String("admin_id", adminID.String()),
	)

	return flag, nil
}

// GetFlag returns a single flag.
func (s *Service) GetFlag(ctx context.Context, flagID uuid.UUID) (*FraudFlag, error) {
	return s.repo.GetFlagByID(ctx, flagID)
}

// ListPendingFlags lists open flags for triage, highest risk first.
func (s *Service) ListPendingFlags(ctx context.Context, limit, offset int) ([]*FraudFlag, int64, error) {
	return s.repo.ListPendingFlags(ctx, limit, offset)
}

// ListFlagsByUser lists a user's flag history.
func (s *Service) ListFlagsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*FraudFlag, int64, error) {
	return s.repo.ListFlagsByUser(ctx, userID, limit, offset)
}

// GetStats summarizes flag volumes.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	return s.repo.GetStats(ctx)
}

// assess blends the normalized anomaly signals into a risk score.
// Deterministic for a given snapshot.
func (s *Service) assess(userID uuid.UUID, activity *signals.ActivitySignals, feedback *signals.FeedbackSignals) *RiskAssessment {
	components := []RiskComponent{
		{Name: signalVelocity, Value: velocitySignal(activity), Weight: s.weights.GiveawayVelocity},
		{Name: signalCompletion, Value: completionSignal(activity), Weight: s.weights.CompletionRatio},
		{Name: signalAccountAge, Value: accountAgeSignal(activity), Weight: s.weights.AccountAgeActivity},
		{Name: signalParticipation, Value: participationSpamSignal(activity), Weight: s.weights.ParticipationSpam},
		{Name: signalReportFeedback, Value: reportFeedbackSignal(activity, feedback), Weight: s.weights.ReportsFeedback},
	}

	score := 0.0
	for _, c := range components {
		score += c.Contribution()
	}
	score *= 100
	if score > 100 {
		score = 100
	}

	return &RiskAssessment{
		UserID:      userID,
		RiskScore:   score,
		Band:        Band(score),
		Components:  components,
		EvaluatedAt: s.now().UTC(),
	}
}

// velocitySignal saturates at 10 giveaways in the trailing week.
func velocitySignal(a *signals.ActivitySignals) float64 {
	return capRatio(float64(a.RecentGiveaways7d) / 10)
}

// completionSignal measures the incomplete share once a user has created
// enough giveaways for the ratio to mean anything.
func completionSignal(a *signals.ActivitySignals) float64 {
	if a.GiveawaysCreated < 3 {
		return 0
	}
	return capRatio(1 - float64(a.CompletedGiveaways)/float64(a.GiveawaysCreated))
}

// accountAgeSignal flags heavy activity on accounts younger than two weeks.
func accountAgeSignal(a *signals.ActivitySignals) float64 {
	if a.AccountAgeDays >= 14 {
		return 0
	}
	return capRatio(float64(a.RecentGiveaways7d+a.ParticipationCount) / 15)
}

// participationSpamSignal flags mass entries with nothing won, discounting
// accounts whose entries convert.
func participationSpamSignal(a *signals.ActivitySignals) float64 {
	if a.ParticipationCount < 20 {
		return 0
	}
	excess := float64(a.ParticipationCount - a.WinCount*10)
	return capRatio(excess / 50)
}

func reportFeedbackSignal(a *signals.ActivitySignals, f *signals.FeedbackSignals) float64 {
	negativeRate := 0.0
	if f.RatingCount > 0 {
		negativeRate = float64(f.NegativeCount) / float64(f.RatingCount)
	}
	return capRatio(float64(a.ReportCount)*0.15 + float64(f.FlaggedCount)*0.2 + negativeRate)
}

func capRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// dominantFlagType categorizes the flag by its strongest contributing signal.
func dominantFlagType(components []RiskComponent) FlagType {
	top := components[0]
	for _, c := range components[1:] {
		if c.Contribution() > top.Contribution() {
			top = c
		}
	}
	return signalFlagTypes[top.Name]
}

// topReasons picks the strongest contributing signals, by contribution.
func topReasons(components []RiskComponent, n int) []string {
	sorted := make([]RiskComponent, len(components))
	copy(sorted, components)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Contribution() > sorted[j].Contribution()
	})

	reasons := make([]string, 0, n)
	for _, c := range sorted {
		if c.Value <= 0 || len(reasons) == n {
			break
		}
		reasons = append(reasons, signalReasons[c.Name])
	}
	return reasons
}

package badges

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pepoapp/trust-engine/internal/analytics"
	"github.com/pepoapp/trust-engine/internal/signals"
	"github.com/pepoapp/trust-engine/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var badgesAwardedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "engine_badges_awarded_total",
		Help: "Total number of badges awarded",
	},
	[]string{"badge"},
)

// Service awards badges from the catalog
type Service struct {
	store  signals.Source
	repo   RepositoryInterface
	events analytics.Publisher
	now    func() time.Time
}

// NewService creates a new badge service
func NewService(store signals.Source, repo RepositoryInterface, events analytics.Publisher) *Service {
	return &Service{
		store:  store,
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

// EvaluateBadges awards every catalog badge the subject newly satisfies.
// Idempotent: already-awarded badges are skipped, and a concurrent award of
// the same badge is treated as not newly awarded. Returns only the badges
// awarded by this call.
func (s *Service) EvaluateBadges(ctx context.Context, subjectID uuid.UUID, subjectType SubjectType) ([]*BadgeAssignment, error) {
	existing, err := s.repo.ListAssignments(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	held := make(map[BadgeKey]struct{}, len(existing))
	for _, a := range existing {
		held[a.BadgeKey] = struct{}{}
	}

	snapshot, err := s.loadSnapshot(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	awarded := make([]*BadgeAssignment, 0)
	for _, def := range Catalog() {
		if def.SubjectType != subjectType {
			continue
		}
		if _, has := held[def.Key]; has {
			continue
		}
		if !def.Rule(snapshot) {
			continue
		}

		assignment := &BadgeAssignment{
			ID:          uuid.New(),
			SubjectID:   subjectID,
			SubjectType: subjectType,
			BadgeKey:    def.Key,
			AwardedAt:   s.now().UTC(),
		}
		inserted, err := s.repo.CreateAssignment(ctx, assignment)
		if err != nil {
			return nil, err
		}
		if !inserted {
			continue
		}

		awarded = append(awarded, assignment)
		badgesAwardedTotal.WithLabelValues(string(def.Key)).Inc()

		if s.events != nil {
			s.events.Emit(analytics.NewEvent(analytics.EventBadgeAwarded, subjectID, map[string]interface{}{
				"badge_key":    string(def.Key),
				"subject_type": string(subjectType),
			}))
		}

		logger.WithContext(ctx).Info("badge awarded",
			zap.String("subject_id", subjectID.String()),
			zap.String("badge_key", string(def.Key)),
		)
	}

	return awarded, nil
}

// ListBadges returns the badge catalog.
func (s *Service) ListBadges() []BadgeDefinition {
	return Catalog()
}

// GetSubjectBadges lists the badges a subject holds.
func (s *Service) GetSubjectBadges(ctx context.Context, subjectID uuid.UUID) ([]*BadgeAssignment, error) {
	return s.repo.ListAssignments(ctx, subjectID)
}

// GetBadgeCounts returns award counts per badge key.
func (s *Service) GetBadgeCounts(ctx context.Context) (map[BadgeKey]int64, error) {
	return s.repo.CountAssignmentsByBadge(ctx)
}

func (s *Service) loadSnapshot(ctx context.Context, subjectID uuid.UUID) (*Snapshot, error) {
	activity, err := s.store.GetActivitySignals(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	feedback, err := s.store.GetFeedbackSignals(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	verification, err := s.store.GetVerificationSignals(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Activity:     activity,
		Feedback:     feedback,
		Verification: verification,
	}, nil
}

package suggestions

import (
	"context"
	"fmt"
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

var suggestionsGeneratedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "engine_suggestions_generated_total",
		Help: "Total number of follow suggestions generated",
	},
)

// Saturation points for signal normalization.
const (
	popularitySaturation    = 1000
	participationSaturation = 20
)

// Service ranks NGO follow suggestions
type Service struct {
	store      signals.Source
	repo       RepositoryInterface
	events     analytics.Publisher
	weights    config.SuggestionWeights
	expiryDays int
	now        func() time.Time
}

// NewService creates a new suggestion service
func NewService(store signals.Source, repo RepositoryInterface, events analytics.Publisher, weights config.SuggestionWeights, expiryDays int) *Service {
	return &Service{
		store:      store,
		repo:       repo,
		events:     events,
		weights:    weights,
		expiryDays: expiryDays,
		now:        time.Now,
	}
}

// GenerateSuggestions ranks candidate NGOs for a user and persists up to limit
// suggestions. NGOs the user follows, has muted, or already has an active
// suggestion for are excluded. Deterministic for a given signal snapshot; a
// shortfall below limit is not an error.
func (s *Service) GenerateSuggestions(ctx context.Context, userID uuid.UUID, limit int) ([]*FollowSuggestion, error) {
	engagement, err := s.store.GetEngagementSignals(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	activeNGOIDs, err := s.repo.ListActiveNGOIDs(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	excluded := make(map[uuid.UUID]struct{})
	for _, id := range engagement.FollowedNGOIDs {
		excluded[id] = struct{}{}
	}
	for _, id := range engagement.MutedNGOIDs {
		excluded[id] = struct{}{}
	}
	for _, id := range activeNGOIDs {
		excluded[id] = struct{}{}
	}

	candidates, err := s.store.GetNGOCandidates(ctx, signals.CandidateFilter{
		Limit: limit*4 + len(excluded),
	})
	if err != nil {
		return nil, err
	}

	personalized := engagement.HasSignals()
	ranked := make([]*FollowSuggestion, 0, len(candidates))
	ngoCreatedAt := make(map[uuid.UUID]time.Time, len(candidates))
	for _, candidate := range candidates {
		if _, skip := excluded[candidate.ID]; skip {
			continue
		}
		ngoCreatedAt[candidate.ID] = candidate.CreatedAt
		ranked = append(ranked, s.score(userID, engagement, candidate, personalized, now))
	}

	// Confidence descending, ties toward newer NGOs for variety.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ConfidenceScore != ranked[j].ConfidenceScore {
			return ranked[i].ConfidenceScore > ranked[j].ConfidenceScore
		}
		return ngoCreatedAt[ranked[i].NGOID].After(ngoCreatedAt[ranked[j].NGOID])
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if len(ranked) == 0 {
		return []*FollowSuggestion{}, nil
	}

	if err := s.repo.CreateSuggestions(ctx, ranked); err != nil {
		return nil, err
	}
	suggestionsGeneratedTotal.Add(float64(len(ranked)))

	if s.events != nil {
		s.events.Emit(analytics.NewEvent(analytics.EventSuggestionGenerated, userID, map[string]interface{}{
			"count":        len(ranked),
			"personalized": personalized,
		}))
	}

	logger.WithContext(ctx).Debug("suggestions generated",
		zap.String("user_id", userID.String()),
		zap.Int("count", len(ranked)),
		zap.Bool("personalized", personalized),
	)

	return ranked, nil
}

// ListSuggestions returns the user's suggestions, active ones only unless
// includeExpired is set.
func (s *Service) ListSuggestions(ctx context.Context, userID uuid.UUID, includeExpired bool, limit, offset int) ([]*FollowSuggestion, int64, error) {
	return s.repo.ListSuggestions(ctx, userID, includeExpired, s.now().UTC(), limit, offset)
}

// MarkViewed records that the user has seen the suggestion.
func (s *Service) MarkViewed(ctx context.Context, suggestionID, userID uuid.UUID) error {
	return s.mark(ctx, suggestionID, userID, s.repo.MarkViewed)
}

// MarkFollowed records that the user followed the suggested NGO.
func (s *Service) MarkFollowed(ctx context.Context, suggestionID, userID uuid.UUID) error {
	return s.mark(ctx, suggestionID, userID, s.repo.MarkFollowed)
}

// MarkIgnored records that the user dismissed the suggestion.
func (s *Service) MarkIgnored(ctx context.Context, suggestionID, userID uuid.UUID) error {
	return s.mark(ctx, suggestionID, userID, s.repo.MarkIgnored)
}

func (s *Service) mark(ctx context.Context, suggestionID, userID uuid.UUID, update func(context.Context, uuid.UUID, uuid.UUID) (bool, error)) error {
	updated, err := update(ctx, suggestionID, userID)
	if err != nil {
		return err
	}
	if !updated {
		return common.NewNotFoundError("suggestion not found", nil)
	}
	return nil
}

// CleanupExpired removes suggestions past their expiry, freeing the (user,
// NGO) pairs for regeneration.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.WithContext(ctx).Info("expired suggestions removed", zap.Int64("count", removed))
	}
	return removed, nil
}

// score blends the candidate's normalized signals into a confidence score in
// [0,1]. Without engagement history only the popularity term contributes.
func (s *Service) score(userID uuid.UUID, engagement *signals.EngagementSignals, candidate *signals.NGOCandidate, personalized bool, now time.Time) *FollowSuggestion {
	contributions := map[string]float64{
		SignalPopularity: popularitySignal(candidate) * s.weights.Popularity,
	}

	if personalized {
		contributions[SignalCategoryMatch] = categoryMatchSignal(engagement, candidate) * s.weights.CategoryMatch
		contributions[SignalLocationProximity] = locationSignal(engagement, candidate) * s.weights.LocationProximity
		contributions[SignalParticipationHistory] = participationSignal(engagement) * s.weights.ParticipationHistory
		contributions[SignalNGOTrust] = (candidate.TrustScore / 100) * s.weights.TrustScore
	}

	confidence := 0.0
	for _, c := range contributions {
		confidence += c
	}
	if confidence > 1 {
		confidence = 1
	}

	return &FollowSuggestion{
		ID:              uuid.New(),
		UserID:          userID,
		NGOID:           candidate.ID,
		NGOName:         candidate.Name,
		ConfidenceScore: confidence,
		SignalWeight:    contributions,
		Reason:          buildReason(contributions, engagement, candidate),
		CreatedAt:       now,
		ExpiresAt:       now.AddDate(0, 0, s.expiryDays),
	}
}

// popularitySignal saturates at popularitySaturation followers.
func popularitySignal(candidate *signals.NGOCandidate) float64 {
	return clampRatio(float64(candidate.FollowerCount) / popularitySaturation)
}

// categoryMatchSignal is the share of the user's participations that fall in
// the candidate's focus areas.
func categoryMatchSignal(engagement *signals.EngagementSignals, candidate *signals.NGOCandidate) float64 {
	total := 0
	matched := 0
	focus := make(map[string]struct{}, len(candidate.FocusAreas))
	for _, area := range candidate.FocusAreas {
		focus[strings.ToLower(area)] = struct{}{}
	}
	for category, count := range engagement.CategoryCounts {
		total += count
		if _, ok := focus[strings.ToLower(category)]; ok {
			matched += count
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// locationSignal is city-granular: same city or nothing.
func locationSignal(engagement *signals.EngagementSignals, candidate *signals.NGOCandidate) float64 {
	if engagement.City == "" || candidate.City == "" {
		return 0
	}
	if strings.EqualFold(engagement.City, candidate.City) {
		return 1
	}
	return 0
}

// participationSignal saturates at participationSaturation entries.
func participationSignal(engagement *signals.EngagementSignals) float64 {
	total := 0
	for _, count := range engagement.CategoryCounts {
		total += count
	}
	return clampRatio(float64(total) / participationSaturation)
}

// buildReason renders the two strongest contributions as a short human
// string. Derivable from the contribution map plus the candidate snapshot.
func buildReason(contributions map[string]float64, engagement *signals.EngagementSignals, candidate *signals.NGOCandidate) string {
	type entry struct {
		name  string
		value float64
	}
	entries := make([]entry, 0, len(contributions))
	for name, value := range contributions {
		if value > 0 {
			entries = append(entries, entry{name, value})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].value != entries[j].value {
			return entries[i].value > entries[j].value
		}
		return entries[i].name < entries[j].name
	})
	if len(entries) > 2 {
		entries = entries[:2]
	}

	parts := make([]string, 0, 2)
	for _, e := range entries {
		parts = append(parts, reasonText(e.name, engagement, candidate))
	}
	if len(parts) == 0 {
		return "suggested for you"
	}
	return strings.Join(parts, "; ")
}

func reasonText(signal string, engagement *signals.EngagementSignals, candidate *signals.NGOCandidate) string {
	switch signal {
	case SignalPopularity:
		return fmt.Sprintf("followed by %d people", candidate.FollowerCount)
	case SignalCategoryMatch:
		return fmt.Sprintf("matches your interest in %s", topMatchingCategory(engagement, candidate))
	case SignalLocationProximity:
		return fmt.Sprintf("active in %s", candidate.City)
	case SignalParticipationHistory:
		return "based on your giveaway participation"
	case SignalNGOTrust:
		return "highly trusted organization"
	default:
		return "suggested for you"
	}
}

// topMatchingCategory picks the user's most-participated category among the
// candidate's focus areas, alphabetical on ties.
func topMatchingCategory(engagement *signals.EngagementSignals, candidate *signals.NGOCandidate) string {
	best := ""
	bestCount := -1
	for _, area := range candidate.FocusAreas {
		for category, count := range engagement.CategoryCounts {
			if !strings.EqualFold(area, category) {
				continue
			}
			if count > bestCount || (count == bestCount && category < best) {
				best = category
				bestCount = count
			}
		}
	}
	if best == "" && len(candidate.FocusAreas) > 0 {
		return candidate.FocusAreas[0]
	}
	return best
}

func clampRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

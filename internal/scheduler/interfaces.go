package scheduler

import (
	"context"

	"github.com/google/uuid"
	"github.com/pepoapp/trust-engine/internal/badges"
	"github.com/pepoapp/trust-engine/internal/suggestions"
	"github.com/pepoapp/trust-engine/internal/trust"
)

// UserLister pages through the users the batch run covers.
type UserLister interface {
	ListActiveUserIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error)
}

// TrustRecomputer recomputes and persists a user's trust score.
type TrustRecomputer interface {
	ComputeTrustScore(ctx context.Context, userID uuid.UUID) (*trust.TrustScore, error)
}

// SuggestionGenerator regenerates suggestions and expires stale ones.
type SuggestionGenerator interface {
	GenerateSuggestions(ctx context.Context, userID uuid.UUID, limit int) ([]*suggestions.FollowSuggestion, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// BadgeEvaluator sweeps badge rules for a subject.
type BadgeEvaluator interface {
	EvaluateBadges(ctx context.Context, subjectID uuid.UUID, subjectType badges.SubjectType) ([]*badges.BadgeAssignment, error)
}

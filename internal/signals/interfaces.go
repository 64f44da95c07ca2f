package signals

import (
	"context"

	"github.com/google/uuid"
)

// Source defines read access to persisted platform facts. Implementations
// must return a NOT_FOUND error for unknown users rather than zeroed signals.
type Source interface {
	GetActivitySignals(ctx context.Context, userID uuid.UUID) (*ActivitySignals, error)
	GetFeedbackSignals(ctx context.Context, userID uuid.UUID) (*FeedbackSignals, error)
	GetVerificationSignals(ctx context.Context, userID uuid.UUID) (*VerificationSignals, error)
	GetEngagementSignals(ctx context.Context, userID uuid.UUID) (*EngagementSignals, error)
	GetNGOCandidates(ctx context.Context, filter CandidateFilter) ([]*NGOCandidate, error)
	ListActiveUserIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error)
}

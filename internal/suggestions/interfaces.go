package suggestions

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RepositoryInterface defines the interface for follow suggestion persistence
type RepositoryInterface interface {
	CreateSuggestions(ctx context.Context, suggestions []*FollowSuggestion) error
	// ListActiveNGOIDs returns the NGO IDs with a non-expired suggestion for
	// the user as of now.
	ListActiveNGOIDs(ctx context.Context, userID uuid.UUID, now time.Time) ([]uuid.UUID, error)
	ListSuggestions(ctx context.Context, userID uuid.UUID, includeExpired bool, now time.Time, limit, offset int) ([]*FollowSuggestion, int64, error)
	// MarkViewed, MarkFollowed and MarkIgnored set independent interaction
	// flags. Each returns false when the suggestion does not exist or does not
	// belong to the user.
	MarkViewed(ctx context.Context, suggestionID, userID uuid.UUID) (bool, error)
	MarkFollowed(ctx context.Context, suggestionID, userID uuid.UUID) (bool, error)
	MarkIgnored(ctx context.Context, suggestionID, userID uuid.UUID) (bool, error)
	// DeleteExpired removes suggestions whose expiry has passed and returns
	// the number removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

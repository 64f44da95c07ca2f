package fraud

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RepositoryInterface defines the interface for fraud flag persistence
type RepositoryInterface interface {
	CreateFlag(ctx context.Context, flag *FraudFlag) error
	GetFlagByID(ctx context.Context, flagID uuid.UUID) (*FraudFlag, error)
	// GetHighestPendingScore returns the highest risk score among the user's
	// pending flags, and whether any pending flag exists.
	GetHighestPendingScore(ctx context.Context, userID uuid.UUID) (float64, bool, error)
	// ResolveFlag marks a pending flag resolved and, for a suspend action,
	// deactivates the user in the same transaction. Returns false when no
	// pending row was updated.
	ResolveFlag(ctx context.Context, flagID uuid.UUID, resolution Resolution, action Action, adminID uuid.UUID, resolvedAt time.Time) (bool, error)
	ListPendingFlags(ctx context.Context, limit, offset int) ([]*FraudFlag, int64, error)
	ListFlagsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*FraudFlag, int64, error)
	GetStats(ctx context.Context) (*Stats, error)
}

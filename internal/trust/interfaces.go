package trust

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RepositoryInterface defines the interface for trust score persistence
type RepositoryInterface interface {
	UpsertScore(ctx context.Context, score *TrustScore) error
	GetScore(ctx context.Context, userID uuid.UUID) (*TrustScore, error)
	GetScores(ctx context.Context, userIDs []uuid.UUID) ([]*TrustScore, error)
	GetLevelDistribution(ctx context.Context) ([]LevelCount, error)
	GetTopScores(ctx context.Context, limit, offset int) ([]*TrustScore, int64, error)
}

// Cache defines the hot-read cache for trust scores.
type Cache interface {
	GetScore(ctx context.Context, userID uuid.UUID) (*TrustScore, error)
	SetScore(ctx context.Context, score *TrustScore, ttl time.Duration) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

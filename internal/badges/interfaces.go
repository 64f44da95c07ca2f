package badges

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryInterface defines the interface for badge assignment persistence
type RepositoryInterface interface {
	// CreateAssignment inserts an assignment. Returns false without error when
	// the (subject, badge) pair was already awarded.
	CreateAssignment(ctx context.Context, assignment *BadgeAssignment) (bool, error)
	ListAssignments(ctx context.Context, subjectID uuid.UUID) ([]*BadgeAssignment, error)
	CountAssignmentsByBadge(ctx context.Context) (map[BadgeKey]int64, error)
}

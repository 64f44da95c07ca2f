package badges

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// Repository handles badge assignment persistence
type Repository struct {
	db *pgxpool.Pool
}

var _ RepositoryInterface = (*Repository)(nil)

// NewRepository creates a new badge repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateAssignment inserts an assignment. A unique violation on the
// (subject, badge) pair means a concurrent evaluation already awarded it and
// is reported as not-inserted rather than an error.
func (r *Repository) CreateAssignment(ctx context.Context, assignment *BadgeAssignment) (bool, error) {
	query := `
		INSERT INTO badge_assignments (id, subject_id, subject_type, badge_key, awarded_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		assignment.ID,
		assignment.SubjectID,
		assignment.SubjectType,
		assignment.BadgeKey,
		assignment.AwardedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// ListAssignments lists a subject's badges, oldest first.
func (r *Repository) ListAssignments(ctx context.Context, subjectID uuid.UUID) ([]*BadgeAssignment, error) {
	query := `
		SELECT id, subject_id, subject_type, badge_key, awarded_at
		FROM badge_assignments
		WHERE subject_id = $1
		ORDER BY awarded_at
	`

	rows, err := r.db.Query(ctx, query, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]*BadgeAssignment, 0)
	for rows.Next() {
		var a BadgeAssignment
		err := rows.Scan(&a.ID, &a.SubjectID, &a.SubjectType, &a.BadgeKey, &a.AwardedAt)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, &a)
	}

	return assignments, rows.Err()
}

// CountAssignmentsByBadge returns award counts per badge key.
func (r *Repository) CountAssignmentsByBadge(ctx context.Context) (map[BadgeKey]int64, error) {
	query := `
		SELECT badge_key, COUNT(*)
		FROM badge_assignments
		GROUP BY badge_key
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[BadgeKey]int64)
	for rows.Next() {
		var key BadgeKey
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}

	return counts, rows.Err()
}

package suggestions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles follow suggestion persistence
type Repository struct {
	db *pgxpool.Pool
}

var _ RepositoryInterface = (*Repository)(nil)

// NewRepository creates a new suggestion repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const suggestionColumns = `
	id, user_id, ngo_id, ngo_name, confidence_score, signal_weight, reason,
	is_viewed, is_followed, is_ignored, created_at, expires_at
`

// CreateSuggestions inserts a generated batch in one round trip.
func (r *Repository) CreateSuggestions(ctx context.Context, suggestions []*FollowSuggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	query := `
		INSERT INTO follow_suggestions (
			id, user_id, ngo_id, ngo_name, confidence_score, signal_weight,
			reason, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, s := range suggestions {
		batch.Queue(query,
			s.ID,
			s.UserID,
			s.NGOID,
			s.NGOName,
			s.ConfidenceScore,
			s.SignalWeight,
			s.Reason,
			s.CreatedAt,
			s.ExpiresAt,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range suggestions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert suggestion: %w", err)
		}
	}

	return nil
}

// ListActiveNGOIDs returns NGO IDs with a non-expired suggestion for the user.
func (r *Repository) ListActiveNGOIDs(ctx context.Context, userID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT ngo_id
		FROM follow_suggestions
		WHERE user_id = $1 AND expires_at > $2
	`

	rows, err := r.db.Query(ctx, query, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ListSuggestions lists the user's suggestions, highest confidence first.
func (r *Repository) ListSuggestions(ctx context.Context, userID uuid.UUID, includeExpired bool, now time.Time, limit, offset int) ([]*FollowSuggestion, int64, error) {
	activeClause := ""
	if !includeExpired {
		activeClause = "AND expires_at > $4"
	}

	countArgs := []interface{}{userID}
	countQuery := `SELECT COUNT(*) FROM follow_suggestions WHERE user_id = $1`
	if !includeExpired {
		countQuery += " AND expires_at > $2"
		countArgs = append(countArgs, now)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM follow_suggestions
		WHERE user_id = $1 %s
		ORDER BY confidence_score DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`, suggestionColumns, activeClause)

	args := []interface{}{userID, limit, offset}
	if !includeExpired {
		args = append(args, now)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*FollowSuggestion, 0)
	for rows.Next() {
		var s FollowSuggestion
		err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.NGOID,
			&s.NGOName,
			&s.ConfidenceScore,
			&s.SignalWeight,
			&s.Reason,
			&s.IsViewed,
			&s.IsFollowed,
			&s.IsIgnored,
			&s.CreatedAt,
			&s.ExpiresAt,
		)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// MarkViewed sets the viewed flag.
func (r *Repository) MarkViewed(ctx context.Context, suggestionID, userID uuid.UUID) (bool, error) {
	return r.setFlag(ctx, "is_viewed", suggestionID, userID)
}

// MarkFollowed sets the followed flag.
func (r *Repository) MarkFollowed(ctx context.Context, suggestionID, userID uuid.UUID) (bool, error) {
	return r.setFlag(ctx, "is_followed", suggestionID, userID)
}

// MarkIgnored sets the ignored flag.
func (r *Repository) MarkIgnored(ctx context.Context, suggestionID, userID uuid.UUID) (bool, error) {
	return r.setFlag(ctx, "is_ignored", suggestionID, userID)
}

func (r *Repository) setFlag(ctx context.Context, column string, suggestionID, userID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE follow_suggestions
		SET %s = true
		WHERE id = $1 AND user_id = $2
	`, column)

	tag, err := r.db.Exec(ctx, query, suggestionID, userID)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// DeleteExpired removes suggestions past their expiry.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM follow_suggestions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

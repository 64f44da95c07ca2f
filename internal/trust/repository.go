package trust

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pepoapp/trust-engine/pkg/common"
)

// Repository handles trust score persistence
type Repository struct {
	db *pgxpool.Pool
}

var _ RepositoryInterface = (*Repository)(nil)

// NewRepository creates a new trust repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const scoreColumns = `
	user_id, giving_score, receiving_score, feedback_score,
	total_score, level, completion_rate, response_time_hours, computed_at
`

// UpsertScore atomically replaces a user's trust snapshot.
func (r *Repository) UpsertScore(ctx context.Context, score *TrustScore) error {
	query := `
		INSERT INTO trust_scores (
			user_id, giving_score, receiving_score, feedback_score,
			total_score, level, completion_rate, response_time_hours, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			giving_score = EXCLUDED.giving_score,
			receiving_score = EXCLUDED.receiving_score,
			feedback_score = EXCLUDED.feedback_score,
			total_score = EXCLUDED.total_score,
			level = EXCLUDED.level,
			completion_rate = EXCLUDED.completion_rate,
			response_time_hours = EXCLUDED.response_time_hours,
			computed_at = EXCLUDED.computed_at
	`

	_, err := r.db.Exec(ctx, query,
		score.UserID,
		score.GivingScore,
		score.ReceivingScore,
		score.FeedbackScore,
		score.TotalScore,
		score.Level,
		score.CompletionRate,
		score.ResponseTimeHours,
		score.ComputedAt,
	)

	return err
}

// GetScore retrieves a user's stored trust snapshot.
func (r *Repository) GetScore(ctx context.Context, userID uuid.UUID) (*TrustScore, error) {
	query := `SELECT ` + scoreColumns + ` FROM trust_scores WHERE user_id = $1`

	var score TrustScore
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&score.UserID,
		&score.GivingScore,
		&score.ReceivingScore,
		&score.FeedbackScore,
		&score.TotalScore,
		&score.Level,
		&score.CompletionRate,
		&score.ResponseTimeHours,
		&score.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("trust score not found", err)
		}
		return nil, err
	}

	return &score, nil
}

// GetScores retrieves stored snapshots for a batch of users.
func (r *Repository) GetScores(ctx context.Context, userIDs []uuid.UUID) ([]*TrustScore, error) {
	query := `SELECT ` + scoreColumns + ` FROM trust_scores WHERE user_id = ANY($1)`

	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanScores(rows)
}

// GetLevelDistribution counts users per trust tier.
func (r *Repository) GetLevelDistribution(ctx context.Context) ([]LevelCount, error) {
	query := `
		SELECT level, COUNT(*)
		FROM trust_scores
		GROUP BY level
		ORDER BY COUNT(*) DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	distribution := make([]LevelCount, 0)
	for rows.Next() {
		var lc LevelCount
		if err := rows.Scan(&lc.Level, &lc.Count); err != nil {
			return nil, err
		}
		distribution = append(distribution, lc)
	}

	return distribution, rows.Err()
}

// GetTopScores lists the highest stored scores with a total count.
func (r *Repository) GetTopScores(ctx context.Context, limit, offset int) ([]*TrustScore, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM trust_scores`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + scoreColumns + `
		FROM trust_scores
		ORDER BY total_score DESC, computed_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	scores, err := scanScores(rows)
	if err != nil {
		return nil, 0, err
	}

	return scores, total, nil
}

func scanScores(rows pgx.Rows) ([]*TrustScore, error) {
	scores := make([]*TrustScore, 0)
	for rows.Next() {
		var score TrustScore
		err := rows.Scan(
			&score.UserID,
			&score.GivingScore,
			&score.ReceivingScore,
			&score.FeedbackScore,
			&score.TotalScore,
			&score.Level,
			&score.CompletionRate,
			&score.ResponseTimeHours,
			&score.ComputedAt,
		)
		if err != nil {
			return nil, err
		}
		scores = append(scores, &score)
	}
	return scores, rows.Err()
}

package signals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pepoapp/trust-engine/pkg/common"
)

// Repository reads signal facts from the platform database.
type Repository struct {
	db *pgxpool.Pool
}

var _ Source = (*Repository)(nil)

// NewRepository creates a new signals repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetActivitySignals aggregates a user's giveaway activity counters.
func (r *Repository) GetActivitySignals(ctx context.Context, userID uuid.UUID) (*ActivitySignals, error) {
	userQuery := `
		SELECT city, is_active, EXTRACT(DAY FROM NOW() - created_at)::int
		FROM users
		WHERE id = $1
	`

	s := &ActivitySignals{UserID: userID}
	err := r.db.QueryRow(ctx, userQuery, userID).Scan(&s.City, &s.Active, &s.AccountAgeDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("user not found", err)
		}
		return nil, err
	}

	giveawayQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '7 days'),
			COUNT(*) FILTER (WHERE status = 'completed' AND completed_at >= NOW() - INTERVAL '7 days'),
			COUNT(*) FILTER (WHERE status = 'completed' AND completed_at >= NOW() - INTERVAL '90 days')
		FROM giveaways
		WHERE giver_id = $1
	`
	err = r.db.QueryRow(ctx, giveawayQuery, userID).Scan(
		&s.GiveawaysCreated,
		&s.CompletedGiveaways,
		&s.RecentGiveaways7d,
		&s.RecentCompletions7d,
		&s.RecentCompletions90d,
	)
	if err != nil {
		return nil, err
	}

	pickupQuery := `
		SELECT
			COUNT(*) FILTER (WHERE giver_id = $1 AND status = 'completed'),
			COUNT(*) FILTER (WHERE receiver_id = $1 AND status = 'completed'),
			COALESCE(AVG(EXTRACT(EPOCH FROM completed_at - created_at) / 3600)
				FILTER (WHERE giver_id = $1 AND status = 'completed'), 0)
		FROM pickups
		WHERE giver_id = $1 OR receiver_id = $1
	`
	err = r.db.QueryRow(ctx, pickupQuery, userID).Scan(
		&s.CompletedPickupsAsGiver,
		&s.CompletedPickupsAsReceiver,
		&s.AvgResponseHours,
	)
	if err != nil {
		return nil, err
	}

	participationQuery := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_winner)
		FROM giveaway_participations
		WHERE user_id = $1
	`
	err = r.db.QueryRow(ctx, participationQuery, userID).Scan(&s.ParticipationCount, &s.WinCount)
	if err != nil {
		return nil, err
	}

	reportQuery := `SELECT COUNT(*) FROM user_reports WHERE reported_user_id = $1`
	if err := r.db.QueryRow(ctx, reportQuery, userID).Scan(&s.ReportCount); err != nil {
		return nil, err
	}

	return s, nil
}

// GetFeedbackSignals aggregates the ratings a user has received.
func (r *Repository) GetFeedbackSignals(ctx context.Context, userID uuid.UUID) (*FeedbackSignals, error) {
	if err := r.ensureUserExists(ctx, userID); err != nil {
		return nil, err
	}

	query := `
		SELECT
			COUNT(*),
			COALESCE(AVG(rating), 0),
			COUNT(*) FILTER (WHERE rating <= 2),
			COUNT(*) FILTER (WHERE flagged),
			COALESCE(AVG(CASE WHEN would_recommend THEN 1.0 ELSE 0.0 END), 0)
		FROM feedback
		WHERE subject_id = $1
	`

	s := &FeedbackSignals{UserID: userID}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.RatingCount,
		&s.AverageRating,
		&s.NegativeCount,
		&s.FlaggedCount,
		&s.WouldRecommendRate,
	)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// GetVerificationSignals reads a user's verification state.
func (r *Repository) GetVerificationSignals(ctx context.Context, userID uuid.UUID) (*VerificationSignals, error) {
	query := `
		SELECT email_verified, phone_verified, id_verified, ngo_status
		FROM users
		WHERE id = $1
	`

	s := &VerificationSignals{UserID: userID}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.EmailVerified,
		&s.PhoneVerified,
		&s.IDVerified,
		&s.NGOStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("user not found", err)
		}
		return nil, err
	}

	return s, nil
}

// GetEngagementSignals reads what a user follows, mutes, and participates in.
func (r *Repository) GetEngagementSignals(ctx context.Context, userID uuid.UUID) (*EngagementSignals, error) {
	s := &EngagementSignals{
		UserID:         userID,
		CategoryCounts: make(map[string]int),
	}

	userQuery := `SELECT city FROM users WHERE id = $1`
	if err := r.db.QueryRow(ctx, userQuery, userID).Scan(&s.City); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("user not found", err)
		}
		return nil, err
	}

	categoryQuery := `
		SELECT g.category, COUNT(*)
		FROM giveaway_participations p
		JOIN giveaways g ON g.id = p.giveaway_id
		WHERE p.user_id = $1
		GROUP BY g.category
	`
	rows, err := r.db.Query(ctx, categoryQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		s.CategoryCounts[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.FollowedNGOIDs, err = r.listNGOIDs(ctx, `SELECT ngo_id FROM ngo_follows WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}

	s.MutedNGOIDs, err = r.listNGOIDs(ctx, `SELECT ngo_id FROM ngo_mutes WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// GetNGOCandidates lists NGOs eligible for suggestion, most followed first.
func (r *Repository) GetNGOCandidates(ctx context.Context, filter CandidateFilter) ([]*NGOCandidate, error) {
	query := `
		SELECT n.id, n.name, n.city, n.focus_areas, n.follower_count,
		       COALESCE(ts.total_score, 0), n.verified, n.created_at
		FROM ngos n
		LEFT JOIN trust_scores ts ON ts.user_id = n.id
		WHERE n.is_active = true
		  AND ($1 = '' OR n.city = $1)
		  AND (NOT $2 OR n.verified)
		ORDER BY n.follower_count DESC, n.created_at DESC
		LIMIT $3
	`

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.db.Query(ctx, query, filter.City, filter.VerifiedOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]*NGOCandidate, 0)
	for rows.Next() {
		var c NGOCandidate
		err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.City,
			&c.FocusAreas,
			&c.FollowerCount,
			&c.TrustScore,
			&c.Verified,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, &c)
	}

	return candidates, rows.Err()
}

// ListActiveUserIDs pages through active user IDs for batch recomputation.
func (r *Repository) ListActiveUserIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM users
		WHERE is_active = true
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *Repository) ensureUserExists(ctx context.Context, userID uuid.UUID) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return common.NewNotFoundError("user not found", nil)
	}
	return nil
}

func (r *Repository) listNGOIDs(ctx context.Context, query string, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, query, userID)
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

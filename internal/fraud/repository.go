package fraud

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pepoapp/trust-engine/pkg/common"
)

// DB is the slice of pgxpool.Pool the repository needs. Satisfied by the live
// pool and by mock pools in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles fraud flag persistence
type Repository struct {
	db DB
}

var _ RepositoryInterface = (*Repository)(nil)

// NewRepository creates a new fraud repository
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const flagColumns = `
	id, user_id, risk_score, flag_type, band, description, reasons, status,
	resolution, action, resolved_by, created_at, resolved_at
`

// CreateFlag inserts a new pending flag.
func (r *Repository) CreateFlag(ctx context.Context, flag *FraudFlag) error {
	query := `
		INSERT INTO fraud_flags (
			id, user_id, risk_score, flag_type, band, description, reasons, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		flag.ID,
		flag.UserID,
		flag.RiskScore,
		flag.FlagType,
		flag.Band,
		flag.Description,
		flag.Reasons,
		flag.Status,
		flag.CreatedAt,
	)

	return err
}

// GetFlagByID retrieves a flag by ID.
func (r *Repository) GetFlagByID(ctx context.Context, flagID uuid.UUID) (*FraudFlag, error) {
	query := `SELECT ` + flagColumns + ` FROM fraud_flags WHERE id = $1`

	flag, err := scanFlag(r.db.QueryRow(ctx, query, flagID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("fraud flag not found", err)
		}
		return nil, err
	}

	return flag, nil
}

// GetHighestPendingScore returns the top pending risk score for a user.
func (r *Repository) GetHighestPendingScore(ctx context.Context, userID uuid.UUID) (float64, bool, error) {
	query := `
		SELECT MAX(risk_score)
		FROM fraud_flags
		WHERE user_id = $1 AND status = 'PENDING'
	`

	var highest *float64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&highest); err != nil {
		return 0, false, err
	}
	if highest == nil {
		return 0, false, nil
	}

	return *highest, true, nil
}

// ResolveFlag transitions a pending flag to RESOLVED. The update is keyed on
// status so concurrent resolvers serialize: exactly one caller sees a row
// updated. A suspend action deactivates the user inside the same transaction.
func (r *Repository) ResolveFlag(ctx context.Context, flagID uuid.UUID, resolution Resolution, action Action, adminID uuid.UUID, resolvedAt time.Time) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	update := `
		UPDATE fraud_flags
		SET status = 'RESOLVED',
		    resolution = $2,
		    action = $3,
		    resolved_by = $4,
		    resolved_at = $5
		WHERE id = $1 AND status = 'PENDING'
		RETURNING user_id
	`

	var userID uuid.UUID
	err = tx.QueryRow(ctx, update, flagID, resolution, action, adminID, resolvedAt).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if action == ActionSuspend {
		if _, err := tx.Exec(ctx, `UPDATE users SET is_active = false WHERE id = $1`, userID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	return true, nil
}

// ListPendingFlags lists open flags, highest risk first.
func (r *Repository) ListPendingFlags(ctx context.Context, limit, offset int) ([]*FraudFlag, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM fraud_flags WHERE status = 'PENDING'`
	if err := r.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + flagColumns + `
		FROM fraud_flags
		WHERE status = 'PENDING'
		ORDER BY risk_score DESC, created_at
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	flags, err := scanFlags(rows)
	if err != nil {
		return nil, 0, err
	}

	return flags, total, nil
}

// ListFlagsByUser lists a user's flags, newest first.
func (r *Repository) ListFlagsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*FraudFlag, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM fraud_flags WHERE user_id = $1`
	if err := r.db.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + flagColumns + `
		FROM fraud_flags
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	flags, err := scanFlags(rows)
	if err != nil {
		return nil, 0, err
	}

	return flags, total, nil
}

// GetStats summarizes flag volumes.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status = 'RESOLVED'),
			COUNT(*) FILTER (WHERE resolution = 'confirmed'),
			COUNT(*) FILTER (WHERE resolution = 'false_positive'),
			COUNT(*) FILTER (WHERE action = 'suspend')
		FROM fraud_flags
	`

	stats := &Stats{}
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.PendingFlags,
		&stats.ResolvedFlags,
		&stats.ConfirmedFlags,
		&stats.FalsePositives,
		&stats.SuspendedUsers,
	)
	if err != nil {
		return nil, err
	}

	if stats.ResolvedFlags > 0 {
		stats.ConfirmRate = float64(stats.ConfirmedFlags) / float64(stats.ResolvedFlags)
	}

	return stats, nil
}

func scanFlag(row pgx.Row) (*FraudFlag, error) {
	var flag FraudFlag
	err := row.Scan(
		&flag.ID,
		&flag.UserID,
		&flag.RiskScore,
		&flag.FlagType,
		&flag.Band,
		&flag.Description,
		&flag.Reasons,
		&flag.Status,
		&flag.Resolution,
		&flag.Action,
		&flag.ResolvedBy,
		&flag.CreatedAt,
		&flag.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &flag, nil
}

func scanFlags(rows pgx.Rows) ([]*FraudFlag, error) {
	flags := make([]*FraudFlag, 0)
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}
	return flags, rows.Err()
}

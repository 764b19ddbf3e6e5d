package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mbekov/packquest/internal/domain/entities"
	"github.com/mbekov/packquest/internal/infra/postgres"
)

var ErrProgressNotFound = errors.New("progress not found")

// ProgressRepository provides access to per-user gamification state.
type ProgressRepository struct {
	db postgres.DBTX
}

// NewProgressRepository creates a ProgressRepository over a pool or an
// open transaction.
func NewProgressRepository(db postgres.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Get retrieves the progress row for a user.
// Returns ErrProgressNotFound if the user has no progress yet.
func (r *ProgressRepository) Get(ctx context.Context, userID int64) (*entities.UserProgress, error) {
	return r.get(ctx, userID, false)
}

// GetForUpdate retrieves the progress row with a row lock, serializing
// concurrent read-modify-write cycles on the same user. Must be called
// inside a transaction.
func (r *ProgressRepository) GetForUpdate(ctx context.Context, userID int64) (*entities.UserProgress, error) {
	return r.get(ctx, userID, true)
}

func (r *ProgressRepository) get(ctx context.Context, userID int64, forUpdate bool) (*entities.UserProgress, error) {
	query := `
		SELECT user_id, xp, level, streak, last_activity_date, total_challenges_completed
		FROM user_progress
		WHERE user_id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var progress entities.UserProgress
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&progress.UserID,
		&progress.XP,
		&progress.Level,
		&progress.Streak,
		&progress.LastActivityDate,
		&progress.TotalChallengesCompleted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgressNotFound
		}

		return nil, fmt.Errorf("get progress: %w", err)
	}

	return &progress, nil
}

// CreateIfAbsent inserts the zero-state row for a user. Callers must run
// this before GetForUpdate inside the same transaction: FOR UPDATE on a
// missing row locks nothing, so first-ever completions need the row in
// place for concurrent updates on the same user to serialize.
func (r *ProgressRepository) CreateIfAbsent(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO user_progress (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("create progress: %w", err)
	}

	return nil
}

// Save creates or updates the progress row in one statement.
func (r *ProgressRepository) Save(ctx context.Context, progress *entities.UserProgress) error {
	query := `
		INSERT INTO user_progress (
			user_id, xp, level, streak, last_activity_date, total_challenges_completed
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			xp = EXCLUDED.xp,
			level = EXCLUDED.level,
			streak = EXCLUDED.streak,
			last_activity_date = EXCLUDED.last_activity_date,
			total_challenges_completed = EXCLUDED.total_challenges_completed,
			updated_at = NOW()
	`

	_, err := r.db.Exec(
		ctx, query,
		progress.UserID,
		progress.XP,
		progress.Level,
		progress.Streak,
		progress.LastActivityDate,
		progress.TotalChallengesCompleted,
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}

	return nil
}

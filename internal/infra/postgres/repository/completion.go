package repository

import (
	"context"
	"fmt"

	"github.com/mbekov/packquest/internal/domain/entities"
	"github.com/mbekov/packquest/internal/infra/postgres"
)

// CompletionRepository provides access to challenge completion records.
// Rows are append-only; the (user_id, challenge_id) primary key makes
// inserts idempotent.
type CompletionRepository struct {
	db postgres.DBTX
}

func NewCompletionRepository(db postgres.DBTX) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// Insert records a completion if none exists yet. Returns false when the
// (user, challenge) pair was already completed.
func (r *CompletionRepository) Insert(ctx context.Context, completion *entities.ChallengeCompletion) (bool, error) {
	query := `
		INSERT INTO challenge_completions (user_id, challenge_id, completed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, challenge_id) DO NOTHING
	`

	cmdTag, err := r.db.Exec(ctx, query, completion.UserID, completion.ChallengeID, completion.CompletedAt)
	if err != nil {
		return false, fmt.Errorf("insert completion: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

// Missing returns the subset of challengeIDs the user has not completed.
func (r *CompletionRepository) Missing(ctx context.Context, userID int64, challengeIDs []string) ([]string, error) {
	query := `
		SELECT id
		FROM unnest($2::text[]) AS id
		WHERE NOT EXISTS (
			SELECT 1 FROM challenge_completions
			WHERE user_id = $1 AND challenge_id = id
		)
	`

	rows, err := r.db.Query(ctx, query, userID, challengeIDs)
	if err != nil {
		return nil, fmt.Errorf("missing completions: %w", err)
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan missing completion: %w", err)
		}
		missing = append(missing, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate missing completions: %w", err)
	}

	return missing, nil
}

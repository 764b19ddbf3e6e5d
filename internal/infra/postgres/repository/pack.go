package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mbekov/packquest/internal/domain/entities"
	"github.com/mbekov/packquest/internal/infra/postgres"
)

var ErrPackProgressNotFound = errors.New("pack progress not found")

// PackRepository provides access to pack completion milestones.
type PackRepository struct {
	db postgres.DBTX
}

func NewPackRepository(db postgres.DBTX) *PackRepository {
	return &PackRepository{db: db}
}

// Get retrieves the pack progress row for a (user, pack) pair.
// Returns ErrPackProgressNotFound when the pair has never been touched.
func (r *PackRepository) Get(ctx context.Context, userID int64, packID string) (*entities.PackProgress, error) {
	query := `
		SELECT user_id, pack_id, is_completed, completed_at, reflection, image_ref, visibility
		FROM pack_progress
		WHERE user_id = $1 AND pack_id = $2
	`

	var progress entities.PackProgress
	err := r.db.QueryRow(ctx, query, userID, packID).Scan(
		&progress.UserID,
		&progress.PackID,
		&progress.IsCompleted,
		&progress.CompletedAt,
		&progress.Reflection,
		&progress.ImageRef,
		&progress.Visibility,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPackProgressNotFound
		}

		return nil, fmt.Errorf("get pack progress: %w", err)
	}

	return &progress, nil
}

// Finalize writes the completion milestone in a single statement. The row
// is created lazily if absent. Returns false without touching anything
// when the pack was already finalized: the conditional update only fires
// while is_completed is still false, so completed_at and the milestone
// fields are write-once.
func (r *PackRepository) Finalize(ctx context.Context, progress *entities.PackProgress) (bool, error) {
	query := `
		INSERT INTO pack_progress (
			user_id, pack_id, is_completed, completed_at, reflection, image_ref, visibility
		) VALUES ($1, $2, true, $3, $4, $5, $6)
		ON CONFLICT (user_id, pack_id) DO UPDATE SET
			is_completed = true,
			completed_at = EXCLUDED.completed_at,
			reflection = EXCLUDED.reflection,
			image_ref = EXCLUDED.image_ref,
			visibility = EXCLUDED.visibility
		WHERE pack_progress.is_completed = false
	`

	cmdTag, err := r.db.Exec(
		ctx, query,
		progress.UserID,
		progress.PackID,
		progress.CompletedAt,
		progress.Reflection,
		progress.ImageRef,
		progress.Visibility,
	)
	if err != nil {
		return false, fmt.Errorf("finalize pack: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

// ListCompleted returns a user's finalized packs, newest first.
func (r *PackRepository) ListCompleted(ctx context.Context, userID int64) ([]*entities.PackProgress, error) {
	query := `
		SELECT user_id, pack_id, is_completed, completed_at, reflection, image_ref, visibility
		FROM pack_progress
		WHERE user_id = $1 AND is_completed = true
		ORDER BY completed_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list completed packs: %w", err)
	}
	defer rows.Close()

	var packs []*entities.PackProgress
	for rows.Next() {
		var p entities.PackProgress
		err = rows.Scan(
			&p.UserID,
			&p.PackID,
			&p.IsCompleted,
			&p.CompletedAt,
			&p.Reflection,
			&p.ImageRef,
			&p.Visibility,
		)
		if err != nil {
			return nil, fmt.Errorf("scan completed pack: %w", err)
		}
		packs = append(packs, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed packs: %w", err)
	}

	return packs, nil
}

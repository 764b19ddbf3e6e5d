package repository

import (
	"context"
	"fmt"

	"github.com/mbekov/packquest/internal/infra/postgres"
)

// FollowRepository provides access to the follow edges that gate feed
// visibility.
type FollowRepository struct {
	db postgres.DBTX
}

func NewFollowRepository(db postgres.DBTX) *FollowRepository {
	return &FollowRepository{db: db}
}

// Insert creates a follow edge. Returns false when it already existed.
func (r *FollowRepository) Insert(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`

	cmdTag, err := r.db.Exec(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("insert follow: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

// Delete removes a follow edge. Deleting a missing edge is not an error.
func (r *FollowRepository) Delete(ctx context.Context, followerID, followeeID int64) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`

	if _, err := r.db.Exec(ctx, query, followerID, followeeID); err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}

	return nil
}

// Exists checks whether follower follows followee.
func (r *FollowRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM follows
			WHERE follower_id = $1 AND followee_id = $2
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, followerID, followeeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("follow exists: %w", err)
	}

	return exists, nil
}

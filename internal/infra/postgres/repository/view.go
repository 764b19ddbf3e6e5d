package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mbekov/packquest/internal/infra/postgres"
)

// ViewRepository provides access to per-content view records and the
// derived view counts. Both tables are only ever written together, inside
// one transaction, so the count always equals the number of records.
type ViewRepository struct {
	db postgres.DBTX
}

func NewViewRepository(db postgres.DBTX) *ViewRepository {
	return &ViewRepository{db: db}
}

// Insert records that a viewer has seen the content. Returns false when
// the (content, viewer) pair was already recorded.
func (r *ViewRepository) Insert(ctx context.Context, contentID string, viewerID int64, viewedAt time.Time) (bool, error) {
	query := `
		INSERT INTO content_views (content_id, viewer_id, viewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (content_id, viewer_id) DO NOTHING
	`

	cmdTag, err := r.db.Exec(ctx, query, contentID, viewerID, viewedAt)
	if err != nil {
		return false, fmt.Errorf("insert view: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

// IncrementCount bumps the content's view count by one and returns the
// new total. Must run in the same transaction as the Insert that earned
// the increment.
func (r *ViewRepository) IncrementCount(ctx context.Context, contentID string) (int64, error) {
	query := `
		INSERT INTO content_view_counts (content_id, view_count)
		VALUES ($1, 1)
		ON CONFLICT (content_id) DO UPDATE SET
			view_count = content_view_counts.view_count + 1
		RETURNING view_count
	`

	var count int64
	err := r.db.QueryRow(ctx, query, contentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment view count: %w", err)
	}

	return count, nil
}

// Count returns the content's current view count, zero when the content
// has never been viewed.
func (r *ViewRepository) Count(ctx context.Context, contentID string) (int64, error) {
	query := `
		SELECT COALESCE(
			(SELECT view_count FROM content_view_counts WHERE content_id = $1), 0
		)
	`

	var count int64
	err := r.db.QueryRow(ctx, query, contentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("get view count: %w", err)
	}

	return count, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema statements are idempotent so they can run on every boot. The
// unique keys below are what make the engine's operations safe to retry:
// completions, view records and follows are insert-if-absent against
// their primary keys.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS user_progress (
		user_id BIGINT PRIMARY KEY,
		xp BIGINT NOT NULL DEFAULT 0 CHECK (xp >= 0),
		level INT NOT NULL DEFAULT 1 CHECK (level >= 1),
		streak INT NOT NULL DEFAULT 0 CHECK (streak >= 0),
		last_activity_date DATE,
		total_challenges_completed INT NOT NULL DEFAULT 0 CHECK (total_challenges_completed >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS challenge_completions (
		user_id BIGINT NOT NULL,
		challenge_id TEXT NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, challenge_id)
	)`,

	`CREATE TABLE IF NOT EXISTS pack_progress (
		user_id BIGINT NOT NULL,
		pack_id TEXT NOT NULL,
		is_completed BOOLEAN NOT NULL DEFAULT false,
		completed_at TIMESTAMPTZ,
		reflection TEXT NOT NULL DEFAULT '',
		image_ref TEXT NOT NULL DEFAULT '',
		visibility TEXT NOT NULL DEFAULT 'public' CHECK (visibility IN ('public', 'private')),
		PRIMARY KEY (user_id, pack_id)
	)`,

	`CREATE TABLE IF NOT EXISTS content_views (
		content_id TEXT NOT NULL,
		viewer_id BIGINT NOT NULL,
		viewed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (content_id, viewer_id)
	)`,

	`CREATE TABLE IF NOT EXISTS content_view_counts (
		content_id TEXT PRIMARY KEY,
		view_count BIGINT NOT NULL DEFAULT 0 CHECK (view_count >= 0)
	)`,

	`CREATE TABLE IF NOT EXISTS follows (
		follower_id BIGINT NOT NULL,
		followee_id BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (follower_id, followee_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_pack_progress_completed
		ON pack_progress (user_id) WHERE is_completed`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	return nil
}

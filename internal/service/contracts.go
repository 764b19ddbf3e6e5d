package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mbekov/packquest/internal/domain/entities"
	"github.com/mbekov/packquest/internal/infra/postgres"
)

// Transactor runs fn inside one database transaction, rolling back on any
// error so multi-step updates are all-or-nothing.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type ProgressRepository interface {
	Get(ctx context.Context, userID int64) (*entities.UserProgress, error)
	CreateIfAbsent(ctx context.Context, userID int64) error
	GetForUpdate(ctx context.Context, userID int64) (*entities.UserProgress, error)
	Save(ctx context.Context, progress *entities.UserProgress) error
}

type CompletionRepository interface {
	Insert(ctx context.Context, completion *entities.ChallengeCompletion) (bool, error)
	Missing(ctx context.Context, userID int64, challengeIDs []string) ([]string, error)
}

type PackRepository interface {
	Get(ctx context.Context, userID int64, packID string) (*entities.PackProgress, error)
	Finalize(ctx context.Context, progress *entities.PackProgress) (bool, error)
	ListCompleted(ctx context.Context, userID int64) ([]*entities.PackProgress, error)
}

type ViewRepository interface {
	Insert(ctx context.Context, contentID string, viewerID int64, viewedAt time.Time) (bool, error)
	IncrementCount(ctx context.Context, contentID string) (int64, error)
	Count(ctx context.Context, contentID string) (int64, error)
}

type FollowRepository interface {
	Insert(ctx context.Context, followerID, followeeID int64) (bool, error)
	Delete(ctx context.Context, followerID, followeeID int64) error
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
}

// Repos bundles the repository constructors. Services open repositories
// over the pool for plain reads and over the transaction handed out by
// the Transactor for read-modify-write cycles; tests substitute in-memory
// implementations.
type Repos struct {
	Progress    func(db postgres.DBTX) ProgressRepository
	Completions func(db postgres.DBTX) CompletionRepository
	Packs       func(db postgres.DBTX) PackRepository
	Views       func(db postgres.DBTX) ViewRepository
	Follows     func(db postgres.DBTX) FollowRepository
}

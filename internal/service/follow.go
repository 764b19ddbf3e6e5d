package service

import (
	"context"

	"github.com/mbekov/packquest/internal/domain/entities"
	"github.com/mbekov/packquest/internal/infra/postgres"
)

// FollowService manages the minimal follow relation used to gate feed
// visibility. Both directions of the operation are idempotent.
type FollowService struct {
	db    postgres.DBTX
	repos Repos
}

func NewFollowService(db postgres.DBTX, repos Repos) *FollowService {
	return &FollowService{db: db, repos: repos}
}

// Follow creates the edge; replaying an existing follow is a no-op.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID int64) error {
	if followerID == followeeID {
		return entities.ErrSelfFollow
	}

	_, err := s.repos.Follows(s.db).Insert(ctx, followerID, followeeID)
	return err
}

// Unfollow removes the edge; removing a missing edge is a no-op.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	return s.repos.Follows(s.db).Delete(ctx, followerID, followeeID)
}

// IsFollowing reports whether the edge exists.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return s.repos.Follows(s.db).Exists(ctx, followerID, followeeID)
}

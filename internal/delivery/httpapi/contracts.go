package httpapi

import (
	"context"
	"time"

	"github.com/mbekov/packquest/internal/domain/entities"
	"github.com/mbekov/packquest/internal/service"
)

// CompletionService is the slice of the completion engine the HTTP layer
// needs.
type CompletionService interface {
	CompleteChallenge(ctx context.Context, userID int64, challengeID string, xpAward int64, now time.Time) (*service.CompletionResult, error)
	GetProgress(ctx context.Context, userID int64) (*entities.UserProgress, error)
}

type PackService interface {
	FinalizePack(ctx context.Context, userID int64, packID, reflection, imageRef, visibility string, challengeIDs []string, now time.Time) (*service.FinalizeResult, error)
	ListPacksForViewer(ctx context.Context, ownerID, viewerID int64) ([]*entities.PackProgress, error)
	GetPackForViewer(ctx context.Context, ownerID, viewerID int64, packID string) (*entities.PackProgress, error)
}

type ViewService interface {
	RegisterView(ctx context.Context, contentID string, viewerID, ownerID int64, now time.Time) (*service.ViewResult, error)
}

type FollowService interface {
	Follow(ctx context.Context, followerID, followeeID int64) error
	Unfollow(ctx context.Context, followerID, followeeID int64) error
}

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

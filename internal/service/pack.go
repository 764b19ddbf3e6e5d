package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mbekov/packquest/internal/domain/entities"
	"github.com/mbekov/packquest/internal/infra/postgres"
	"github.com/mbekov/packquest/internal/infra/postgres/repository"
)

var (
	// ErrPackIncomplete rejects finalization while any challenge in the
	// pack still lacks a completion. Nothing is written.
	ErrPackIncomplete = errors.New("pack has uncompleted challenges")

	// ErrEmptyPack rejects finalization of a pack with no challenge list.
	ErrEmptyPack = errors.New("pack has no challenges")
)

// FinalizeResult reports the outcome of a finalization attempt.
// AlreadyFinalized means an earlier call won; the returned milestone is
// the one that call wrote, unchanged.
type FinalizeResult struct {
	Pack             *entities.PackProgress
	AlreadyFinalized bool
}

// PackService finalizes pack completion milestones and serves the pack
// feed. It is the only writer of pack_progress.
type PackService struct {
	db    postgres.DBTX
	tr    Transactor
	repos Repos
}

func NewPackService(db postgres.DBTX, tr Transactor, repos Repos) *PackService {
	return &PackService{db: db, tr: tr, repos: repos}
}

// FinalizePack writes the one-time completion milestone for a pack once
// every challenge in it has an individual completion. The completeness
// check and the write-once transition happen in one transaction, so a
// partially written milestone is never observable.
func (s *PackService) FinalizePack(
	ctx context.Context,
	userID int64,
	packID string,
	reflection string,
	imageRef string,
	visibility string,
	challengeIDs []string,
	now time.Time,
) (*FinalizeResult, error) {
	vis, err := entities.ParseVisibility(visibility)
	if err != nil {
		return nil, err
	}
	if len(challengeIDs) == 0 {
		return nil, ErrEmptyPack
	}

	var result FinalizeResult
	err = s.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		completions := s.repos.Completions(tx)
		packs := s.repos.Packs(tx)

		missing, err := completions.Missing(ctx, userID, challengeIDs)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %d of %d missing", ErrPackIncomplete, len(missing), len(challengeIDs))
		}

		milestone := &entities.PackProgress{
			UserID:      userID,
			PackID:      packID,
			IsCompleted: true,
			CompletedAt: &now,
			Reflection:  reflection,
			ImageRef:    imageRef,
			Visibility:  vis,
		}

		finalized, err := packs.Finalize(ctx, milestone)
		if err != nil {
			return err
		}
		if finalized {
			result = FinalizeResult{Pack: milestone}
			return nil
		}

		// Lost the race or replayed: report the milestone as written by
		// the first call.
		existing, err := packs.Get(ctx, userID, packID)
		if err != nil {
			return err
		}
		result = FinalizeResult{Pack: existing, AlreadyFinalized: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ListPacksForViewer returns the owner's finalized packs the viewer may
// see: everything for the owner themselves, public packs for everyone,
// private packs additionally for the owner's followers.
func (s *PackService) ListPacksForViewer(ctx context.Context, ownerID, viewerID int64) ([]*entities.PackProgress, error) {
	packs, err := s.repos.Packs(s.db).ListCompleted(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if ownerID == viewerID {
		return packs, nil
	}

	follows, err := s.repos.Follows(s.db).Exists(ctx, viewerID, ownerID)
	if err != nil {
		return nil, err
	}
	if follows {
		return packs, nil
	}

	visible := make([]*entities.PackProgress, 0, len(packs))
	for _, p := range packs {
		if p.Visibility == entities.VisibilityPublic {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// GetPackForViewer returns a single pack milestone, applying the same
// gate as the feed: the owner always sees it, others only when it is
// public or they follow the owner. Hidden milestones are reported as
// repository.ErrPackProgressNotFound so they are indistinguishable from
// missing ones.
func (s *PackService) GetPackForViewer(ctx context.Context, ownerID, viewerID int64, packID string) (*entities.PackProgress, error) {
	pack, err := s.repos.Packs(s.db).Get(ctx, ownerID, packID)
	if err != nil {
		return nil, err
	}

	if ownerID == viewerID || pack.Visibility == entities.VisibilityPublic {
		return pack, nil
	}

	follows, err := s.repos.Follows(s.db).Exists(ctx, viewerID, ownerID)
	if err != nil {
		return nil, err
	}
	if !follows {
		return nil, repository.ErrPackProgressNotFound
	}

	return pack, nil
}

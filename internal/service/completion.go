package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mbekov/packquest/internal/domain/entities"
	"github.com/mbekov/packquest/internal/infra/postgres"
	"github.com/mbekov/packquest/internal/infra/postgres/repository"
)

// CompletionResult is what a completion attempt produced. AlreadyCompleted
// means the challenge had been completed before: the returned progress is
// unchanged and the caller may treat the call as a success.
type CompletionResult struct {
	Progress         *entities.UserProgress
	LeveledUp        bool
	StreakBroke      bool
	AlreadyCompleted bool
}

// CompletionService records challenge completions and derives the user's
// XP, level and streak from them. It is the only writer of user_progress
// and challenge_completions.
type CompletionService struct {
	db     postgres.DBTX
	tr     Transactor
	repos  Repos
	levels entities.LevelTable
	loc    *time.Location
}

func NewCompletionService(db postgres.DBTX, tr Transactor, repos Repos, levels entities.LevelTable, loc *time.Location) *CompletionService {
	return &CompletionService{db: db, tr: tr, repos: repos, levels: levels, loc: loc}
}

// CompleteChallenge applies one completion event. The completion record
// and the progress update are committed atomically: if the streak
// calculator rejects an out-of-order timestamp, neither is persisted.
//
// Replays of the same (user, challenge) pair leave all state untouched
// and report AlreadyCompleted.
func (s *CompletionService) CompleteChallenge(ctx context.Context, userID int64, challengeID string, xpAward int64, now time.Time) (*CompletionResult, error) {
	if xpAward <= 0 {
		return nil, entities.ErrInvalidXPAward
	}

	day := entities.DayOf(now, s.loc)

	var result CompletionResult
	err := s.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		completions := s.repos.Completions(tx)
		progress := s.repos.Progress(tx)

		// Insert first: a concurrent duplicate blocks on the primary key
		// until the winner commits, then lands in the replay branch.
		inserted, err := completions.Insert(ctx, &entities.ChallengeCompletion{
			UserID:      userID,
			ChallengeID: challengeID,
			CompletedAt: now,
		})
		if err != nil {
			return err
		}

		// Make sure there is a row to lock: FOR UPDATE on a missing row
		// would let two first-ever completions both compute from the
		// zero state and the later commit overwrite the earlier award.
		if err := progress.CreateIfAbsent(ctx, userID); err != nil {
			return err
		}

		p, err := progress.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if !inserted {
			result = CompletionResult{Progress: p, AlreadyCompleted: true}
			return nil
		}

		outcome, err := p.ApplyCompletion(xpAward, day, s.levels)
		if err != nil {
			return err
		}

		if err := progress.Save(ctx, p); err != nil {
			return err
		}

		result = CompletionResult{
			Progress:    p,
			LeveledUp:   outcome.LeveledUp,
			StreakBroke: outcome.StreakBroke,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetProgress returns the user's progress, or the zero state (without
// persisting it) when the user has never completed anything.
func (s *CompletionService) GetProgress(ctx context.Context, userID int64) (*entities.UserProgress, error) {
	p, err := s.repos.Progress(s.db).Get(ctx, userID)
	if errors.Is(err, repository.ErrProgressNotFound) {
		return entities.NewUserProgress(userID, s.levels), nil
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

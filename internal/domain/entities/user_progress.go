package entities

import (
	"errors"
	"time"
)

// ErrInvalidXPAward is returned for completion events carrying a
// non-positive XP award.
var ErrInvalidXPAward = errors.New("xp award must be positive")

// UserProgress is the per-user gamification state. Level is always derived
// from XP through the level table; Streak and LastActivityDate are only
// ever updated together.
type UserProgress struct {
	UserID                   int64
	XP                       int64
	Level                    int
	Streak                   int
	LastActivityDate         *time.Time // calendar date, nil until first completion
	TotalChallengesCompleted int
}

// NewUserProgress returns the zero state for a user who has not completed
// anything yet.
func NewUserProgress(userID int64, levels LevelTable) *UserProgress {
	return &UserProgress{
		UserID: userID,
		Level:  levels.LevelFor(0),
	}
}

// CompletionOutcome reports the facts a completion produced so the caller
// can surface them. The engine itself never triggers notifications.
type CompletionOutcome struct {
	LeveledUp   bool
	StreakBroke bool
}

// ApplyCompletion folds one challenge completion into the progress state.
// day must be produced by DayOf in the deployment's canonical location.
// On error the receiver is left unmodified.
func (p *UserProgress) ApplyCompletion(xpAward int64, day time.Time, levels LevelTable) (CompletionOutcome, error) {
	if xpAward <= 0 {
		return CompletionOutcome{}, ErrInvalidXPAward
	}

	streak, broke, err := ComputeStreak(p.LastActivityDate, day, p.Streak)
	if err != nil {
		return CompletionOutcome{}, err
	}

	oldXP := p.XP
	p.XP += xpAward
	p.Level = levels.LevelFor(p.XP)
	p.Streak = streak
	activity := day
	p.LastActivityDate = &activity
	p.TotalChallengesCompleted++

	return CompletionOutcome{
		LeveledUp:   levels.DidLevelUp(oldXP, p.XP),
		StreakBroke: broke,
	}, nil
}

package entities

import "time"

// ChallengeCompletion records that a user completed a challenge. At most
// one record exists per (user, challenge) pair; replays are no-ops.
type ChallengeCompletion struct {
	UserID      int64
	ChallengeID string
	CompletedAt time.Time
}

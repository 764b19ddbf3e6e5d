package entities

import (
	"errors"
	"time"
)

// ErrSelfFollow is returned when a user tries to follow themselves.
var ErrSelfFollow = errors.New("cannot follow yourself")

// Follow is a directed edge used only to gate visibility of private pack
// completions in the feed.
type Follow struct {
	FollowerID int64
	FolloweeID int64
	CreatedAt  time.Time
}

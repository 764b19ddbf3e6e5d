package entities

import (
	"errors"
	"time"
)

// ErrInvalidVisibility is returned for visibility values outside the
// closed enum.
var ErrInvalidVisibility = errors.New("invalid visibility")

// Visibility controls who can see a finalized pack completion.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ParseVisibility validates a raw visibility value. The empty string maps
// to the default (public).
func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case "":
		return VisibilityPublic, nil
	case VisibilityPublic, VisibilityPrivate:
		return Visibility(s), nil
	default:
		return "", ErrInvalidVisibility
	}
}

// PackProgress is the one-time completion milestone for a (user, pack)
// pair. IsCompleted transitions false to true exactly once; the milestone
// fields are only written in that same transition.
type PackProgress struct {
	UserID      int64
	PackID      string
	IsCompleted bool
	CompletedAt *time.Time
	Reflection  string
	ImageRef    string
	Visibility  Visibility
}

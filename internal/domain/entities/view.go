package entities

import "time"

// ContentView marks that a viewer has seen a piece of content. Existence
// alone carries the signal; inserting an already-present pair changes
// nothing, so derived view counts cannot be inflated by repeat views.
type ContentView struct {
	ContentID string
	ViewerID  int64
	ViewedAt  time.Time
}

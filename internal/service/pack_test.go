package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbekov/packquest/internal/domain/entities"
	"github.com/mbekov/packquest/internal/infra/postgres/repository"
)

func completeAll(t *testing.T, db *memDB, userID int64, challengeIDs []string) {
	t.Helper()
	svc := newCompletionService(db)
	now := day(2025, time.June, 1)
	for _, id := range challengeIDs {
		_, err := svc.CompleteChallenge(context.Background(), userID, id, 10, now)
		require.NoError(t, err)
	}
}

func TestFinalizePackIncomplete(t *testing.T) {
	db := newMemDB()
	svc := NewPackService(nil, db, db.repos())

	completeAll(t, db, 1, []string{"c1", "c2"})

	_, err := svc.FinalizePack(context.Background(), 1, "morning-routine", "", "", "public",
		[]string{"c1", "c2", "c3"}, day(2025, time.June, 2))
	require.ErrorIs(t, err, ErrPackIncomplete)

	// Nothing may be written on rejection, not even a lazy row.
	assert.Empty(t, db.packs)
}

func TestFinalizePack(t *testing.T) {
	db := newMemDB()
	svc := NewPackService(nil, db, db.repos())
	ctx := context.Background()

	completeAll(t, db, 1, []string{"c1", "c2", "c3"})

	now := day(2025, time.June, 2)
	result, err := svc.FinalizePack(ctx, 1, "morning-routine", "felt great", "img-123", "private",
		[]string{"c1", "c2", "c3"}, now)
	require.NoError(t, err)

	assert.False(t, result.AlreadyFinalized)
	assert.True(t, result.Pack.IsCompleted)
	require.NotNil(t, result.Pack.CompletedAt)
	assert.Equal(t, now, *result.Pack.CompletedAt)
	assert.Equal(t, "felt great", result.Pack.Reflection)
	assert.Equal(t, "img-123", result.Pack.ImageRef)
	assert.Equal(t, entities.VisibilityPrivate, result.Pack.Visibility)
}

func TestFinalizePackWriteOnce(t *testing.T) {
	db := newMemDB()
	svc := NewPackService(nil, db, db.repos())
	ctx := context.Background()

	completeAll(t, db, 1, []string{"c1"})

	first := day(2025, time.June, 2)
	_, err := svc.FinalizePack(ctx, 1, "pack", "original", "", "public", []string{"c1"}, first)
	require.NoError(t, err)

	// A replay with different milestone data must change nothing.
	result, err := svc.FinalizePack(ctx, 1, "pack", "rewritten", "new-img", "private",
		[]string{"c1"}, day(2025, time.June, 9))
	require.NoError(t, err)

	assert.True(t, result.AlreadyFinalized)
	assert.Equal(t, "original", result.Pack.Reflection)
	assert.Equal(t, entities.VisibilityPublic, result.Pack.Visibility)
	require.NotNil(t, result.Pack.CompletedAt)
	assert.Equal(t, first, *result.Pack.CompletedAt)
}

func TestFinalizePackInvalidVisibility(t *testing.T) {
	db := newMemDB()
	svc := NewPackService(nil, db, db.repos())

	completeAll(t, db, 1, []string{"c1"})

	_, err := svc.FinalizePack(context.Background(), 1, "pack", "", "", "friends-only",
		[]string{"c1"}, day(2025, time.June, 2))
	assert.ErrorIs(t, err, entities.ErrInvalidVisibility)
	assert.Empty(t, db.packs)
}

func TestFinalizePackDefaultVisibility(t *testing.T) {
	db := newMemDB()
	svc := NewPackService(nil, db, db.repos())

	completeAll(t, db, 1, []string{"c1"})

	result, err := svc.FinalizePack(context.Background(), 1, "pack", "", "", "",
		[]string{"c1"}, day(2025, time.June, 2))
	require.NoError(t, err)
	assert.Equal(t, entities.VisibilityPublic, result.Pack.Visibility)
}

func TestFinalizePackEmpty(t *testing.T) {
	db := newMemDB()
	svc := NewPackService(nil, db, db.repos())

	_, err := svc.FinalizePack(context.Background(), 1, "pack", "", "", "public", nil, day(2025, time.June, 2))
	assert.ErrorIs(t, err, ErrEmptyPack)
}

func TestGetPackForViewerVisibility(t *testing.T) {
	db := newMemDB()
	packs := NewPackService(nil, db, db.repos())
	follows := NewFollowService(nil, db.repos())
	ctx := context.Background()

	completeAll(t, db, 1, []string{"c1", "c2"})

	_, err := packs.FinalizePack(ctx, 1, "public-pack", "", "", "public", []string{"c1"}, day(2025, time.June, 2))
	require.NoError(t, err)
	_, err = packs.FinalizePack(ctx, 1, "private-pack", "secret notes", "", "private", []string{"c2"}, day(2025, time.June, 3))
	require.NoError(t, err)

	// The owner reads their own private milestone.
	pack, err := packs.GetPackForViewer(ctx, 1, 1, "private-pack")
	require.NoError(t, err)
	assert.Equal(t, "secret notes", pack.Reflection)

	// A stranger gets not-found for a private milestone, never its contents.
	_, err = packs.GetPackForViewer(ctx, 1, 99, "private-pack")
	assert.ErrorIs(t, err, repository.ErrPackProgressNotFound)

	// Public milestones stay readable by anyone.
	pack, err = packs.GetPackForViewer(ctx, 1, 99, "public-pack")
	require.NoError(t, err)
	assert.Equal(t, "public-pack", pack.PackID)

	// Following the owner unlocks private milestones.
	require.NoError(t, follows.Follow(ctx, 99, 1))
	pack, err = packs.GetPackForViewer(ctx, 1, 99, "private-pack")
	require.NoError(t, err)
	assert.Equal(t, "secret notes", pack.Reflection)
}

func TestListPacksForViewerVisibility(t *testing.T) {
	db := newMemDB()
	packs := NewPackService(nil, db, db.repos())
	follows := NewFollowService(nil, db.repos())
	ctx := context.Background()

	completeAll(t, db, 1, []string{"c1", "c2"})

	_, err := packs.FinalizePack(ctx, 1, "public-pack", "", "", "public", []string{"c1"}, day(2025, time.June, 2))
	require.NoError(t, err)
	_, err = packs.FinalizePack(ctx, 1, "private-pack", "", "", "private", []string{"c2"}, day(2025, time.June, 3))
	require.NoError(t, err)

	// The owner sees everything.
	visible, err := packs.ListPacksForViewer(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, visible, 2)

	// A stranger only sees public packs.
	visible, err = packs.ListPacksForViewer(ctx, 1, 99)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "public-pack", visible[0].PackID)

	// A follower sees private packs too.
	require.NoError(t, follows.Follow(ctx, 99, 1))
	visible, err = packs.ListPacksForViewer(ctx, 1, 99)
	require.NoError(t, err)
	assert.Len(t, visible, 2)
}

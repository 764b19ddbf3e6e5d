package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mbekov/packquest/internal/domain/entities"
	"github.com/mbekov/packquest/internal/infra/postgres"
	"github.com/mbekov/packquest/internal/infra/postgres/repository"
)

// memDB is an in-memory stand-in for the postgres layer. WithinTx
// snapshots all state up front and restores it when the callback fails,
// mirroring transactional rollback so the no-partial-writes properties
// can be asserted.
type memDB struct {
	progress    map[int64]entities.UserProgress
	completions map[string]entities.ChallengeCompletion
	packs       map[string]entities.PackProgress
	views       map[string]entities.ContentView
	viewCounts  map[string]int64
	follows     map[string]bool

	// onEnsureProgress, when set, runs after CreateIfAbsent writes the
	// row. Tests use it to interleave a competing writer at the point
	// where a real transaction would take the row lock.
	onEnsureProgress func()
}

func newMemDB() *memDB {
	return &memDB{
		progress:    make(map[int64]entities.UserProgress),
		completions: make(map[string]entities.ChallengeCompletion),
		packs:       make(map[string]entities.PackProgress),
		views:       make(map[string]entities.ContentView),
		viewCounts:  make(map[string]int64),
		follows:     make(map[string]bool),
	}
}

func (db *memDB) repos() Repos {
	return Repos{
		Progress:    func(postgres.DBTX) ProgressRepository { return &memProgressRepo{db} },
		Completions: func(postgres.DBTX) CompletionRepository { return &memCompletionRepo{db} },
		Packs:       func(postgres.DBTX) PackRepository { return &memPackRepo{db} },
		Views:       func(postgres.DBTX) ViewRepository { return &memViewRepo{db} },
		Follows:     func(postgres.DBTX) FollowRepository { return &memFollowRepo{db} },
	}
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	snapshot := db.clone()
	if err := fn(ctx, nil); err != nil {
		*db = *snapshot
		return err
	}
	return nil
}

func (db *memDB) clone() *memDB {
	c := newMemDB()
	for k, v := range db.progress {
		c.progress[k] = v
	}
	for k, v := range db.completions {
		c.completions[k] = v
	}
	for k, v := range db.packs {
		c.packs[k] = v
	}
	for k, v := range db.views {
		c.views[k] = v
	}
	for k, v := range db.viewCounts {
		c.viewCounts[k] = v
	}
	for k, v := range db.follows {
		c.follows[k] = v
	}
	c.onEnsureProgress = db.onEnsureProgress
	return c
}

func pairKey(userID int64, id string) string {
	return fmt.Sprintf("%d|%s", userID, id)
}

type memProgressRepo struct{ db *memDB }

func (r *memProgressRepo) Get(_ context.Context, userID int64) (*entities.UserProgress, error) {
	p, ok := r.db.progress[userID]
	if !ok {
		return nil, repository.ErrProgressNotFound
	}
	return &p, nil
}

func (r *memProgressRepo) GetForUpdate(ctx context.Context, userID int64) (*entities.UserProgress, error) {
	return r.Get(ctx, userID)
}

func (r *memProgressRepo) CreateIfAbsent(_ context.Context, userID int64) error {
	if _, ok := r.db.progress[userID]; !ok {
		r.db.progress[userID] = entities.UserProgress{UserID: userID, Level: 1}
	}
	if r.db.onEnsureProgress != nil {
		r.db.onEnsureProgress()
	}
	return nil
}

func (r *memProgressRepo) Save(_ context.Context, progress *entities.UserProgress) error {
	r.db.progress[progress.UserID] = *progress
	return nil
}

type memCompletionRepo struct{ db *memDB }

func (r *memCompletionRepo) Insert(_ context.Context, completion *entities.ChallengeCompletion) (bool, error) {
	key := pairKey(completion.UserID, completion.ChallengeID)
	if _, ok := r.db.completions[key]; ok {
		return false, nil
	}
	r.db.completions[key] = *completion
	return true, nil
}

func (r *memCompletionRepo) Missing(_ context.Context, userID int64, challengeIDs []string) ([]string, error) {
	var missing []string
	for _, id := range challengeIDs {
		if _, ok := r.db.completions[pairKey(userID, id)]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type memPackRepo struct{ db *memDB }

func (r *memPackRepo) Get(_ context.Context, userID int64, packID string) (*entities.PackProgress, error) {
	p, ok := r.db.packs[pairKey(userID, packID)]
	if !ok {
		return nil, repository.ErrPackProgressNotFound
	}
	return &p, nil
}

func (r *memPackRepo) Finalize(_ context.Context, progress *entities.PackProgress) (bool, error) {
	key := pairKey(progress.UserID, progress.PackID)
	if existing, ok := r.db.packs[key]; ok && existing.IsCompleted {
		return false, nil
	}
	r.db.packs[key] = *progress
	return true, nil
}

func (r *memPackRepo) ListCompleted(_ context.Context, userID int64) ([]*entities.PackProgress, error) {
	var packs []*entities.PackProgress
	for _, p := range r.db.packs {
		if p.UserID == userID && p.IsCompleted {
			cp := p
			packs = append(packs, &cp)
		}
	}
	sort.Slice(packs, func(i, j int) bool {
		return packs[i].CompletedAt.After(*packs[j].CompletedAt)
	})
	return packs, nil
}

type memViewRepo struct{ db *memDB }

func (r *memViewRepo) Insert(_ context.Context, contentID string, viewerID int64, viewedAt time.Time) (bool, error) {
	key := pairKey(viewerID, contentID)
	if _, ok := r.db.views[key]; ok {
		return false, nil
	}
	r.db.views[key] = entities.ContentView{ContentID: contentID, ViewerID: viewerID, ViewedAt: viewedAt}
	return true, nil
}

func (r *memViewRepo) IncrementCount(_ context.Context, contentID string) (int64, error) {
	r.db.viewCounts[contentID]++
	return r.db.viewCounts[contentID], nil
}

func (r *memViewRepo) Count(_ context.Context, contentID string) (int64, error) {
	return r.db.viewCounts[contentID], nil
}

type memFollowRepo struct{ db *memDB }

func (r *memFollowRepo) Insert(_ context.Context, followerID, followeeID int64) (bool, error) {
	key := pairKey(followerID, fmt.Sprint(followeeID))
	if r.db.follows[key] {
		return false, nil
	}
	r.db.follows[key] = true
	return true, nil
}

func (r *memFollowRepo) Delete(_ context.Context, followerID, followeeID int64) error {
	delete(r.db.follows, pairKey(followerID, fmt.Sprint(followeeID)))
	return nil
}

func (r *memFollowRepo) Exists(_ context.Context, followerID, followeeID int64) (bool, error) {
	return r.db.follows[pairKey(followerID, fmt.Sprint(followeeID))], nil
}

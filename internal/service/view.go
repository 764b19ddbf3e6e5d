package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mbekov/packquest/internal/infra/postgres"
)

// ViewResult reports a view registration. Counted is false when the
// viewer had already seen the content (or self-views are not counted);
// Count is the content's total either way.
type ViewResult struct {
	Count   int64
	Counted bool
}

// ViewService maintains per-content view counts with at-most-one count
// per (content, viewer) pair. It is the only writer of content_views and
// content_view_counts.
type ViewService struct {
	db             postgres.DBTX
	tr             Transactor
	repos          Repos
	countSelfViews bool
}

func NewViewService(db postgres.DBTX, tr Transactor, repos Repos, countSelfViews bool) *ViewService {
	return &ViewService{db: db, tr: tr, repos: repos, countSelfViews: countSelfViews}
}

// RegisterView records that viewerID has seen contentID. The uniqueness
// insert and the counter bump share one transaction, so retries and
// duplicate deliveries can never inflate the count.
func (s *ViewService) RegisterView(ctx context.Context, contentID string, viewerID, ownerID int64, now time.Time) (*ViewResult, error) {
	if !s.countSelfViews && viewerID == ownerID {
		count, err := s.repos.Views(s.db).Count(ctx, contentID)
		if err != nil {
			return nil, err
		}
		return &ViewResult{Count: count}, nil
	}

	var result ViewResult
	err := s.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		views := s.repos.Views(tx)

		inserted, err := views.Insert(ctx, contentID, viewerID, now)
		if err != nil {
			return err
		}

		if !inserted {
			count, err := views.Count(ctx, contentID)
			if err != nil {
				return err
			}
			result = ViewResult{Count: count}
			return nil
		}

		count, err := views.IncrementCount(ctx, contentID)
		if err != nil {
			return err
		}
		result = ViewResult{Count: count, Counted: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

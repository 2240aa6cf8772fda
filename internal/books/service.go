package books

import (
	"context"
	"errors"
	"time"

	"governance-gateway/middleware/failure"
)

// Service aplica as regras do recurso sobre o Store.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

func (s *Service) List(ctx context.Context, f Filter, p Page) (Paginated, error) {
	rows, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return Paginated{}, err
	}
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return Paginated{
		Data: rows,
		Meta: PageMeta{Total: total, Page: p.Page, Limit: p.Limit, TotalPages: totalPages},
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		var sf *failure.StorageFault
		if errors.As(err, &sf) && sf.Tag == failure.TagRecordMissing {
			return Book{}, failure.NewNotFound(resource, id)
		}
		return Book{}, err
	}
	return b, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Book, error) {
	if err := validateCreate(&in); err != nil {
		return Book{}, err
	}
	now := s.now()
	if err := s.checkPublished(in.PublishedYear, now); err != nil {
		return Book{}, err
	}
	return s.store.Create(ctx, Book{
		Title:         in.Title,
		Author:        in.Author,
		PublishedYear: in.PublishedYear,
		Genre:         in.Genre,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Book, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return Book{}, err
	}
	if err := validateUpdate(&in); err != nil {
		return Book{}, err
	}
	now := s.now()
	if err := s.checkPublished(in.PublishedYear, now); err != nil {
		return Book{}, err
	}
	return s.store.Update(ctx, id, in, now)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// checkPublished: ano de publicação não pode passar do ano corrente.
func (s *Service) checkPublished(year *int, now time.Time) error {
	if year == nil {
		return nil
	}
	if current := now.Year(); *year > current {
		return failure.NewBusinessRule("published_year_in_future",
			"published year must not be after the current year (%d)", current)
	}
	return nil
}

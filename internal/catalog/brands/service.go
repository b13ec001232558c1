package brands

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fixflow-rms/fixflow/internal/catalog/shared"
)

var titleCaser = cases.Title(language.English, cases.NoLower)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Brand, error) {
	if id <= 0 {
		return Brand{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, b Brand) (Brand, error) {
	b = normalize(b)
	if err := s.validate(b); err != nil {
		return Brand{}, err
	}
	return s.repo.Create(ctx, b)
}

func (s *Service) Update(ctx context.Context, id int64, b Brand) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	b = normalize(b)
	if err := s.validate(b); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, b)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

func normalize(b Brand) Brand {
	b.Code = strings.ToUpper(strings.TrimSpace(b.Code))
	b.Name = titleCaser.String(strings.TrimSpace(b.Name))
	return b
}

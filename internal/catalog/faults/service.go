package faults

import (
	"context"
	"strings"

	"github.com/fixflow-rms/fixflow/internal/catalog/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Fault, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Fault, error) {
	if id <= 0 {
		return Fault{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, f Fault) (Fault, error) {
	f.Name = strings.TrimSpace(f.Name)
	if err := s.validate(f); err != nil {
		return Fault{}, err
	}
	return s.repo.Create(ctx, f)
}

func (s *Service) Update(ctx context.Context, id int64, f Fault) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	f.Name = strings.TrimSpace(f.Name)
	if err := s.validate(f); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, f)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]FaultCategory, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, c FaultCategory) (FaultCategory, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := s.validateCategory(c); err != nil {
		return FaultCategory{}, err
	}
	return s.repo.CreateCategory(ctx, c)
}

package solutions

import (
	"context"
	"fmt"
	"strings"

	"github.com/fixflow-rms/fixflow/internal/catalog/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters, faultID *int64) ([]Solution, int, error) {
	return s.repo.List(ctx, filters, faultID)
}

func (s *Service) Get(ctx context.Context, id int64) (Solution, error) {
	if id <= 0 {
		return Solution{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, sol Solution) (Solution, error) {
	sol.Name = strings.TrimSpace(sol.Name)
	if err := s.validate(sol); err != nil {
		return Solution{}, err
	}
	return s.repo.Create(ctx, sol)
}

func (s *Service) Update(ctx context.Context, id int64, sol Solution) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	sol.Name = strings.TrimSpace(sol.Name)
	if err := s.validate(sol); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, sol)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(sol Solution) error {
	if strings.TrimSpace(sol.Name) == "" {
		return fmt.Errorf("%w: solution name", shared.ErrRequiredField)
	}
	if sol.EstimatedHours < 0 {
		return fmt.Errorf("%w: estimated hours cannot be negative", shared.ErrValidation)
	}
	if sol.EstimatedCost < 0 {
		return fmt.Errorf("%w: estimated cost cannot be negative", shared.ErrValidation)
	}
	for _, id := range sol.FaultIDs {
		if id <= 0 {
			return fmt.Errorf("%w: fault reference", shared.ErrValidation)
		}
	}
	return nil
}

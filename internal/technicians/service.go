package technicians

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Technician, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (*Technician, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Technician, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("validate technician: %w", err)
	}

	t := &Technician{
		Name:   strings.TrimSpace(req.Name),
		Email:  normalizeEmail(req.Email),
		Active: true,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Technician, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("validate technician: %w", err)
	}

	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		t.Email = normalizeEmail(req.Email)
	}
	if req.Active != nil {
		t.Active = *req.Active
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(*email))
	if normalized == "" {
		return nil
	}
	return &normalized
}

package models

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]DeviceModel, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (DeviceModel, error) {
	if id <= 0 {
		return DeviceModel{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, m DeviceModel) (DeviceModel, error) {
	m.Code = strings.ToUpper(strings.TrimSpace(m.Code))
	m.Name = strings.TrimSpace(m.Name)
	if m.OperatingSystem == "" {
		m.OperatingSystem = OSOther
	}
	if err := s.validate(m); err != nil {
		return DeviceModel{}, err
	}
	return s.repo.Create(ctx, m)
}

func (s *Service) Update(ctx context.Context, id int64, m DeviceModel) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	m.Code = strings.ToUpper(strings.TrimSpace(m.Code))
	m.Name = strings.TrimSpace(m.Name)
	if err := s.validate(m); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, m)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

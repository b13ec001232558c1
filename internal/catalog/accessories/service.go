package accessories

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Accessory, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Accessory, error) {
	if id <= 0 {
		return Accessory{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, a Accessory) (Accessory, error) {
	if err := validate(&a); err != nil {
		return Accessory{}, err
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) Update(ctx context.Context, id int64, a Accessory) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := validate(&a); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, a)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

func validate(a *Accessory) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return fmt.Errorf("%w: accessory name", shared.ErrRequiredField)
	}
	switch a.Type {
	case AccessoryCover, AccessorySIM, AccessorySDCard, AccessorySIMTray, AccessoryCharger:
	case "":
		a.Type = AccessoryCover
	default:
		return fmt.Errorf("%w: unknown accessory type %q", shared.ErrValidation, a.Type)
	}
	return nil
}

package devices

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
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

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Device, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (*Device, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Device, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("validate device: %w", err)
	}

	d := &Device{
		Code:         newDeviceCode(),
		CustomerID:   req.CustomerID,
		ModelID:      req.ModelID,
		IMEI:         normalizeIMEI(req.IMEI),
		SerialNumber: req.SerialNumber,
		Color:        req.Color,
		PowersOn:     true,
		Condition:    ConditionGood,
		LockType:     LockNone,
		LockCode:     req.LockCode,
		Notes:        req.Notes,
		Active:       true,
		AccessoryIDs: req.AccessoryIDs,
	}
	if req.PowersOn != nil {
		d.PowersOn = *req.PowersOn
	}
	if req.Condition != "" {
		d.Condition = Condition(req.Condition)
	}
	if req.LockType != "" {
		d.LockType = LockType(req.LockType)
	}

	if err := s.check(ctx, d, 0); err != nil {
		return nil, err
	}
	if d.LockType == LockNone {
		d.LockCode = nil
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Device, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("validate device: %w", err)
	}

	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.IMEI != nil {
		d.IMEI = normalizeIMEI(req.IMEI)
	}
	if req.SerialNumber != nil {
		d.SerialNumber = req.SerialNumber
	}
	if req.Color != nil {
		d.Color = req.Color
	}
	if req.PowersOn != nil {
		d.PowersOn = *req.PowersOn
	}
	if req.Condition != nil {
		d.Condition = Condition(*req.Condition)
	}
	if req.LockType != nil {
		d.LockType = LockType(*req.LockType)
	}
	if req.LockCode != nil {
		d.LockCode = req.LockCode
	}
	if req.Notes != nil {
		d.Notes = req.Notes
	}
	if req.Active != nil {
		d.Active = *req.Active
	}
	if req.AccessoryIDs != nil {
		d.AccessoryIDs = req.AccessoryIDs
	}

	if err := s.check(ctx, d, id); err != nil {
		return nil, err
	}
	if d.LockType == LockNone {
		d.LockCode = nil
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) check(ctx context.Context, d *Device, excludeID int64) error {
	if !d.Condition.Valid() {
		return fmt.Errorf("unknown device condition %q", d.Condition)
	}
	if !d.LockType.Valid() {
		return fmt.Errorf("unknown lock type %q", d.LockType)
	}
	if err := ValidateLockCode(d.LockType, d.LockCode); err != nil {
		return err
	}
	if d.IMEI != nil {
		if err := ValidateIMEI(*d.IMEI); err != nil {
			return err
		}
		taken, err := s.repo.IMEIExists(ctx, *d.IMEI, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateIMEI
		}
	}
	return nil
}

func newDeviceCode() string {
	return "DEV-" + strings.ToUpper(uuid.NewString()[:8])
}

func normalizeIMEI(imei *string) *string {
	if imei == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*imei)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

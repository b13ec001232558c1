package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/fixflow-rms/fixflow/internal/catalog/shared"
)

func (s *Service) validate(m DeviceModel) error {
	if m.BrandID <= 0 {
		return fmt.Errorf("%w: brand", shared.ErrRequiredField)
	}
	if strings.TrimSpace(m.Code) == "" {
		return fmt.Errorf("%w: model code", shared.ErrRequiredField)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: model name", shared.ErrRequiredField)
	}
	switch m.OperatingSystem {
	case OSAndroid, OSiOS, OSOther, "":
	default:
		return fmt.Errorf("%w: unknown operating system %q", shared.ErrValidation, m.OperatingSystem)
	}
	if m.ReleaseYear != nil {
		if *m.ReleaseYear < 1990 || *m.ReleaseYear > time.Now().Year()+1 {
			return fmt.Errorf("%w: release year out of range", shared.ErrValidation)
		}
	}
	return nil
}

package faults

import (
	"fmt"
	"strings"

	"github.com/fixflow-rms/fixflow/internal/catalog/shared"
)

func (s *Service) validate(f Fault) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: fault name", shared.ErrRequiredField)
	}
	if f.CategoryID <= 0 {
		return fmt.Errorf("%w: fault category", shared.ErrRequiredField)
	}
	if f.EstimatedHours < 0 {
		return fmt.Errorf("%w: estimated hours cannot be negative", shared.ErrValidation)
	}
	if f.EstimatedCost < 0 {
		return fmt.Errorf("%w: estimated cost cannot be negative", shared.ErrValidation)
	}
	return nil
}

func (s *Service) validateCategory(c FaultCategory) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name", shared.ErrRequiredField)
	}
	return nil
}

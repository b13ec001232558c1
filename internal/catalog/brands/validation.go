package brands

import (
	"fmt"
	"strings"

	"github.com/fixflow-rms/fixflow/internal/catalog/shared"
)

func (s *Service) validate(b Brand) error {
	if strings.TrimSpace(b.Code) == "" {
		return fmt.Errorf("%w: brand code", shared.ErrRequiredField)
	}
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: brand name", shared.ErrRequiredField)
	}
	return nil
}

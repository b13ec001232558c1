package httpx

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/fixflow-rms/fixflow/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	type sample struct {
		Name string `validate:"required"`
	}
	validationErr := validator.New().Struct(sample{})

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", shared.ErrNotFound, 404},
		{"wrapped not found", fmt.Errorf("get order: %w", shared.ErrNotFound), 404},
		{"conflict", shared.ErrConflict, 409},
		{"validation", validationErr, 400},
		{"unknown", errors.New("disk on fire"), 500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "json")
		})
	}
}

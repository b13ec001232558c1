package shared

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fixflow-rms/fixflow/internal/platform/httpx"
)

// RespondError maps catalog errors to problem responses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrInUse):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidID), errors.Is(err, ErrRequiredField):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

// ParseListFilters extracts common list filters from a request.
func ParseListFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	filters := ListFilters{
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
	filters.Page = atoiDefault(q.Get("page"), DefaultPage)
	filters.Limit = atoiDefault(q.Get("limit"), DefaultLimit)
	if v := q.Get("active"); v != "" {
		active := v == "true" || v == "1"
		filters.Active = &active
	}
	return filters
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

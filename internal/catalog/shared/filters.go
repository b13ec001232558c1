package shared

// ListFilters represents standard list page filters
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
	Active  *bool

	// Entity specific filters
	BrandID    *int64
	CategoryID *int64
}

// Offset translates page/limit into a SQL offset.
func (f ListFilters) Offset() int {
	page := f.Page
	if page <= 0 {
		page = DefaultPage
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return (page - 1) * limit
}

package technicians

type CreateRequest struct {
	Name  string  `json:"name" validate:"required,min=2,max=120"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type UpdateRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=120"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Active *bool   `json:"active"`
}

type ListFilters struct {
	Page   int
	Limit  int
	Search string
	Active *bool
}

func (f ListFilters) Offset() int {
	return (f.Page - 1) * f.Limit
}

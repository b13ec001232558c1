package customers

type CreateRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=120"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,min=5,max=32"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	Notes   *string `json:"notes" validate:"omitempty,max=2000"`
}

type UpdateRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=2,max=120"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,min=5,max=32"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	Notes   *string `json:"notes" validate:"omitempty,max=2000"`
	Active  *bool   `json:"active"`
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

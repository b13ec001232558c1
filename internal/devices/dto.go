package devices

type CreateRequest struct {
	CustomerID   int64   `json:"customer_id" validate:"required,gt=0"`
	ModelID      int64   `json:"model_id" validate:"required,gt=0"`
	IMEI         *string `json:"imei"`
	SerialNumber *string `json:"serial_number" validate:"omitempty,max=64"`
	Color        *string `json:"color" validate:"omitempty,max=40"`
	PowersOn     *bool   `json:"powers_on"`
	Condition    string  `json:"condition"`
	LockType     string  `json:"lock_type"`
	LockCode     *string `json:"lock_code"`
	Notes        *string `json:"notes" validate:"omitempty,max=2000"`
	AccessoryIDs []int64 `json:"accessory_ids"`
}

type UpdateRequest struct {
	IMEI         *string `json:"imei"`
	SerialNumber *string `json:"serial_number" validate:"omitempty,max=64"`
	Color        *string `json:"color" validate:"omitempty,max=40"`
	PowersOn     *bool   `json:"powers_on"`
	Condition    *string `json:"condition"`
	LockType     *string `json:"lock_type"`
	LockCode     *string `json:"lock_code"`
	Notes        *string `json:"notes" validate:"omitempty,max=2000"`
	Active       *bool   `json:"active"`
	AccessoryIDs []int64 `json:"accessory_ids"`
}

type ListFilters struct {
	Page       int
	Limit      int
	Search     string
	CustomerID *int64
	ModelID    *int64
	Active     *bool
}

func (f ListFilters) Offset() int {
	return (f.Page - 1) * f.Limit
}

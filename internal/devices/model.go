package devices

import "time"

type Condition string

const (
	ConditionNew    Condition = "new"
	ConditionGood   Condition = "good"
	ConditionFair   Condition = "fair"
	ConditionPoor   Condition = "poor"
	ConditionBroken Condition = "broken"
)

type LockType string

const (
	LockNone     LockType = "none"
	LockPIN      LockType = "pin"
	LockPattern  LockType = "pattern"
	LockPassword LockType = "password"
)

// Device is a registered customer handset. Once repair history exists the
// device cannot be deleted, only deactivated.
type Device struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	CustomerID   int64     `json:"customer_id"`
	CustomerName string    `json:"customer_name,omitempty"`
	ModelID      int64     `json:"model_id"`
	ModelName    string    `json:"model_name,omitempty"`
	BrandName    string    `json:"brand_name,omitempty"`
	IMEI         *string   `json:"imei,omitempty"`
	SerialNumber *string   `json:"serial_number,omitempty"`
	Color        *string   `json:"color,omitempty"`
	PowersOn     bool      `json:"powers_on"`
	Condition    Condition `json:"condition"`
	LockType     LockType  `json:"lock_type"`
	LockCode     *string   `json:"lock_code,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	Active       bool      `json:"active"`
	AccessoryIDs []int64   `json:"accessory_ids"`

	RepairCount  int        `json:"repair_count"`
	LastRepairAt *time.Time `json:"last_repair_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionPoor, ConditionBroken:
		return true
	}
	return false
}

func (l LockType) Valid() bool {
	switch l {
	case LockNone, LockPIN, LockPattern, LockPassword:
		return true
	}
	return false
}

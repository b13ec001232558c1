package faults

// FaultCategory groups faults for organisation, e.g. "Screen" or "Battery".
type FaultCategory struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Sequence   int    `json:"sequence"`
	Active     bool   `json:"active"`
	FaultCount int    `json:"fault_count"`
}

// Fault is a canonical failure type with repair estimates.
type Fault struct {
	ID               int64   `json:"id"`
	CategoryID       int64   `json:"category_id"`
	CategoryName     string  `json:"category_name,omitempty"`
	Name             string  `json:"name"`
	Description      *string `json:"description,omitempty"`
	EstimatedHours   float64 `json:"estimated_hours"`
	EstimatedCost    float64 `json:"estimated_cost"`
	SolutionTemplate *string `json:"solution_template,omitempty"`
	Sequence         int     `json:"sequence"`
	Active           bool    `json:"active"`
	UsageCount       int     `json:"usage_count"`
}

package solutions

// Solution is a reusable repair procedure linked to the faults it resolves.
type Solution struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	FaultIDs       []int64 `json:"fault_ids"`
	EstimatedHours float64 `json:"estimated_hours"`
	EstimatedCost  float64 `json:"estimated_cost"`
	Notes          *string `json:"notes,omitempty"`
	Active         bool    `json:"active"`
}

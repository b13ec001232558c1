package technicians

import "time"

// Technician performs repairs. Orders reference technicians by id; the
// registry only tracks who can be assigned.
type Technician struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      *string   `json:"email,omitempty"`
	Active     bool      `json:"active"`
	ActiveLoad int       `json:"active_load"`
	CreatedAt  time.Time `json:"created_at"`
}

package brands

// Brand represents a device manufacturer, e.g. Apple or Samsung.
type Brand struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Active      bool    `json:"active"`
	ModelCount  int     `json:"model_count"`
}

package entities

// Worker is a farm hand on the roster.
type Worker struct {
	ID     string `json:"id"`
	FarmID string `json:"farm_id"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"` // e.g. "hand", "foreman"
	Active bool   `json:"active"`
}

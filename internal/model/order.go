package model

import "time"

// Order is the minimal slice of the portal's order aggregate this service
// needs: existence validation and the owning organization for access checks.
type Order struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	OrderNumber    string    `json:"order_number"`
	CreatedAt      time.Time `json:"created_at"`
}

// User identifies an editor in message edit history.
type User struct {
	ID             int64  `json:"id"`
	OrganizationID int64  `json:"organization_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
}

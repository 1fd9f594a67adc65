package model

// Roles carried by JWT claims. Staff is the manufacturer's internal role and
// bypasses every organization scope check; all other roles are restricted to
// their own organization's data.
const (
	RoleStaff  = "staff"
	RoleClient = "client"
)

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	UserID         int64  `json:"user_id"`
	OrganizationID int64  `json:"organization_id"`
	Role           string `json:"role"`
}

func (p Principal) IsStaff() bool {
	return p.Role == RoleStaff
}

package domain

// Role is the closed set of back-office roles.
type Role string

const (
	RoleAgent      Role = "agent"      // front-line agent creating transactions
	RoleCashier    Role = "cashier"    // exchange desk cashier
	RoleSupervisor Role = "supervisor" // agency supervisor, validates settlements
	RoleAuditor    Role = "auditor"    // audits transfers, may act for executors
	RoleExecutor   Role = "executor"   // pays out transfers abroad
	RoleAccountant Role = "accountant" // financial control stage of expenses
	RoleDirector   Role = "director"   // executive stage of expenses
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAgent, RoleCashier, RoleSupervisor, RoleAuditor, RoleExecutor, RoleAccountant, RoleDirector, RoleAdmin:
		return true
	}
	return false
}

// Actor is the identity and role context supplied by the caller on every operation.
type Actor struct {
	UserID string `json:"userID"`
	Role   Role   `json:"role"`
	Agency string `json:"agency"`
}

// HasRole reports whether the actor holds one of roles.
func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// StaffMember is a back-office user as seen by the engine (executor assignment).
type StaffMember struct {
	UserID   string `json:"userID"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Agency   string `json:"agency"`
	IsActive bool   `json:"isActive"`
	AuditFields
}

// Package auth defines the read-only capability the services consume.
// Token issuance and role management live in a separate system; here a
// caller is nothing more than its role and permission set.
package auth

// Permission names checked by the services.
const (
	PermShiftOpen   = "shift:open"
	PermShiftClose  = "shift:close"
	PermSaleCreate  = "sale:create"
	PermExpense     = "expense:create"
	PermDayFinalize = "day:finalize"
)

// Capability is the projection of a caller extracted from its token.
type Capability struct {
	EmployeeID  string
	Name        string
	Role        string
	Permissions []string
}

// Can reports whether the capability carries perm. The admin role
// implies everything.
func (c Capability) Can(perm string) bool {
	if c.Role == "admin" {
		return true
	}
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

package shared

// Role classifies the caller for permission checks.
type Role string

const (
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleStaff      Role = "STAFF"
	RoleCustomer   Role = "CUSTOMER"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleStaff, RoleCustomer:
		return true
	}
	return false
}

// IsAdminClass reports whether the role carries administrator privileges.
func (r Role) IsAdminClass() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// Principal identifies the authenticated caller. How the identity was
// established is the auth module's concern; everything else branches on
// role and ownership only.
type Principal struct {
	ID   int64
	Name string
	Role Role
}

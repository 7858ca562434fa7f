package enums

import "fmt"

// Role is the single ERP role attached to a user account.
type Role string

const (
	RoleAdmin             Role = "admin"
	RolePurchaseManager   Role = "purchase_manager"
	RolePurchaseUser      Role = "purchase_user"
	RoleInventoryManager  Role = "inventory_manager"
	RoleInventoryUser     Role = "inventory_user"
	RoleSalesManager      Role = "sales_manager"
	RoleSalesUser         Role = "sales_user"
	RoleProductionManager Role = "production_manager"
	RoleViewer            Role = "viewer"
)

var validRoles = []Role{
	RoleAdmin,
	RolePurchaseManager,
	RolePurchaseUser,
	RoleInventoryManager,
	RoleInventoryUser,
	RoleSalesManager,
	RoleSalesUser,
	RoleProductionManager,
	RoleViewer,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// AllRoles returns every known role in declaration order.
func AllRoles() []Role {
	out := make([]Role, len(validRoles))
	copy(out, validRoles)
	return out
}

package domain

import "strings"

// Role constants define the allowed user roles.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []string {
	return []string{RoleUser, RoleAdmin}
}

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// NormalizeRole upper-cases a role string for comparison against ValidRoles.
func NormalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}

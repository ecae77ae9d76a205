package models

import "strings"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// Valid reports whether the role is one of the supported roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is an account created from the imported dataset (or the synthetic admin).
type User struct {
	Username string   `json:"username"`
	Password string   `json:"-"`
	Role     UserRole `json:"role"`
	Name     string   `json:"name"`
	Program  string   `json:"program,omitempty"`
	Programs []string `json:"programs,omitempty"`
}

// NormalizeUsername trims and lowercases a username as typed by a user or a spreadsheet.
func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of roles a principal may hold.
type Role string

const (
	// RoleAdmin may perform any action on any resource scope.
	RoleAdmin Role = "admin"
	// RoleReporter may read and write, but only within its own facility scope.
	RoleReporter Role = "reporter"
	// RoleMonitor may read any resource scope.
	RoleMonitor Role = "monitor"
)

// ParseRole normalizes and validates a role string.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleReporter:
		return RoleReporter, nil
	case RoleMonitor:
		return RoleMonitor, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
}

// Action is a permissioned operation on a resource scope.
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
	// ActionManage covers user and facility administration. No role lists
	// it explicitly; only the admin wildcard grants it.
	ActionManage Action = "manage"
)

// Principal is the authenticated actor reconstructed from a verified token.
// FacilityID is set iff Role is RoleReporter.
type Principal struct {
	UserID     string
	Role       Role
	FacilityID string
}

// Validate checks the role/facility-scope invariant.
func (p Principal) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if _, err := ParseRole(string(p.Role)); err != nil {
		return err
	}
	if p.Role == RoleReporter && strings.TrimSpace(p.FacilityID) == "" {
		return fmt.Errorf("%w: reporter requires a facility", ErrInvalidInput)
	}
	if p.Role != RoleReporter && p.FacilityID != "" {
		return fmt.Errorf("%w: facility scope is only valid for reporters", ErrInvalidInput)
	}
	return nil
}

// User is a stored account. PasswordHash is bcrypt and never serialized.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	FacilityID   string    `json:"facility_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal derives the token-facing identity from a stored user.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Role: u.Role, FacilityID: u.FacilityID}
}

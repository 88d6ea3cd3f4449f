package model

import "time"

// User roles.  A closed set: the database stores these exact strings
// and the permission table in internal/auth is keyed by them.
const (
	RoleOperator      = "OPERATOR"      // creates and edits forms
	RoleSupervisor    = "SUPERVISOR"    // reviews forms, acknowledges alerts
	RoleAdministrator = "ADMINISTRATOR" // full control, catalogue and users
	RoleAuditor       = "AUDITOR"       // read-only access to data and reports
)

// ValidRole reports whether s names one of the closed role set.
func ValidRole(s string) bool {
	switch s {
	case RoleOperator, RoleSupervisor, RoleAdministrator, RoleAuditor:
		return true
	}
	return false
}

// User mirrors the `users` table.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name.
//  Email        – unique, stored lower-cased.
//  PasswordHash – bcrypt hash.
//  Role         – one of the role constants above.
//  IsActive     – inactive users cannot log in.
//  LastLoginAt  – set on each successful login.
type User struct {
	ID           uint64     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RefreshToken models a row in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is persisted; the raw value goes back
// to the client once and is never stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system. Token
// issuance belongs to the external identity service; this engine only
// validates and authorises.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleHRAdmin    UserRole = "HR_ADMIN"
	RoleSupervisor UserRole = "SUPERVISOR"
	RoleService    UserRole = "SERVICE"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

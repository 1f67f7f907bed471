package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin  UserRole = "SUPERADMIN"
	RoleAdmin       UserRole = "ADMIN"
	RoleSchoolAdmin UserRole = "SCHOOLADMIN"
	RoleTeacher     UserRole = "TEACHER"
)

// JWTClaims represents the JWT payload for access tokens issued by the identity service.
type JWTClaims struct {
	UserID        string   `json:"user_id"`
	Role          UserRole `json:"role"`
	Email         string   `json:"email"`
	FullName      string   `json:"full_name"`
	InstitutionID string   `json:"institution_id"`
	jwt.RegisteredClaims
}

// Actor identifies who triggered an operation.
type Actor struct {
	UserID        string
	Role          UserRole
	InstitutionID string
}

// ActorFromClaims maps token claims to an actor.
func ActorFromClaims(claims *JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, Role: claims.Role, InstitutionID: claims.InstitutionID}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

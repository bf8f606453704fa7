package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the roles this service distinguishes.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
)

// JWTClaims is the access-token payload issued by the auth service. This
// service only verifies and reads it; it never issues tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

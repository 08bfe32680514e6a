package auth

import "github.com/golang-jwt/jwt/v5"

// Claims carries the authenticated user id. Tokens are issued by the main
// CRUD service; this backend only validates them.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

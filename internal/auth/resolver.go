package auth

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// ResolveUserID extracts the acting user's id from a bearer token. The
// boolean is false for any verification failure (missing token, bad
// signature, expiry, non-numeric or zero subject); callers must treat that
// as unauthenticated, never as anonymous.
func (s *JWTService) ResolveUserID(tokenString string) (uint, bool) {
	if tokenString == "" {
		return 0, false
	}
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return 0, false
	}
	return subjectUserID(claims)
}

// CurrentUserID reads the authenticated user's id from the echo context
// populated by the JWT middleware.
func CurrentUserID(c echo.Context) (uint, bool) {
	claims, ok := c.Get("user").(*Claims)
	if !ok {
		return 0, false
	}
	return subjectUserID(claims)
}

// subjectUserID parses the subject claim as the user id.
func subjectUserID(claims *Claims) (uint, bool) {
	id, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

package management

import (
	"crypto/subtle"
	"strings"

	"github.com/google/uuid"
)

// generateAuthToken returns a standard UUID string with hyphens.
func generateAuthToken() string {
	return uuid.New().String()
}

// validToken reports whether an Authorization header carries token as a bearer token.
func validToken(header, token string) bool {
	got, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

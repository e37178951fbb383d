package middleware

import (
	"net/http"
	"strings"
)

// TokenCookie is the cookie carrying the session token.
const TokenCookie = "token"

// ExtractToken returns the token candidate of r: a well-formed
// "Authorization: Bearer <token>" header first, then the token cookie.
// The scheme must be exactly "Bearer" and the token is the first
// space-separated field after it.
func ExtractToken(r *http.Request) (string, bool) {
	if parts := strings.Split(r.Header.Get("Authorization"), " "); len(parts) > 1 && parts[0] == "Bearer" && parts[1] != "" {
		return parts[1], true
	}

	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	return "", false
}

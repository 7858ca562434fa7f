package validators

import (
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid auth token")

// BearerToken extracts the token from an Authorization header value. The
// "Bearer" scheme prefix is optional; a bare scheme with no token is rejected.
func BearerToken(raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if scheme, rest, found := strings.Cut(token, " "); strings.EqualFold(scheme, "bearer") {
		if !found {
			return "", ErrInvalidToken
		}
		token = strings.TrimSpace(rest)
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrInvalidToken
	}
	return token, nil
}

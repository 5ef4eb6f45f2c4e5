// Package notify delivers verification links.
package notify

import (
	"net/url"
	"strings"
)

// VerificationLink returns <baseURL>/users/verify/<token>.
func VerificationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/users/verify/" + url.PathEscape(token)
}

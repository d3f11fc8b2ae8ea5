package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for the GitHub client.
var (
	// ErrInvalidRunURL is returned when a URL is not a GitHub Actions run URL.
	ErrInvalidRunURL = errors.New("github: unrecognized run URL")

	// ErrNoToken is returned when no API token could be found.
	ErrNoToken = errors.New("github: no token configured")

	// ErrInvalidToken is returned when a token is malformed.
	ErrInvalidToken = errors.New("github: invalid token")

	// ErrDigestMismatch is returned when a downloaded archive does not match
	// the digest GitHub reports for the artifact.
	ErrDigestMismatch = errors.New("github: artifact digest mismatch")
)

// APIError represents a non-2xx response from the GitHub REST API.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the top-level error description from GitHub.
	Message string

	// DocumentationURL points to the relevant API documentation.
	DocumentationURL string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsNotFound reports whether err is a GitHub API 404 Not Found response.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsGone reports whether err is a GitHub API 410 Gone response, which the
// artifact download endpoint returns for expired artifacts.
func IsGone(err error) bool {
	return hasStatus(err, http.StatusGone)
}

// IsUnauthorized reports whether err is a GitHub API 401 response.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsRateLimited reports whether err is a GitHub API rate limit response.
// GitHub returns 403 when the primary rate limit is exceeded and 429
// for secondary rate limits.
func IsRateLimited(err error) bool {
	var apiError *APIError
	if !errors.As(err, &apiError) {
		return false
	}
	return apiError.StatusCode == http.StatusTooManyRequests ||
		(apiError.StatusCode == http.StatusForbidden && isRateLimitMessage(apiError.Message))
}

func hasStatus(err error, status int) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == status
}

// isRateLimitMessage checks whether a 403 message indicates a rate limit
// rather than a permission issue.
func isRateLimitMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "abuse detection")
}

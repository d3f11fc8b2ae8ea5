package github

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jdx/go-netrc"
)

// netrcMachine is the ~/.netrc machine entry consulted for a token.
const netrcMachine = "api.github.com"

// tokenPrefixes are the prefixes of the GitHub token formats.
var tokenPrefixes = []string{"ghp_", "gho_", "ghu_", "ghs_", "ghr_", "github_pat_"}

// TokenSource reads environment variables. os.Getenv satisfies it.
type TokenSource func(key string) string

// ResolveToken returns the first configured API token. The explicit value
// wins, then GITHUB_TOKEN, then GH_TOKEN, then the password of the
// api.github.com entry in netrcPath. An empty netrcPath means ~/.netrc.
// Returns ErrNoToken when nothing is configured.
func ResolveToken(explicit string, env TokenSource, netrcPath string) (string, error) {
	if explicit != "" {
		return explicit, ValidateToken(explicit)
	}
	if env == nil {
		env = os.Getenv
	}
	for _, key := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := env(key); token != "" {
			return token, ValidateToken(token)
		}
	}

	if netrcPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", ErrNoToken
		}
		netrcPath = filepath.Join(home, ".netrc")
	}
	if _, err := os.Stat(netrcPath); err != nil {
		return "", ErrNoToken
	}
	rc, err := netrc.Parse(netrcPath)
	if err != nil {
		return "", fmt.Errorf("github: reading %s: %w", netrcPath, err)
	}
	machine := rc.Machine(netrcMachine)
	if machine == nil || machine.Get("password") == "" {
		return "", fmt.Errorf("%w: no password for %s in %s", ErrNoToken, netrcMachine, netrcPath)
	}
	token := machine.Get("password")
	return token, ValidateToken(token)
}

// ValidateToken checks that token has the shape of a GitHub API token: a
// known prefix or a 40-character hex legacy token.
func ValidateToken(token string) error {
	if token == "" {
		return ErrNoToken
	}
	if strings.ContainsFunc(token, func(r rune) bool { return r <= ' ' || r == 0x7f }) {
		return fmt.Errorf("%w: contains whitespace or control characters", ErrInvalidToken)
	}
	for _, prefix := range tokenPrefixes {
		if strings.HasPrefix(token, prefix) && len(token) > len(prefix) {
			return nil
		}
	}
	if isLegacyToken(token) {
		return nil
	}
	return fmt.Errorf("%w: unrecognized token format", ErrInvalidToken)
}

func isLegacyToken(token string) bool {
	if len(token) != 40 {
		return false
	}
	for _, r := range token {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'f') {
			return false
		}
	}
	return true
}

package runprov

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/meigma/runprov/cache"
	"github.com/meigma/runprov/cache/disk"
	"github.com/meigma/runprov/github"
	"github.com/meigma/runprov/registry"
)

// Option configures a Client.
type Option func(*Client) error

// DefaultArchiveCacheSize is the on-disk size limit used by WithCacheDir.
const DefaultArchiveCacheSize int64 = 1 << 30 // 1 GB

// --- GitHub Options ---

// WithToken sets the GitHub API token, taking precedence over the
// environment and ~/.netrc.
func WithToken(token string) Option {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

// WithAPIURL overrides the GitHub REST API root, e.g. for a GitHub
// Enterprise Server at a non-standard location.
func WithAPIURL(url string) Option {
	return func(c *Client) error {
		c.apiURL = url
		return nil
	}
}

// WithAllowHTTP permits a plain HTTP API URL. Intended for tests.
func WithAllowHTTP(enabled bool) Option {
	return func(c *Client) error {
		c.allowHTTP = enabled
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for GitHub API requests.
// Defaults to a client that retries transient failures.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = client
		return nil
	}
}

// WithTokenSource sets the environment lookup used to find GITHUB_TOKEN and
// GH_TOKEN, and the netrc file consulted after it. An empty netrcPath means
// ~/.netrc.
func WithTokenSource(env github.TokenSource, netrcPath string) Option {
	return func(c *Client) error {
		c.tokenEnv = env
		c.netrcPath = netrcPath
		return nil
	}
}

// --- Assembly Options ---

// WithWorkers sets how many artifacts are processed concurrently.
func WithWorkers(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			return errors.New("workers must be at least 1")
		}
		c.workers = n
		return nil
	}
}

// WithMaxEntrySize limits the uncompressed size of any single archive entry.
// Zero means no limit.
func WithMaxEntrySize(n uint64) Option {
	return func(c *Client) error {
		c.maxEntrySize = n
		return nil
	}
}

// --- Caching Options ---

// WithCacheDir caches downloaded artifact archives on disk under dir,
// keyed by the digest GitHub advertises for each archive.
func WithCacheDir(dir string) Option {
	return func(c *Client) error {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
		archiveCache, err := disk.New(dir, disk.WithMaxBytes(DefaultArchiveCacheSize))
		if err != nil {
			return err
		}
		c.archiveCache = archiveCache
		return nil
	}
}

// WithCache sets a custom archive cache.
func WithCache(archiveCache cache.Cache) Option {
	return func(c *Client) error {
		c.archiveCache = archiveCache
		return nil
	}
}

// --- Registry Options ---

// WithDockerConfig reads registry credentials from ~/.docker/config.json.
func WithDockerConfig() Option {
	return func(c *Client) error {
		c.registryOpts = append(c.registryOpts, registry.WithDockerConfig())
		return nil
	}
}

// WithStaticCredentials sets static username/password credentials for a registry.
// The registry parameter should be the registry host (e.g., "ghcr.io").
func WithStaticCredentials(host, username, password string) Option {
	return func(c *Client) error {
		c.registryOpts = append(c.registryOpts, registry.WithStaticCredentials(host, username, password))
		return nil
	}
}

// WithAnonymous forces anonymous registry access.
func WithAnonymous() Option {
	return func(c *Client) error {
		c.registryOpts = append(c.registryOpts, registry.WithAnonymous())
		return nil
	}
}

// WithPlainHTTP enables plain HTTP (no TLS) for registries.
func WithPlainHTTP(enabled bool) Option {
	return func(c *Client) error {
		c.registryOpts = append(c.registryOpts, registry.WithPlainHTTP(enabled))
		return nil
	}
}

// WithOCIClient sets a custom OCI client for Push.
func WithOCIClient(oci registry.OCIClient) Option {
	return func(c *Client) error {
		c.registryOpts = append(c.registryOpts, registry.WithOCIClient(oci))
		return nil
	}
}

// --- Observability ---

// WithLogger sets the logger for client operations.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

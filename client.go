package runprov

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/meigma/runprov/cache"
	provcore "github.com/meigma/runprov/core"
	"github.com/meigma/runprov/github"
	"github.com/meigma/runprov/registry"
)

// Client generates and publishes provenance for GitHub Actions runs.
type Client struct {
	// GitHub access
	token      string
	apiURL     string
	allowHTTP  bool
	httpClient *http.Client
	tokenEnv   github.TokenSource
	netrcPath  string

	// Assembly
	archiveCache cache.Cache
	workers      int
	maxEntrySize uint64

	// registryOpts are options for the registry client used by Push.
	registryOpts []registry.Option

	logger *slog.Logger

	// fetchers holds one fetcher per run so concurrent Generate calls for
	// the same run share artifact downloads.
	mu       sync.Mutex
	fetchers map[fetcherKey]*github.Fetcher
}

// fetcherKey identifies a run together with the API endpoint and token
// used to reach it.
type fetcherKey struct {
	ref     github.RunRef
	baseURL string
	token   string
}

// NewClient creates a new provenance client with the given options.
//
// The GitHub token is resolved lazily on each Generate call, so a client
// can be constructed before credentials are available.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		workers:  provcore.DefaultWorkers,
		logger:   slog.New(slog.DiscardHandler),
		fetchers: make(map[fetcherKey]*github.Fetcher),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Generate produces the provenance statement for the workflow run at runURL.
//
// runURL has the form https://github.com/<owner>/<repo>/actions/runs/<id>.
// Hosts other than github.com are treated as GitHub Enterprise Server unless
// WithAPIURL overrides the API location.
func (c *Client) Generate(ctx context.Context, runURL string) (*Statement, error) {
	ref, err := github.ParseRunURL(runURL)
	if err != nil {
		return nil, err
	}
	fetcher, err := c.fetcher(ref)
	if err != nil {
		return nil, err
	}

	c.logger.Info("generating provenance",
		slog.String("repository", ref.Owner+"/"+ref.Repo),
		slog.Int64("run_id", ref.RunID))

	return provcore.Assemble(ctx, ref.RunID, fetcher, fetcher,
		provcore.WithLogger(c.logger),
		provcore.WithWorkers(c.workers),
		provcore.WithMaxEntrySize(c.maxEntrySize),
	)
}

// fetcher returns the GitHub fetcher for the run, creating it on first use.
func (c *Client) fetcher(ref github.RunRef) (*github.Fetcher, error) {
	token, err := github.ResolveToken(c.token, c.tokenEnv, c.netrcPath)
	if err != nil {
		return nil, err
	}

	baseURL := c.apiURL
	if baseURL == "" {
		baseURL = ref.APIBaseURL()
	}
	key := fetcherKey{ref: ref, baseURL: baseURL, token: token}

	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.fetchers[key]; ok {
		return f, nil
	}

	gh, err := github.NewClient(github.Config{
		Owner:      ref.Owner,
		Repo:       ref.Repo,
		Token:      token,
		BaseURL:    baseURL,
		AllowHTTP:  c.allowHTTP,
		HTTPClient: c.httpClient,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create github client: %w", err)
	}

	var fetcherOpts []github.FetcherOption
	if c.archiveCache != nil {
		fetcherOpts = append(fetcherOpts, github.WithCache(c.archiveCache))
	}
	f := github.NewFetcher(gh, fetcherOpts...)
	c.fetchers[key] = f
	return f, nil
}

package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"oras.land/oras-go/v2/registry/remote/retry"
)

// apiVersion is the GitHub REST API version header.
const apiVersion = "2022-11-28"

// DefaultBaseURL is the base URL for the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

// defaultUserAgent is sent when Config.UserAgent is empty.
const defaultUserAgent = "runprov/1.0"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Config holds configuration for creating a Client.
//
// The client is bound to a single repository; every request is made on
// behalf of Owner/Repo.
type Config struct {
	// Owner is the repository owner (user or organization). Required.
	Owner string

	// Repo is the repository name. Required.
	Repo string

	// Token is a personal access token, fine-grained token, or Actions
	// token. Required.
	Token string

	// BaseURL is the root URL for API requests. Defaults to
	// "https://api.github.com". Must use HTTPS unless AllowHTTP is set.
	BaseURL string

	// AllowHTTP permits a plain HTTP BaseURL. Intended for tests.
	AllowHTTP bool

	// HTTPClient is used for all requests. Defaults to a client that retries
	// transient failures (5xx, 429, 408, network timeouts) with backoff.
	HTTPClient *http.Client

	// UserAgent is sent with every request. Defaults to "runprov/1.0".
	UserAgent string

	// Logger is used for structured logging. Defaults to a discard logger.
	Logger *slog.Logger
}

// Client is a typed GitHub Actions REST API client bound to one repository.
type Client struct {
	owner      string
	repo       string
	token      string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client from the given configuration.
func NewClient(config Config) (*Client, error) {
	if config.Owner == "" || config.Repo == "" {
		return nil, fmt.Errorf("github: owner and repo are required (got %q/%q)", config.Owner, config.Repo)
	}
	if err := ValidateToken(config.Token); err != nil {
		return nil, err
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(baseURL, "https://") && !(config.AllowHTTP && strings.HasPrefix(baseURL, "http://")) {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = retry.DefaultClient
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		owner:      config.Owner,
		repo:       config.Repo,
		token:      config.Token,
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Repository returns the "owner/repo" the client is bound to.
func (client *Client) Repository() string {
	return client.owner + "/" + client.repo
}

// repoPath returns an API path under the bound repository.
func (client *Client) repoPath(format string, args ...any) string {
	return fmt.Sprintf("/repos/%s/%s", client.owner, client.repo) + fmt.Sprintf(format, args...)
}

// doRaw executes an authenticated GET request against url and returns the
// raw response. Non-2xx responses are converted to *APIError and the body
// is closed. The caller closes the body of a successful response.
func (client *Client) doRaw(ctx context.Context, url string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("github: creating request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+client.token)
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", apiVersion)
	request.Header.Set("User-Agent", client.userAgent)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("github: GET %s: %w", url, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer response.Body.Close()
		apiError := parseAPIError(response)
		client.logger.Debug("github request failed",
			slog.String("url", url),
			slog.Int("status", response.StatusCode),
			slog.String("message", apiError.Message))
		return nil, apiError
	}
	return response, nil
}

// get decodes the JSON response of a GET request into result. The path is
// relative to the base URL.
func (client *Client) get(ctx context.Context, path string, result any) error {
	response, err := client.doRaw(ctx, client.baseURL+path)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if err := json.NewDecoder(response.Body).Decode(result); err != nil {
		return fmt.Errorf("github: decoding %s: %w", path, err)
	}
	return nil
}

// parseAPIError reads a GitHub API error from a response.
func parseAPIError(response *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
	apiError := &APIError{StatusCode: response.StatusCode}

	var wireError struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Message != "" {
		apiError.Message = wireError.Message
		apiError.DocumentationURL = wireError.DocumentationURL
	} else if len(body) > 0 {
		apiError.Message = string(body)
	} else {
		apiError.Message = http.StatusText(response.StatusCode)
	}
	return apiError
}

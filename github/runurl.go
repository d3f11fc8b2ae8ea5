package github

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// RunRef identifies a workflow run parsed from its web URL.
type RunRef struct {
	// Host is the web host, e.g. "github.com".
	Host  string
	Owner string
	Repo  string
	RunID int64
}

// String returns the canonical web URL of the run.
func (ref RunRef) String() string {
	return fmt.Sprintf("https://%s/%s/%s/actions/runs/%d", ref.Host, ref.Owner, ref.Repo, ref.RunID)
}

// ParseRunURL parses a workflow run web URL of the form
//
//	https://github.com/<owner>/<repo>/actions/runs/<run-id>
//
// A trailing slash, query string, and fragment are ignored.
func ParseRunURL(raw string) (RunRef, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return RunRef{}, fmt.Errorf("%w: %q: %w", ErrInvalidRunURL, raw, err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" || parsed.Host == "" {
		return RunRef{}, fmt.Errorf("%w: %q: missing scheme or host", ErrInvalidRunURL, raw)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) != 5 || segments[2] != "actions" || segments[3] != "runs" ||
		segments[0] == "" || segments[1] == "" {
		return RunRef{}, fmt.Errorf("%w: %q: expected /<owner>/<repo>/actions/runs/<id>", ErrInvalidRunURL, raw)
	}

	runID, err := strconv.ParseInt(segments[4], 10, 64)
	if err != nil || runID <= 0 {
		return RunRef{}, fmt.Errorf("%w: %q: bad run id %q", ErrInvalidRunURL, raw, segments[4])
	}

	return RunRef{
		Host:  parsed.Host,
		Owner: segments[0],
		Repo:  segments[1],
		RunID: runID,
	}, nil
}

// APIBaseURL returns the REST API root for the run's host. github.com maps
// to api.github.com; any other host is treated as GitHub Enterprise Server.
func (ref RunRef) APIBaseURL() string {
	if ref.Host == "github.com" {
		return DefaultBaseURL
	}
	return "https://" + ref.Host + "/api/v3"
}

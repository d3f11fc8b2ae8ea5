package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
)

// FakeArtifact is one artifact served by FakeGitHub.
type FakeArtifact struct {
	ID      int64
	Name    string
	Expired bool
	Archive []byte

	// AdvertiseDigest reports the archive digest in the artifact listing.
	AdvertiseDigest bool
}

// FakeGitHub serves the subset of the GitHub Actions REST API used to
// generate provenance for a single run of Owner/Repo.
type FakeGitHub struct {
	Owner        string
	Repo         string
	RunID        int64
	WorkflowID   int64
	WorkflowPath string
	Event        string
	HeadSHA      string
	HeadBranch   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Artifacts    []FakeArtifact

	// PageSize splits the artifact listing into pages. Zero serves one page.
	PageSize int

	// Token, when set, is required as the bearer token of every request.
	Token string

	downloads atomic.Int64
	server    *httptest.Server
}

// NewFakeGitHub returns a FakeGitHub for run 42 of octo/repo with the given
// artifacts.
func NewFakeGitHub(artifacts ...FakeArtifact) *FakeGitHub {
	return &FakeGitHub{
		Owner:        "octo",
		Repo:         "repo",
		RunID:        42,
		WorkflowID:   7,
		WorkflowPath: ".github/workflows/build.yml",
		Event:        "push",
		HeadSHA:      "0123456789abcdef0123456789abcdef01234567",
		HeadBranch:   "main",
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:    time.Date(2024, 1, 2, 3, 14, 5, 0, time.UTC),
		Artifacts:    artifacts,
	}
}

// Start serves the fake API until the test ends and returns the server.
func (f *FakeGitHub) Start(tb testing.TB) *httptest.Server {
	tb.Helper()

	repoPath := fmt.Sprintf("/repos/%s/%s", f.Owner, f.Repo)
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+repoPath+"/actions/runs/{run}", f.handleRun)
	mux.HandleFunc("GET "+repoPath+"/actions/workflows/{workflow}", f.handleWorkflow)
	mux.HandleFunc("GET "+repoPath+"/actions/runs/{run}/artifacts", f.handleArtifacts)
	mux.HandleFunc("GET "+repoPath+"/actions/artifacts/{artifact}/zip", f.handleDownload)

	f.server = httptest.NewServer(f.authorize(mux))
	tb.Cleanup(f.server.Close)
	return f.server
}

// RunURL returns the web URL of the fake run.
func (f *FakeGitHub) RunURL() string {
	return fmt.Sprintf("https://github.com/%s/%s/actions/runs/%d", f.Owner, f.Repo, f.RunID)
}

// RepositoryURL returns the web URL of the fake repository.
func (f *FakeGitHub) RepositoryURL() string {
	return fmt.Sprintf("https://github.com/%s/%s", f.Owner, f.Repo)
}

// Downloads returns the number of archive downloads served.
func (f *FakeGitHub) Downloads() int64 {
	return f.downloads.Load()
}

func (f *FakeGitHub) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.Token != "" && r.Header.Get("Authorization") != "Bearer "+f.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeGitHub) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("run") != strconv.FormatInt(f.RunID, 10) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          f.RunID,
		"workflow_id": f.WorkflowID,
		"html_url":    f.RunURL(),
		"event":       f.Event,
		"head_sha":    f.HeadSHA,
		"head_branch": f.HeadBranch,
		"created_at":  f.CreatedAt,
		"updated_at":  f.UpdatedAt,
		"repository": map[string]any{
			"full_name": f.Owner + "/" + f.Repo,
			"html_url":  f.RepositoryURL(),
		},
	})
}

func (f *FakeGitHub) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("workflow") != strconv.FormatInt(f.WorkflowID, 10) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": f.WorkflowID, "path": f.WorkflowPath})
}

func (f *FakeGitHub) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	items := f.Artifacts
	if f.PageSize > 0 {
		start := min((page-1)*f.PageSize, len(items))
		end := min(start+f.PageSize, len(items))
		if end < len(items) {
			next := fmt.Sprintf("%s%s?per_page=%d&page=%d", f.server.URL, r.URL.Path, f.PageSize, page+1)
			w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
		}
		items = items[start:end]
	}

	listed := make([]map[string]any, 0, len(items))
	for _, artifact := range items {
		entry := map[string]any{
			"id":            artifact.ID,
			"name":          artifact.Name,
			"size_in_bytes": len(artifact.Archive),
			"expired":       artifact.Expired,
			"expires_at":    f.UpdatedAt.Add(90 * 24 * time.Hour),
		}
		if artifact.AdvertiseDigest {
			entry["digest"] = digest.FromBytes(artifact.Archive).String()
		}
		listed = append(listed, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"total_count": len(f.Artifacts), "artifacts": listed})
}

func (f *FakeGitHub) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("artifact"), 10, 64)
	for _, artifact := range f.Artifacts {
		if artifact.ID != id {
			continue
		}
		if artifact.Expired {
			writeJSON(w, http.StatusGone, map[string]string{"message": "Artifact has expired"})
			return
		}
		f.downloads.Add(1)
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(artifact.Archive)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

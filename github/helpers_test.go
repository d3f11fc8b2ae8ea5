package github

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const testToken = "ghp_testtoken"

// newTestServer starts an httptest server routing requests through mux.
func newTestServer(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// newTestClient creates a Client for octo/repo backed by server. The server's
// own HTTP client is used so tests do not retry failed responses.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(Config{
		Owner:      "octo",
		Repo:       "repo",
		Token:      testToken,
		BaseURL:    server.URL,
		AllowHTTP:  true,
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, value any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(value))
}

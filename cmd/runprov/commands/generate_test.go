package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/runprov"
	"github.com/meigma/runprov/cmd/runprov/internal/clierr"
	"github.com/meigma/runprov/internal/testutil"
	"github.com/meigma/runprov/registry"
)

const testToken = "ghp_clitesttoken"

// fakeRun serves a run with one artifact holding two files.
func fakeRun(t *testing.T) (*testutil.FakeGitHub, *httptest.Server) {
	t.Helper()
	gh := testutil.NewFakeGitHub(testutil.FakeArtifact{
		ID:   1,
		Name: "dist",
		Archive: testutil.BuildZip(t,
			testutil.File("bin/tool", "tool binary"),
			testutil.File("README.md", "readme"),
		),
	})
	gh.Token = testToken
	return gh, gh.Start(t)
}

// execute runs the CLI against the fake API and returns stdout and stderr.
func execute(t *testing.T, srv *httptest.Server, extra []runprov.Option, args ...string) (string, string, error) {
	t.Helper()

	config := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(config, nil, 0o600))

	opts := []runprov.Option{
		runprov.WithAPIURL(srv.URL),
		runprov.WithAllowHTTP(true),
		runprov.WithHTTPClient(srv.Client()),
		runprov.WithTokenSource(func(string) string { return "" }, filepath.Join(t.TempDir(), "netrc")),
	}
	cmd := NewRootCmd(append(opts, extra...)...)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if !slices.Contains(args, "--config") {
		args = append(args, "--config", config)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func subjectNames(t *testing.T, doc []byte) []string {
	t.Helper()
	var stmt runprov.Statement
	require.NoError(t, json.Unmarshal(doc, &stmt))
	names := make([]string, 0, len(stmt.Subject))
	for _, s := range stmt.Subject {
		names = append(names, s.Name)
	}
	return names
}

func TestGenerate_Stdout(t *testing.T) {
	t.Parallel()

	gh, srv := fakeRun(t)
	stdout, _, err := execute(t, srv, nil, "generate", gh.RunURL(), "--token", testToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"dist/README.md", "dist/bin/tool"}, subjectNames(t, []byte(stdout)))
}

func TestGenerate_OutputFileEnvelope(t *testing.T) {
	t.Parallel()

	gh, srv := fakeRun(t)
	out := filepath.Join(t.TempDir(), "provenance.json")
	stdout, _, err := execute(t, srv, nil, "generate", gh.RunURL(),
		"--token", testToken, "--format", "envelope", "-o", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var env struct {
		PayloadType string `json:"payloadType"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "application/vnd.in-toto+json", env.PayloadType)
}

func TestGenerate_ConfigFile(t *testing.T) {
	t.Parallel()

	gh, srv := fakeRun(t)
	config := filepath.Join(t.TempDir(), "runprov.yaml")
	require.NoError(t, os.WriteFile(config, []byte("format: envelope\ntoken: "+testToken+"\n"), 0o600))

	stdout, _, err := execute(t, srv, nil, "generate", gh.RunURL(), "--config", config)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"payloadType"`)
}

func TestGenerate_VerboseLogs(t *testing.T) {
	t.Parallel()

	gh, srv := fakeRun(t)
	_, stderr, err := execute(t, srv, nil, "generate", gh.RunURL(), "--token", testToken, "-v")
	require.NoError(t, err)
	assert.Contains(t, stderr, "generating provenance")
}

func TestGenerate_ExitCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		artifacts []testutil.FakeArtifact
		args      func(gh *testutil.FakeGitHub) []string
		want      int
	}{
		{
			name: "missing run url",
			args: func(*testutil.FakeGitHub) []string { return []string{"generate"} },
			want: clierr.ExitUsage,
		},
		{
			name: "unknown flag",
			args: func(gh *testutil.FakeGitHub) []string { return []string{"generate", gh.RunURL(), "--bogus"} },
			want: clierr.ExitUsage,
		},
		{
			name: "unrecognized url",
			args: func(*testutil.FakeGitHub) []string {
				return []string{"generate", "https://github.com/octo/repo/pull/1", "--token", testToken}
			},
			want: clierr.ExitUsage,
		},
		{
			name: "unknown format",
			args: func(gh *testutil.FakeGitHub) []string {
				return []string{"generate", gh.RunURL(), "--token", testToken, "--format", "yaml"}
			},
			want: clierr.ExitUsage,
		},
		{
			name: "invalid workers",
			args: func(gh *testutil.FakeGitHub) []string {
				return []string{"generate", gh.RunURL(), "--token", testToken, "--workers", "0"}
			},
			want: clierr.ExitUsage,
		},
		{
			name: "malformed token",
			args: func(gh *testutil.FakeGitHub) []string {
				return []string{"generate", gh.RunURL(), "--token", "not a token"}
			},
			want: clierr.ExitUsage,
		},
		{
			name: "tag without push",
			args: func(gh *testutil.FakeGitHub) []string {
				return []string{"generate", gh.RunURL(), "--token", testToken, "--tag", "latest"}
			},
			want: clierr.ExitUsage,
		},
		{
			name: "no artifacts",
			args: func(gh *testutil.FakeGitHub) []string {
				return []string{"generate", gh.RunURL(), "--token", testToken}
			},
			want: clierr.ExitNoSubject,
		},
		{
			name: "unknown run",
			args: func(*testutil.FakeGitHub) []string {
				return []string{"generate", "https://github.com/octo/repo/actions/runs/999", "--token", testToken}
			},
			want: clierr.ExitFetch,
		},
		{
			name:      "corrupt archive",
			artifacts: []testutil.FakeArtifact{{ID: 1, Name: "dist", Archive: []byte("not a zip")}},
			args: func(gh *testutil.FakeGitHub) []string {
				return []string{"generate", gh.RunURL(), "--token", testToken}
			},
			want: clierr.ExitArchive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gh := testutil.NewFakeGitHub(tt.artifacts...)
			gh.Token = testToken
			srv := gh.Start(t)

			stdout, _, err := execute(t, srv, nil, tt.args(gh)...)
			require.Error(t, err)
			assert.Equal(t, tt.want, clierr.ExitCodeOf(err))
			assert.Empty(t, stdout)
		})
	}
}

// recordingOCIClient keeps pushed manifests in memory.
type recordingOCIClient struct {
	mu        sync.Mutex
	manifests []ocispec.Manifest
	tags      []string
}

func (r *recordingOCIClient) PushBlob(_ context.Context, _ string, _ *ocispec.Descriptor, rd io.Reader) error {
	_, err := io.Copy(io.Discard, rd)
	return err
}

func (r *recordingOCIClient) PushManifest(_ context.Context, _, tag string, manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifests = append(r.manifests, *manifest)
	r.tags = append(r.tags, tag)
	return ocispec.Descriptor{MediaType: ocispec.MediaTypeImageManifest, Digest: digest.FromString(tag)}, nil
}

func (r *recordingOCIClient) PushManifestByDigest(_ context.Context, _ string, manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifests = append(r.manifests, *manifest)
	return ocispec.Descriptor{MediaType: ocispec.MediaTypeImageManifest, Digest: digest.FromString("referrer")}, nil
}

func (r *recordingOCIClient) Resolve(context.Context, string, string) (ocispec.Descriptor, error) {
	return ocispec.Descriptor{MediaType: ocispec.MediaTypeImageManifest, Digest: digest.FromString("image"), Size: 100}, nil
}

func (r *recordingOCIClient) Tag(_ context.Context, _ string, _ *ocispec.Descriptor, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = append(r.tags, tag)
	return nil
}

func TestGenerate_PushAndAttach(t *testing.T) {
	t.Parallel()

	gh, srv := fakeRun(t)
	oci := &recordingOCIClient{}
	_, stderr, err := execute(t, srv, []runprov.Option{runprov.WithOCIClient(oci)},
		"generate", gh.RunURL(), "--token", testToken,
		"--push", "registry.example.com/octo/attestations:run-42", "--tag", "latest",
		"--attach", "registry.example.com/octo/app:v1")
	require.NoError(t, err)

	require.Len(t, oci.manifests, 2)
	assert.Equal(t, []string{"run-42", "latest"}, oci.tags)
	assert.Equal(t, registry.MediaTypeInTotoStatement, oci.manifests[0].ArtifactType)
	assert.Nil(t, oci.manifests[0].Subject)
	require.NotNil(t, oci.manifests[1].Subject)
	assert.Equal(t, digest.FromString("image"), oci.manifests[1].Subject.Digest)

	assert.Contains(t, stderr, "pushed registry.example.com/octo/attestations:run-42")
	assert.Contains(t, stderr, "attached to registry.example.com/octo/app:v1")
}

func TestVersion(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"version", "--config", filepath.Join(t.TempDir(), "none.yaml")})
	// The explicit config file is missing, which is a usage error.
	err := cmd.Execute()
	assert.Equal(t, clierr.ExitUsage, clierr.ExitCodeOf(err))

	cmd = NewRootCmd()
	stdout.Reset()
	cmd.SetOut(&stdout)
	empty := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	cmd.SetArgs([]string{"version", "--config", empty})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "runprov version "+Version+"\n", stdout.String())
}

// unreachableOCIClient fails every upload.
type unreachableOCIClient struct {
	recordingOCIClient
}

func (*unreachableOCIClient) PushBlob(context.Context, string, *ocispec.Descriptor, io.Reader) error {
	return errors.New("connection refused")
}

func TestGenerate_PushFailure(t *testing.T) {
	t.Parallel()

	gh, srv := fakeRun(t)
	stdout, _, err := execute(t, srv, []runprov.Option{runprov.WithOCIClient(&unreachableOCIClient{})},
		"generate", gh.RunURL(), "--token", testToken,
		"--push", "registry.example.com/octo/attestations:run-42")
	require.Error(t, err)
	assert.Equal(t, clierr.ExitGeneric, clierr.ExitCodeOf(err))
	assert.Contains(t, err.Error(), "push registry.example.com/octo/attestations:run-42")
	assert.Contains(t, err.Error(), "connection refused")
	// The document is written before publishing.
	assert.Contains(t, stdout, `"_type"`)
}

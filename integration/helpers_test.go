//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/registry/remote"

	"github.com/meigma/runprov"
	"github.com/meigma/runprov/internal/testutil"
)

// --- Registry Container Setup ---

var (
	registryOnce sync.Once
	registryAddr string
	registryErr  error
)

// getRegistry returns the shared registry address, starting the container if needed.
// The container is shared across all tests for performance.
func getRegistry(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	registryOnce.Do(func() {
		registryAddr, registryErr = startRegistryContainer(context.Background())
	})

	if registryErr != nil {
		tb.Fatalf("start registry container: %v", registryErr)
	}

	return registryAddr
}

// startRegistryContainer starts a registry:2 container and returns the host:port address.
func startRegistryContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "registry:2",
		ExposedPorts: []string{"5000/tcp"},
		WaitingFor:   wait.ForHTTP("/v2/").WithPort("5000/tcp").WithStatusCodeMatcher(isOKStatus),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start registry container: %w", err)
	}

	// Cleanup is handled by the testcontainers reaper.

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve registry host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5000/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve registry port: %w", err)
	}

	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func isOKStatus(status int) bool {
	return status >= 200 && status < 300
}

// --- Test Client Factory ---

const testToken = "ghp_integrationtoken"

// newFakeRun serves a run with a release artifact and a checksum artifact.
func newFakeRun(tb testing.TB) (*testutil.FakeGitHub, *httptest.Server) {
	tb.Helper()

	gh := testutil.NewFakeGitHub(
		testutil.FakeArtifact{
			ID:   1,
			Name: "release",
			Archive: testutil.BuildZip(tb,
				testutil.Dir("bin/"),
				testutil.File("bin/app", "app binary"),
				testutil.File("LICENSE", "license text"),
			),
			AdvertiseDigest: true,
		},
		testutil.FakeArtifact{
			ID:      2,
			Name:    "checksums",
			Archive: testutil.BuildZip(tb, testutil.File("SHA256SUMS", "sums")),
		},
	)
	gh.Token = testToken
	return gh, gh.Start(tb)
}

// newTestClient creates a client bound to the fake GitHub API and the local
// test registry.
func newTestClient(tb testing.TB, srv *httptest.Server, opts ...runprov.Option) *runprov.Client {
	tb.Helper()

	allOpts := append([]runprov.Option{
		runprov.WithToken(testToken),
		runprov.WithAPIURL(srv.URL),
		runprov.WithAllowHTTP(true),
		runprov.WithHTTPClient(srv.Client()),
		runprov.WithPlainHTTP(true),
		runprov.WithAnonymous(),
	}, opts...)

	client, err := runprov.NewClient(allOpts...)
	require.NoError(tb, err, "create test client")

	return client
}

// --- Test Reference Helpers ---

// testRepo generates a unique repository for a test to avoid collisions.
func testRepo(registryAddr, testName string) string {
	return fmt.Sprintf("%s/test/%s", registryAddr, testName)
}

// --- Registry Readers ---

// openRepository opens repo on the local test registry.
func openRepository(tb testing.TB, repo string) *remote.Repository {
	tb.Helper()

	r, err := remote.NewRepository(repo)
	require.NoError(tb, err)
	r.PlainHTTP = true
	return r
}

// fetchManifest resolves ref in repo and decodes its manifest.
func fetchManifest(tb testing.TB, repo *remote.Repository, ref string) (ocispec.Descriptor, ocispec.Manifest) {
	tb.Helper()

	ctx := context.Background()
	desc, err := repo.Resolve(ctx, ref)
	require.NoError(tb, err, "resolve %s", ref)
	return desc, decodeManifest(tb, repo, desc)
}

func decodeManifest(tb testing.TB, repo *remote.Repository, desc ocispec.Descriptor) ocispec.Manifest {
	tb.Helper()

	data, err := content.FetchAll(context.Background(), repo, desc)
	require.NoError(tb, err, "fetch manifest %s", desc.Digest)

	var manifest ocispec.Manifest
	require.NoError(tb, json.Unmarshal(data, &manifest))
	return manifest
}

// fetchLayer returns the content of the manifest's single layer.
func fetchLayer(tb testing.TB, repo *remote.Repository, manifest ocispec.Manifest) []byte {
	tb.Helper()

	require.Len(tb, manifest.Layers, 1)
	data, err := content.FetchAll(context.Background(), repo.Blobs(), manifest.Layers[0])
	require.NoError(tb, err, "fetch layer")
	return data
}

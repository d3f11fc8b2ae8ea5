package registry

import (
	"context"
	"errors"
	"io"
	"sync"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

var errNotImplemented = errors.New("not implemented in mock")

// mockOCIClient records pushed blobs and manifests. Unset funcs fall back to
// recording and succeeding for pushes and to errNotImplemented otherwise.
type mockOCIClient struct {
	ResolveFunc      func(ctx context.Context, repoRef, ref string) (ocispec.Descriptor, error)
	PushBlobFunc     func(ctx context.Context, repoRef string, desc *ocispec.Descriptor, r io.Reader) error
	PushManifestFunc func(ctx context.Context, repoRef, tag string, manifest *ocispec.Manifest) (ocispec.Descriptor, error)
	TagFunc          func(ctx context.Context, repoRef string, desc *ocispec.Descriptor, tag string) error

	mu             sync.Mutex
	blobs          map[string][]byte
	manifests      []ocispec.Manifest
	manifestTags   []string
	referrerPushes int
	additionalTags []string
}

func (m *mockOCIClient) Resolve(ctx context.Context, repoRef, ref string) (ocispec.Descriptor, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, repoRef, ref)
	}
	return ocispec.Descriptor{}, errNotImplemented
}

func (m *mockOCIClient) PushBlob(ctx context.Context, repoRef string, desc *ocispec.Descriptor, r io.Reader) error {
	if m.PushBlobFunc != nil {
		return m.PushBlobFunc(ctx, repoRef, desc, r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blobs == nil {
		m.blobs = make(map[string][]byte)
	}
	m.blobs[desc.Digest.String()] = data
	return nil
}

func (m *mockOCIClient) PushManifest(ctx context.Context, repoRef, tag string, manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	if m.PushManifestFunc != nil {
		return m.PushManifestFunc(ctx, repoRef, tag, manifest)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifests = append(m.manifests, *manifest)
	m.manifestTags = append(m.manifestTags, tag)
	return testManifestDescriptor, nil
}

func (m *mockOCIClient) PushManifestByDigest(_ context.Context, _ string, manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifests = append(m.manifests, *manifest)
	m.referrerPushes++
	return testManifestDescriptor, nil
}

func (m *mockOCIClient) Tag(ctx context.Context, repoRef string, desc *ocispec.Descriptor, tag string) error {
	if m.TagFunc != nil {
		return m.TagFunc(ctx, repoRef, desc, tag)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.additionalTags = append(m.additionalTags, tag)
	return nil
}

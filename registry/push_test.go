package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/runprov/registry/oras"
)

var testManifestDescriptor = ocispec.Descriptor{
	MediaType: ocispec.MediaTypeImageManifest,
	Digest:    digest.FromString("attestation manifest"),
	Size:      512,
}

var testAttestation = Attestation{
	MediaType:     MediaTypeInTotoStatement,
	PredicateType: "https://slsa.dev/provenance/v0.1",
	Content:       []byte(`{"_type":"https://in-toto.io/Statement/v0.1"}`),
}

func TestClient_PushTagged(t *testing.T) {
	t.Parallel()

	mock := &mockOCIClient{}
	client := New(WithOCIClient(mock))
	created := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	desc, err := client.Push(context.Background(), "registry.example.com/attestations:run-42", testAttestation,
		WithCreated(created),
		WithAnnotations(map[string]string{ocispec.AnnotationSource: "https://github.com/octo/repo"}),
		WithTags("latest"))
	require.NoError(t, err)
	assert.Equal(t, testManifestDescriptor, desc)

	require.Len(t, mock.manifests, 1)
	manifest := mock.manifests[0]
	assert.Equal(t, []string{"run-42"}, mock.manifestTags)
	assert.Equal(t, []string{"latest"}, mock.additionalTags)
	assert.Equal(t, 2, manifest.SchemaVersion)
	assert.Equal(t, ocispec.MediaTypeImageManifest, manifest.MediaType)
	assert.Equal(t, MediaTypeInTotoStatement, manifest.ArtifactType)
	assert.Nil(t, manifest.Subject)

	assert.Equal(t, ocispec.MediaTypeEmptyJSON, manifest.Config.MediaType)
	assert.Equal(t, []byte("{}"), mock.blobs[manifest.Config.Digest.String()])

	require.Len(t, manifest.Layers, 1)
	layer := manifest.Layers[0]
	assert.Equal(t, MediaTypeInTotoStatement, layer.MediaType)
	assert.Equal(t, digest.FromBytes(testAttestation.Content), layer.Digest)
	assert.Equal(t, int64(len(testAttestation.Content)), layer.Size)
	assert.Equal(t, testAttestation.Content, mock.blobs[layer.Digest.String()])

	assert.Equal(t, map[string]string{
		ocispec.AnnotationCreated: "2024-01-15T10:00:00Z",
		ocispec.AnnotationSource:  "https://github.com/octo/repo",
		AnnotationPredicateType:   "https://slsa.dev/provenance/v0.1",
	}, manifest.Annotations)
}

func TestClient_PushAttach(t *testing.T) {
	t.Parallel()

	subject := ocispec.Descriptor{
		MediaType: ocispec.MediaTypeImageManifest,
		Digest:    digest.FromString("image manifest"),
		Size:      1234,
		Annotations: map[string]string{
			"dropped": "yes",
		},
	}
	mock := &mockOCIClient{
		ResolveFunc: func(_ context.Context, _, ref string) (ocispec.Descriptor, error) {
			assert.Equal(t, "v1.0.0", ref)
			return subject, nil
		},
	}
	client := New(WithOCIClient(mock))

	_, err := client.Push(context.Background(), "registry.example.com/app:v1.0.0", testAttestation, WithAttach())
	require.NoError(t, err)

	assert.Equal(t, 1, mock.referrerPushes)
	assert.Empty(t, mock.manifestTags)
	require.Len(t, mock.manifests, 1)
	require.NotNil(t, mock.manifests[0].Subject)
	assert.Equal(t, subject.Digest, mock.manifests[0].Subject.Digest)
	assert.Equal(t, subject.Size, mock.manifests[0].Subject.Size)
	assert.Equal(t, subject.MediaType, mock.manifests[0].Subject.MediaType)
	assert.Nil(t, mock.manifests[0].Subject.Annotations)
}

func TestClient_PushAttachByDigest(t *testing.T) {
	t.Parallel()

	subjectDigest := digest.FromString("image manifest")
	mock := &mockOCIClient{
		ResolveFunc: func(_ context.Context, _, ref string) (ocispec.Descriptor, error) {
			return ocispec.Descriptor{MediaType: ocispec.MediaTypeImageManifest, Digest: digest.Digest(ref), Size: 10}, nil
		},
	}
	client := New(WithOCIClient(mock))

	_, err := client.Push(context.Background(), "registry.example.com/app@"+subjectDigest.String(), testAttestation, WithAttach())
	require.NoError(t, err)
	require.Len(t, mock.manifests, 1)
	assert.Equal(t, subjectDigest, mock.manifests[0].Subject.Digest)
}

func TestClient_PushErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ref       string
		att       Attestation
		opts      []PushOption
		setupMock func(*mockOCIClient)
		wantErr   error
	}{
		{
			name:    "empty content",
			ref:     "registry.example.com/repo:v1",
			att:     Attestation{MediaType: MediaTypeInTotoStatement},
			wantErr: ErrEmptyAttestation,
		},
		{
			name:    "missing media type",
			ref:     "registry.example.com/repo:v1",
			att:     Attestation{Content: []byte("{}")},
			wantErr: ErrEmptyAttestation,
		},
		{
			name:    "malformed reference",
			ref:     "not a ref",
			att:     testAttestation,
			wantErr: ErrInvalidReference,
		},
		{
			name:    "missing tag",
			ref:     "registry.example.com/repo",
			att:     testAttestation,
			wantErr: ErrInvalidReference,
		},
		{
			name:    "digest without attach",
			ref:     "registry.example.com/repo@" + digest.FromString("x").String(),
			att:     testAttestation,
			wantErr: ErrInvalidReference,
		},
		{
			name: "subject not found",
			ref:  "registry.example.com/repo:v1",
			att:  testAttestation,
			opts: []PushOption{WithAttach()},
			setupMock: func(m *mockOCIClient) {
				m.ResolveFunc = func(context.Context, string, string) (ocispec.Descriptor, error) {
					return ocispec.Descriptor{}, fmt.Errorf("resolve: %w", oras.ErrNotFound)
				}
			},
			wantErr: ErrNotFound,
		},
		{
			name: "unauthorized blob push",
			ref:  "registry.example.com/repo:v1",
			att:  testAttestation,
			setupMock: func(m *mockOCIClient) {
				m.PushBlobFunc = func(context.Context, string, *ocispec.Descriptor, io.Reader) error {
					return oras.ErrUnauthorized
				}
			},
			wantErr: ErrUnauthorized,
		},
		{
			name: "manifest push fails",
			ref:  "registry.example.com/repo:v1",
			att:  testAttestation,
			setupMock: func(m *mockOCIClient) {
				m.PushManifestFunc = func(context.Context, string, string, *ocispec.Manifest) (ocispec.Descriptor, error) {
					return ocispec.Descriptor{}, oras.ErrForbidden
				}
			},
			wantErr: ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := &mockOCIClient{}
			if tt.setupMock != nil {
				tt.setupMock(mock)
			}
			_, err := New(WithOCIClient(mock)).Push(context.Background(), tt.ref, tt.att, tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_PushTagFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	mock := &mockOCIClient{
		TagFunc: func(context.Context, string, *ocispec.Descriptor, string) error { return boom },
	}
	_, err := New(WithOCIClient(mock)).Push(context.Background(), "registry.example.com/repo:v1", testAttestation, WithTags("extra"))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `tag "extra"`)
}

func TestMapOCIError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, mapOCIError(nil))
	assert.ErrorIs(t, mapOCIError(oras.ErrNotFound), ErrNotFound)
	assert.ErrorIs(t, mapOCIError(oras.ErrUnauthorized), ErrUnauthorized)
	assert.ErrorIs(t, mapOCIError(oras.ErrForbidden), ErrUnauthorized)
	assert.ErrorIs(t, mapOCIError(oras.ErrInvalidReference), ErrInvalidReference)
	already := fmt.Errorf("%w: x", ErrNotFound)
	assert.Equal(t, already, mapOCIError(already))
}

package registry

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/registry"
)

// Attestation is a serialized attestation document.
type Attestation struct {
	// MediaType is MediaTypeInTotoStatement or MediaTypeDSSEEnvelope.
	MediaType string

	// PredicateType is recorded as a manifest annotation when set.
	PredicateType string

	// Content is the serialized document.
	Content []byte
}

// Push publishes an attestation to an OCI registry.
//
// By default the ref must include a tag (e.g., "ghcr.io/org/attestations:run-42")
// and the attestation manifest is pushed under it. With WithAttach the ref
// names an existing manifest by tag or digest, and the attestation is pushed
// untagged with that manifest as its subject.
//
// Returns the descriptor of the attestation manifest.
func (c *Client) Push(ctx context.Context, ref string, att Attestation, opts ...PushOption) (ocispec.Descriptor, error) {
	cfg := pushConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(att.Content) == 0 || att.MediaType == "" {
		return ocispec.Descriptor{}, ErrEmptyAttestation
	}

	parsedRef, err := registry.ParseReference(ref)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if parsedRef.Reference == "" {
		return ocispec.Descriptor{}, fmt.Errorf("%w: reference must include a tag or digest", ErrInvalidReference)
	}
	if !cfg.attach && isDigest(parsedRef.Reference) {
		return ocispec.Descriptor{}, fmt.Errorf("%w: reference must include a tag", ErrInvalidReference)
	}

	// Step 1: Resolve the subject before uploading anything
	var subject *ocispec.Descriptor
	if cfg.attach {
		desc, resolveErr := c.oci.Resolve(ctx, ref, parsedRef.Reference)
		if resolveErr != nil {
			return ocispec.Descriptor{}, fmt.Errorf("resolve subject: %w", mapOCIError(resolveErr))
		}
		subject = &ocispec.Descriptor{
			MediaType: desc.MediaType,
			Digest:    desc.Digest,
			Size:      desc.Size,
		}
	}

	// Step 2: Push empty config blob (required by OCI artifact pattern)
	configDesc, err := c.pushEmptyConfig(ctx, ref)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push config: %w", err)
	}

	// Step 3: Push the attestation layer
	layerDesc := ocispec.Descriptor{
		MediaType: att.MediaType,
		Digest:    digest.FromBytes(att.Content),
		Size:      int64(len(att.Content)),
	}
	if pushErr := c.oci.PushBlob(ctx, ref, &layerDesc, bytes.NewReader(att.Content)); pushErr != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push attestation blob: %w", mapOCIError(pushErr))
	}

	// Step 4: Build and push manifest
	manifest := buildManifest(&configDesc, &layerDesc, subject, c.annotations(&cfg, att))
	var manifestDesc ocispec.Descriptor
	if cfg.attach {
		manifestDesc, err = c.oci.PushManifestByDigest(ctx, ref, &manifest)
	} else {
		manifestDesc, err = c.oci.PushManifest(ctx, ref, parsedRef.Reference, &manifest)
	}
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push manifest: %w", mapOCIError(err))
	}

	// Step 5: Apply additional tags
	for _, additionalTag := range cfg.tags {
		if tagErr := c.oci.Tag(ctx, ref, &manifestDesc, additionalTag); tagErr != nil {
			return ocispec.Descriptor{}, fmt.Errorf("tag %q: %w", additionalTag, mapOCIError(tagErr))
		}
	}

	c.log().Info("pushed attestation",
		slog.String("ref", ref),
		slog.String("digest", manifestDesc.Digest.String()),
		slog.Bool("referrer", cfg.attach))
	return manifestDesc, nil
}

// pushEmptyConfig pushes the empty JSON config blob required by OCI manifests.
func (c *Client) pushEmptyConfig(ctx context.Context, ref string) (ocispec.Descriptor, error) {
	desc := ocispec.DescriptorEmptyJSON
	if err := c.oci.PushBlob(ctx, ref, &desc, bytes.NewReader(ocispec.DescriptorEmptyJSON.Data)); err != nil {
		return ocispec.Descriptor{}, mapOCIError(err)
	}
	desc.Data = nil
	return desc, nil
}

func (c *Client) annotations(cfg *pushConfig, att Attestation) map[string]string {
	annotations := make(map[string]string, len(cfg.annotations)+2)
	if att.PredicateType != "" {
		annotations[AnnotationPredicateType] = att.PredicateType
	}
	created := cfg.created
	if created.IsZero() {
		created = time.Now()
	}
	annotations[ocispec.AnnotationCreated] = created.UTC().Format(time.RFC3339)
	maps.Copy(annotations, cfg.annotations)
	return annotations
}

// buildManifest creates an OCI artifact manifest holding one attestation layer.
func buildManifest(configDesc, layerDesc, subject *ocispec.Descriptor, annotations map[string]string) ocispec.Manifest {
	return ocispec.Manifest{
		Versioned:    specs.Versioned{SchemaVersion: 2},
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: layerDesc.MediaType,
		Config:       *configDesc,
		Layers:       []ocispec.Descriptor{*layerDesc},
		Subject:      subject,
		Annotations:  annotations,
	}
}

// isDigest reports whether the reference is a digest rather than a tag.
func isDigest(ref string) bool {
	return strings.Contains(ref, ":")
}

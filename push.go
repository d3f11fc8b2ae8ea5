package runprov

import (
	"context"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	provcore "github.com/meigma/runprov/core"
	"github.com/meigma/runprov/registry"
)

// mediaType returns the registry media type of a format.
func (f Format) mediaType() string {
	if f == FormatEnvelope {
		return registry.MediaTypeDSSEEnvelope
	}
	return registry.MediaTypeInTotoStatement
}

// Push encodes a statement and publishes it to an OCI registry.
//
// The ref must include a tag (e.g., "ghcr.io/octo/attestations:run-123").
// Pass [registry.WithAttach] to push the statement as a referrer of the
// image named by ref instead. The manifest records the source repository
// and revision from the statement's material.
//
// Returns the descriptor of the pushed manifest.
func (c *Client) Push(ctx context.Context, ref string, stmt *Statement, format Format, opts ...registry.PushOption) (ocispec.Descriptor, error) {
	content, err := Encode(stmt, format)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	regOpts := append([]registry.Option{registry.WithLogger(c.logger)}, c.registryOpts...)
	regClient := registry.New(regOpts...)

	pushOpts := append([]registry.PushOption{registry.WithAnnotations(sourceAnnotations(stmt))}, opts...)
	return regClient.Push(ctx, ref, registry.Attestation{
		MediaType:     format.mediaType(),
		PredicateType: stmt.PredicateType,
		Content:       content,
	}, pushOpts...)
}

// sourceAnnotations describes the built source using the standard OCI
// source and revision annotations. Materials have the form
// git+<repository-url>@<ref>.
func sourceAnnotations(stmt *Statement) map[string]string {
	annotations := map[string]string{}
	for _, material := range stmt.Predicate.Materials {
		if rest, ok := strings.CutPrefix(material.URI, "git+"); ok {
			repository, _, _ := strings.Cut(rest, "@")
			annotations[ocispec.AnnotationSource] = repository
		}
		if rev := material.Digest[provcore.AlgorithmSHA1]; rev != "" {
			annotations[ocispec.AnnotationRevision] = rev
		}
	}
	return annotations
}

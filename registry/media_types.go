package registry

// Media types for attestation documents in OCI registries.
const (
	// MediaTypeInTotoStatement is the media type of a bare in-toto
	// Statement serialized as JSON.
	MediaTypeInTotoStatement = "application/vnd.in-toto+json"

	// MediaTypeDSSEEnvelope is the media type of a DSSE envelope.
	MediaTypeDSSEEnvelope = "application/vnd.dsse.envelope.v1+json"

	// AnnotationPredicateType records the in-toto predicate type of the
	// attestation on its manifest.
	AnnotationPredicateType = "in-toto.io/predicate-type"
)

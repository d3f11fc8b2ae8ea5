package registry

import "errors"

// Sentinel errors for client operations.
var (
	// ErrNotFound is returned when a referenced manifest does not exist.
	ErrNotFound = errors.New("registry: not found")

	// ErrInvalidReference is returned when a reference string is malformed.
	ErrInvalidReference = errors.New("registry: invalid reference")

	// ErrUnauthorized is returned when the registry rejects the credentials.
	ErrUnauthorized = errors.New("registry: unauthorized")

	// ErrEmptyAttestation is returned when an attestation has no content or
	// no media type.
	ErrEmptyAttestation = errors.New("registry: empty attestation")
)

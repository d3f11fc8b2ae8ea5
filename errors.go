package runprov

import (
	provcore "github.com/meigma/runprov/core"
	"github.com/meigma/runprov/github"
	"github.com/meigma/runprov/registry"
)

// Errors re-exported from core.
var (
	// ErrFetch is returned when run metadata or artifact bytes cannot be retrieved.
	ErrFetch = provcore.ErrFetch

	// ErrArchiveFormat is returned when an artifact is not a valid zip archive.
	ErrArchiveFormat = provcore.ErrArchiveFormat

	// ErrEntryTooLarge is returned when an archive entry exceeds the size limit.
	ErrEntryTooLarge = provcore.ErrEntryTooLarge

	// ErrNoSubject is returned when a run produced no hashable files.
	ErrNoSubject = provcore.ErrNoSubject

	// ErrInvalidStatement is returned when a statement fails validation.
	ErrInvalidStatement = provcore.ErrInvalidStatement
)

// Errors re-exported from github.
var (
	// ErrInvalidRunURL is returned when a URL is not a workflow run URL.
	ErrInvalidRunURL = github.ErrInvalidRunURL

	// ErrNoToken is returned when no GitHub token is configured.
	ErrNoToken = github.ErrNoToken

	// ErrInvalidToken is returned when a GitHub token is malformed.
	ErrInvalidToken = github.ErrInvalidToken

	// ErrDigestMismatch is returned when an artifact archive does not match
	// the digest GitHub advertises for it.
	ErrDigestMismatch = github.ErrDigestMismatch
)

// Errors re-exported from registry.
var (
	// ErrNotFound is returned when a referenced manifest does not exist.
	ErrNotFound = registry.ErrNotFound

	// ErrInvalidReference is returned when a reference string is malformed.
	ErrInvalidReference = registry.ErrInvalidReference

	// ErrUnauthorized is returned when the registry rejects the credentials.
	ErrUnauthorized = registry.ErrUnauthorized
)

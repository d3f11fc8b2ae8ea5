package runprov

import "errors"

// Sentinel errors for provenance assembly.
var (
	// ErrFetch is returned when run metadata or artifact bytes cannot be retrieved.
	// The collaborator's original error is wrapped alongside it.
	ErrFetch = errors.New("runprov: fetch failed")

	// ErrArchiveFormat is returned when artifact bytes are not a valid zip archive.
	ErrArchiveFormat = errors.New("runprov: invalid archive")

	// ErrEntryTooLarge is returned when an archive entry exceeds the configured
	// maximum entry size.
	ErrEntryTooLarge = errors.New("runprov: archive entry too large")

	// ErrNoSubject is returned when no subjects were collected for a run.
	// No statement is produced in this case.
	ErrNoSubject = errors.New("runprov: no subjects")

	// ErrInvalidStatement is returned when a statement fails structural validation.
	ErrInvalidStatement = errors.New("runprov: invalid statement")
)

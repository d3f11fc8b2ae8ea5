package runprov

import "time"

// RunFacts identifies one CI workflow execution.
type RunFacts struct {
	// ID is the provider's identifier for the run.
	ID int64

	// WorkflowID identifies the workflow definition the run executed.
	WorkflowID int64

	// HTMLURL is the stable external locator of the run.
	HTMLURL string

	// CreatedAt is when the run was created. The zero value means unknown.
	CreatedAt time.Time

	// UpdatedAt is when the run was last updated. The zero value means unknown.
	UpdatedAt time.Time

	// Event is the trigger name, e.g. "push" or "workflow_dispatch".
	Event string

	// HeadSHA is the 40-hex commit id the run built.
	HeadSHA string

	// HeadBranch is the ref name the run built.
	HeadBranch string

	// RepositoryHTMLURL is the web URL of the repository.
	RepositoryHTMLURL string
}

// WorkflowFacts describes the workflow definition a run executed.
type WorkflowFacts struct {
	// Path is the repository-relative path of the workflow definition,
	// e.g. ".github/workflows/build.yml".
	Path string
}

// ArtifactMeta describes one artifact uploaded by a run.
type ArtifactMeta struct {
	ID        int64
	Name      string
	Expired   bool
	ExpiresAt time.Time

	// Digest is the content digest the provider advertises for the archive,
	// e.g. "sha256:...". Empty when the provider does not report one.
	Digest string
}

// ArchiveEntry is one file extracted from an artifact archive.
type ArchiveEntry struct {
	// Name is the path of the entry within the archive.
	Name string

	// Content is the exact stored bytes of the entry.
	Content []byte
}

// DigestSet maps a digest algorithm name to a lowercase hex digest.
type DigestSet map[string]string

// Subject is an artifact identity the statement makes claims about.
type Subject struct {
	Name   string    `json:"name"`
	Digest DigestSet `json:"digest"`
}

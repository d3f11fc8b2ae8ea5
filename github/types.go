package github

import "time"

// Repository is the repository reference embedded in a workflow run.
type Repository struct {
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}

// WorkflowRun is a GitHub Actions workflow run.
type WorkflowRun struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	WorkflowID int64      `json:"workflow_id"`
	HTMLURL    string     `json:"html_url"`
	Event      string     `json:"event"`
	Status     string     `json:"status"`
	Conclusion string     `json:"conclusion"`
	HeadSHA    string     `json:"head_sha"`
	HeadBranch string     `json:"head_branch"`
	RunAttempt int        `json:"run_attempt"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Repository Repository `json:"repository"`
}

// Workflow is a GitHub Actions workflow definition.
type Workflow struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Path  string `json:"path"` // e.g. ".github/workflows/build.yml"
	State string `json:"state"`
}

// Artifact is an artifact uploaded by a workflow run.
type Artifact struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	SizeInBytes        int64     `json:"size_in_bytes"`
	ArchiveDownloadURL string    `json:"archive_download_url"`
	Expired            bool      `json:"expired"`
	CreatedAt          time.Time `json:"created_at"`
	ExpiresAt          time.Time `json:"expires_at"`

	// Digest is the "sha256:<hex>" digest of the zip archive. Only reported
	// for artifacts uploaded with upload-artifact v4 or later.
	Digest string `json:"digest"`
}

// artifactList is the envelope of the list-artifacts endpoint. A missing
// artifacts field decodes to a nil slice.
type artifactList struct {
	TotalCount int        `json:"total_count"`
	Artifacts  []Artifact `json:"artifacts"`
}

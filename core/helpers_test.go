package runprov

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var errUnavailable = errors.New("service unavailable")

// mockArchives implements ArchiveFetcher over in-memory archives.
type mockArchives struct {
	mu       sync.Mutex
	archives map[int64][]byte
	errs     map[int64]error
	calls    []int64
}

func (m *mockArchives) GetArtifactArchive(_ context.Context, id int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id)
	if err, ok := m.errs[id]; ok {
		return nil, err
	}
	data, ok := m.archives[id]
	if !ok {
		return nil, fmt.Errorf("artifact %d: not found", id)
	}
	return data, nil
}

func (m *mockArchives) fetched() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.calls...)
}

// mockMetadata implements MetadataFetcher.
type mockMetadata struct {
	run       *RunFacts
	workflow  *WorkflowFacts
	artifacts []ArtifactMeta

	runErr      error
	workflowErr error
	listErr     error

	gotWorkflowID int64
}

func (m *mockMetadata) GetRun(_ context.Context, _ int64) (*RunFacts, error) {
	if m.runErr != nil {
		return nil, m.runErr
	}
	return m.run, nil
}

func (m *mockMetadata) GetWorkflow(_ context.Context, id int64) (*WorkflowFacts, error) {
	m.gotWorkflowID = id
	if m.workflowErr != nil {
		return nil, m.workflowErr
	}
	return m.workflow, nil
}

func (m *mockMetadata) ListArtifacts(_ context.Context, _ int64) ([]ArtifactMeta, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.artifacts, nil
}

func testRun() *RunFacts {
	return &RunFacts{
		ID:                1241960989,
		WorkflowID:        7,
		HTMLURL:           "https://github.com/o/r/actions/runs/1241960989",
		CreatedAt:         time.Date(2021, 9, 21, 20, 38, 22, 0, time.UTC),
		UpdatedAt:         time.Date(2021, 9, 21, 20, 40, 1, 0, time.UTC),
		Event:             "push",
		HeadSHA:           "c27d339ee6075c1f744c5d4b200f7901aad2c369",
		HeadBranch:        "main",
		RepositoryHTMLURL: "https://github.com/o/r",
	}
}

func testWorkflow() *WorkflowFacts {
	return &WorkflowFacts{Path: ".github/workflows/build.yml"}
}

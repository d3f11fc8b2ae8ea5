package github

import (
	"context"
	"fmt"
	"io"
	"iter"
)

// GetRun returns a single workflow run of the bound repository.
func (client *Client) GetRun(ctx context.Context, runID int64) (*WorkflowRun, error) {
	var run WorkflowRun
	if err := client.get(ctx, client.repoPath("/actions/runs/%d", runID), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetWorkflow returns a single workflow definition of the bound repository.
func (client *Client) GetWorkflow(ctx context.Context, workflowID int64) (*Workflow, error) {
	var workflow Workflow
	if err := client.get(ctx, client.repoPath("/actions/workflows/%d", workflowID), &workflow); err != nil {
		return nil, err
	}
	return &workflow, nil
}

// ListArtifacts lazily iterates the artifacts of a workflow run across all
// pages. A response without an artifacts field contributes no items.
func (client *Client) ListArtifacts(ctx context.Context, runID int64) iter.Seq2[Artifact, error] {
	url := client.baseURL + client.repoPath("/actions/runs/%d/artifacts?per_page=%d", runID, pageSize)
	return paginate(ctx, client, url, func(page *artifactList) []Artifact {
		return page.Artifacts
	})
}

// DownloadArtifact returns the zip archive of an artifact. GitHub answers
// with a redirect to blob storage, which the HTTP client follows. Expired
// artifacts yield an *APIError for which IsGone reports true.
func (client *Client) DownloadArtifact(ctx context.Context, artifactID int64) ([]byte, error) {
	url := client.baseURL + client.repoPath("/actions/artifacts/%d/zip", artifactID)
	response, err := client.doRaw(ctx, url)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("github: reading artifact %d: %w", artifactID, err)
	}
	return data, nil
}

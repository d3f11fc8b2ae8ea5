package runprov

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// MetadataFetcher retrieves run, workflow, and artifact metadata.
type MetadataFetcher interface {
	GetRun(ctx context.Context, runID int64) (*RunFacts, error)
	GetWorkflow(ctx context.Context, workflowID int64) (*WorkflowFacts, error)

	// ListArtifacts returns every artifact of a run. A run without artifacts
	// yields an empty list, not an error.
	ListArtifacts(ctx context.Context, runID int64) ([]ArtifactMeta, error)
}

// Assemble produces the provenance statement for one run.
//
// The run is fetched first; its workflow and artifact list are then fetched
// concurrently. Subjects are collected with [CollectSubjects] and mapped with
// [MapProvenance].
//
// Any fetch or archive failure aborts assembly and no statement is returned.
// If no subjects were collected, Assemble returns [ErrNoSubject].
func Assemble(ctx context.Context, runID int64, meta MetadataFetcher, archives ArchiveFetcher, opts ...Option) (*Statement, error) {
	return newConfig(opts...).assemble(ctx, runID, meta, archives)
}

func (c *config) assemble(ctx context.Context, runID int64, meta MetadataFetcher, archives ArchiveFetcher) (*Statement, error) {
	run, err := meta.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: run %d: %w", ErrFetch, runID, err)
	}
	if run == nil {
		return nil, fmt.Errorf("%w: run %d: empty response", ErrFetch, runID)
	}

	var (
		workflow  *WorkflowFacts
		artifacts []ArtifactMeta
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		wf, err := meta.GetWorkflow(gctx, run.WorkflowID)
		if err != nil {
			return fmt.Errorf("%w: workflow %d: %w", ErrFetch, run.WorkflowID, err)
		}
		if wf == nil {
			return fmt.Errorf("%w: workflow %d: empty response", ErrFetch, run.WorkflowID)
		}
		workflow = wf
		return nil
	})
	g.Go(func() error {
		list, err := meta.ListArtifacts(gctx, runID)
		if err != nil {
			return fmt.Errorf("%w: artifacts of run %d: %w", ErrFetch, runID, err)
		}
		artifacts = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	subjects, err := c.collectSubjects(ctx, artifacts, archives)
	if err != nil {
		return nil, err
	}
	if len(subjects) == 0 {
		return nil, fmt.Errorf("%w: run %d", ErrNoSubject, runID)
	}

	stmt := c.mapper(run, workflow, subjects)
	c.logger.Debug("assembled provenance",
		slog.Int64("run_id", runID),
		slog.String("entry_point", workflow.Path),
		slog.Int("subjects", len(stmt.Subject)))
	return stmt, nil
}

package github

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/runprov/cache"
	provcore "github.com/meigma/runprov/core"
)

// Fetcher adapts a Client to the metadata and archive interfaces consumed by
// provenance assembly.
//
// ListArtifacts records the archive digest GitHub advertises for each
// artifact. GetArtifactArchive verifies downloads against that digest and,
// when a cache is configured, serves and stores archives by digest.
// Concurrent downloads of the same artifact share one request.
//
// A Fetcher is safe for concurrent use.
type Fetcher struct {
	client *Client
	cache  cache.Cache
	logger *slog.Logger

	mu      sync.RWMutex
	digests map[int64]digest.Digest

	downloads singleflight.Group
}

var (
	_ provcore.MetadataFetcher = (*Fetcher)(nil)
	_ provcore.ArchiveFetcher  = (*Fetcher)(nil)
)

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithCache sets the archive cache. Only artifacts with an advertised
// digest are cached.
func WithCache(c cache.Cache) FetcherOption {
	return func(f *Fetcher) {
		f.cache = c
	}
}

// NewFetcher creates a Fetcher backed by client.
func NewFetcher(client *Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:  client,
		logger:  client.logger,
		digests: make(map[int64]digest.Digest),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GetRun returns the facts of a workflow run.
func (f *Fetcher) GetRun(ctx context.Context, runID int64) (*provcore.RunFacts, error) {
	run, err := f.client.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return &provcore.RunFacts{
		ID:                run.ID,
		WorkflowID:        run.WorkflowID,
		HTMLURL:           run.HTMLURL,
		CreatedAt:         run.CreatedAt,
		UpdatedAt:         run.UpdatedAt,
		Event:             run.Event,
		HeadSHA:           run.HeadSHA,
		HeadBranch:        run.HeadBranch,
		RepositoryHTMLURL: run.Repository.HTMLURL,
	}, nil
}

// GetWorkflow returns the facts of a workflow definition.
func (f *Fetcher) GetWorkflow(ctx context.Context, workflowID int64) (*provcore.WorkflowFacts, error) {
	workflow, err := f.client.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	return &provcore.WorkflowFacts{Path: workflow.Path}, nil
}

// ListArtifacts returns every artifact of a run across all pages. A run
// without artifacts yields an empty, non-nil slice.
func (f *Fetcher) ListArtifacts(ctx context.Context, runID int64) ([]provcore.ArtifactMeta, error) {
	artifacts := []provcore.ArtifactMeta{}
	for artifact, err := range f.client.ListArtifacts(ctx, runID) {
		if err != nil {
			return nil, err
		}
		f.recordDigest(artifact)
		artifacts = append(artifacts, provcore.ArtifactMeta{
			ID:        artifact.ID,
			Name:      artifact.Name,
			Expired:   artifact.Expired,
			ExpiresAt: artifact.ExpiresAt,
			Digest:    artifact.Digest,
		})
	}
	f.logger.Debug("listed artifacts",
		slog.String("repository", f.client.Repository()),
		slog.Int64("run_id", runID),
		slog.Int("count", len(artifacts)))
	return artifacts, nil
}

// GetArtifactArchive returns the zip archive of an artifact.
//
// Callers asking for the same artifact at the same time share one download.
// The shared download is not bound to any caller's context: a caller that
// gives up returns ctx.Err() while the others still receive the archive.
func (f *Fetcher) GetArtifactArchive(ctx context.Context, artifactID int64) ([]byte, error) {
	dgst, known := f.digest(artifactID)

	if known && f.cache != nil {
		if data, ok := f.cache.Get(dgst); ok {
			f.logger.Debug("artifact cache hit",
				slog.String("repository", f.client.Repository()),
				slog.Int64("artifact_id", artifactID),
				slog.String("digest", dgst.String()))
			return data, nil
		}
	}

	detached := context.WithoutCancel(ctx)
	results := f.downloads.DoChan(strconv.FormatInt(artifactID, 10), func() (any, error) {
		return f.download(detached, artifactID, dgst, known)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		data, _ := res.Val.([]byte) //nolint:errcheck // type assertion always succeeds when err is nil
		return data, nil
	}
}

// download fetches an archive, verifies it against dgst when known, and
// stores verified archives in the cache.
func (f *Fetcher) download(ctx context.Context, artifactID int64, dgst digest.Digest, known bool) ([]byte, error) {
	data, err := f.client.DownloadArtifact(ctx, artifactID)
	if err != nil {
		if IsGone(err) {
			return nil, fmt.Errorf("artifact %d expired: %w", artifactID, err)
		}
		return nil, err
	}
	f.logger.Debug("downloaded artifact",
		slog.String("repository", f.client.Repository()),
		slog.Int64("artifact_id", artifactID),
		slog.Int("bytes", len(data)))
	if !known {
		return data, nil
	}
	if !cache.Verify(dgst, data) {
		return nil, fmt.Errorf("%w: artifact %d: want %s, got %s",
			ErrDigestMismatch, artifactID, dgst, dgst.Algorithm().FromBytes(data))
	}
	if f.cache != nil {
		if err := f.cache.Put(dgst, data); err != nil {
			f.logger.Warn("caching artifact failed",
				slog.Int64("artifact_id", artifactID),
				slog.String("error", err.Error()))
		}
	}
	return data, nil
}

func (f *Fetcher) recordDigest(artifact Artifact) {
	if artifact.Digest == "" {
		return
	}
	dgst, err := digest.Parse(artifact.Digest)
	if err != nil {
		f.logger.Warn("ignoring malformed artifact digest",
			slog.Int64("artifact_id", artifact.ID),
			slog.String("digest", artifact.Digest))
		return
	}
	f.mu.Lock()
	f.digests[artifact.ID] = dgst
	f.mu.Unlock()
}

func (f *Fetcher) digest(artifactID int64) (digest.Digest, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	dgst, ok := f.digests[artifactID]
	return dgst, ok
}

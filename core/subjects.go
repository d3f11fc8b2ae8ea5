package runprov

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ArchiveFetcher retrieves the raw zip bytes of an artifact.
type ArchiveFetcher interface {
	GetArtifactArchive(ctx context.Context, artifactID int64) ([]byte, error)
}

// CollectSubjects builds the subject list for a run's artifacts.
//
// Expired artifacts are skipped without being fetched; a single warning is
// logged for the first one encountered. Every other artifact is fetched,
// extracted, and each file entry becomes a subject named
// "<artifact name>/<entry name>" with its SHA-256 digest.
//
// The returned subjects are sorted by name. Subjects with equal names keep
// the order in which their artifacts were supplied. The list is empty, not
// an error, when no live artifact has file entries.
//
// A fetch or archive failure for any artifact aborts the whole collection.
// A partial subject list would understate what the run produced.
func CollectSubjects(ctx context.Context, artifacts []ArtifactMeta, fetcher ArchiveFetcher, opts ...Option) ([]Subject, error) {
	return newConfig(opts...).collectSubjects(ctx, artifacts, fetcher)
}

func (c *config) collectSubjects(ctx context.Context, artifacts []ArtifactMeta, fetcher ArchiveFetcher) ([]Subject, error) {
	if len(artifacts) == 0 {
		c.logger.Warn("no artifacts found in run")
	}

	live := make([]ArtifactMeta, 0, len(artifacts))
	warned := false
	for _, artifact := range artifacts {
		if !artifact.Expired {
			live = append(live, artifact)
			continue
		}
		if !warned {
			c.logger.Warn("artifacts expired; skipping",
				slog.String("artifact", artifact.Name),
				slog.Time("expires_at", artifact.ExpiresAt))
			warned = true
		}
	}

	// Each artifact writes only its own slot so results can be joined in
	// supplied order regardless of completion order.
	results := make([][]Subject, len(live))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, artifact := range live {
		g.Go(func() error {
			subjects, err := c.collectArtifact(gctx, fetcher, artifact)
			if err != nil {
				return err
			}
			results[i] = subjects
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var subjects []Subject
	for _, r := range results {
		subjects = append(subjects, r...)
	}
	slices.SortStableFunc(subjects, func(a, b Subject) int {
		return strings.Compare(a.Name, b.Name)
	})

	c.logger.Debug("collected subjects",
		slog.Int("artifacts", len(artifacts)),
		slog.Int("live", len(live)),
		slog.Int("subjects", len(subjects)))

	return subjects, nil
}

// collectArtifact fetches one artifact archive and hashes its file entries.
func (c *config) collectArtifact(ctx context.Context, fetcher ArchiveFetcher, artifact ArtifactMeta) ([]Subject, error) {
	data, err := fetcher.GetArtifactArchive(ctx, artifact.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: artifact %q (id %d): %w", ErrFetch, artifact.Name, artifact.ID, err)
	}

	var subjects []Subject
	for entry, err := range Extract(data, ExtractWithMaxEntrySize(c.maxEntrySize)) {
		if err != nil {
			return nil, fmt.Errorf("artifact %q: %w", artifact.Name, err)
		}
		subjects = append(subjects, Subject{
			Name:   artifact.Name + "/" + entry.Name,
			Digest: DigestSet{AlgorithmSHA256: Digest(entry.Content)},
		})
	}

	c.logger.Debug("hashed artifact",
		slog.String("artifact", artifact.Name),
		slog.Int64("id", artifact.ID),
		slog.Int("bytes", len(data)),
		slog.Int("entries", len(subjects)))

	return subjects, nil
}

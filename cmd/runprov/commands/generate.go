package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/runprov"
	"github.com/meigma/runprov/cmd/runprov/internal/clierr"
	provcore "github.com/meigma/runprov/core"
	"github.com/meigma/runprov/registry"
)

func newGenerateCmd(v *viper.Viper, clientOpts []runprov.Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <run-url>",
		Short: "Generate provenance for a workflow run",
		Long: `Generate provenance for the workflow run at <run-url>, e.g.
https://github.com/octo/repo/actions/runs/123456789.

The document is written to stdout unless --output is set. With --push it is
also published as a tagged OCI artifact; with --attach it is published as a
referrer of an existing image.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return clierr.Wrap(clierr.ExitUsage, "generate", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, v, args[0], clientOpts)
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "write the document to `file` instead of stdout")
	flags.StringP("format", "f", string(runprov.FormatStatement), "document format: statement or envelope")
	flags.String("push", "", "push the document to the tagged OCI `reference`")
	flags.StringSlice("tag", nil, "additional tags applied with --push")
	flags.String("attach", "", "push the document as a referrer of the OCI `reference`")
	flags.Bool("plain-http", false, "use plain HTTP for the registry")
	flags.String("cache-dir", "", "cache downloaded artifact archives under `dir`")
	flags.Int("workers", provcore.DefaultWorkers, "number of artifacts processed concurrently")
	flags.Uint64("max-entry-size", 0, "maximum uncompressed `bytes` of one archive entry (0 for no limit)")
	flags.String("token", "", "GitHub API token")
	flags.String("api-url", "", "GitHub REST API `url` (derived from the run URL by default)")
	_ = v.BindPFlags(flags)

	return cmd
}

func runGenerate(cmd *cobra.Command, v *viper.Viper, runURL string, clientOpts []runprov.Option) error {
	format, err := runprov.ParseFormat(v.GetString("format"))
	if err != nil {
		return clierr.Wrap(clierr.ExitUsage, "invalid --format", err)
	}
	tags := v.GetStringSlice("tag")
	if len(tags) > 0 && v.GetString("push") == "" {
		return clierr.New(clierr.ExitUsage, "--tag requires --push")
	}

	opts := []runprov.Option{
		runprov.WithLogger(newLogger(cmd.ErrOrStderr(), v.GetBool("verbose"))),
		runprov.WithToken(v.GetString("token")),
		runprov.WithAPIURL(v.GetString("api-url")),
		runprov.WithWorkers(v.GetInt("workers")),
		runprov.WithMaxEntrySize(v.GetUint64("max-entry-size")),
		runprov.WithPlainHTTP(v.GetBool("plain-http")),
		runprov.WithDockerConfig(),
	}
	if dir := v.GetString("cache-dir"); dir != "" {
		opts = append(opts, runprov.WithCacheDir(dir))
	}
	client, err := runprov.NewClient(append(opts, clientOpts...)...)
	if err != nil {
		return clierr.Wrap(clierr.ExitUsage, "configure client", err)
	}

	stmt, err := client.Generate(cmd.Context(), runURL)
	if err != nil {
		return classify(err)
	}
	doc, err := runprov.Encode(stmt, format)
	if err != nil {
		return classify(err)
	}
	if err := writeDocument(cmd.OutOrStdout(), v.GetString("output"), doc); err != nil {
		return err
	}

	if ref := v.GetString("push"); ref != "" {
		desc, err := client.Push(cmd.Context(), ref, stmt, format, registry.WithTags(tags...))
		if err != nil {
			return clierr.Wrapf(clierr.ExitGeneric, err, "push %s", ref)
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "pushed %s (%s)\n", ref, desc.Digest)
	}
	if ref := v.GetString("attach"); ref != "" {
		desc, err := client.Push(cmd.Context(), ref, stmt, format, registry.WithAttach())
		if err != nil {
			return clierr.Wrapf(clierr.ExitGeneric, err, "attach to %s", ref)
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "attached to %s (%s)\n", ref, desc.Digest)
	}
	return nil
}

// writeDocument writes doc to path, or to stdout when path is empty or "-".
func writeDocument(stdout io.Writer, path string, doc []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(doc)
		return err
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil { //nolint:gosec // provenance is public
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// classify attaches the exit code for an assembly failure.
func classify(err error) error {
	switch {
	case errors.Is(err, runprov.ErrInvalidRunURL):
		return clierr.Wrap(clierr.ExitUsage, "unrecognized run URL", err)
	case errors.Is(err, runprov.ErrNoToken), errors.Is(err, runprov.ErrInvalidToken):
		return clierr.Wrap(clierr.ExitUsage, "github credentials", err)
	case errors.Is(err, runprov.ErrNoSubject):
		return clierr.Wrap(clierr.ExitNoSubject, "no provenance produced", err)
	case errors.Is(err, runprov.ErrArchiveFormat), errors.Is(err, runprov.ErrEntryTooLarge):
		return clierr.Wrap(clierr.ExitArchive, "unreadable artifact", err)
	case errors.Is(err, runprov.ErrFetch):
		return clierr.Wrap(clierr.ExitFetch, "fetch run data", err)
	default:
		return err
	}
}

// Package commands implements the runprov command line.
package commands

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/runprov"
	"github.com/meigma/runprov/cmd/runprov/internal/clierr"
)

// Version is the runprov release, set at link time.
var Version = "0.0.0-dev"

const envPrefix = "RUNPROV"

// NewRootCmd constructs the runprov root command. The given client options
// are applied after the ones derived from flags and configuration.
func NewRootCmd(clientOpts ...runprov.Option) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "runprov",
		Short: "Generate SLSA provenance for GitHub Actions runs",
		Long: `runprov turns a GitHub Actions workflow run into an in-toto statement
carrying SLSA v0.1 provenance. Every file inside the run's artifacts becomes a
subject identified by its SHA-256 digest.

Flags may also be set in the config file or as RUNPROV_<FLAG> environment
variables, e.g. RUNPROV_CACHE_DIR. The GitHub token is read from --token,
RUNPROV_TOKEN, GITHUB_TOKEN, GH_TOKEN or the api.github.com entry in ~/.netrc.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd, v)
		},
	}

	cmd.PersistentFlags().String("config", "", "config `file` (default $XDG_CONFIG_HOME/runprov/config.yaml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	_ = v.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.ExitUsage, "invalid flags", err)
	})

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newGenerateCmd(v, clientOpts))

	return cmd
}

// loadConfig layers environment variables and the optional config file
// beneath the command line flags.
func loadConfig(cmd *cobra.Command, v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(filepath.Join(dir, "runprov"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return clierr.Wrap(clierr.ExitUsage, "read config", err)
	}
	return nil
}

// newLogger logs to w at warning level, or debug level when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

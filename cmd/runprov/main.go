// Command runprov generates SLSA provenance for GitHub Actions workflow runs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meigma/runprov/cmd/runprov/commands"
	"github.com/meigma/runprov/cmd/runprov/internal/clierr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "runprov:", err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}

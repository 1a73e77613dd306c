// Command modelcatalog serves the chat and embedding model catalog of the
// configured AI providers over HTTP.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/florianilch/modelcatalog/cmd/modelcatalog/commands"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// Context cancellation on SIGINT/SIGTERM propagates to all commands and starts graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,    // SIGINT: Ctrl+C (cross-platform)
		syscall.SIGTERM, // SIGTERM: Docker/k8s termination (Unix-only)
	)

	err := commands.Execute(ctx, os.Args, version, commit)
	stop()
	if err != nil {
		slog.Error("modelcatalog failed", "error", err)
		os.Exit(1)
	}
}

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/mcpchat/internal/assistant"
	"github.com/crystaldolphin/mcpchat/internal/dependency"
	"github.com/crystaldolphin/mcpchat/internal/metrics"
)

// runChat starts every server, then reads lines from stdin until an exit
// command, end of input or a signal. Servers are shut down on every path.
func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	container, err := dependency.New(ctx, cfg, dependency.WithVersion(version))
	if err != nil {
		return err
	}
	return chat(ctx, container, cmd.InOrStdin(), cmd.OutOrStdout())
}

// chatSession is the part of the container a chat needs.
type chatSession interface {
	Assistant() *assistant.Assistant
	Metrics() metrics.Metrics
	Close() error
}

// chat runs the read loop over a connected session and closes it on return.
func chat(ctx context.Context, s chatSession, in io.Reader, out io.Writer) error {
	defer func() {
		if err := s.Close(); err != nil {
			slog.Warn("Shutdown finished with errors", "err", err)
		}
	}()

	if flagMetricsAddr != "" {
		srv := metrics.NewServer(flagMetricsAddr, s.Metrics())
		if err := srv.Run(); err != nil {
			return err
		}
		defer func() { _ = srv.Shutdown() }()
	}

	return assistant.Run(ctx, s.Assistant(), in, out)
}

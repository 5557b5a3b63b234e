package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gokatarajesh/codequiz/internal/app"
	"github.com/gokatarajesh/codequiz/internal/config"
)

// NewServeCmd builds the subcommand that runs the HTTP/WebSocket service.
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func runServer(ctx context.Context, cfg *config.App) error {
	instance, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	return instance.Run(ctx)
}

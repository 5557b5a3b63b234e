package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

// NewRootCmd assembles the codequiz command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "codequiz",
		Short:        "AI-generated programming quizzes over HTTP, WebSocket or the terminal",
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewPlayCmd())
	return cmd
}

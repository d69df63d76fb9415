package commands

import (
	"context"

	"github.com/spf13/cobra"

	"ReviewerOutreach/internal/app"
)

var runOpts app.Options

func init() {
	runCmd.Flags().BoolVar(&runOpts.Live, "send", false, "Send real emails instead of a dry run.")
	runCmd.Flags().BoolVar(&runOpts.AssumeYes, "yes", false, "Do not ask for confirmation before sending.")
	runCmd.Flags().IntVar(&runOpts.Limit, "limit", 0, "Process only the first N conferences (0 means all).")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--send] [--yes] [--limit N]",
	Short: "Runs scrape, research, generate and send in order.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOpts
		opts.Generate = true
		return withApplication(cmd, opts, func(ctx context.Context, a *app.Application) error {
			return a.Run(ctx)
		})
	},
}

package commands

import (
	"context"

	"github.com/spf13/cobra"

	"ReviewerOutreach/internal/app"
)

var (
	scrapeLimit int

	sendOpts app.Options

	resumeOpts  app.Options
	corrections string
)

func init() {
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 0, "Stop after N conferences (0 means all).")

	sendCmd.Flags().BoolVar(&sendOpts.Live, "send", false, "Send real emails instead of a dry run.")
	sendCmd.Flags().BoolVar(&sendOpts.AssumeYes, "yes", false, "Do not ask for confirmation before sending.")

	resumeCmd.Flags().BoolVar(&resumeOpts.Live, "send", false, "Send real emails instead of a dry run.")
	resumeCmd.Flags().BoolVar(&resumeOpts.AssumeYes, "yes", false, "Do not ask for confirmation before sending.")
	resumeCmd.Flags().StringVar(&corrections, "corrections", "", "CSV of corrected emails (name,url,email); default output.missing_emails_csv.")

	rootCmd.AddCommand(scrapeCmd, researchCmd, generateCmd, sendCmd, resumeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--limit N]",
	Short: "Scrapes conferences open for submissions and writes the listings CSV.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, app.Options{Limit: scrapeLimit}, func(ctx context.Context, a *app.Application) error {
			_, err := a.Pipeline().Scrape(ctx)
			return err
		})
	},
}

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Researches every listed conference and writes the research CSV.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, app.Options{}, func(ctx context.Context, a *app.Application) error {
			return a.Pipeline().ResearchStored(ctx)
		})
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Drafts a reviewer offer for every researched venue and writes the emails CSV.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, app.Options{Generate: true}, func(ctx context.Context, a *app.Application) error {
			return a.Pipeline().GenerateStored(ctx)
		})
	},
}

var sendCmd = &cobra.Command{
	Use:   "send [--send] [--yes]",
	Short: "Sends the drafts in the emails CSV (dry run unless --send).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, sendOpts, func(ctx context.Context, a *app.Application) error {
			report, err := a.Pipeline().SendStored(ctx)
			if err == nil {
				renderReport(cmd.OutOrStdout(), report, sendOpts.Live)
			}
			return err
		})
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume [--corrections path] [--send] [--yes]",
	Short: "Merges corrected emails into the listings and re-runs research, generate and send.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := resumeOpts
		opts.Generate = true
		return withApplication(cmd, opts, func(ctx context.Context, a *app.Application) error {
			return a.Resume(ctx, corrections)
		})
	},
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ReviewerOutreach/internal/app"
	"ReviewerOutreach/internal/config"
	"ReviewerOutreach/internal/logging"
	"ReviewerOutreach/internal/usecase"
)

var (
	configPath  string
	profilePath string
)

var rootCmd = &cobra.Command{
	Use:   "outreach",
	Short: "outreach finds open conferences and offers to review for them.",
	Long: `outreach scrapes venues open for submissions on OpenReview, researches
each one, drafts a personalised reviewer offer and emails the organisers.
Every stage writes a CSV file that the next stage reads, so stages can be
re-run on their own. Sending is a dry run unless --send is given.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default $OUTREACH_CONFIG or config/config.yaml).")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "Path to researcher profile YAML (default $OUTREACH_PROFILE or config/user_profile.yaml).")
}

// ExecuteContext runs the command tree and exits non-zero on failure.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if !errors.Is(err, usecase.ErrSendCancelled) {
			os.Exit(1)
		}
	}
}

func newApplication(opts app.Options) (*app.Application, error) {
	cfg := config.Load(configPath)
	opts.ProfilePath = profilePath
	return app.New(cfg, opts, logging.New(cfg.Logging.Level))
}

// withApplication builds the application, runs fn and releases it.
func withApplication(cmd *cobra.Command, opts app.Options, fn func(context.Context, *app.Application) error) error {
	opts.In = cmd.InOrStdin()
	opts.Out = cmd.OutOrStdout()

	application, err := newApplication(opts)
	if err != nil {
		return err
	}
	defer application.Close()

	return fn(cmd.Context(), application)
}

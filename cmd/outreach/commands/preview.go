package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ReviewerOutreach/internal/config"
	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/infrastructure/storage"
	"ReviewerOutreach/internal/usecase"
)

const previewWidth = 150

func init() {
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Prints the drafts in the emails CSV without sending anything.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load(configPath)
		drafts, err := storage.NewCSVStore().ReadDrafts(cfg.Output.EmailsCSV)
		if err != nil {
			return err
		}
		renderDrafts(cmd.OutOrStdout(), drafts)
		return nil
	},
}

func renderDrafts(w io.Writer, drafts []domain.Draft) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Venue", "To", "Status", "Body"})

	sendable := 0
	for i, d := range drafts {
		status := "ready"
		switch {
		case d.Body == domain.NoMatchBody:
			status = "no match"
		case d.Body == domain.GenerationFailedBody:
			status = "failed"
		case !usecase.ValidAddress(d.ToEmail):
			status = "no address"
		default:
			sendable++
		}
		t.AppendRow(table.Row{i + 1, d.VenueName, d.ToEmail, status, usecase.Truncate(d.Body, previewWidth)})
	}

	t.AppendFooter(table.Row{"", "", "", "ready", fmt.Sprintf("%d of %d", sendable, len(drafts))})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderReport(w io.Writer, report domain.SendReport, live bool) {
	mode := "dry run"
	if live {
		mode = "live"
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Send report (%s)", mode)
	t.AppendHeader(table.Row{"Sent", "Failed", "Skipped"})
	t.AppendRow(table.Row{report.Sent, report.Failed, report.Skipped})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

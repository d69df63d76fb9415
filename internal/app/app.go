package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"ReviewerOutreach/internal/config"
	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/infrastructure/llm"
	"ReviewerOutreach/internal/infrastructure/mail"
	"ReviewerOutreach/internal/infrastructure/parser"
	"ReviewerOutreach/internal/infrastructure/search"
	"ReviewerOutreach/internal/infrastructure/storage"
	"ReviewerOutreach/internal/logging"
	"ReviewerOutreach/internal/ports"
	"ReviewerOutreach/internal/usecase"
)

// Options are the per-invocation switches from the command line.
type Options struct {
	// Live sends real email; otherwise the send stage is a dry run.
	Live bool
	// AssumeYes skips the interactive confirmation before live sending.
	AssumeYes bool
	// Limit caps the number of scraped listings when positive.
	Limit int
	// Generate requires the researcher profile used by the generation stage.
	// Otherwise the profile is read only for its address when EMAIL_ADDRESS
	// is unset.
	Generate    bool
	ProfilePath string

	In  io.Reader
	Out io.Writer
}

// Application wires configs to use cases.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
	closers  []io.Closer
}

// New builds the pipeline with every adapter the configuration allows.
// Stages whose credentials are missing fail when invoked.
func New(cfg config.Config, opts Options, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	source := parser.NewOpenReviewScraper(&http.Client{}, parser.Options{
		BaseURL:   cfg.Scraper.BaseURL,
		Delay:     cfg.Scraper.Delay.Duration(),
		Timeout:   cfg.Scraper.Timeout.Duration(),
		Limit:     opts.Limit,
		UserAgent: cfg.Scraper.UserAgent,
	}, baseLogger.With("component", "scraper.openreview"))

	var researcher *usecase.Researcher
	if cfg.Research.APIKey != "" {
		client := search.NewBreakingClient(
			search.NewExaClient(cfg.Research, nil),
			search.BreakerOptions{},
			baseLogger.With("component", "search"),
		)
		researcher = usecase.NewResearcher(
			client,
			usecase.ResearchOptions{
				NumResults:            cfg.Research.NumResults,
				HighlightsPerURL:      cfg.Research.HighlightsPerURL,
				SentencesPerHighlight: cfg.Research.SentencesPerHighlight,
			},
			baseLogger.With("component", "research"),
		)
	} else {
		baseLogger.Warn("EXA_API_KEY not set; research stage disabled")
	}

	var (
		generator *usecase.Generator
		profile   domain.Profile
	)
	if opts.Generate || cfg.SMTP.Username == "" {
		var err error
		profile, err = config.LoadProfile(opts.ProfilePath)
		switch {
		case err != nil && opts.Generate:
			return nil, err
		case err != nil:
			baseLogger.Warn("no sender address: EMAIL_ADDRESS unset and profile unreadable", "error", err)
		}
	}
	if opts.Generate {
		if cfg.EmailGeneration.APIKey != "" {
			client := llm.NewChatGPTClient(cfg.EmailGeneration, nil)
			baseLogger.Info("email generation model", "model", client.Model(), "token_param", llm.TokenParam(client.Model()))
			generator = usecase.NewGenerator(client, profile, usecase.GeneratorOptions{
				Temperature: cfg.EmailGeneration.Temperature,
				MaxTokens:   cfg.EmailGeneration.MaxTokens,
				MaxRetries:  cfg.EmailGeneration.MaxRetries,
			}, baseLogger.With("component", "generator"))
		} else {
			baseLogger.Warn("OPENAI_API_KEY not set; generation stage disabled")
		}
	}

	var (
		mailer    ports.Mailer
		ledger    ports.SentLedger
		confirmer ports.Confirmer
	)
	if opts.Live {
		if !cfg.SMTP.HasCredentials() {
			return nil, fmt.Errorf("live sending needs EMAIL_ADDRESS and EMAIL_PASSWORD: %w", domain.ErrConfiguration)
		}
		if !cfg.SMTP.AuthAllowed() {
			return nil, fmt.Errorf("smtp host %s: %w: %w", cfg.SMTP.Host, domain.ErrConfiguration, mail.ErrPlaintextAuth)
		}
		mailer = mail.NewSMTPMailer(cfg.SMTP)

		if cfg.Ledger.Path != "" {
			l, err := storage.OpenSQLiteLedger(cfg.Ledger.Path)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, l)
			ledger = l
		}
		if !opts.AssumeYes {
			confirmer = NewPromptConfirmer(opts.In, opts.Out)
		}
	}

	from := cfg.SMTP.Username
	if from == "" {
		from = profile.Email
	}

	dispatcher := usecase.NewDispatcher(mailer, usecase.DispatcherOptions{
		DryRun:      !opts.Live,
		MinInterval: cfg.SMTP.MinDelay.Duration(),
	}, baseLogger.With("component", "dispatcher"))

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Store:      storage.NewCSVStore(),
		Researcher: researcher,
		Generator:  generator,
		Dispatcher: dispatcher,
		Ledger:     ledger,
		Confirmer:  confirmer,
		Paths: usecase.Paths{
			Listings:    cfg.Output.ConferencesCSV,
			Enrichments: cfg.Output.VenueResearchCSV,
			Drafts:      cfg.Output.EmailsCSV,
		},
		FromAddress: from,
		Logger:      baseLogger.With("component", "pipeline"),
	})
	return a, nil
}

// Pipeline exposes the wired use case.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Config returns the effective configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Run performs a full pipeline execution.
func (a *Application) Run(ctx context.Context) error {
	return a.pipeline.Run(ctx)
}

// Resume merges corrections and re-runs research, generation and send.
// An empty path means the configured missing-emails file.
func (a *Application) Resume(ctx context.Context, correctionsPath string) error {
	if correctionsPath == "" {
		correctionsPath = a.cfg.Output.MissingEmailsCSV
	}
	return a.pipeline.Resume(ctx, correctionsPath)
}

// Close releases the sent ledger.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

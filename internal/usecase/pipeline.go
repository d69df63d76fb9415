package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/ports"
)

// ErrSendCancelled is returned when the operator declines live sending.
var ErrSendCancelled = errors.New("send cancelled by operator")

const previewChars = 150

// Paths names the CSV files exchanged between stages.
type Paths struct {
	Listings    string
	Enrichments string
	Drafts      string
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
// Researcher and Generator are nil when their API key is missing.
type PipelineDeps struct {
	Source      ports.ListingSource
	Store       ports.RecordStore
	Researcher  *Researcher
	Generator   *Generator
	Dispatcher  *Dispatcher
	Ledger      ports.SentLedger
	Confirmer   ports.Confirmer
	Paths       Paths
	FromAddress string
	Logger      *slog.Logger
}

// Pipeline runs scrape, research, generate and send in order, persisting
// every stage before the next starts.
type Pipeline struct {
	source     ports.ListingSource
	store      ports.RecordStore
	researcher *Researcher
	generator  *Generator
	dispatcher *Dispatcher
	ledger     ports.SentLedger
	confirmer  ports.Confirmer
	paths      Paths
	from       string
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:     deps.Source,
		store:      deps.Store,
		researcher: deps.Researcher,
		generator:  deps.Generator,
		dispatcher: deps.Dispatcher,
		ledger:     deps.Ledger,
		confirmer:  deps.Confirmer,
		paths:      deps.Paths,
		from:       deps.FromAddress,
		logger:     logger,
	}
}

// Run executes all four stages.
func (p *Pipeline) Run(ctx context.Context) error {
	listings, err := p.Scrape(ctx)
	if err != nil {
		return err
	}
	return p.runFrom(ctx, listings)
}

// Resume folds manual corrections into the listings file and re-runs the
// research, generation and send stages.
func (p *Pipeline) Resume(ctx context.Context, correctionsPath string) error {
	listings, err := p.store.ReadListings(p.paths.Listings)
	if err != nil {
		return fmt.Errorf("read listings: %w", err)
	}
	corrections, err := p.store.ReadListings(correctionsPath)
	if err != nil {
		return fmt.Errorf("read corrections: %w", err)
	}

	merged := MergeCorrections(listings, corrections)
	if err := p.store.WriteListings(p.paths.Listings, merged); err != nil {
		return fmt.Errorf("write listings: %w", err)
	}
	p.logger.Info("merged corrections", "path", p.paths.Listings, "rows", len(merged))

	return p.runFrom(ctx, merged)
}

func (p *Pipeline) runFrom(ctx context.Context, listings []domain.Listing) error {
	enrichments, err := p.Research(ctx, listings)
	if err != nil {
		return err
	}
	drafts, err := p.Generate(ctx, enrichments)
	if err != nil {
		return err
	}
	p.Preview(drafts)
	_, err = p.Send(ctx, drafts)
	return err
}

// Scrape collects listings and writes them. Addresses known from a previous
// listings file fill in venues the fresh scrape could not resolve.
func (p *Pipeline) Scrape(ctx context.Context) ([]domain.Listing, error) {
	if p.source == nil {
		return nil, fmt.Errorf("scrape: no listing source: %w", domain.ErrConfiguration)
	}
	p.logger.Info("phase 1: scraping conferences")

	listings, err := p.source.Scrape(ctx)
	if err != nil {
		return nil, fmt.Errorf("scrape: %w", err)
	}

	previous, err := p.store.ReadListings(p.paths.Listings)
	switch {
	case err == nil:
		listings = UpsertListings(listings, previous, false)
	case !errors.Is(err, os.ErrNotExist):
		p.logger.Warn("cannot read previous listings", "path", p.paths.Listings, "error", err)
	}

	if err := p.store.WriteListings(p.paths.Listings, listings); err != nil {
		return nil, fmt.Errorf("write listings: %w", err)
	}
	p.logger.Info("scraped conferences", "count", len(listings), "path", p.paths.Listings)
	return listings, nil
}

// Research enriches every listing and writes the enrichment file.
func (p *Pipeline) Research(ctx context.Context, listings []domain.Listing) ([]domain.Enrichment, error) {
	if p.researcher == nil {
		return nil, fmt.Errorf("research: search api key missing: %w", domain.ErrConfiguration)
	}
	p.logger.Info("phase 2: researching venues")

	out := make([]domain.Enrichment, 0, len(listings))
	for i, l := range listings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.logger.Info("venue", "index", i+1, "total", len(listings), "name", l.Name)
		out = append(out, ToEnrichment(l, p.researcher.Research(ctx, l.Name, l.URL)))
	}

	if err := p.store.WriteEnrichments(p.paths.Enrichments, out); err != nil {
		return nil, fmt.Errorf("write enrichments: %w", err)
	}
	p.logger.Info("researched venues", "count", len(out), "path", p.paths.Enrichments)
	return out, nil
}

// Generate writes one draft per enrichment. A failure for one venue leaves a
// placeholder body; rejected credentials abort the stage.
func (p *Pipeline) Generate(ctx context.Context, enrichments []domain.Enrichment) ([]domain.Draft, error) {
	if p.generator == nil {
		return nil, fmt.Errorf("generate: language model api key missing: %w", domain.ErrConfiguration)
	}
	p.logger.Info("phase 3: generating personalized emails")

	drafts := make([]domain.Draft, 0, len(enrichments))
	var skipped, failed int
	for i, e := range enrichments {
		p.logger.Info("venue", "index", i+1, "total", len(enrichments), "name", e.Name)

		body, ok, err := p.generator.Generate(ctx, e)
		switch {
		case errors.Is(err, domain.ErrConfiguration):
			return nil, fmt.Errorf("generate %s: %w", e.Name, err)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			p.logger.Error("generation failed", "venue", e.Name, "error", err)
			body = domain.GenerationFailedBody
			failed++
		case !ok:
			body = domain.NoMatchBody
			skipped++
		}

		drafts = append(drafts, domain.Draft{
			VenueName: e.Name,
			ToEmail:   e.Email,
			Subject:   domain.SubjectFor(e.Name),
			Body:      body,
		})
	}

	if err := p.store.WriteDrafts(p.paths.Drafts, drafts); err != nil {
		return nil, fmt.Errorf("write drafts: %w", err)
	}
	p.logger.Info("generated emails",
		"generated", len(drafts)-skipped-failed,
		"no_match", skipped,
		"failed", failed,
		"path", p.paths.Drafts)
	return drafts, nil
}

// Preview logs what is about to be sent.
func (p *Pipeline) Preview(drafts []domain.Draft) {
	for i, d := range drafts {
		if !d.Sendable() {
			p.logger.Info("preview: skipped", "index", i+1, "venue", d.VenueName, "reason", d.Body)
			continue
		}
		p.logger.Info("preview",
			"index", i+1,
			"venue", d.VenueName,
			"to", d.ToEmail,
			"subject", d.Subject,
			"body", Truncate(d.Body, previewChars+3))
	}
}

// Send dispatches every sendable draft. Live runs consult the ledger and the
// confirmer first; a nil confirmer means the operator already agreed.
func (p *Pipeline) Send(ctx context.Context, drafts []domain.Draft) (domain.SendReport, error) {
	var report domain.SendReport
	if p.dispatcher == nil {
		return report, fmt.Errorf("send: no dispatcher: %w", domain.ErrConfiguration)
	}
	live := !p.dispatcher.DryRun()
	p.logger.Info("phase 4: sending emails", "live", live)

	pending := make([]domain.Draft, 0, len(drafts))
	for _, d := range drafts {
		if !d.Sendable() {
			p.logger.Info("skipping venue", "venue", d.VenueName, "reason", d.Body)
			report.Skipped++
			continue
		}
		pending = append(pending, d)
	}

	if live && p.ledger != nil && len(pending) > 0 {
		keys := make([]string, len(pending))
		for i, d := range pending {
			keys[i] = d.Key()
		}
		sent, err := p.ledger.AlreadySent(ctx, keys)
		if err != nil {
			return report, fmt.Errorf("load sent ledger: %w", err)
		}
		fresh := pending[:0]
		for _, d := range pending {
			if sent[d.Key()] {
				p.logger.Info("already sent, skipping", "venue", d.VenueName, "to", d.ToEmail)
				report.Skipped++
				continue
			}
			fresh = append(fresh, d)
		}
		pending = fresh
	}

	if live && p.confirmer != nil && len(pending) > 0 {
		ok, err := p.confirmer.Confirm(ctx, len(pending))
		if err != nil {
			return report, fmt.Errorf("confirm send: %w", err)
		}
		if !ok {
			report.Skipped += len(pending)
			p.logger.Info("emails not sent; review the drafts file and run the send stage", "path", p.paths.Drafts)
			return report, ErrSendCancelled
		}
	}

	for i, d := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		p.logger.Info("sending", "index", i+1, "total", len(pending), "venue", d.VenueName)

		if !p.dispatcher.Send(ctx, d.ToEmail, d.Subject, d.Body, p.from) {
			report.Failed++
			continue
		}
		report.Sent++

		if live && p.ledger != nil {
			if err := p.ledger.RecordSent(ctx, d.Key(), d); err != nil {
				p.logger.Warn("cannot record sent email", "to", d.ToEmail, "error", err)
			}
		}
	}

	p.logger.Info("send finished", "sent", report.Sent, "failed", report.Failed, "skipped", report.Skipped)
	return report, nil
}

// ResearchStored runs the research stage from the listings file.
func (p *Pipeline) ResearchStored(ctx context.Context) error {
	listings, err := p.store.ReadListings(p.paths.Listings)
	if err != nil {
		return fmt.Errorf("read listings: %w", err)
	}
	_, err = p.Research(ctx, listings)
	return err
}

// GenerateStored runs the generation stage from the enrichment file.
func (p *Pipeline) GenerateStored(ctx context.Context) error {
	enrichments, err := p.store.ReadEnrichments(p.paths.Enrichments)
	if err != nil {
		return fmt.Errorf("read enrichments: %w", err)
	}
	_, err = p.Generate(ctx, enrichments)
	return err
}

// SendStored runs the send stage from the drafts file.
func (p *Pipeline) SendStored(ctx context.Context) (domain.SendReport, error) {
	drafts, err := p.store.ReadDrafts(p.paths.Drafts)
	if err != nil {
		return domain.SendReport{}, fmt.Errorf("read drafts: %w", err)
	}
	p.Preview(drafts)
	return p.Send(ctx, drafts)
}

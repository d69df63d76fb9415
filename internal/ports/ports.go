package ports

import (
	"context"

	"ReviewerOutreach/internal/domain"
)

// ListingSource pulls conference listings from the submissions site.
type ListingSource interface {
	Scrape(ctx context.Context) ([]domain.Listing, error)
}

// SearchClient queries the web-search service for highlight snippets.
type SearchClient interface {
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error)
}

// CompletionClient sends role-tagged prompts to a language model.
// Failures are returned as *domain.CallError.
type CompletionClient interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// Mailer transmits a single message over the wire.
type Mailer interface {
	Deliver(ctx context.Context, msg domain.Message) error
}

// RecordStore persists the intermediate tables between stages.
type RecordStore interface {
	ReadListings(path string) ([]domain.Listing, error)
	WriteListings(path string, listings []domain.Listing) error
	ReadEnrichments(path string) ([]domain.Enrichment, error)
	WriteEnrichments(path string, items []domain.Enrichment) error
	ReadDrafts(path string) ([]domain.Draft, error)
	WriteDrafts(path string, drafts []domain.Draft) error
}

// SentLedger remembers which drafts were already delivered.
type SentLedger interface {
	AlreadySent(ctx context.Context, keys []string) (map[string]bool, error)
	RecordSent(ctx context.Context, key string, draft domain.Draft) error
}

// Confirmer gates live sending behind an operator decision.
type Confirmer interface {
	Confirm(ctx context.Context, pending int) (bool, error)
}

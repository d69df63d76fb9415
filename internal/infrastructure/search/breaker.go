package search

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/ports"
)

// BreakerOptions tunes when the search circuit opens and how long it stays open.
type BreakerOptions struct {
	ConsecutiveFailures uint32
	OpenFor             time.Duration
}

// BreakingClient stops calling the search service after repeated failures.
type BreakingClient struct {
	next    ports.SearchClient
	breaker *gobreaker.CircuitBreaker
}

var _ ports.SearchClient = (*BreakingClient)(nil)

// NewBreakingClient wraps next. Zero options trip after three consecutive
// failures and retry after a minute.
func NewBreakingClient(next ports.SearchClient, opts BreakerOptions, logger *slog.Logger) *BreakingClient {
	if opts.ConsecutiveFailures == 0 {
		opts.ConsecutiveFailures = 3
	}
	if opts.OpenFor <= 0 {
		opts.OpenFor = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	threshold := opts.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "search",
		MaxRequests: 1,
		Timeout:     opts.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// cancellation is not a service failure
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakingClient{next: next, breaker: cb}
}

// Search forwards to the wrapped client unless the circuit is open.
func (b *BreakingClient) Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Search(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &domain.CallError{Kind: domain.KindTransient, Op: "exa search", Err: err}
	}
	if err != nil {
		return nil, err
	}
	results, _ := out.([]domain.SearchResult)
	return results, nil
}

// State reports the breaker state, e.g. "closed" or "open".
func (b *BreakingClient) State() string {
	return b.breaker.State().String()
}

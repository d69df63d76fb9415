package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"ReviewerOutreach/internal/config"
	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/ports"
)

// ExaClient implements ports.SearchClient against the Exa search API.
type ExaClient struct {
	http   *resty.Client
	apiKey string
}

var _ ports.SearchClient = (*ExaClient)(nil)

type exaHighlights struct {
	HighlightsPerURL int    `json:"highlightsPerUrl"`
	NumSentences     int    `json:"numSentences"`
	Query            string `json:"query,omitempty"`
}

type exaRequest struct {
	Query      string `json:"query"`
	Type       string `json:"type"`
	NumResults int    `json:"numResults"`
	Contents   struct {
		Highlights exaHighlights `json:"highlights"`
	} `json:"contents"`
}

type exaResponse struct {
	Results []struct {
		Title      string   `json:"title"`
		URL        string   `json:"url"`
		Highlights []string `json:"highlights"`
	} `json:"results"`
}

// NewExaClient builds a client from configuration. A nil httpClient uses a
// fresh one with the configured timeout.
func NewExaClient(cfg config.ResearchConfig, httpClient *http.Client) *ExaClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rc := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimSuffix(cfg.Endpoint, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", cfg.APIKey)

	return &ExaClient{http: rc, apiKey: cfg.APIKey}
}

// Search runs a neural search with highlight extraction scored against the query.
func (c *ExaClient) Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	if c == nil || c.apiKey == "" {
		return nil, fmt.Errorf("exa client: %w", domain.ErrConfiguration)
	}

	body := exaRequest{Query: req.Query, Type: "neural", NumResults: req.NumResults}
	body.Contents.Highlights = exaHighlights{
		HighlightsPerURL: req.HighlightsPerURL,
		NumSentences:     req.SentencesPerResult,
		Query:            req.Query,
	}

	var out exaResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/search")
	if err != nil {
		return nil, &domain.CallError{Kind: domain.KindTransient, Op: "exa search", Err: err}
	}
	if res.IsError() {
		kind := domain.KindProtocol
		switch res.StatusCode() {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = domain.KindAuth
		case http.StatusTooManyRequests:
			kind = domain.KindTransient
		}
		return nil, &domain.CallError{
			Kind:   kind,
			Op:     "exa search",
			Status: res.StatusCode(),
			Err:    fmt.Errorf("exa returned %s: %s", res.Status(), truncate(res.String(), 512)),
		}
	}

	results := make([]domain.SearchResult, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, domain.SearchResult{Title: r.Title, URL: r.URL, Highlights: r.Highlights})
	}
	return results, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

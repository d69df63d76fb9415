package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/ports"
)

const (
	openReviewBaseURL = "https://openreview.net"
	sectionMarker     = "Open for Submissions"
	defaultUserAgent  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

var groupLinkExpr = regexp.MustCompile(`/group\?id=`)

// Options tunes the scraper; zero values fall back to the site defaults.
type Options struct {
	BaseURL   string
	Delay     time.Duration
	Timeout   time.Duration
	Limit     int
	UserAgent string
}

// OpenReviewScraper collects venues from the "Open for Submissions" section
// and resolves a contact address for each.
type OpenReviewScraper struct {
	http    *resty.Client
	baseURL string
	delay   time.Duration
	limit   int
	logger  *slog.Logger
	wait    func(ctx context.Context, d time.Duration) error
}

var _ ports.ListingSource = (*OpenReviewScraper)(nil)

// NewOpenReviewScraper wires an HTTP client; a nil client gets a 30s timeout.
func NewOpenReviewScraper(client *http.Client, opts Options, logger *slog.Logger) *OpenReviewScraper {
	if client == nil {
		client = &http.Client{}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = openReviewBaseURL
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}

	rc := resty.NewWithClient(client).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent)

	return &OpenReviewScraper{
		http:    rc,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		delay:   opts.Delay,
		limit:   opts.Limit,
		logger:  logger,
		wait:    sleepContext,
	}
}

type candidate struct {
	name string
	url  string
}

// Scrape returns listings in page order. Homepage failures and a missing
// section are logged and yield an empty result.
func (s *OpenReviewScraper) Scrape(ctx context.Context) ([]domain.Listing, error) {
	s.logger.Info("fetching homepage", "url", s.baseURL)

	body, err := s.fetch(ctx, s.baseURL)
	if err != nil {
		s.logger.Error("fetch homepage", "error", err)
		return []domain.Listing{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.logger.Error("parse homepage", "error", err)
		return []domain.Listing{}, nil
	}

	section := findSection(doc, sectionMarker)
	if section == nil {
		s.logger.Warn("section not found", "marker", sectionMarker)
		return []domain.Listing{}, nil
	}

	candidates := s.collectCandidates(section)
	if s.limit > 0 && len(candidates) > s.limit {
		candidates = candidates[:s.limit]
	}
	s.logger.Info("found conferences", "count", len(candidates))

	listings := make([]domain.Listing, 0, len(candidates))
	for i, c := range candidates {
		s.logger.Info("processing conference", "index", i+1, "total", len(candidates), "name", c.name)

		email := domain.EmailNotFound
		if found, ok := s.conferenceEmail(ctx, c.url); ok {
			email = found
		}
		listings = append(listings, domain.Listing{Name: c.name, URL: c.url, Email: email})

		if i < len(candidates)-1 && s.delay > 0 {
			if err := s.wait(ctx, s.delay); err != nil {
				return listings, err
			}
		}
	}

	return listings, nil
}

func findSection(doc *goquery.Document, marker string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("section").EachWithBreak(func(_ int, sec *goquery.Selection) bool {
		h1 := sec.Find("h1").First()
		if h1.Length() > 0 && strings.Contains(h1.Text(), marker) {
			found = sec
			return false
		}
		return true
	})
	return found
}

func (s *OpenReviewScraper) collectCandidates(section *goquery.Selection) []candidate {
	var out []candidate
	section.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !groupLinkExpr.MatchString(href) {
			return
		}
		link := href
		if strings.HasPrefix(href, "/") {
			link = s.baseURL + href
		}
		out = append(out, candidate{
			name: strings.Join(strings.Fields(a.Text()), " "),
			url:  link,
		})
	})
	return out
}

func (s *OpenReviewScraper) conferenceEmail(ctx context.Context, pageURL string) (string, bool) {
	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		s.logger.Warn("fetch conference page", "url", pageURL, "error", err)
		return "", false
	}

	email, ok := ExtractEmail(string(body))
	if !ok {
		s.logger.Info("no valid email found", "url", pageURL)
		return "", false
	}
	s.logger.Info("found email", "url", pageURL, "email", email)
	return email, true
}

func (s *OpenReviewScraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	res, err := s.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		kind := domain.KindTransient
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			kind = domain.KindTimeout
		}
		return nil, &domain.CallError{Kind: kind, Op: "fetch " + pageURL, Err: err}
	}

	switch {
	case res.StatusCode() == http.StatusNotFound:
		return nil, &domain.CallError{Kind: domain.KindNotFound, Op: "fetch " + pageURL, Status: res.StatusCode(), Err: fmt.Errorf("openreview returned %s", res.Status())}
	case res.StatusCode() != http.StatusOK:
		return nil, &domain.CallError{Kind: domain.KindProtocol, Op: "fetch " + pageURL, Status: res.StatusCode(), Err: fmt.Errorf("openreview returned %s", res.Status())}
	}

	return res.Body(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

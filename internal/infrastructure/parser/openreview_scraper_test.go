package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ReviewerOutreach/internal/domain"
)

const homepage = `
<html><body>
  <section><h1>Active Venues</h1><a href="/group?id=Old/2024">Old Venue</a></section>
  <section>
    <h1>Open for Submissions</h1>
    <ul>
      <li><a href="/group?id=ICLR.cc/2026/Conference">  ICLR 2026
        Conference </a></li>
      <li><a href="/about">About</a></li>
      <li><a href="/group?id=Missing/2026">Missing Venue</a></li>
      <li><a href="https://openreview.net/group?id=Abs/2026">Absolute Venue</a></li>
    </ul>
  </section>
</body></html>`

func newTestServer(t *testing.T, home string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(home))
	})
	mux.HandleFunc("/group", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "ICLR.cc/2026/Conference":
			_, _ = w.Write([]byte(`<p>Questions: info@openreview.net or iclr2026pc@gmail.com</p>`))
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestScrapeCollectsListingsInOrder(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, homepage)
	sc := NewOpenReviewScraper(server.Client(), Options{BaseURL: server.URL, Delay: time.Second}, nil)

	var waits []time.Duration
	sc.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	listings, err := sc.Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 3)

	require.Equal(t, domain.Listing{
		Name:  "ICLR 2026 Conference",
		URL:   server.URL + "/group?id=ICLR.cc/2026/Conference",
		Email: "iclr2026pc@gmail.com",
	}, listings[0])
	require.Equal(t, "Missing Venue", listings[1].Name)
	require.Equal(t, domain.EmailNotFound, listings[1].Email)
	require.Equal(t, "https://openreview.net/group?id=Abs/2026", listings[2].URL)

	require.Equal(t, []time.Duration{time.Second, time.Second}, waits)
}

func TestScrapeHonoursLimit(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, homepage)
	sc := NewOpenReviewScraper(server.Client(), Options{BaseURL: server.URL, Limit: 1}, nil)

	listings, err := sc.Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.Equal(t, "ICLR 2026 Conference", listings[0].Name)
}

func TestScrapeWithoutSection(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, `<section><h1>Recent Activity</h1></section>`)
	sc := NewOpenReviewScraper(server.Client(), Options{BaseURL: server.URL}, nil)

	listings, err := sc.Scrape(context.Background())
	require.NoError(t, err)
	require.Empty(t, listings)
}

func TestScrapeSectionWithoutLinks(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, `<section><h1>Open for Submissions</h1><p>None right now.</p></section>`)
	sc := NewOpenReviewScraper(server.Client(), Options{BaseURL: server.URL}, nil)

	listings, err := sc.Scrape(context.Background())
	require.NoError(t, err)
	require.Empty(t, listings)
}

func TestScrapeHomepageFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sc := NewOpenReviewScraper(server.Client(), Options{BaseURL: server.URL}, nil)
	listings, err := sc.Scrape(context.Background())
	require.NoError(t, err)
	require.Empty(t, listings)
}

func TestFetchClassifiesStatus(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, homepage)
	sc := NewOpenReviewScraper(server.Client(), Options{BaseURL: server.URL}, nil)

	_, err := sc.fetch(context.Background(), server.URL+"/nope")
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	require.Equal(t, domain.KindNotFound, kind)
}

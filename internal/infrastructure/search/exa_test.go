package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"ReviewerOutreach/internal/config"
	"ReviewerOutreach/internal/domain"
)

func TestExaClientSearch(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotKey  string
		body    map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		_ = json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"A","url":"https://a","highlights":["one","two"]},
			{"title":"B","url":"https://b"}
		]}`))
	}))
	defer server.Close()

	client := NewExaClient(config.ResearchConfig{Endpoint: server.URL, APIKey: "secret"}, server.Client())
	results, err := client.Search(context.Background(), domain.SearchRequest{
		Query: "ICLR call for papers", NumResults: 5, HighlightsPerURL: 3, SentencesPerResult: 2,
	})
	require.NoError(t, err)
	require.Equal(t, []domain.SearchResult{
		{Title: "A", URL: "https://a", Highlights: []string{"one", "two"}},
		{Title: "B", URL: "https://b"},
	}, results)

	require.Equal(t, "/search", gotPath)
	require.Equal(t, "secret", gotKey)
	require.Equal(t, "ICLR call for papers", body["query"])
	require.Equal(t, "neural", body["type"])
	require.EqualValues(t, 5, body["numResults"])
	highlights := body["contents"].(map[string]any)["highlights"].(map[string]any)
	require.EqualValues(t, 3, highlights["highlightsPerUrl"])
	require.EqualValues(t, 2, highlights["numSentences"])
	require.Equal(t, "ICLR call for papers", highlights["query"])
}

func TestExaClientClassifiesErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer server.Close()

	client := NewExaClient(config.ResearchConfig{Endpoint: server.URL, APIKey: "wrong"}, server.Client())
	_, err := client.Search(context.Background(), domain.SearchRequest{Query: "q"})
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	require.Equal(t, domain.KindAuth, kind)
}

func TestExaClientWithoutKey(t *testing.T) {
	t.Parallel()

	client := NewExaClient(config.ResearchConfig{Endpoint: "http://unused"}, nil)
	_, err := client.Search(context.Background(), domain.SearchRequest{Query: "q"})
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

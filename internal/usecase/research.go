package usecase

import (
	"context"
	"log/slog"
	"strings"

	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/ports"
)

const (
	queryPhrase   = "call for papers research topics scope"
	fallbackTopic = "General Computer Science"

	maxStoredHighlights = 5
	maxHighlightChars   = 500
)

type topicGroup struct {
	label    string
	triggers []string
}

// Evaluated in order so the output is stable.
var topicGroups = []topicGroup{
	{"Machine Learning", []string{"machine learning", "ml", "deep learning", "neural network"}},
	{"Natural Language Processing", []string{"nlp", "natural language", "language model", "text mining"}},
	{"Computer Vision", []string{"computer vision", "image processing", "visual", "cv"}},
	{"AI", []string{"artificial intelligence", "ai"}},
	{"Theory", []string{"theory", "theoretical", "algorithm"}},
	{"Data Science", []string{"data science", "data mining", "analytics"}},
	{"Robotics", []string{"robotics", "robot", "autonomous"}},
	{"Healthcare", []string{"healthcare", "medical", "clinical", "health"}},
	{"Security", []string{"security", "privacy", "cryptography"}},
	{"Systems", []string{"systems", "distributed", "cloud", "infrastructure"}},
}

// ResearchOptions sizes the search request.
type ResearchOptions struct {
	NumResults            int
	HighlightsPerURL      int
	SentencesPerHighlight int
}

// Researcher enriches a listing with search highlights and topic labels.
type Researcher struct {
	search ports.SearchClient
	opts   ResearchOptions
	logger *slog.Logger
}

// NewResearcher wires the search client. Zero options take the defaults 5/3/2.
func NewResearcher(search ports.SearchClient, opts ResearchOptions, logger *slog.Logger) *Researcher {
	if opts.NumResults <= 0 {
		opts.NumResults = 5
	}
	if opts.HighlightsPerURL <= 0 {
		opts.HighlightsPerURL = 3
	}
	if opts.SentencesPerHighlight <= 0 {
		opts.SentencesPerHighlight = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Researcher{search: search, opts: opts, logger: logger}
}

// Research never fails: search errors are logged and yield no highlights.
func (r *Researcher) Research(ctx context.Context, name, url string) domain.Research {
	query := BuildQuery(name)
	r.logger.Info("researching venue", "name", name, "url", url)

	highlights := r.highlights(ctx, query)
	if len(highlights) == 0 {
		r.logger.Info("no highlights found", "name", name)
	}
	for i, h := range highlights {
		if i == maxStoredHighlights {
			break
		}
		r.logger.Debug("highlight", "name", name, "index", i+1, "text", h)
	}

	return domain.Research{
		Highlights: highlights,
		KeyTopics:  ClassifyTopics(highlights),
	}
}

func (r *Researcher) highlights(ctx context.Context, query string) []string {
	results, err := r.search.Search(ctx, domain.SearchRequest{
		Query:              query,
		NumResults:         r.opts.NumResults,
		HighlightsPerURL:   r.opts.HighlightsPerURL,
		SentencesPerResult: r.opts.SentencesPerHighlight,
	})
	if err != nil {
		r.logger.Warn("search failed", "query", query, "error", err)
		return []string{}
	}

	all := []string{}
	for _, res := range results {
		all = append(all, res.Highlights...)
	}
	return all
}

// BuildQuery turns a venue name into the search query.
func BuildQuery(name string) string {
	return name + " " + queryPhrase
}

// ClassifyTopics labels highlights with every topic group one of whose
// triggers occurs in the lowercased text.
func ClassifyTopics(highlights []string) []string {
	text := strings.ToLower(strings.Join(highlights, " "))

	var topics []string
	for _, group := range topicGroups {
		for _, trigger := range group.triggers {
			if strings.Contains(text, trigger) {
				topics = append(topics, group.label)
				break
			}
		}
	}

	if len(topics) == 0 {
		return []string{fallbackTopic}
	}
	return topics
}

// ToEnrichment flattens research results into the stored record.
func ToEnrichment(l domain.Listing, r domain.Research) domain.Enrichment {
	return domain.Enrichment{
		Name:       l.Name,
		URL:        l.URL,
		Email:      l.Email,
		KeyTopics:  strings.Join(r.KeyTopics, ", "),
		Highlights: FormatHighlights(r.Highlights),
	}
}

// FormatHighlights joins at most five highlights and caps the result at 500 characters.
func FormatHighlights(highlights []string) string {
	if len(highlights) > maxStoredHighlights {
		highlights = highlights[:maxStoredHighlights]
	}
	return Truncate(strings.Join(highlights, " | "), maxHighlightChars)
}

// Truncate shortens s to n characters, the last three being "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

package domain

// Expertise is a research domain and what the user focuses on within it.
type Expertise struct {
	Domain string `yaml:"domain" validate:"required"`
	Focus  string `yaml:"focus"`
}

// Profile describes the researcher on whose behalf messages are written.
type Profile struct {
	Name         string      `yaml:"name" validate:"required"`
	Affiliation  string      `yaml:"affiliation"`
	Identity     string      `yaml:"identity"`
	Email        string      `yaml:"email" validate:"omitempty,email"`
	Signature    string      `yaml:"signature"`
	Publications []string    `yaml:"publications"`
	Expertise    []Expertise `yaml:"expertise" validate:"dive"`
}

// ChatMessage is a role-tagged prompt entry.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is what the generator asks of the language model.
type CompletionRequest struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// SearchRequest is a highlight-extracting web search.
type SearchRequest struct {
	Query              string
	NumResults         int
	HighlightsPerURL   int
	SentencesPerResult int
}

// SearchResult is one hit returned by the search service.
type SearchResult struct {
	Title      string
	URL        string
	Highlights []string
}

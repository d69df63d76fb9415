package domain

// Research is the raw output of a venue search before it is flattened for storage.
type Research struct {
	Highlights []string
	KeyTopics  []string
}

// Enrichment carries a listing forward with topics and highlight snippets.
type Enrichment struct {
	Name       string
	URL        string
	Email      string
	KeyTopics  string
	Highlights string
}

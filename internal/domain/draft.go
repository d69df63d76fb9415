package domain

import (
	"fmt"
	"strings"
)

const (
	// NoMatchBody replaces the message when the model finds no overlap.
	NoMatchBody = "No match - interests do not align"
	// GenerationFailedBody replaces the message when generation errored for the venue.
	GenerationFailedBody = "Generation failed - retry later"
)

// Draft is a generated outbound message paired with its recipient.
type Draft struct {
	VenueName string
	ToEmail   string
	Subject   string
	Body      string
}

// Sendable reports whether the draft holds a real message.
func (d Draft) Sendable() bool {
	return d.Body != "" && d.Body != NoMatchBody && d.Body != GenerationFailedBody
}

// Key identifies the draft in the sent ledger: recipient plus subject.
func (d Draft) Key() string {
	return strings.ToLower(strings.TrimSpace(d.ToEmail)) + "|" + strings.TrimSpace(d.Subject)
}

// SubjectFor builds the fixed subject line for a venue.
func SubjectFor(venue string) string {
	return fmt.Sprintf("Reviewer Opportunity - %s", venue)
}

// Message is a fully addressed plain-text email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// SendReport summarises a send stage.
type SendReport struct {
	Sent    int
	Failed  int
	Skipped int
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/ports"
)

const noMatchSentinel = "NULL"

const systemPrompt = `You are a professional academic peer. You write with brevity, confidence and zero fluff. You never use stock openers such as "I hope this finds you well" or "I am writing to".

Your emails are professional but approachable, never salesy. Keep the raw draft within 200-300 words at most and personalise it to the conference topics and the researcher's background. Make the next step obvious.

Tone: a collegial academic who is interested in the venue's work. Show fit, not flattery.`

var userPrompt = template.Must(template.New("user").Parse(`Write a direct proposal to the {{.Venue}} organizers offering to serve as a reviewer.

CONFERENCE DETAILS:
- Name: {{.Venue}}
- Key Topics: {{.Topics}}
- Conference Highlights: {{.Highlights}}

USER CONTEXT:
- My Identity: {{.Name}}, {{.Affiliation}}. {{.Identity}}
- Relevant Proof: {{.Publications}}
- My Expertise: {{.Expertise}}

CONSTRAINTS:
1. MATCHING: Name exactly 2 intersections between the venue's topics ({{.Topics}}) and my expertise ({{.Expertise}}). If there is no genuine intersection, reply with exactly NULL and nothing else.
2. TONE: Write as a peer offering a service, not a student asking for a spot.
3. BREVITY: At most 150 words.
4. STRUCTURE:
   - Sentence 1: Direct statement of intent.
   - Sentences 2-3: Evidence of specific expertise matching their track.
   - Sentence 4: The value I provide (e.g. "I can provide rigorous reviews for papers involving [Topic]").
5. NO SIGN-OFF: Stop right after the last content sentence. Do not add "Sincerely", "Thank you" or my name.

NEGATIVE CONSTRAINTS:
- Do not use the phrase "I hope this message finds you well."
- Do not quote full paper titles; describe the contribution instead.
- Do not use the words "passionate" or "keen".

Email Body:`))

type promptData struct {
	Venue        string
	Topics       string
	Highlights   string
	Name         string
	Affiliation  string
	Identity     string
	Publications string
	Expertise    string
}

// GeneratorOptions tunes sampling and the retry policy.
type GeneratorOptions struct {
	Temperature    float64
	MaxTokens      int
	MaxRetries     int
	InitialBackoff time.Duration
}

// Generator writes a personalised message for one venue.
type Generator struct {
	client  ports.CompletionClient
	profile domain.Profile
	opts    GeneratorOptions
	logger  *slog.Logger
	// nil means real timers
	timer backoff.Timer
}

// NewGenerator wires the completion client and the researcher profile.
func NewGenerator(client ports.CompletionClient, profile domain.Profile, opts GeneratorOptions, logger *slog.Logger) *Generator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 450
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{client: client, profile: profile, opts: opts, logger: logger}
}

// Generate returns the message body with signature. ok is false when the
// model reported no overlap between the venue and the profile.
func (g *Generator) Generate(ctx context.Context, venue domain.Enrichment) (string, bool, error) {
	if strings.TrimSpace(venue.Name) == "" {
		return "", false, fmt.Errorf("venue must have a name: %w", domain.ErrInvalidInput)
	}

	messages, err := g.Messages(venue)
	if err != nil {
		return "", false, err
	}

	g.logger.Info("generating email", "venue", venue.Name)
	text, err := g.complete(ctx, domain.CompletionRequest{
		Messages:    messages,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		return "", false, err
	}

	if strings.EqualFold(strings.TrimSpace(text), noMatchSentinel) {
		g.logger.Info("no matching interests", "venue", venue.Name)
		return "", false, nil
	}

	return strings.TrimSpace(text) + "\n\n" + g.Signature(), true, nil
}

// Messages builds the system and user prompts for a venue.
func (g *Generator) Messages(venue domain.Enrichment) ([]domain.ChatMessage, error) {
	data := promptData{
		Venue:        venue.Name,
		Topics:       venue.KeyTopics,
		Highlights:   Truncate(venue.Highlights, maxHighlightChars),
		Name:         g.profile.Name,
		Affiliation:  g.profile.Affiliation,
		Identity:     g.profile.Identity,
		Publications: strings.Join(g.profile.Publications, " "),
		Expertise:    formatExpertise(g.profile.Expertise),
	}
	if data.Name == "" {
		data.Name = "the researcher"
	}

	var sb strings.Builder
	if err := userPrompt.Execute(&sb, data); err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	return []domain.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: sb.String()},
	}, nil
}

// Signature is the profile's signature or a default built from the name.
func (g *Generator) Signature() string {
	if s := strings.TrimSpace(g.profile.Signature); s != "" {
		return s
	}
	name := g.profile.Name
	if name == "" {
		name = "the researcher"
	}
	return "Best regards,\n" + name
}

func formatExpertise(items []domain.Expertise) string {
	parts := make([]string, 0, len(items))
	for _, e := range items {
		parts = append(parts, fmt.Sprintf("%s (%s)", e.Domain, e.Focus))
	}
	return strings.Join(parts, ", ")
}

func (g *Generator) complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.opts.InitialBackoff
	policy.RandomizationFactor = 0
	policy.Multiplier = 2
	policy.MaxInterval = time.Minute
	policy.MaxElapsedTime = 0

	var (
		text     string
		attempts int
	)
	operation := func() error {
		attempts++
		out, err := g.client.Complete(ctx, req)
		if err == nil {
			text = out
			return nil
		}
		if kind, ok := domain.KindOf(err); ok && kind == domain.KindTransient {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		g.logger.Warn("transient generation failure, retrying", "attempt", attempts, "wait", wait, "error", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(g.opts.MaxRetries-1)), ctx)
	err := backoff.RetryNotifyWithTimer(operation, b, notify, g.timer)
	if err == nil {
		return text, nil
	}

	kind, ok := domain.KindOf(err)
	switch {
	case !ok:
		return "", fmt.Errorf("generate: %w", err)
	case kind == domain.KindTransient:
		return "", fmt.Errorf("generate after %d attempts: %w: %w", attempts, domain.ErrRetryExhausted, err)
	case kind == domain.KindAuth:
		return "", fmt.Errorf("generation credentials rejected: %w: %w", domain.ErrConfiguration, err)
	case kind == domain.KindTimeout:
		return "", fmt.Errorf("generation timed out: %w", err)
	default:
		return "", fmt.Errorf("generation api error: %w", err)
	}
}

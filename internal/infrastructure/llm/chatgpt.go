package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"ReviewerOutreach/internal/config"
	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/ports"
)

// Model families that only accept max_completion_tokens.
var completionTokenModels = []string{"gpt-4o", "gpt-5", "o1"}

// ChatGPTClient implements ports.CompletionClient backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	endpoint string
	model    string
	apiKey   string
	timeout  time.Duration
	http     *resty.Client
}

var _ ports.CompletionClient = (*ChatGPTClient)(nil)

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.GenerationConfig, httpClient *http.Client) *ChatGPTClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ChatGPTClient{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		http: resty.NewWithClient(httpClient).
			SetHeader("Content-Type", "application/json"),
	}
}

// Model returns the configured model id.
func (c *ChatGPTClient) Model() string {
	return c.model
}

// TokenParam names the token-budget field the configured model accepts.
func TokenParam(model string) string {
	for _, marker := range completionTokenModels {
		if strings.Contains(model, marker) {
			return "max_completion_tokens"
		}
	}
	return "max_tokens"
}

// Complete posts the messages and returns the trimmed text of the first choice.
func (c *ChatGPTClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chatgpt client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", &domain.CallError{Kind: domain.KindAuth, Op: "chat completion", Err: fmt.Errorf("chatgpt client misconfigured: %w", domain.ErrConfiguration)}
	}

	body := map[string]any{
		"model":       c.model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
	}
	body[TokenParam(c.model)] = req.MaxTokens

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		out    chatResponse
		apiErr chatError
	)
	res, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post(c.endpoint)
	if err != nil {
		return "", classifyTransportError(err)
	}

	if res.IsError() {
		msg := strings.TrimSpace(apiErr.Error.Message)
		if msg == "" {
			msg = truncate(res.String(), 1024)
		}
		return "", &domain.CallError{
			Kind:   kindForStatus(res.StatusCode()),
			Op:     "chat completion",
			Status: res.StatusCode(),
			Err:    fmt.Errorf("chatgpt error %s: %s", res.Status(), msg),
		}
	}

	if len(out.Choices) == 0 {
		return "", &domain.CallError{Kind: domain.KindProtocol, Op: "chat completion", Status: res.StatusCode(), Err: errors.New("response has no choices")}
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &domain.CallError{Kind: domain.KindTimeout, Op: "chat completion", Err: err}
	}
	return &domain.CallError{Kind: domain.KindTransient, Op: "chat completion", Err: err}
}

func kindForStatus(status int) domain.FailureKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.KindAuth
	case status == http.StatusTooManyRequests:
		return domain.KindTransient
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return domain.KindTimeout
	case status == http.StatusNotFound:
		return domain.KindNotFound
	default:
		return domain.KindProtocol
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

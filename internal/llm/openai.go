package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Message is one chat message handed to the completion API.
type Message struct {
	Role    string
	Content string
}

// Client wraps the OpenAI chat-completions API behind a single Generate call.
type Client struct {
	client oai.Client
	model  string
}

type config struct {
	baseURL      string
	organization string
	timeout      time.Duration
	maxRetries   int
	hasRetries   bool
}

// Option configures the Client.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithOrganization sets the OpenAI organization ID on all requests.
func WithOrganization(org string) Option {
	return func(c *config) { c.organization = org }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithMaxRetries overrides the SDK's default retry count.
func WithMaxRetries(n int) Option {
	return func(c *config) { c.maxRetries = n; c.hasRetries = true }
}

// NewClient constructs a chat-completions client for the given model.
func NewClient(apiKey, model string, opts ...Option) *Client {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.organization))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}
	if cfg.hasRetries {
		reqOpts = append(reqOpts, option.WithMaxRetries(cfg.maxRetries))
	}

	return &Client{client: oai.NewClient(reqOpts...), model: model}
}

// Generate sends the full message list and returns the assistant reply.
func (c *Client) Generate(ctx context.Context, messages []Message) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
	}
	for _, m := range messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, oai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, oai.AssistantMessage(m.Content))
		case "user":
			params.Messages = append(params.Messages, oai.UserMessage(m.Content))
		default:
			return "", fmt.Errorf("openai: unknown message role %q", m.Role)
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultMaxTokens bounds the length of a single completion.
const DefaultMaxTokens = 1000

// ErrNoText is returned when a response carries no text block.
var ErrNoText = errors.New("no text content in API response")

// Completer sends a single user prompt and returns the first text block of
// the reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client wraps the Anthropic Messages API.
type Client struct {
	api       *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	maxTokens int64
	reqOpts   []option.RequestOption
}

// WithMaxTokens sets the output-length budget per call.
func WithMaxTokens(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.maxTokens = int64(n)
		}
	}
}

// WithBaseURL points the client at a different API host (used in tests).
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.reqOpts = append(c.reqOpts, option.WithBaseURL(url))
	}
}

// NewClient creates an LLM client with the given API key and model.
// The SDK's automatic retries are disabled; each Complete is one request.
func NewClient(apiKey, model string, opts ...Option) *Client {
	cfg := &clientConfig{maxTokens: DefaultMaxTokens}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	reqOpts = append(reqOpts, cfg.reqOpts...)

	client := anthropic.NewClient(reqOpts...)
	return &Client{
		api:       &client,
		model:     anthropic.Model(model),
		maxTokens: cfg.maxTokens,
	}
}

// Complete sends prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", ErrNoText
}

package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"geolabel/internal/domain"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// Config configures the chat-completion client. APIKey is required.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// Client is a domain.Generator backed by the OpenAI chat completions API or any
// compatible endpoint.
type Client struct {
	client *openai.Client
	model  string
}

var _ domain.Generator = (*Client)(nil)

// NewClient creates a chat-completion generator. The SDK's own retries are
// turned off: a failed request is reported once to the caller.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api key is empty", domain.ErrConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	client := openai.NewClient(opts...)
	return &Client{client: &client, model: cfg.Model}, nil
}

// Name returns the identifier of this generator.
func (c *Client) Name() string { return "openai" }

// Generate sends the system instruction and token sample as one chat completion.
func (c *Client) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemInstruction),
			openai.UserMessage(req.UserContent()),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxOutputTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return domain.GenerateResponse{}, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.GenerateResponse{}, errors.New("openai chat: no choices")
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return domain.GenerateResponse{}, fmt.Errorf("openai chat: refused: %s", msg.Refusal)
	}
	return domain.GenerateResponse{Text: msg.Content}, nil
}

// IsRetryable reports whether err is worth retrying: rate limits, server
// errors, timeouts and network failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	model     string
	maxTokens int
	logger    *zap.Logger
}

// AnthropicConfig holds configuration for creating an Anthropic client.
type AnthropicConfig struct {
	Model     string // Model name, e.g. "claude-sonnet-4-5"
	MaxTokens int    // Response token cap; defaults to 4096
}

// NewAnthropicClient creates a new Anthropic generation client.
func NewAnthropicClient(cfg *AnthropicConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	return &AnthropicClient{
		model:     cfg.Model,
		maxTokens: maxTokens,
		logger:    logger.Named("llm"),
	}, nil
}

// Generate issues one Messages API call with the given credential.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string, apiKey string) (string, error) {
	client := anthropic.NewClient(apiKey)

	c.logger.Debug("generation request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	resp, err := client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		c.logger.Debug("generation request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", wrapAnthropicError(err)
	}

	if len(resp.Content) == 0 {
		return "", &Error{Message: "no content in response"}
	}

	c.logger.Debug("generation request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Content[0].GetText(), nil
}

// Model returns the configured model name.
func (c *AnthropicClient) Model() string {
	return c.model
}

// wrapAnthropicError converts provider errors into *Error, keeping the HTTP
// status code where the SDK exposes one.
func wrapAnthropicError(err error) error {
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			Message:    "generation request failed",
			StatusCode: reqErr.StatusCode,
			Cause:      err,
		}
	}

	return &Error{Message: "generation request failed", Cause: err}
}

// Ensure AnthropicClient implements Generator at compile time.
var _ Generator = (*AnthropicClient)(nil)

// Package llm is the generation-orchestration core: provider clients for the
// external text-generation API, credential rotation, retry dispatch, and
// structured-payload extraction.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Generator issues one generation call with one credential: prompt in, raw
// response text out. Implementations must not retry internally; rotation and
// retry belong to the Dispatcher.
type Generator interface {
	Generate(ctx context.Context, prompt string, apiKey string) (string, error)

	// Model returns the configured model identifier.
	Model() string
}

// OpenAIClient calls any OpenAI-compatible chat-completion endpoint.
type OpenAIClient struct {
	endpoint string
	model    string
	logger   *zap.Logger
}

// OpenAIConfig holds configuration for creating an OpenAI-compatible client.
type OpenAIConfig struct {
	Endpoint string // Base URL, e.g. "https://api.openai.com/v1"
	Model    string // Model name, e.g. "gpt-4o-mini"
}

// NewOpenAIClient creates a new OpenAI-compatible generation client.
func NewOpenAIClient(cfg *OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &OpenAIClient{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		model:    cfg.Model,
		logger:   logger.Named("llm"),
	}, nil
}

// Generate issues one chat completion with the given credential.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, apiKey string) (string, error) {
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = c.endpoint
	client := openai.NewClientWithConfig(clientConfig)

	c.logger.Debug("generation request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.logger.Debug("generation request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", wrapOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Message: "no choices in response"}
	}

	c.logger.Debug("generation request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

// wrapOpenAIError converts provider errors into *Error, keeping the HTTP
// status code where the SDK exposes one.
func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Message:    "generation request failed",
			StatusCode: apiErr.HTTPStatusCode,
			Cause:      err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			Message:    "generation request failed",
			StatusCode: reqErr.HTTPStatusCode,
			Cause:      err,
		}
	}

	return &Error{Message: "generation request failed", Cause: err}
}

// Ensure OpenAIClient implements Generator at compile time.
var _ Generator = (*OpenAIClient)(nil)

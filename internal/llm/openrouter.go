package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Skotchmaster/command_pilot/internal/metrics"
	"github.com/Skotchmaster/command_pilot/pkg/logging"
)

const (
	DefaultBaseURL   = "https://openrouter.ai/api/v1"
	DefaultModel     = "google/gemma-3n-e4b-it:free"
	DefaultMaxTokens = 100
	NoContent        = "No response content found"
)

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
}

// OpenRouter is a Completer backed by an OpenAI-compatible chat completions API.
// Calls are made once; there is no retry.
type OpenRouter struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func NewOpenRouter(cfg Config) *OpenRouter {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &OpenRouter{
		client:    openai.NewClientWithConfig(oc),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (o *OpenRouter) Complete(ctx context.Context, prompt string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "llm.complete", "model", o.model)
	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: o.maxTokens,
	})
	metrics.ObserveCompletion(start, err)
	if err != nil {
		perr := toProviderError(err)
		l.Error("completion_failed", "status", perr.StatusCode, "reason", perr.Message, "error", err)
		return "", perr
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		l.Warn("completion_empty", "reason", NoContent)
		return NoContent, nil
	}

	l.Debug("completion_success", "duration_ms", time.Since(start).Milliseconds())
	return resp.Choices[0].Message.Content, nil
}

func toProviderError(err error) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = GenericFailure
		}
		return &ProviderError{Message: msg, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Message: GenericFailure, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	return &ProviderError{Message: GenericFailure, Err: err}
}

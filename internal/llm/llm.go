// Package llm talks to the chat-completion endpoint that turns a task description into a
// shell command.
package llm

import (
	"context"
	"fmt"
)

// GenericFailure is reported when the provider gives no message of its own.
const GenericFailure = "OpenRouter API call failed"

// Completer returns the raw text of the first completion for prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderError is a failure on the provider side of the call: an API error,
// a transport failure or a response without usable content.
type ProviderError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm provider: %s: %v", e.Message, e.Err)
	}
	return "llm provider: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

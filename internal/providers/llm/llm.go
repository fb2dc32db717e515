// Package llm holds chat-completion clients used by the writing stages.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"blogsmith/internal/domain"
)

const (
	openAIProviderName = "openai"
	geminiProviderName = "gemini"
)

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSON asks the provider for a JSON object response.
	JSON bool
	// Model overrides the client's default model when set.
	Model string
}

// Completer produces text for a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// Error describes a failed provider call. Reason is a short machine-readable
// code such as "http_request", "http_429" or "empty_choices".
type Error struct {
	Provider string
	Reason   string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Reason, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{domain.ErrProviderFailure, e.Err}
}

func fail(provider, reason string, err error) error {
	return &Error{Provider: provider, Reason: reason, Err: err}
}

// Reason extracts the failure code from err, or "error" for foreign errors.
func Reason(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

// Chain tries each completer in order and returns the first success.
type Chain []Completer

func (c Chain) Complete(ctx context.Context, req Request) (string, error) {
	if len(c) == 0 {
		return "", fail("chain", "no_provider", errors.New("no completer configured"))
	}
	var errs []error
	for _, completer := range c {
		text, err := completer.Complete(ctx, req)
		if err == nil {
			return text, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	last := errs[len(errs)-1]
	return "", fail(c.Name(), Reason(last), errors.Join(errs...))
}

func (c Chain) Name() string {
	names := make([]string, 0, len(c))
	for _, completer := range c {
		names = append(names, completer.Name())
	}
	return strings.Join(names, "+")
}

// ParseJSON decodes the first JSON value found in raw, tolerating code fences
// and prose around it.
func ParseJSON[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

// TrimCodeFence strips a surrounding markdown code fence.
func TrimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```html")
	trimmed = strings.TrimPrefix(trimmed, "```HTML")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = TrimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"blogsmith/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type fakeCompleter struct {
	name string
	text string
	err  error
	hits int
}

func (f *fakeCompleter) Complete(context.Context, Request) (string, error) {
	f.hits++
	return f.text, f.err
}

func (f *fakeCompleter) Name() string { return f.name }

func TestOpenAICompleteSendsChatRequest(t *testing.T) {
	var captured openAIChatRequest
	var auth, org string
	client, err := NewOpenAIClient(OpenAIOptions{
		APIKey:       "sk-test",
		Model:        "gpt-4",
		BaseURL:      "https://example.test/v1/",
		Organization: "org-1",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.String() != "https://example.test/v1/chat/completions" {
				t.Fatalf("url = %s", r.URL)
			}
			auth = r.Header.Get("Authorization")
			org = r.Header.Get("OpenAI-Organization")
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			return jsonResponse(http.StatusOK, `{"choices":[{"message":{"content":"  Hello world  "}}]}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	text, err := client.Complete(context.Background(), Request{
		System:      "sys",
		Prompt:      "write",
		Temperature: 0.7,
		MaxTokens:   100,
		JSON:        true,
		Model:       "gpt-3.5-turbo",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "Hello world" {
		t.Fatalf("text = %q", text)
	}
	if auth != "Bearer sk-test" || org != "org-1" {
		t.Fatalf("headers auth=%q org=%q", auth, org)
	}
	if captured.Model != "gpt-3.5-turbo" {
		t.Fatalf("model = %q", captured.Model)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Content != "write" {
		t.Fatalf("messages = %+v", captured.Messages)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Fatalf("response_format = %+v", captured.ResponseFormat)
	}
	if captured.MaxTokens != 100 {
		t.Fatalf("max_tokens = %d", captured.MaxTokens)
	}
}

func TestOpenAICompleteReasons(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		rt     roundTripFunc
		reason string
	}{
		{
			name:   "transport",
			rt:     func(*http.Request) (*http.Response, error) { return nil, errors.New("boom") },
			reason: "http_request",
		},
		{
			name:   "status",
			rt:     func(*http.Request) (*http.Response, error) { return jsonResponse(429, `{}`), nil },
			reason: "http_429",
		},
		{
			name:   "decode",
			rt:     func(*http.Request) (*http.Response, error) { return jsonResponse(200, `not json`), nil },
			reason: "decode_response",
		},
		{
			name:   "no_choices",
			rt:     func(*http.Request) (*http.Response, error) { return jsonResponse(200, `{"choices":[]}`), nil },
			reason: "empty_choices",
		},
		{
			name:   "blank",
			rt:     func(*http.Request) (*http.Response, error) { return jsonResponse(200, `{"choices":[{"message":{"content":" "}}]}`), nil },
			reason: "empty_response",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client, err := NewOpenAIClient(OpenAIOptions{APIKey: "k", HTTPClient: &http.Client{Transport: tc.rt}})
			if err != nil {
				t.Fatalf("NewOpenAIClient: %v", err)
			}
			_, err = client.Complete(context.Background(), Request{Prompt: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := Reason(err); got != tc.reason {
				t.Fatalf("reason = %q, want %q", got, tc.reason)
			}
			if !errors.Is(err, domain.ErrProviderFailure) {
				t.Fatalf("error %v does not wrap ErrProviderFailure", err)
			}
		})
	}
}

func TestNormalizeOpenAIModel(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		input  string
		model  string
		reason string
	}{
		{name: "exact_default", input: "gpt-4o-mini", model: "gpt-4o-mini", reason: ""},
		{name: "exact_title", input: "gpt-3.5-turbo", model: "gpt-3.5-turbo", reason: ""},
		{name: "exact_draft", input: "GPT-4", model: "gpt-4", reason: ""},
		{name: "alias_short", input: "gpt-3.5", model: "gpt-3.5-turbo", reason: "alias"},
		{name: "alias_underscore", input: "gpt_35_turbo", model: "gpt-3.5-turbo", reason: "alias"},
		{name: "unsupported", input: "gpt-9", model: "gpt-4o-mini", reason: "defaulted"},
		{name: "empty", input: "", model: "gpt-4o-mini", reason: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gotModel, gotReason := normalizeOpenAIModel(tc.input)
			if gotModel != tc.model {
				t.Fatalf("model = %q, want %q", gotModel, tc.model)
			}
			if gotReason != tc.reason {
				t.Fatalf("reason = %q, want %q", gotReason, tc.reason)
			}
		})
	}
}

func TestNewOpenAIClientWarnsOnUnsupportedModel(t *testing.T) {
	t.Parallel()
	var capturedReason, capturedDetail string
	client, err := NewOpenAIClient(OpenAIOptions{
		APIKey: "dummy",
		Model:  "gpt-9 thinking",
		OnWarning: func(reason, detail string) {
			capturedReason = reason
			capturedDetail = detail
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Model() != defaultOpenAIModel {
		t.Fatalf("model = %q", client.Model())
	}
	if capturedReason != "model_defaulted" {
		t.Fatalf("warning reason = %q, want %q", capturedReason, "model_defaulted")
	}
	if capturedDetail == "" {
		t.Fatal("expected warning detail to be set")
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient(OpenAIOptions{APIKey: "  "}); err == nil {
		t.Fatal("expected error for blank key")
	}
}

func TestGeminiCompleteExtractsText(t *testing.T) {
	var captured geminiRequest
	var path, key string
	client, err := NewGeminiClient(GeminiOptions{
		APIKey:  "g-key",
		Model:   "gemini-1.5-pro",
		BaseURL: "https://gemini.test/v1beta",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			path = r.URL.Path
			key = r.Header.Get("x-goog-api-key")
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":""},{"text":"A title"}]}}]}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	text, err := client.Complete(context.Background(), Request{System: "sys", Prompt: "p", MaxTokens: 60, JSON: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "A title" {
		t.Fatalf("text = %q", text)
	}
	if path != "/v1beta/models/gemini-1.5-pro:generateContent" {
		t.Fatalf("path = %q", path)
	}
	if key != "g-key" {
		t.Fatalf("api key header = %q", key)
	}
	if captured.SystemInstruction == nil || captured.SystemInstruction.Parts[0].Text != "sys" {
		t.Fatalf("system instruction = %+v", captured.SystemInstruction)
	}
	if captured.GenerationConfig.MaxOutputTokens != 60 || captured.GenerationConfig.ResponseMimeType != "application/json" {
		t.Fatalf("generation config = %+v", captured.GenerationConfig)
	}
}

func TestGeminiCompleteEmpty(t *testing.T) {
	client, err := NewGeminiClient(GeminiOptions{
		APIKey: "g",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"candidates":[]}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	_, err = client.Complete(context.Background(), Request{Prompt: "p"})
	if Reason(err) != "empty_response" {
		t.Fatalf("reason = %q", Reason(err))
	}
}

func TestChainFallsThrough(t *testing.T) {
	first := &fakeCompleter{name: "a", err: fail("a", "http_500", errors.New("down"))}
	second := &fakeCompleter{name: "b", text: "ok"}
	chain := Chain{first, second}
	text, err := chain.Complete(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "ok" || first.hits != 1 || second.hits != 1 {
		t.Fatalf("text=%q hits=%d/%d", text, first.hits, second.hits)
	}
	if chain.Name() != "a+b" {
		t.Fatalf("name = %q", chain.Name())
	}
}

func TestChainAllFail(t *testing.T) {
	chain := Chain{
		&fakeCompleter{name: "a", err: fail("a", "http_500", errors.New("down"))},
		&fakeCompleter{name: "b", err: fail("b", "http_429", errors.New("slow"))},
	}
	_, err := chain.Complete(context.Background(), Request{})
	if Reason(err) != "http_429" {
		t.Fatalf("reason = %q", Reason(err))
	}
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatal("expected provider failure")
	}
	if _, err := (Chain{}).Complete(context.Background(), Request{}); Reason(err) != "no_provider" {
		t.Fatalf("empty chain reason = %q", Reason(err))
	}
}

func TestParseJSONTolerant(t *testing.T) {
	type rating struct {
		Score  int    `json:"score"`
		Review string `json:"review"`
	}
	got, err := ParseJSON[rating]("Here you go:\n```json\n{\"score\": 7, \"review\": \"solid\"}\n```")
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if got.Score != 7 || got.Review != "solid" {
		t.Fatalf("got %+v", got)
	}
	if _, err := ParseJSON[rating]("   "); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestTrimCodeFence(t *testing.T) {
	if got := TrimCodeFence("```html\n<h2>Hi</h2>\n```"); got != "<h2>Hi</h2>" {
		t.Fatalf("got %q", got)
	}
	if got := TrimCodeFence(" plain "); got != "plain" {
		t.Fatalf("got %q", got)
	}
}

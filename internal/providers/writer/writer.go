// Package writer implements the text stages of blog generation: title,
// draft, evaluation and rewrite. Every stage degrades to a fallback value
// instead of returning an error.
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"blogsmith/internal/domain"
	"blogsmith/internal/providers/llm"
)

const (
	StageTitle    = "title"
	StageDraft    = "draft"
	StageEvaluate = "evaluate"
	StageRewrite  = "rewrite"
)

const (
	defaultTitleModel = "gpt-3.5-turbo"
	titleTemperature  = 0.8
	titleMaxTokens    = 60

	draftTemperature = 0.7

	evaluateTemperature = 0.2
	evaluateMaxTokens   = 400
	maxScore            = 10

	// reviewExcerptRunes bounds the draft sent to the evaluator.
	reviewExcerptRunes = 24000
)

// EvaluationUnavailable is the review recorded when the evaluator fails.
const EvaluationUnavailable = "evaluation unavailable"

// Blog is a draft body together with its word count.
type Blog struct {
	HTML      string
	WordCount int
}

type Options struct {
	Completer llm.Completer
	// TitleModel overrides the title model. Empty means gpt-3.5-turbo.
	TitleModel string
	// DraftModel is used for draft, evaluation and rewrite. Empty means the
	// completer's default.
	DraftModel string
	OnFallback func(stage, reason string, err error)
}

type Writer struct {
	completer  llm.Completer
	titleModel string
	draftModel string
	onFallback func(stage, reason string, err error)
	sanitizer  *bluemonday.Policy
	stripper   *bluemonday.Policy
}

func New(opts Options) (*Writer, error) {
	if opts.Completer == nil {
		return nil, errors.New("writer: completer is required")
	}
	titleModel := strings.TrimSpace(opts.TitleModel)
	if titleModel == "" {
		titleModel = defaultTitleModel
	}
	return &Writer{
		completer:  opts.Completer,
		titleModel: titleModel,
		draftModel: strings.TrimSpace(opts.DraftModel),
		onFallback: opts.OnFallback,
		sanitizer:  bluemonday.UGCPolicy(),
		stripper:   bluemonday.StrictPolicy(),
	}, nil
}

// Title turns a raw idea into a catchy title. It falls back to
// "<topic> - A Comprehensive Guide".
func (w *Writer) Title(ctx context.Context, topic string) string {
	text, err := w.completer.Complete(ctx, llm.Request{
		Prompt:      buildTitlePrompt(topic),
		Temperature: titleTemperature,
		MaxTokens:   titleMaxTokens,
		Model:       w.titleModel,
	})
	if err != nil {
		w.fallback(StageTitle, llm.Reason(err), err)
		return FallbackTitle(topic)
	}
	title := cleanTitle(text)
	if title == "" {
		w.fallback(StageTitle, "empty_title", nil)
		return FallbackTitle(topic)
	}
	return title
}

// FallbackTitle is the title used when the model gives nothing usable.
func FallbackTitle(topic string) string {
	return fmt.Sprintf("%s - A Comprehensive Guide", topic)
}

// Draft writes the first version of the article. A failed call yields an
// empty Blog.
func (w *Writer) Draft(ctx context.Context, title string, settings domain.BlogSettings) Blog {
	settings.Normalize()
	target := settings.Length.Target()
	text, err := w.completer.Complete(ctx, llm.Request{
		System:      buildDraftSystemPrompt(settings.Tone, settings),
		Prompt:      buildDraftUserPrompt(title, settings.Length),
		Temperature: draftTemperature,
		MaxTokens:   target.MaxTokens,
		Model:       w.draftModel,
	})
	if err != nil {
		w.fallback(StageDraft, llm.Reason(err), err)
		return Blog{}
	}
	return w.blog(text)
}

type evaluation struct {
	Score  float64 `json:"score"`
	Review string  `json:"review"`
}

// Evaluate scores html from 0 to 10. Failures yield a zero score so the
// rewrite gate still runs.
func (w *Writer) Evaluate(ctx context.Context, html string, tone domain.Tone) domain.Rating {
	if tone == "" {
		tone = domain.ToneProfessional
	}
	text, err := w.completer.Complete(ctx, llm.Request{
		System:      buildEvaluateSystemPrompt(tone),
		Prompt:      truncateRunes(html, reviewExcerptRunes),
		Temperature: evaluateTemperature,
		MaxTokens:   evaluateMaxTokens,
		JSON:        true,
		Model:       w.draftModel,
	})
	if err != nil {
		w.fallback(StageEvaluate, llm.Reason(err), err)
		return domain.Rating{Score: 0, Review: EvaluationUnavailable}
	}
	parsed, err := llm.ParseJSON[evaluation](text)
	if err != nil {
		w.fallback(StageEvaluate, "decode_rating", err)
		return domain.Rating{Score: 0, Review: EvaluationUnavailable}
	}
	return domain.Rating{Score: clampScore(parsed.Score), Review: strings.TrimSpace(parsed.Review)}
}

// Rewrite revises draft with the evaluator's review. On failure the
// original draft is returned.
func (w *Writer) Rewrite(ctx context.Context, draft Blog, review string, settings domain.BlogSettings, title string) Blog {
	settings.Normalize()
	target := settings.Length.Target()
	text, err := w.completer.Complete(ctx, llm.Request{
		System:      buildRewriteSystemPrompt(settings.Tone, settings),
		Prompt:      buildRewriteUserPrompt(title, review, draft.HTML),
		Temperature: draftTemperature,
		MaxTokens:   target.MaxTokens,
		Model:       w.draftModel,
	})
	if err != nil {
		w.fallback(StageRewrite, llm.Reason(err), err)
		return draft
	}
	rewritten := w.blog(text)
	if rewritten.HTML == "" {
		w.fallback(StageRewrite, "empty_response", nil)
		return draft
	}
	return rewritten
}

// WordCount strips markup and counts whitespace separated tokens.
func (w *Writer) WordCount(html string) int {
	return len(strings.Fields(w.stripper.Sanitize(html)))
}

func (w *Writer) blog(text string) Blog {
	html := strings.TrimSpace(w.sanitizer.Sanitize(llm.TrimCodeFence(text)))
	return Blog{HTML: html, WordCount: w.WordCount(html)}
}

func (w *Writer) fallback(stage, reason string, err error) {
	if w.onFallback != nil {
		w.onFallback(stage, reason, err)
	}
}

func cleanTitle(text string) string {
	title := strings.TrimSpace(text)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = strings.TrimSpace(title[:idx])
	}
	title = strings.TrimPrefix(title, "Title:")
	title = strings.TrimSpace(title)
	title = strings.Trim(title, `"'`)
	return strings.TrimSpace(title)
}

func clampScore(v float64) int {
	score := int(v + 0.5)
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

package writer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogsmith/internal/domain"
	"blogsmith/internal/providers/llm"
)

type completerFunc func(context.Context, llm.Request) (string, error)

func (f completerFunc) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f(ctx, req)
}

func (f completerFunc) Name() string { return "fake" }

type fallbackRecord struct {
	stage  string
	reason string
}

func newTestWriter(t *testing.T, fn completerFunc) (*Writer, *[]fallbackRecord) {
	t.Helper()
	var records []fallbackRecord
	w, err := New(Options{
		Completer: fn,
		OnFallback: func(stage, reason string, err error) {
			records = append(records, fallbackRecord{stage: stage, reason: reason})
		},
	})
	require.NoError(t, err)
	return w, &records
}

func TestNewRequiresCompleter(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestTitleUsesModelOutput(t *testing.T) {
	var got llm.Request
	w, records := newTestWriter(t, func(_ context.Context, req llm.Request) (string, error) {
		got = req
		return "\"How AI Is Reshaping Classrooms\"\nextra line", nil
	})
	title := w.Title(context.Background(), "AI in education")
	assert.Equal(t, "How AI Is Reshaping Classrooms", title)
	assert.Empty(t, *records)
	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	assert.Equal(t, 60, got.MaxTokens)
	assert.InDelta(t, 0.8, got.Temperature, 1e-9)
	assert.Contains(t, got.Prompt, `Given the raw idea: "AI in education"`)
}

func TestTitleFallback(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		fn     completerFunc
		reason string
	}{
		{
			name: "error",
			fn: func(context.Context, llm.Request) (string, error) {
				return "", &llm.Error{Provider: "fake", Reason: "http_500", Err: errors.New("down")}
			},
			reason: "http_500",
		},
		{
			name:   "blank",
			fn:     func(context.Context, llm.Request) (string, error) { return "  \"\"  ", nil },
			reason: "empty_title",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w, records := newTestWriter(t, tc.fn)
			assert.Equal(t, "Remote work - A Comprehensive Guide", w.Title(context.Background(), "Remote work"))
			require.Len(t, *records, 1)
			assert.Equal(t, fallbackRecord{stage: StageTitle, reason: tc.reason}, (*records)[0])
		})
	}
}

func TestDraftUsesLengthTargets(t *testing.T) {
	t.Parallel()
	cases := []struct {
		length    domain.Length
		words     string
		maxTokens int
	}{
		{length: domain.LengthShort, words: "600 words", maxTokens: 2000},
		{length: domain.LengthMedium, words: "1500 words", maxTokens: 4096},
		{length: domain.LengthLong, words: "2000 words", maxTokens: 6000},
		{length: "", words: "1500 words", maxTokens: 4096},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.length), func(t *testing.T) {
			t.Parallel()
			var got llm.Request
			w, _ := newTestWriter(t, func(_ context.Context, req llm.Request) (string, error) {
				got = req
				return "<h2>Intro</h2><p>one two three</p>", nil
			})
			settings := domain.BlogSettings{Tone: domain.ToneCasual, Length: tc.length}
			blog := w.Draft(context.Background(), "A title", settings)
			assert.Equal(t, tc.maxTokens, got.MaxTokens)
			assert.Contains(t, got.System, tc.words)
			assert.Contains(t, got.System, "Tone: casual")
			assert.NotContains(t, got.System, "<h2> tags for main section headings")
			assert.NotContains(t, got.System, "conclusion section")
			assert.Contains(t, got.Prompt, `blog post on the topic: "A title".`)
			assert.Equal(t, "<h2>Intro</h2><p>one two three</p>", blog.HTML)
		})
	}
}

func TestDraftStructureInstructions(t *testing.T) {
	var got llm.Request
	w, _ := newTestWriter(t, func(_ context.Context, req llm.Request) (string, error) {
		got = req
		return "<p>ok</p>", nil
	})
	w.Draft(context.Background(), "T", domain.DefaultBlogSettings())
	assert.Contains(t, got.System, "- Use <h2> tags for main section headings")
	assert.Contains(t, got.System, "- Include a conclusion section at the end")
	assert.Contains(t, got.System, "- Summarize key points and provide a call to action")
}

func TestDraftFailureReturnsEmptyBlog(t *testing.T) {
	w, records := newTestWriter(t, func(context.Context, llm.Request) (string, error) {
		return "", errors.New("boom")
	})
	blog := w.Draft(context.Background(), "T", domain.DefaultBlogSettings())
	assert.Equal(t, Blog{}, blog)
	require.Len(t, *records, 1)
	assert.Equal(t, StageDraft, (*records)[0].stage)
}

func TestDraftSanitizesAndStripsFences(t *testing.T) {
	w, _ := newTestWriter(t, func(context.Context, llm.Request) (string, error) {
		return "```html\n<h2>Title</h2>\n<p>Hello <strong>big</strong> world</p><script>alert(1)</script>\n```", nil
	})
	blog := w.Draft(context.Background(), "T", domain.DefaultBlogSettings())
	assert.NotContains(t, blog.HTML, "script")
	assert.Contains(t, blog.HTML, "<strong>big</strong>")
	assert.Equal(t, 4, blog.WordCount)
}

func TestWordCount(t *testing.T) {
	w, _ := newTestWriter(t, func(context.Context, llm.Request) (string, error) { return "", nil })
	assert.Equal(t, 0, w.WordCount(""))
	assert.Equal(t, 3, w.WordCount("<p>Hello world</p>\n<p>again</p>"))
	assert.Equal(t, 500, w.WordCount("<p>"+strings.Repeat("word ", 500)+"</p>"))
}

func TestEvaluateParsesRating(t *testing.T) {
	var got llm.Request
	w, records := newTestWriter(t, func(_ context.Context, req llm.Request) (string, error) {
		got = req
		return "```json\n{\"score\": 7.6, \"review\": \"  Add examples. \"}\n```", nil
	})
	rating := w.Evaluate(context.Background(), "<p>body</p>", domain.ToneFriendly)
	assert.Equal(t, domain.Rating{Score: 8, Review: "Add examples."}, rating)
	assert.True(t, got.JSON)
	assert.Contains(t, got.System, "friendly tone")
	assert.Empty(t, *records)
}

func TestEvaluateClampsAndFallsBack(t *testing.T) {
	high, _ := newTestWriter(t, func(context.Context, llm.Request) (string, error) {
		return `{"score": 42, "review": "great"}`, nil
	})
	assert.Equal(t, 10, high.Evaluate(context.Background(), "x", "").Score)

	bad, records := newTestWriter(t, func(context.Context, llm.Request) (string, error) {
		return "not json at all", nil
	})
	rating := bad.Evaluate(context.Background(), "x", domain.ToneFormal)
	assert.Equal(t, domain.Rating{Score: 0, Review: EvaluationUnavailable}, rating)
	require.Len(t, *records, 1)
	assert.Equal(t, fallbackRecord{stage: StageEvaluate, reason: "decode_rating"}, (*records)[0])
}

func TestRewrite(t *testing.T) {
	draft := Blog{HTML: "<p>short draft</p>", WordCount: 2}

	ok, _ := newTestWriter(t, func(_ context.Context, req llm.Request) (string, error) {
		assert.Contains(t, req.Prompt, "Needs depth")
		assert.Contains(t, req.Prompt, "<p>short draft</p>")
		return "<p>a much longer rewritten draft</p>", nil
	})
	out := ok.Rewrite(context.Background(), draft, "Needs depth", domain.DefaultBlogSettings(), "Title")
	assert.Equal(t, Blog{HTML: "<p>a much longer rewritten draft</p>", WordCount: 5}, out)

	failing, records := newTestWriter(t, func(context.Context, llm.Request) (string, error) {
		return "", errors.New("boom")
	})
	assert.Equal(t, draft, failing.Rewrite(context.Background(), draft, "r", domain.DefaultBlogSettings(), "Title"))
	require.Len(t, *records, 1)
	assert.Equal(t, StageRewrite, (*records)[0].stage)
}

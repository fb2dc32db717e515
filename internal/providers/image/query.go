package image

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"blogsmith/internal/providers/llm"
)

const (
	maxQueryWords     = 4
	queryExcerptRunes = 600
	queryMaxTokens    = 20
	queryTemperature  = 0.3
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "guide": {}, "how": {}, "in": {}, "into": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "the": {}, "this": {}, "to": {},
	"what": {}, "why": {}, "with": {}, "your": {}, "you": {}, "comprehensive": {},
	"ultimate": {}, "introduction": {}, "conclusion": {},
}

// LLMQueryDeriver asks a language model for a search query and falls back to
// keywords taken from the title and section headings.
type LLMQueryDeriver struct {
	completer  llm.Completer
	onFallback func(reason string, err error)
}

func NewLLMQueryDeriver(completer llm.Completer, onFallback func(reason string, err error)) *LLMQueryDeriver {
	return &LLMQueryDeriver{completer: completer, onFallback: onFallback}
}

func (d *LLMQueryDeriver) Derive(ctx context.Context, title, html string) string {
	if d.completer == nil {
		return HeadingQuery(title, html)
	}
	text, err := d.completer.Complete(ctx, llm.Request{
		Prompt:      buildSearchQueryPrompt(title, excerpt(html)),
		Temperature: queryTemperature,
		MaxTokens:   queryMaxTokens,
	})
	if err != nil {
		d.fallback(llm.Reason(err), err)
		return HeadingQuery(title, html)
	}
	query := normalizeQuery(text)
	if query == "" {
		d.fallback("empty_query", nil)
		return HeadingQuery(title, html)
	}
	return query
}

func (d *LLMQueryDeriver) fallback(reason string, err error) {
	if d.onFallback != nil {
		d.onFallback(reason, err)
	}
}

// HeadingQuery builds a query from the title's keywords, topped up with
// words from the first <h2> headings.
func HeadingQuery(title, html string) string {
	words := keywords(title)
	if len(words) < maxQueryWords && strings.TrimSpace(html) != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
			doc.Find("h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				words = appendUnique(words, keywords(s.Text())...)
				return len(words) < maxQueryWords
			})
		}
	}
	if len(words) > maxQueryWords {
		words = words[:maxQueryWords]
	}
	return strings.Join(words, " ")
}

func buildSearchQueryPrompt(title, excerpt string) string {
	return fmt.Sprintf("Suggest a short stock-photo search query (two to four plain words, no punctuation) that would find images illustrating a blog post titled %q. Post excerpt: %q. Reply with the query only.", title, excerpt)
}

func excerpt(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	text := strings.Join(strings.Fields(doc.Text()), " ")
	runes := []rune(text)
	if len(runes) > queryExcerptRunes {
		runes = runes[:queryExcerptRunes]
	}
	return string(runes)
}

func normalizeQuery(text string) string {
	line := strings.TrimSpace(llm.TrimCodeFence(text))
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	lower := cases.Lower(language.English).String(line)
	lower = strings.TrimPrefix(strings.TrimSpace(lower), "query:")
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	if len(fields) > maxQueryWords {
		fields = fields[:maxQueryWords]
	}
	return strings.Join(fields, " ")
}

func keywords(text string) []string {
	lower := cases.Lower(language.English).String(text)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = appendUnique(out, f)
	}
	return out
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, existing := range dst {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}

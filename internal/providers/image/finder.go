package image

import (
	"context"
	"errors"
	"strings"
)

const defaultImageCount = 4

type FinderOptions struct {
	Searcher Searcher
	Deriver  QueryDeriver
	Count    int
	// OnFallback fires whenever Images returns no photos because of a failure.
	OnFallback func(reason string, err error)
}

// Finder is the image stage: derive a query, search, return URLs.
type Finder struct {
	searcher   Searcher
	deriver    QueryDeriver
	count      int
	onFallback func(reason string, err error)
}

func NewFinder(opts FinderOptions) *Finder {
	count := opts.Count
	if count <= 0 {
		count = defaultImageCount
	}
	return &Finder{
		searcher:   opts.Searcher,
		deriver:    opts.Deriver,
		count:      count,
		onFallback: opts.OnFallback,
	}
}

// Images never fails: on any error it returns an empty, non-nil slice.
func (f *Finder) Images(ctx context.Context, title, html string) []string {
	urls := []string{}
	if f == nil || f.searcher == nil {
		f.fallback("not_configured", errors.New("no image searcher configured"))
		return urls
	}
	query := ""
	if f.deriver != nil {
		query = f.deriver.Derive(ctx, title, html)
	}
	if strings.TrimSpace(query) == "" {
		query = HeadingQuery(title, html)
	}
	if strings.TrimSpace(query) == "" {
		query = title
	}
	photos, err := f.searcher.Search(ctx, query, f.count)
	if err != nil {
		f.fallback("search", err)
		return urls
	}
	for _, p := range photos {
		if p.URL == "" {
			continue
		}
		urls = append(urls, p.URL)
		if len(urls) == f.count {
			break
		}
	}
	return urls
}

func (f *Finder) fallback(reason string, err error) {
	if f != nil && f.onFallback != nil {
		f.onFallback(reason, err)
	}
}

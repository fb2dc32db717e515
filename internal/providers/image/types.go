// Package image finds stock photos that illustrate a finished article.
package image

import "context"

// Photo is one search hit.
type Photo struct {
	ID           int64
	URL          string
	Photographer string
	Alt          string
}

// Searcher is the contract implemented by stock photo providers.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]Photo, error)
}

// QueryDeriver turns an article into a short photo search query.
type QueryDeriver interface {
	Derive(ctx context.Context, title, html string) string
}

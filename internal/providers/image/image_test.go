package image

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"blogsmith/internal/providers/llm"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type completerFunc func(context.Context, llm.Request) (string, error)

func (f completerFunc) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f(ctx, req)
}

func (f completerFunc) Name() string { return "fake" }

type searcherFunc func(context.Context, string, int) ([]Photo, error)

func (f searcherFunc) Search(ctx context.Context, q string, n int) ([]Photo, error) {
	return f(ctx, q, n)
}

func TestPexelsSearch(t *testing.T) {
	var gotURL, gotAuth string
	client, err := NewPexelsClient(PexelsOptions{
		APIKey:  "px-key",
		BaseURL: "https://pexels.test/",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			gotURL = r.URL.String()
			gotAuth = r.Header.Get("Authorization")
			body := `{"photos":[
				{"id":1,"photographer":"Ann","src":{"large":"https://img.test/1-large.jpg","original":"https://img.test/1.jpg"}},
				{"id":2,"src":{"medium":"https://img.test/2-medium.jpg"}},
				{"id":3,"src":{}}
			]}`
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{}}, nil
		})},
	})
	if err != nil {
		t.Fatalf("NewPexelsClient: %v", err)
	}
	photos, err := client.Search(context.Background(), "remote work desk", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotURL != "https://pexels.test/v1/search?per_page=3&query=remote+work+desk" {
		t.Fatalf("url = %s", gotURL)
	}
	if gotAuth != "px-key" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if len(photos) != 2 {
		t.Fatalf("photos = %+v", photos)
	}
	if photos[0].URL != "https://img.test/1-large.jpg" || photos[0].Photographer != "Ann" {
		t.Fatalf("first photo = %+v", photos[0])
	}
	if photos[1].URL != "https://img.test/2-medium.jpg" {
		t.Fatalf("second photo = %+v", photos[1])
	}
}

func TestPexelsSearchErrors(t *testing.T) {
	if _, err := NewPexelsClient(PexelsOptions{}); err == nil {
		t.Fatal("expected error without api key")
	}
	client, err := NewPexelsClient(PexelsOptions{
		APIKey: "k",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusTooManyRequests, Body: io.NopCloser(strings.NewReader("{}")), Header: http.Header{}}, nil
		})},
	})
	if err != nil {
		t.Fatalf("NewPexelsClient: %v", err)
	}
	if _, err := client.Search(context.Background(), "q", 2); err == nil {
		t.Fatal("expected error for 429")
	}
	if _, err := client.Search(context.Background(), "  ", 2); err == nil {
		t.Fatal("expected error for blank query")
	}
}

func TestHeadingQuery(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		title string
		html  string
		want  string
	}{
		{name: "title_only", title: "The Future of Remote Work", html: "", want: "future remote work"},
		{name: "tops_up_from_headings", title: "Remote Work", html: "<h2>Home Office Setup</h2><p>x</p><h2>Remote tools</h2>", want: "remote work home office"},
		{name: "caps_words", title: "Sustainable Urban Gardening Tips Balconies Rooftops", html: "", want: "sustainable urban gardening tips"},
		{name: "empty", title: "", html: "", want: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HeadingQuery(tc.title, tc.html); got != tc.want {
				t.Fatalf("HeadingQuery = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLLMQueryDeriver(t *testing.T) {
	d := NewLLMQueryDeriver(completerFunc(func(_ context.Context, req llm.Request) (string, error) {
		if !strings.Contains(req.Prompt, `"Coffee Culture"`) {
			t.Fatalf("prompt = %q", req.Prompt)
		}
		return "Query: Coffee Shop, Latte Art!\n", nil
	}), nil)
	if got := d.Derive(context.Background(), "Coffee Culture", "<p>beans</p>"); got != "coffee shop latte art" {
		t.Fatalf("Derive = %q", got)
	}

	var reason string
	failing := NewLLMQueryDeriver(completerFunc(func(context.Context, llm.Request) (string, error) {
		return "", errors.New("boom")
	}), func(r string, err error) { reason = r })
	if got := failing.Derive(context.Background(), "Coffee Culture", ""); got != "coffee culture" {
		t.Fatalf("fallback Derive = %q", got)
	}
	if reason != "error" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestFinderImages(t *testing.T) {
	var gotQuery string
	var gotCount int
	f := NewFinder(FinderOptions{
		Searcher: searcherFunc(func(_ context.Context, q string, n int) ([]Photo, error) {
			gotQuery, gotCount = q, n
			return []Photo{{URL: "a"}, {URL: ""}, {URL: "b"}, {URL: "c"}}, nil
		}),
		Count: 2,
	})
	urls := f.Images(context.Background(), "Deep Sea Exploration", "")
	if len(urls) != 2 || urls[0] != "a" || urls[1] != "b" {
		t.Fatalf("urls = %v", urls)
	}
	if gotQuery != "deep sea exploration" || gotCount != 2 {
		t.Fatalf("query=%q count=%d", gotQuery, gotCount)
	}
}

func TestFinderNeverFails(t *testing.T) {
	var reasons []string
	f := NewFinder(FinderOptions{
		Searcher: searcherFunc(func(context.Context, string, int) ([]Photo, error) {
			return nil, errors.New("down")
		}),
		OnFallback: func(r string, err error) { reasons = append(reasons, r) },
	})
	urls := f.Images(context.Background(), "t", "")
	if urls == nil || len(urls) != 0 {
		t.Fatalf("urls = %#v, want empty non-nil", urls)
	}
	unconfigured := NewFinder(FinderOptions{OnFallback: func(r string, err error) { reasons = append(reasons, r) }})
	if got := unconfigured.Images(context.Background(), "t", ""); got == nil {
		t.Fatal("expected non-nil slice")
	}
	if strings.Join(reasons, ",") != "search,not_configured" {
		t.Fatalf("reasons = %v", reasons)
	}
}

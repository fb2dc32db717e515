package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"blogsmith/internal/domain"
)

const (
	pexelsDefaultBaseURL = "https://api.pexels.com"
	pexelsDefaultTimeout = 15 * time.Second
	pexelsMaxPerPage     = 80
)

type PexelsOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// PexelsClient queries the Pexels photo search API.
type PexelsClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type pexelsSearchResponse struct {
	Photos []struct {
		ID           int64  `json:"id"`
		URL          string `json:"url"`
		Photographer string `json:"photographer"`
		Alt          string `json:"alt"`
		Src          struct {
			Original  string `json:"original"`
			Large2x   string `json:"large2x"`
			Large     string `json:"large"`
			Medium    string `json:"medium"`
			Landscape string `json:"landscape"`
		} `json:"src"`
	} `json:"photos"`
}

func NewPexelsClient(opts PexelsOptions) (*PexelsClient, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("pexels api key is required")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = pexelsDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: pexelsDefaultTimeout}
	}
	return &PexelsClient{apiKey: key, baseURL: base, client: client}, nil
}

func (p *PexelsClient) Search(ctx context.Context, query string, count int) ([]Photo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", domain.ErrInvalidInput)
	}
	if count <= 0 {
		count = 1
	}
	if count > pexelsMaxPerPage {
		count = pexelsMaxPerPage
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(count))
	endpoint := fmt.Sprintf("%s/v1/search?%s", p.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("pexels build request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: pexels request: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: pexels status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	var out pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: pexels decode: %v", domain.ErrProviderFailure, err)
	}
	photos := make([]Photo, 0, len(out.Photos))
	for _, ph := range out.Photos {
		src := firstNonEmpty(ph.Src.Large, ph.Src.Large2x, ph.Src.Landscape, ph.Src.Medium, ph.Src.Original)
		if src == "" {
			continue
		}
		photos = append(photos, Photo{ID: ph.ID, URL: src, Photographer: ph.Photographer, Alt: ph.Alt})
	}
	return photos, nil
}

var _ Searcher = (*PexelsClient)(nil)

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

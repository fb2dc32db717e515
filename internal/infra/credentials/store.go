// Package credentials keeps provider API keys in the provider_keys table so
// they can be rotated without redeploying.
package credentials

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blogsmith/internal/domain/jsoncfg"
	"blogsmith/internal/infra"
	"blogsmith/internal/sqlinline"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderPexels = "pexels"
)

// Providers lists the keys the service knows how to use.
var Providers = []string{ProviderOpenAI, ProviderGemini, ProviderPexels}

// KeyInfo describes a stored key without exposing it.
type KeyInfo struct {
	Provider  string    `json:"provider"`
	Suffix    string    `json:"suffix"`
	Source    string    `json:"source"`
	Rotations int       `json:"rotations"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Token returns the stored key for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectProviderKey, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// Resolve prefers the configured value and falls back to the stored key.
func (s *Store) Resolve(ctx context.Context, provider, configured string) (string, error) {
	if v := strings.TrimSpace(configured); v != "" {
		return v, nil
	}
	return s.Token(ctx, provider)
}

// SetToken stores key for provider, replacing any previous value. It returns
// how many times the key has been rotated.
func (s *Store) SetToken(ctx context.Context, provider, key, source string) (int, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !supported(provider) {
		return 0, fmt.Errorf("unknown provider %q (expected one of %s)", provider, strings.Join(Providers, ", "))
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, fmt.Errorf("%s api key is required", provider)
	}
	meta := map[string]any{"source": strings.TrimSpace(source)}
	var rotations int
	row := s.sql.QueryRow(ctx, sqlinline.QUpsertProviderKey, provider, key, jsoncfg.MustMarshal(meta))
	if err := row.Scan(&rotations); err != nil {
		return 0, fmt.Errorf("store %s api key: %w", provider, err)
	}
	return rotations, nil
}

// List describes every stored key.
func (s *Store) List(ctx context.Context) ([]KeyInfo, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QListProviderKeys)
	if err != nil {
		return nil, fmt.Errorf("list provider keys: %w", err)
	}
	defer rows.Close()
	out := []KeyInfo{}
	for rows.Next() {
		var k KeyInfo
		if err := rows.Scan(&k.Provider, &k.Suffix, &k.Source, &k.Rotations, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan provider key: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func supported(provider string) bool {
	for _, p := range Providers {
		if p == provider {
			return true
		}
	}
	return false
}

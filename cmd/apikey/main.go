// Command apikey stores provider API keys in provider_keys, or lists the
// stored ones.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"blogsmith/internal/infra"
	"blogsmith/internal/infra/credentials"
)

var keyEnv = map[string]string{
	credentials.ProviderOpenAI: "OPENAI_API_KEY",
	credentials.ProviderGemini: "GEMINI_API_KEY",
	credentials.ProviderPexels: "PEXELS_API_KEY",
}

func main() {
	var (
		keyFlag      string
		providerFlag string
		listFlag     bool
	)
	flag.StringVar(&keyFlag, "key", "", "API key for the selected provider (fallbacks to environment)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderOpenAI, "provider to configure ("+strings.Join(credentials.Providers, ", ")+")")
	flag.BoolVar(&listFlag, "list", false, "print the stored keys (last four characters only) and exit")
	flag.Parse()

	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "apikey").Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	if listFlag {
		keys, err := store.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list keys: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(keys)
		return
	}

	provider := strings.TrimSpace(strings.ToLower(providerFlag))
	envName, ok := keyEnv[provider]
	if !ok {
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}

	key, source := strings.TrimSpace(keyFlag), "cli"
	if key == "" {
		key, source = strings.TrimSpace(os.Getenv(envName)), "env:"+envName
	}
	if key == "" {
		fmt.Fprintf(os.Stderr, "%s API key is required via -key or %s\n", strings.ToUpper(provider), envName)
		os.Exit(1)
	}

	rotations, err := store.SetToken(ctx, provider, key, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist %s api key: %v\n", provider, err)
		os.Exit(1)
	}
	if rotations == 0 {
		fmt.Printf("%s API key stored\n", strings.ToUpper(provider))
		return
	}
	fmt.Printf("%s API key rotated (%d previous keys replaced)\n", strings.ToUpper(provider), rotations)
}

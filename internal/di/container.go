// Package di connects the configured backends and wires the services used by
// the commands.
package di

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"blogsmith/internal/adapter/repo"
	"blogsmith/internal/credits"
	"blogsmith/internal/domain"
	"blogsmith/internal/infra"
	"blogsmith/internal/infra/credentials"
	"blogsmith/internal/jobstore"
	"blogsmith/internal/observability"
	"blogsmith/internal/payment"
	"blogsmith/internal/pipeline"
	"blogsmith/internal/providers/image"
	"blogsmith/internal/providers/llm"
	"blogsmith/internal/providers/writer"
	"blogsmith/internal/storage"
)

// Backends holds the connections opened for the selected stores.
type Backends struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
	Mongo *mongo.Client
	SQL   infra.SQLExecutor
}

// Connect opens only the backends the configuration selects.
func Connect(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*Backends, error) {
	b := &Backends{}
	if cfg.UsesPostgres() || cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.Pool = pool
		b.SQL = infra.NewSQLRunner(pool, logger)
	}
	if cfg.JobStore == infra.StoreRedis {
		client, err := jobstore.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Redis = client
	}
	if cfg.JobStore == infra.StoreMongo {
		client, err := jobstore.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Mongo = client
	}
	return b, nil
}

func (b *Backends) Close() {
	if b.Mongo != nil {
		_ = b.Mongo.Disconnect(context.Background())
	}
	if b.Redis != nil {
		_ = b.Redis.Close()
	}
	if b.Pool != nil {
		b.Pool.Close()
	}
}

// JobStore returns the raw job backend without the pruning decorator.
func (b *Backends) JobStore(ctx context.Context, cfg *infra.Config) (domain.JobStore, error) {
	switch cfg.JobStore {
	case infra.StoreMemory:
		return jobstore.NewMemoryStore(), nil
	case infra.StoreFile:
		blobs, err := storage.NewFileStore(filepath.Dir(cfg.JobStorePath))
		if err != nil {
			return nil, err
		}
		return jobstore.NewFileStore(ctx, blobs, filepath.Base(cfg.JobStorePath))
	case infra.StorePostgres:
		return repo.NewJobStore(b.SQL), nil
	case infra.StoreRedis:
		return jobstore.NewRedisStore(b.Redis), nil
	case infra.StoreMongo:
		return jobstore.NewMongoStore(b.Mongo.Database(cfg.MongoDB)), nil
	}
	return nil, fmt.Errorf("unsupported job store %q", cfg.JobStore)
}

// Repositories returns the user and payment repositories for CREDIT_STORE.
func (b *Backends) Repositories(cfg *infra.Config) (domain.UserRepository, domain.PaymentRepository) {
	if cfg.CreditStore == infra.StorePostgres {
		return repo.NewUserRepository(b.SQL), repo.NewPaymentRepository(b.SQL)
	}
	return repo.NewMemoryUserRepository(), repo.NewMemoryPaymentRepository()
}

// resolveKey fills a missing key from provider_keys when Postgres is up.
func (b *Backends) resolveKey(ctx context.Context, provider, configured string, logger zerolog.Logger) string {
	if b.SQL == nil {
		return configured
	}
	key, err := credentials.NewStore(b.SQL).Resolve(ctx, provider, configured)
	if err != nil {
		logger.Warn().Err(err).Str("provider", provider).Msg("credentials: stored key lookup failed")
		return configured
	}
	return key
}

// Completer builds the text model chain: PROMPT_PROVIDER first, the other
// provider as a fallback when it has a key.
func (b *Backends) Completer(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (llm.Completer, error) {
	build := map[string]func() (llm.Completer, error){
		"openai": func() (llm.Completer, error) {
			return llm.NewOpenAIClient(llm.OpenAIOptions{
				APIKey:       b.resolveKey(ctx, credentials.ProviderOpenAI, cfg.OpenAIAPIKey, logger),
				Model:        cfg.OpenAIModel,
				BaseURL:      cfg.OpenAIBaseURL,
				Organization: cfg.OpenAIOrg,
				OnWarning: func(reason, detail string) {
					logger.Warn().Str("provider", "openai").Str("reason", reason).Msg(detail)
				},
			})
		},
		"gemini": func() (llm.Completer, error) {
			return llm.NewGeminiClient(llm.GeminiOptions{
				APIKey:  b.resolveKey(ctx, credentials.ProviderGemini, cfg.GeminiAPIKey, logger),
				Model:   cfg.GeminiModel,
				BaseURL: cfg.GeminiBaseURL,
			})
		},
	}
	order := []string{"openai", "gemini"}
	if cfg.PromptProvider == "gemini" {
		order = []string{"gemini", "openai"}
	}
	var chain llm.Chain
	var errs []error
	for _, name := range order {
		c, err := build[name]()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		chain = append(chain, c)
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("no text model configured: %w", errors.Join(errs...))
	}
	logger.Info().Str("providers", chain.Name()).Msg("llm: provider chain ready")
	return chain, nil
}

// Pipeline wires the writer and the image finder around store.
func (b *Backends) Pipeline(ctx context.Context, cfg *infra.Config, store domain.JobStore, logger zerolog.Logger) (*pipeline.Service, error) {
	completer, err := b.Completer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	w, err := writer.New(writer.Options{
		Completer: completer,
		OnFallback: func(stage, reason string, err error) {
			observability.ProviderFallbacks.WithLabelValues(stage, reason).Inc()
			logger.Warn().Err(err).Str("stage", stage).Str("reason", reason).Msg("writer: using fallback")
		},
	})
	if err != nil {
		return nil, err
	}

	imageFallback := func(reason string, err error) {
		observability.ProviderFallbacks.WithLabelValues("images", reason).Inc()
		logger.Warn().Err(err).Str("reason", reason).Msg("images: using fallback")
	}
	var searcher image.Searcher
	if key := b.resolveKey(ctx, credentials.ProviderPexels, cfg.PexelsAPIKey, logger); key != "" {
		pexels, err := image.NewPexelsClient(image.PexelsOptions{APIKey: key, BaseURL: cfg.PexelsBaseURL})
		if err != nil {
			return nil, err
		}
		searcher = pexels
	} else {
		logger.Warn().Msg("images: PEXELS_API_KEY not set, articles will have no images")
	}
	finder := image.NewFinder(image.FinderOptions{
		Searcher:   searcher,
		Deriver:    image.NewLLMQueryDeriver(completer, imageFallback),
		Count:      cfg.ImageCount,
		OnFallback: imageFallback,
	})

	return pipeline.NewService(pipeline.Options{
		Store:   store,
		Writer:  w,
		Images:  finder,
		Logger:  logger,
		Timeout: cfg.JobTimeout,
	})
}

// Payments returns nil when Razorpay is not configured.
func Payments(cfg *infra.Config, payments domain.PaymentRepository, gate *credits.Service, logger zerolog.Logger) (*payment.Service, error) {
	if !cfg.PaymentsEnabled() {
		return nil, nil
	}
	gateway, err := payment.NewRazorpayClient(payment.RazorpayOptions{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
	})
	if err != nil {
		return nil, err
	}
	return payment.NewService(payment.Options{
		Gateway:   gateway,
		KeySecret: cfg.RazorpayKeySecret,
		Payments:  payments,
		Credits:   gate,
		Logger:    logger,
	})
}

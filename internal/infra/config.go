package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Job store backends accepted by JOB_STORE.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMongo    = "mongo"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	DBMaxConns  int
	RedisURL    string
	MongoURI    string
	MongoDB     string

	JobStore     string
	JobStorePath string
	CreditStore  string

	JobPruneGrace   time.Duration
	JobTimeout      time.Duration
	JobStaleAfter   time.Duration
	JanitorInterval time.Duration

	PromptProvider string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	OpenAIOrg      string
	GeminiAPIKey   string
	GeminiModel    string
	GeminiBaseURL  string
	PexelsAPIKey   string
	PexelsBaseURL  string
	ImageCount     int

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string

	CreditsRequired    bool
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		RedisURL:           os.Getenv("REDIS_URL"),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DATABASE", "blogsmith"),
		JobStore:           strings.ToLower(getEnv("JOB_STORE", StoreMemory)),
		JobStorePath:       getEnv("JOB_STORE_PATH", "./data/blog-jobs.json"),
		CreditStore:        strings.ToLower(getEnv("CREDIT_STORE", StoreMemory)),
		JobPruneGrace:      time.Second * time.Duration(getEnvInt("JOB_PRUNE_GRACE_SECONDS", 30)),
		JobTimeout:         time.Second * time.Duration(getEnvInt("JOB_TIMEOUT_SECONDS", 600)),
		JobStaleAfter:      time.Hour * time.Duration(getEnvInt("JOB_STALE_HOURS", 24)),
		JanitorInterval:    time.Second * time.Duration(getEnvInt("JANITOR_INTERVAL_SECONDS", 300)),
		PromptProvider:     strings.ToLower(getEnv("PROMPT_PROVIDER", "openai")),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:          os.Getenv("OPENAI_ORG"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		PexelsAPIKey:       os.Getenv("PEXELS_API_KEY"),
		PexelsBaseURL:      getEnv("PEXELS_BASE_URL", "https://api.pexels.com"),
		ImageCount:         getEnvInt("IMAGE_COUNT", 4),
		RazorpayKeyID:      os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:  os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:    getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		CreditsRequired:    getEnvBool("CREDITS_REQUIRED", false),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	switch cfg.JobStore {
	case StoreMemory, StoreFile, StorePostgres, StoreRedis, StoreMongo:
	default:
		return nil, fmt.Errorf("JOB_STORE %q is not supported", cfg.JobStore)
	}
	switch cfg.CreditStore {
	case StoreMemory, StorePostgres:
	default:
		return nil, fmt.Errorf("CREDIT_STORE %q is not supported", cfg.CreditStore)
	}
	switch cfg.PromptProvider {
	case "openai", "gemini":
	default:
		return nil, fmt.Errorf("PROMPT_PROVIDER %q is not supported", cfg.PromptProvider)
	}

	if cfg.UsesPostgres() && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JobStore == StoreRedis && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when JOB_STORE=redis")
	}
	if cfg.JobStore == StoreMongo && cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required when JOB_STORE=mongo")
	}
	if (cfg.RazorpayKeyID == "") != (cfg.RazorpayKeySecret == "") {
		return nil, fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set together")
	}

	return cfg, nil
}

// UsesPostgres reports whether any backend needs DATABASE_URL.
func (c *Config) UsesPostgres() bool {
	return c.JobStore == StorePostgres || c.CreditStore == StorePostgres
}

// PaymentsEnabled reports whether Razorpay credentials are configured.
func (c *Config) PaymentsEnabled() bool {
	return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

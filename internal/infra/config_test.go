package infra

import (
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "DATABASE_URL", "REDIS_URL", "MONGO_URI", "JOB_STORE", "CREDIT_STORE",
		"PROMPT_PROVIDER", "JOB_TIMEOUT_SECONDS", "JOB_PRUNE_GRACE_SECONDS", "RAZORPAY_KEY_ID",
		"RAZORPAY_KEY_SECRET", "CORS_ALLOWED_ORIGINS", "CREDITS_REQUIRED", "IMAGE_COUNT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" || cfg.JobStore != StoreMemory || cfg.CreditStore != StoreMemory {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.JobPruneGrace != 30*time.Second || cfg.JobTimeout != 10*time.Minute || cfg.JobStaleAfter != 24*time.Hour {
		t.Fatalf("unexpected job durations: grace %s timeout %s stale %s", cfg.JobPruneGrace, cfg.JobTimeout, cfg.JobStaleAfter)
	}
	if cfg.PromptProvider != "openai" || cfg.OpenAIModel != "gpt-4o-mini" || cfg.ImageCount != 4 {
		t.Fatalf("unexpected provider defaults: %+v", cfg)
	}
	if cfg.PaymentsEnabled() || cfg.UsesPostgres() || cfg.CreditsRequired {
		t.Fatalf("unexpected feature flags: %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("JOB_STORE", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JOB_TIMEOUT_SECONDS", "90")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example, ,https://b.example ")
	t.Setenv("CREDITS_REQUIRED", "true")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test")
	t.Setenv("RAZORPAY_KEY_SECRET", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.JobStore != StorePostgres || !cfg.UsesPostgres() {
		t.Fatalf("JobStore = %q", cfg.JobStore)
	}
	if cfg.JobTimeout != 90*time.Second {
		t.Fatalf("JobTimeout = %s", cfg.JobTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORSAllowedOrigins = %#v", cfg.CORSAllowedOrigins)
	}
	if !cfg.CreditsRequired || !cfg.PaymentsEnabled() {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
}

func TestLoadConfigRejectsInvalidCombinations(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown job store", map[string]string{"JOB_STORE": "sqlite"}},
		{"unknown credit store", map[string]string{"CREDIT_STORE": "redis"}},
		{"unknown provider", map[string]string{"PROMPT_PROVIDER": "claude"}},
		{"postgres without url", map[string]string{"CREDIT_STORE": "postgres"}},
		{"redis without url", map[string]string{"JOB_STORE": "redis"}},
		{"mongo without uri", map[string]string{"JOB_STORE": "mongo"}},
		{"half razorpay config", map[string]string{"RAZORPAY_KEY_ID": "rzp_test"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

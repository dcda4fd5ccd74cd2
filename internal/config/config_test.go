package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASS", "")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "bugzot")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("BCRYPT_COST", "10")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_RATE_LIMIT_MAX", "")
	t.Setenv("AUTH_RATE_LIMIT_WINDOW", "")
	t.Setenv("DISPOSABLE_EMAIL_DOMAINS", "")

	cfg := Load()
	if cfg.DBMaxConns != 25 {
		t.Fatalf("DBMaxConns = %d, want default 25", cfg.DBMaxConns)
	}
	if cfg.DBConnLifetime != 30*time.Minute {
		t.Fatalf("DBConnLifetime = %v, want default 30m", cfg.DBConnLifetime)
	}
	if cfg.RateLimitMax != 5 {
		t.Fatalf("RateLimitMax = %d, want default 5", cfg.RateLimitMax)
	}
	if cfg.RateLimitWindow != 60*time.Second {
		t.Fatalf("RateLimitWindow = %v, want default 60s", cfg.RateLimitWindow)
	}
	if cfg.MXTimeout != 3*time.Second {
		t.Fatalf("MXTimeout = %v, want default 3s", cfg.MXTimeout)
	}
	if cfg.ActivationTTLMin != 30 {
		t.Fatalf("ActivationTTLMin = %d, want default 30", cfg.ActivationTTLMin)
	}
	if len(cfg.DisposableEmails) != 3 || cfg.DisposableEmails[0] != "tempmail.com" {
		t.Fatalf("DisposableEmails = %v, want built-in blocklist", cfg.DisposableEmails)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_MAX_CONNS", "50")
	t.Setenv("AUTH_RATE_LIMIT_MAX", "10")
	t.Setenv("AUTH_RATE_LIMIT_WINDOW", "90s")
	t.Setenv("DISPOSABLE_EMAIL_DOMAINS", " Spam.example , throwaway.example ,")

	cfg := Load()
	if cfg.AccessTTLMin != 15 || cfg.BcryptCost != 10 {
		t.Fatalf("required ints = (%d, %d), want (15, 10)", cfg.AccessTTLMin, cfg.BcryptCost)
	}
	if cfg.DBMaxConns != 50 {
		t.Fatalf("DBMaxConns = %d, want 50", cfg.DBMaxConns)
	}
	if cfg.RateLimitMax != 10 || cfg.RateLimitWindow != 90*time.Second {
		t.Fatalf("rate limit = (%d, %v), want (10, 90s)", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	want := []string{"spam.example", "throwaway.example"}
	if len(cfg.DisposableEmails) != len(want) {
		t.Fatalf("DisposableEmails = %v, want %v", cfg.DisposableEmails, want)
	}
	for i := range want {
		if cfg.DisposableEmails[i] != want[i] {
			t.Fatalf("DisposableEmails[%d] = %q, want %q", i, cfg.DisposableEmails[i], want[i])
		}
	}
}

func TestEnvDurRejectsNonPositive(t *testing.T) {
	t.Setenv("AUTH_RATE_LIMIT_WINDOW", "-5s")
	if got := envDur("AUTH_RATE_LIMIT_WINDOW", time.Minute); got != time.Minute {
		t.Fatalf("envDur = %v, want fallback %v", got, time.Minute)
	}
}

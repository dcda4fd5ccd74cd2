package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits list-valued variables
	"time"    // time expresses windows and timeouts as durations
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must() at load
// time; everything auth-tunable (token TTL, rate-limit window, disposable
// domain blocklist) has a sensible default so a bare .env still boots.
type Config struct {
	Env              string        // application environment (e.g. "dev", "prod")
	Port             string        // HTTP port to listen on
	DBUser           string        // database username
	DBPass           string        // database password (optional)
	DBHost           string        // database host address
	DBPort           string        // database port number
	DBName           string        // database name
	DBMaxConns       int           // connection pool size (open and idle)
	DBConnLifetime   time.Duration // max age of a pooled connection
	JWTSecret        string        // secret used to sign access tokens
	AccessTTLMin     int           // access token time-to-live in minutes
	BcryptCost       int           // bcrypt cost for password hashing
	RateLimitMax     int           // max auth attempts per IP within one window
	RateLimitWindow  time.Duration // length of the fixed rate-limit window
	MXTimeout        time.Duration // upper bound for the registration MX lookup
	ActivationTTLMin int           // activation key time-to-live in minutes
	DisposableEmails []string      // blocked throwaway email domains
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty allowed
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		DBMaxConns:       envInt("DB_MAX_CONNS", 25),
		DBConnLifetime:   envDur("DB_CONN_LIFETIME", 30*time.Minute),
		JWTSecret:        must("JWT_SECRET"),
		AccessTTLMin:     mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:       mustInt("BCRYPT_COST"),
		RateLimitMax:     envInt("AUTH_RATE_LIMIT_MAX", 5),
		RateLimitWindow:  envDur("AUTH_RATE_LIMIT_WINDOW", 60*time.Second),
		MXTimeout:        envDur("EMAIL_MX_TIMEOUT", 3*time.Second),
		ActivationTTLMin: envInt("ACTIVATION_KEY_TTL_MIN", 30),
		DisposableEmails: envList("DISPOSABLE_EMAIL_DOMAINS",
			[]string{"tempmail.com", "10minutemail.com", "mailinator.com"}),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envInt reads an optional integer variable, falling back to a default when
// the variable is unset or unparsable.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

// envDur reads an optional duration variable ("60s", "3s", ...), falling
// back to a default when unset or unparsable.
func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return def
}

// envList reads an optional comma-separated variable.  Entries are trimmed
// and lower-cased; empty entries are dropped.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string
	APIBaseURL      string
	AssetBaseURL    string
	BackendTimeout  time.Duration
	SessionCookie   string
	SessionTTL      time.Duration
	CookieSecure    bool
	DraftTTL        time.Duration
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	S3Endpoint      string
	S3AccessKeyID   string
	S3SecretKey     string
	SSEKMSKeyID     string
	ArchiveExports  bool
	LogLevel        string
	LoginRate       float64
	LoginBurst      int
}

// Load reads configuration from environment variables with sensible defaults. Values in
// the YAML file named by CONFIG_FILE fill in anything the environment leaves unset.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	var file map[string]string
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		parsed, err := readFile(path)
		if err != nil {
			log.Printf("config: %v", err)
		} else {
			file = parsed
		}
	}
	return build(func(key string) (string, bool) {
		if val := os.Getenv(key); val != "" {
			return val, true
		}
		val, ok := file[key]
		return val, ok && val != ""
	})
}

func build(lookup func(string) (string, bool)) Config {
	get := func(key, def string) string {
		if val, ok := lookup(key); ok {
			return strings.TrimSpace(val)
		}
		return def
	}

	env := normalizeEnv(get("ENV", "dev"))
	dbURL := get("DATABASE_URL", "")
	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	apiBase := strings.TrimRight(get("API_BASE_URL", "http://localhost:8000/api"), "/")

	return Config{
		Port:            get("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(get("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     dbURL,
		APIBaseURL:      apiBase,
		AssetBaseURL:    strings.TrimRight(get("ASSET_BASE_URL", apiBase), "/"),
		BackendTimeout:  parseDuration(get("BACKEND_TIMEOUT", ""), 15*time.Second),
		SessionCookie:   get("SESSION_COOKIE", "portal_session"),
		SessionTTL:      parseDuration(get("SESSION_TTL", ""), 12*time.Hour),
		CookieSecure:    parseBool(get("COOKIE_SECURE", ""), env == "production"),
		DraftTTL:        parseDuration(get("DRAFT_TTL", ""), 2*time.Hour),
		ObjectStoreType: normalizeStoreType(get("OBJECT_STORE", "local")),
		LocalStoreDir:   get("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       get("AWS_REGION", ""),
		S3Bucket:        get("S3_BUCKET", ""),
		S3Prefix:        get("S3_PREFIX", "portal-web"),
		S3Endpoint:      get("S3_ENDPOINT", ""),
		S3AccessKeyID:   get("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:     get("S3_SECRET_ACCESS_KEY", ""),
		SSEKMSKeyID:     get("SSE_KMS_KEY_ID", ""),
		ArchiveExports:  parseBool(get("ARCHIVE_EXPORTS", ""), false),
		LogLevel:        strings.ToLower(get("LOG_LEVEL", "info")),
		LoginRate:       parseFloat(get("LOGIN_RATE", ""), 0.2),
		LoginBurst:      parseInt(get("LOGIN_BURST", ""), 5),
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("config: invalid duration %q, using %s", raw, def)
		return def
	}
	return d
}

func parseBool(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

func parseFloat(raw string, def float64) float64 {
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

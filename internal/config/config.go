package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the gateway.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	AllowOrigins       string
	BackendURL         string
	BackendTimeout     time.Duration
	BackendListTimeout time.Duration
	BackendRetries     int
	ViaCEPURL          string
	AssetsBaseURL      string
	RedisURL           string
	ListCacheTTL       time.Duration
	DetailCacheTTL     time.Duration
	AddressCacheTTL    time.Duration
	DatabaseURL        string
	JWTSecret          string
	NATSURL            string
	NATSSubject        string
	OTLPEndpoint       string
	RateLimitMax       int
	RateLimitWindow    time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PROMATA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Pro-Mata Gateway")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.allow_origins", "*")
	v.SetDefault("backend.timeout", "3s")
	v.SetDefault("backend.list_timeout", "10s")
	v.SetDefault("backend.retries", 1)
	v.SetDefault("viacep.url", "https://viacep.com.br/ws")
	v.SetDefault("cache.list_ttl", "30s")
	v.SetDefault("cache.detail_ttl", "15s")
	v.SetDefault("cache.address_ttl", "24h")
	v.SetDefault("nats.subject", "promata.cache.invalidate")
	v.SetDefault("rate_limit.max", 60)
	v.SetDefault("rate_limit.window", "1m")

	durations := map[string]*time.Duration{}
	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		AppPort:        v.GetString("app.port"),
		AllowOrigins:   v.GetString("app.allow_origins"),
		BackendURL:     strings.TrimSpace(v.GetString("backend.url")),
		BackendRetries: v.GetInt("backend.retries"),
		ViaCEPURL:      v.GetString("viacep.url"),
		AssetsBaseURL:  v.GetString("assets.base_url"),
		RedisURL:       v.GetString("redis.url"),
		DatabaseURL:    v.GetString("database.url"),
		JWTSecret:      v.GetString("jwt.secret"),
		NATSURL:        v.GetString("nats.url"),
		NATSSubject:    v.GetString("nats.subject"),
		OTLPEndpoint:   strings.TrimSpace(v.GetString("otel.endpoint")),
		RateLimitMax:   v.GetInt("rate_limit.max"),
	}
	durations["backend.timeout"] = &cfg.BackendTimeout
	durations["backend.list_timeout"] = &cfg.BackendListTimeout
	durations["cache.list_ttl"] = &cfg.ListCacheTTL
	durations["cache.detail_ttl"] = &cfg.DetailCacheTTL
	durations["cache.address_ttl"] = &cfg.AddressCacheTTL
	durations["rate_limit.window"] = &cfg.RateLimitWindow

	for key, target := range durations {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		*target = parsed
	}

	if cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("backend url must be provided")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.BackendRetries < 0 {
		cfg.BackendRetries = 0
	}
	if cfg.BackendRetries > 2 {
		cfg.BackendRetries = 2
	}
	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 60
	}

	return cfg, nil
}

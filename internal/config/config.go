// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionMaxAge        int
	SessionRetentionDays int
	BcryptCost           int

	// Catalog cache
	RedisURL        string
	CatalogCacheTTL time.Duration

	// Order events
	KafkaBrokers    []string
	KafkaOrderTopic string

	// Rate Limit
	RateLimitGeneral  int
	RateLimitCheckout int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、またはレート制限が1未満の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.SessionRetentionDays = getEnvInt("SESSION_RETENTION_DAYS", 7)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.RedisURL = getEnvString("REDIS_URL", "")
	cfg.CatalogCacheTTL = getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute)
	cfg.KafkaBrokers = getEnvList("KAFKA_BROKERS")
	cfg.KafkaOrderTopic = getEnvString("KAFKA_ORDER_TOPIC", "orders.placed")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitCheckout = getEnvInt("RATE_LIMIT_CHECKOUT", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")

	// レート制限は1以上でなければバーストが0になり、全リクエストが拒否される
	var invalid []string
	if cfg.RateLimitGeneral < 1 {
		invalid = append(invalid, fmt.Sprintf("RATE_LIMIT_GENERAL=%d", cfg.RateLimitGeneral))
	}
	if cfg.RateLimitCheckout < 1 {
		invalid = append(invalid, fmt.Sprintf("RATE_LIMIT_CHECKOUT=%d", cfg.RateLimitCheckout))
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("rate limits must be at least 1 request per minute: %v", invalid)
	}

	return cfg, nil
}

// CacheEnabled はカタログキャッシュ用のRedisが設定されているかを返す。
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// EventsEnabled は注文イベント用のKafkaが設定されているかを返す。
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの環境変数を空要素を除いたスライスとして返す。
func getEnvList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

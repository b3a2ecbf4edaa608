// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// ストアのドライバー名
const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
)

// セッションストアの種別
const (
	SessionStoreMemory = "memory"
	SessionStoreCookie = "cookie"
)

// publicPaths は認証なしで呼べるルートです。RESTRICTED_PREFIX はこれらを覆ってはいけません。
var publicPaths = []string{
	"/health",
	"/metrics",
	"/api/register",
	"/api/login",
	"/api/logout",
}

// DefaultBcryptCost はパスワードハッシュの既定の計算コストです。
const DefaultBcryptCost = 14

// debug モードで SESSION_SECRET が未設定の場合にだけ使う署名鍵
const devSessionSecret = "auth-gateway-dev-session-secret"

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port                   string // APIサーバーのポート番号
	GinMode                string // Ginの実行モード (debug, release, test)
	ShutdownTimeoutSeconds int    // グレースフルシャットダウンの待ち時間（秒）
	LogLevel               string // logrus のログレベル

	// セッション設定
	SessionSecret        string // セッション署名用の秘密鍵
	SessionStore         string // memory または cookie
	SessionMaxAgeSeconds int    // セッションクッキーの有効期間（秒）

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り、* で全許可）

	// 認証設定
	BcryptCost       int    // bcrypt のコスト
	RestrictedPrefix string // グローバルに保護するURLプレフィックス

	// ユーザーストア設定
	StoreDriver string // memory, postgres, redis
	DatabaseURL string // PostgreSQL接続文字列
	RedisURL    string // Redis接続URL
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:                   getEnv("PORT", "8080"),
		GinMode:                getEnv("GIN_MODE", "debug"),
		ShutdownTimeoutSeconds: getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 10),
		LogLevel:               getEnv("LOG_LEVEL", "info"),

		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionStore:         getEnv("SESSION_STORE", SessionStoreMemory),
		SessionMaxAgeSeconds: getEnvAsInt("SESSION_MAX_AGE_SECONDS", 24*60*60),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),

		BcryptCost:       getEnvAsInt("BCRYPT_COST", DefaultBcryptCost),
		RestrictedPrefix: getEnv("RESTRICTED_PREFIX", "/api/restricted"),

		StoreDriver: getEnv("STORE_DRIVER", StoreDriverMemory),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
// release 以外で SESSION_SECRET が空の場合は開発用の鍵を補います。
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		if c.GinMode == "release" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		c.SessionSecret = devSessionSecret
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}

	if !strings.HasPrefix(c.RestrictedPrefix, "/") {
		return fmt.Errorf("RESTRICTED_PREFIX must start with '/', got %q", c.RestrictedPrefix)
	}
	// 公開ルートがプレフィックスに含まれるとログイン自体が塞がれる
	for _, path := range publicPaths {
		if strings.HasPrefix(path, c.RestrictedPrefix) {
			return fmt.Errorf("RESTRICTED_PREFIX %q must not cover public route %s", c.RestrictedPrefix, path)
		}
	}

	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreCookie:
	default:
		return fmt.Errorf("unsupported SESSION_STORE: %s", c.SessionStore)
	}

	switch c.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreDriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_DRIVER=redis")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}

	return nil
}

// AllowedOrigins は CORS許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	origins := strings.Split(c.CORSAllowedOrigins, ",")
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ShutdownTimeout はグレースフルシャットダウンの待ち時間を返します。
func (c *Config) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

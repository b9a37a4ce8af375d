// config - источник загрузки конфигурации для CLI taskboard и dev-бэкенда.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Backend BackendConfig `yaml:"backend"`
}

// APIConfig - адрес REST-бэкенда и параметры исходящих запросов.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"   env:"API_BASE_URL"   env-default:"http://localhost:3000"`
	UserAgent string        `yaml:"user_agent" env:"API_USER_AGENT" env-default:"taskboard-cli"`
	Timeout   time.Duration `yaml:"timeout"    env:"API_TIMEOUT"    env-default:"15s"`
}

// SessionConfig - политика обновления токенов.
type SessionConfig struct {
	// RefreshThreshold - окно до exp, в котором access-токен обновляется проактивно.
	RefreshThreshold time.Duration `yaml:"refresh_threshold" env:"SESSION_REFRESH_THRESHOLD" env-default:"60s"`
	// DisableCoalescing - каждый конкурентный вызов делает собственный refresh.
	DisableCoalescing bool `yaml:"disable_coalescing" env:"SESSION_DISABLE_COALESCING"`
	// SkipRetryAfterLogout - не повторять операцию после завершения сессии.
	SkipRetryAfterLogout bool `yaml:"skip_retry_after_logout" env:"SESSION_SKIP_RETRY_AFTER_LOGOUT"`
}

// StoreConfig - где хранить пару токенов.
type StoreConfig struct {
	Kind        string `yaml:"kind"         env:"STORE_KIND"         env-default:"file"`
	Path        string `yaml:"path"         env:"STORE_PATH"         env-default:".taskboard/session.json"`
	RedisURL    string `yaml:"redis_url"    env:"STORE_REDIS_URL"`
	RedisPrefix string `yaml:"redis_prefix" env:"STORE_REDIS_PREFIX" env-default:"taskboard:session:"`
	// Passphrase включает шифрование значений (nacl/secretbox).
	Passphrase string `yaml:"passphrase" env:"STORE_PASSPHRASE"`
}

// LogConfig - куда писать логи CLI. Пустой File - stderr.
type LogConfig struct {
	File       string `yaml:"file"        env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB" env-default:"5"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS" env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"28"`
}

// BackendConfig - локальный dev-бэкенд (cmd/devbackend).
type BackendConfig struct {
	Host            string        `yaml:"host"              env:"BACKEND_HOST"              env-default:"127.0.0.1"`
	Port            string        `yaml:"port"              env:"BACKEND_PORT"              env-default:"3000"`
	JWTSecret       string        `yaml:"jwt_secret"        env:"BACKEND_JWT_SECRET"        env-default:"dev-secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"  env:"BACKEND_ACCESS_TOKEN_TTL"  env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"BACKEND_REFRESH_TOKEN_TTL" env-default:"720h"`
	Timeout         time.Duration `yaml:"timeout"           env:"BACKEND_TIMEOUT"           env-default:"5s"`
}

func (b BackendConfig) Addr() string { return net.JoinHostPort(b.Host, b.Port) }

// MustLoad - паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла поверх накладываются ENV-переменные.
func Load(path string) (*Config, error) {
	var cfg Config

	readFile := func(p string) (*Config, error) {
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		return readFile(p)
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		return readFile("local.yaml")
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}

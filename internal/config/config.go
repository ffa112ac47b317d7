// config реализует конфигурацию talas: загрузка из YAML/ENV с предсказуемым приоритетом.
// Config — сервер talas-api, ClientConfig — CLI talas.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервера.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Ops       OpsConfig       `yaml:"ops"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Auth      AuthConfig      `yaml:"auth"`
	Limits    LimitsConfig    `yaml:"limits"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
}

// HTTPConfig — публичный RPC-over-HTTP API.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// OpsConfig — служебный HTTP: /livez, /healthz, /metrics.
type OpsConfig struct {
	Host string `yaml:"host" env:"OPS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"OPS_PORT" env-default:"8081"`
}

// GRPCConfig — gRPC health-сервер для оркестратора.
type GRPCConfig struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// Addr возвращает адрес в формате host:port.
func (o OpsConfig) Addr() string { return net.JoinHostPort(o.Host, o.Port) }

// Addr возвращает адрес в формате host:port.
func (g GRPCConfig) Addr() string { return net.JoinHostPort(g.Host, g.Port) }

// PostgresConfig — проекты, лайки, закладки.
type PostgresConfig struct {
	URL string `yaml:"url" env:"POSTGRES_URL" env-required:"true"`
}

// MongoConfig — комментарии.
type MongoConfig struct {
	URL      string `yaml:"url"      env:"MONGO_URL" env-required:"true"`
	Database string `yaml:"database" env:"MONGO_DB"  env-default:"talas"`
}

// AuthConfig — проверка bearer-токенов.
type AuthConfig struct {
	JWTSecret string   `yaml:"jwt_secret" env:"JWT_SECRET"   env-required:"true"`
	Issuer    string   `yaml:"issuer"     env:"JWT_ISSUER"   env-default:"talas"`
	Audience  []string `yaml:"audience"   env:"JWT_AUDIENCE" env-separator:"," env-default:"talas-api"`
}

// LimitsConfig — лимиты выдачи и комментариев.
type LimitsConfig struct {
	// Пагинация ленты: page_size=0 -> Default; верхняя граница — Max.
	Default int32 `yaml:"default" env:"DEFAULT_LIMIT" env-default:"20"`
	Max     int32 `yaml:"max"     env:"MAX_LIMIT"     env-default:"100"`
	// Максимальная длина текста комментария в рунах.
	CommentMax int `yaml:"comment_max" env:"COMMENT_MAX" env-default:"4000"`
	// Максимальная глубина ветки (level). Корень = 0.
	MaxDepth int32 `yaml:"max_depth" env:"MAX_DEPTH" env-default:"8"`
}

// RateLimitConfig — ограничение частоты запросов на клиента (IP или пользователь).
// RPS=0 отключает ограничение.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"   env:"RATE_RPS"   env-default:"20"`
	Burst int     `yaml:"burst" env:"RATE_BURST" env-default:"40"`
}

// TimeoutConfig — дедлайн обработки запроса и время на корректную остановку.
type TimeoutConfig struct {
	Service  time.Duration `yaml:"service"  env:"SERVICE"  env-default:"5s"`
	Shutdown time.Duration `yaml:"shutdown" env:"SHUTDOWN" env-default:"10s"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию сервера по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := load(&cfg, path, "CONFIG_PATH", "local.yaml"); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	if c.Postgres.URL == "" {
		return fmt.Errorf("postgres.url is required")
	}

	if c.Mongo.URL == "" {
		return fmt.Errorf("mongo.url is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Limits.Default <= 0 {
		return fmt.Errorf("limits.default must be > 0")
	}

	if c.Limits.Max <= 0 {
		return fmt.Errorf("limits.max must be > 0")
	}

	if c.Limits.Default > c.Limits.Max {
		return fmt.Errorf("limits.default must be <= limits.max")
	}

	if c.Limits.CommentMax <= 0 {
		return fmt.Errorf("limits.comment_max must be > 0")
	}

	if c.Limits.MaxDepth <= 0 || c.Limits.MaxDepth > 32 {
		return fmt.Errorf("limits.max_depth must be in [1, 32]")
	}

	if c.RateLimit.RPS < 0 || (c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit: rps must be >= 0 and burst > 0 when enabled")
	}

	if c.Timeouts.Service <= 0 {
		return fmt.Errorf("timeouts.service must be > 0")
	}

	return nil
}

// ClientConfig — конфигурация CLI.
// Приоритет: --config, затем TALAS_CONFIG, затем ./talas.yaml, затем ENV.
type ClientConfig struct {
	Env       string        `yaml:"env"        env:"TALAS_ENV"        env-default:"local"`
	BaseURL   string        `yaml:"base_url"   env:"TALAS_BASE_URL"   env-default:"http://localhost:8080"`
	Token     string        `yaml:"token"      env:"TALAS_TOKEN"`
	Timeout   time.Duration `yaml:"timeout"    env:"TALAS_TIMEOUT"    env-default:"10s"`
	UserAgent string        `yaml:"user_agent" env:"TALAS_USER_AGENT" env-default:"talas-cli"`
	// ConcurrentToggles снимает per-entity guard: повторный переключатель по сущности
	// отправляется, даже если первый ещё в полёте. По умолчанию guard включён.
	ConcurrentToggles bool              `yaml:"concurrent_toggles" env:"TALAS_CONCURRENT_TOGGLES"`
	CommentTree       CommentTreeConfig `yaml:"comment_tree"`
}

// CommentTreeConfig — сборка дерева комментариев.
type CommentTreeConfig struct {
	// Dangling — что делать с ответами на отсутствующий комментарий:
	// placeholder | reparent | drop.
	Dangling string `yaml:"dangling"  env:"TALAS_TREE_DANGLING"  env-default:"placeholder"`
	MaxDepth int    `yaml:"max_depth" env:"TALAS_TREE_MAX_DEPTH" env-default:"64"`
}

// LoadClient загружает конфигурацию CLI.
func LoadClient(path string) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := load(&cfg, path, "TALAS_CONFIG", "talas.yaml"); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *ClientConfig) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}

	switch c.CommentTree.Dangling {
	case "placeholder", "reparent", "drop":
	default:
		return fmt.Errorf("comment_tree.dangling must be placeholder, reparent or drop, got %q", c.CommentTree.Dangling)
	}

	if c.CommentTree.MaxDepth <= 0 {
		return fmt.Errorf("comment_tree.max_depth must be > 0")
	}

	return nil
}

type validatable interface {
	validate() error
}

// load читает cfg по приоритету: path, файл из envVar, localFile, только ENV.
// После чтения файла ENV накладывается поверх значений из YAML.
func load(cfg validatable, path, envVar, localFile string) error {
	tryRead := func(p string) error {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, cfg); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(cfg); err != nil {
			return fmt.Errorf("failed to overlay env: %w", err)
		}

		return nil
	}

	var err error
	switch {
	case path != "":
		err = tryRead(path)
	case os.Getenv(envVar) != "":
		err = tryRead(os.Getenv(envVar))
	default:
		if _, statErr := os.Stat(localFile); statErr == nil {
			err = tryRead(localFile)
			break
		}

		if envErr := cleanenv.ReadEnv(cfg); envErr != nil {
			err = fmt.Errorf("config not found: provide --config, %s, %s or env vars: %w", envVar, localFile, envErr)
		}
	}
	if err != nil {
		return err
	}

	return cfg.validate()
}

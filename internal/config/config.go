package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

type Config struct {
	Env             string     `yaml:"env" env:"QRLINK_ENV"`
	ShortCodeLength int        `yaml:"short_code_length"`
	PublicBaseURL   string     `yaml:"public_base_url" env:"QRLINK_PUBLIC_BASE_URL"`
	HTTPServer      HTTPServer `yaml:"http_server"`
	Postgres        Postgres   `yaml:"postgres"`
	Redis           Redis      `yaml:"redis"`
	Auth            Auth       `yaml:"auth"`
	Unlock          Unlock     `yaml:"unlock"`
	RateLimit       RateLimit  `yaml:"rate_limit"`
	Pages           Pages      `yaml:"pages"`
	Log             Log        `yaml:"log"`
}

type HTTPServer struct {
	Port           int           `yaml:"port" env:"QRLINK_HTTP_PORT"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
	BehindProxy    bool          `yaml:"behind_proxy" env:"QRLINK_BEHIND_PROXY"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user" env:"QRLINK_POSTGRES_USER"`
	Password        string        `yaml:"password" env:"QRLINK_POSTGRES_PASSWORD"`
	Host            string        `yaml:"host" env:"QRLINK_POSTGRES_HOST"`
	Port            int           `yaml:"port" env:"QRLINK_POSTGRES_PORT"`
	DB              string        `yaml:"db" env:"QRLINK_POSTGRES_DB"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type Redis struct {
	Host     string `yaml:"host" env:"QRLINK_REDIS_HOST"`
	Port     int    `yaml:"port" env:"QRLINK_REDIS_PORT"`
	Password string `yaml:"password" env:"QRLINK_REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
}

var defaultRedis = Redis{
	Host: "localhost",
	Port: 6379,
}

func (r *Redis) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

type Auth struct {
	JWTSecret  string        `yaml:"jwt_secret" env:"QRLINK_JWT_SECRET"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

var defaultAuth = Auth{
	TokenTTL:   24 * time.Hour,
	BcryptCost: 12,
}

type Unlock struct {
	CookieTTL time.Duration `yaml:"cookie_ttl"`
}

var defaultUnlock = Unlock{
	CookieTTL: 24 * time.Hour,
}

type RateLimit struct {
	Backend         string        `yaml:"backend" env:"QRLINK_RATE_LIMIT_BACKEND"`
	Limit           int           `yaml:"limit"`
	Window          time.Duration `yaml:"window"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

var defaultRateLimit = RateLimit{
	Backend:         RateLimitMemory,
	Limit:           5,
	Window:          time.Minute,
	CleanupInterval: 5 * time.Minute,
}

type Pages struct {
	ExpiredURL  string `yaml:"expired_url"`
	PasswordURL string `yaml:"password_url"`
}

var defaultPages = Pages{
	ExpiredURL:  "/expired",
	PasswordURL: "/password",
}

type Log struct {
	Level string `yaml:"level" env:"QRLINK_LOG_LEVEL"`
}

var defaultLog = Log{
	Level: "info",
}

// Load reads the YAML file at path on top of the defaults, then applies QRLINK_* environment overrides.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse environment: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Env == EnvProd && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required in %s", EnvProd)
	}

	switch c.RateLimit.Backend {
	case RateLimitMemory, RateLimitRedis:
	default:
		return fmt.Errorf("unknown rate_limit.backend %q", c.RateLimit.Backend)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.ShortCodeLength = 7
	cfg.PublicBaseURL = "http://localhost:8080"
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
	cfg.Auth = defaultAuth
	cfg.Unlock = defaultUnlock
	cfg.RateLimit = defaultRateLimit
	cfg.Pages = defaultPages
	cfg.Log = defaultLog
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Server holds runtime configuration for the reference backend.
type Server struct {
	AppEnv       string        `yaml:"app_env" env:"APP_ENV" env-default:"development"`
	Port         string        `yaml:"port" env:"PORT" env-default:"8080"`
	DatabaseURL  string        `yaml:"database_url" env:"DATABASE_URL"`
	Storage      string        `yaml:"storage" env:"STORAGE" env-default:"postgres"`
	JWTSecret    string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTIssuer    string        `yaml:"jwt_issuer" env:"JWT_ISSUER" env-default:"backoffice"`
	JWTTTL       time.Duration `yaml:"jwt_ttl" env:"JWT_TTL" env-default:"1h"`
	CORSOrigins  []string      `yaml:"cors_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*" env-separator:","`
	SeedDemo     bool          `yaml:"seed_demo" env:"SEED_DEMO" env-default:"false"`
	DemoPassword string        `yaml:"demo_password" env:"DEMO_PASSWORD" env-default:"demo1234"`
}

// Client holds configuration for the session layer and the CLI built on it.
type Client struct {
	AppEnv         string        `yaml:"app_env" env:"APP_ENV" env-default:"development"`
	APIURL         string        `yaml:"api_url" env:"BACKOFFICE_API_URL" env-default:"http://localhost:8080/graphql"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"BACKOFFICE_REQUEST_TIMEOUT" env-default:"30s"`
	TokenStore     string        `yaml:"token_store" env:"BACKOFFICE_TOKEN_STORE" env-default:"file"`
	TokenPath      string        `yaml:"token_path" env:"BACKOFFICE_TOKEN_PATH" env-default:".backoffice/session.json"`
	ProfileRetries uint64        `yaml:"profile_retries" env:"BACKOFFICE_PROFILE_RETRIES" env-default:"2"`
	RetryBackoff   time.Duration `yaml:"retry_backoff" env:"BACKOFFICE_RETRY_BACKOFF" env-default:"200ms"`
	CacheSize      int           `yaml:"cache_size" env:"BACKOFFICE_CACHE_SIZE" env-default:"128"`
	CacheTTL       time.Duration `yaml:"cache_ttl" env:"BACKOFFICE_CACHE_TTL" env-default:"30s"`
}

// LoadServer reads server configuration from the optional CONFIG_PATH file and the environment.
func LoadServer() (Server, error) {
	var cfg Server
	if err := read(&cfg); err != nil {
		return Server{}, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// LoadClient reads client configuration from the optional CONFIG_PATH file and the environment.
func LoadClient() (Client, error) {
	var cfg Client
	if err := read(&cfg); err != nil {
		return Client{}, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Client{}, err
	}
	return cfg, nil
}

func read(cfg any) error {
	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return fmt.Errorf("read config %s: %w", path, err)
			}
			return nil
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("read env: %w", err)
	}
	return nil
}

func (c *Server) normalize() {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)
	c.CORSOrigins = trimAll(c.CORSOrigins)
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
}

// Validate performs minimal sanity checks on server settings.
func (c Server) Validate() error {
	switch c.Storage {
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.SeedDemo && len(c.DemoPassword) < 8 {
		return errors.New("DEMO_PASSWORD must be at least 8 characters")
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Server) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c *Client) normalize() {
	c.APIURL = strings.TrimSpace(c.APIURL)
	c.TokenStore = strings.ToLower(strings.TrimSpace(c.TokenStore))
	c.TokenPath = strings.TrimSpace(c.TokenPath)
}

// Validate performs minimal sanity checks on client settings.
func (c Client) Validate() error {
	if c.APIURL == "" {
		return errors.New("BACKOFFICE_API_URL is required")
	}
	switch c.TokenStore {
	case "file", "sqlite":
		if c.TokenPath == "" {
			return errors.New("BACKOFFICE_TOKEN_PATH is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown BACKOFFICE_TOKEN_STORE %q", c.TokenStore)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("BACKOFFICE_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction reports whether the client runs with production defaults.
func (c Client) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// IsProduction reports whether the server runs with production defaults.
func (c Server) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func trimAll(in []string) []string {
	var out []string
	for _, part := range in {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

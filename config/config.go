package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	campus "github.com/goliatone/go-campus"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CAMPUS"

// LegacySigningKeyEnv is read when CAMPUS_SIGNING_KEY is not set.
const LegacySigningKeyEnv = "SECRET_KEY"

type ctxKey string

const configContextKey ctxKey = "campus.config"

// WithContext stores cfg in ctx.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

// FromContext returns the config stored by WithContext, or nil.
func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// Config holds every setting of the service.
type Config struct {
	DatabaseURL            string        `yaml:"database_url"             envconfig:"DATABASE_URL"`
	DatabaseDriver         string        `yaml:"database_driver"          envconfig:"DATABASE_DRIVER"`
	SigningKey             string        `yaml:"signing_key"              envconfig:"SIGNING_KEY"`
	AllowInsecureKey       bool          `yaml:"allow_insecure_key"       envconfig:"ALLOW_INSECURE_KEY"`
	TokenTTLMinutes        int           `yaml:"token_ttl_minutes"        envconfig:"TOKEN_TTL_MINUTES"`
	TokenLeewaySeconds     int           `yaml:"token_leeway_seconds"     envconfig:"TOKEN_LEEWAY_SECONDS"`
	Issuer                 string        `yaml:"issuer"                   envconfig:"ISSUER"`
	Audience               []string      `yaml:"audience"                 envconfig:"AUDIENCE"`
	APIPrefix              string        `yaml:"api_prefix"               envconfig:"API_PREFIX"`
	ProjectName            string        `yaml:"project_name"             envconfig:"PROJECT_NAME"`
	Listen                 string        `yaml:"listen"                   envconfig:"LISTEN"`
	AllowedOrigins         string        `yaml:"allowed_origins"          envconfig:"ALLOWED_ORIGINS"`
	Debug                  bool          `yaml:"debug"                    envconfig:"DEBUG"`
	LogLevel               string        `yaml:"log_level"                envconfig:"LOG_LEVEL"`
	AutoActivateSignups    bool          `yaml:"auto_activate_signups"    envconfig:"AUTO_ACTIVATE_SIGNUPS"`
	RequireActiveAccount   bool          `yaml:"require_active_account"   envconfig:"REQUIRE_ACTIVE_ACCOUNT"`
	BcryptCost             int           `yaml:"bcrypt_cost"              envconfig:"BCRYPT_COST"`
	MaxLoginAttempts       int           `yaml:"max_login_attempts"       envconfig:"MAX_LOGIN_ATTEMPTS"`
	LockoutPeriod          time.Duration `yaml:"lockout_period"           envconfig:"LOCKOUT_PERIOD"`
	BootstrapAdminUsername string        `yaml:"bootstrap_admin_username" envconfig:"BOOTSTRAP_ADMIN_USERNAME"`
	BootstrapAdminPassword string        `yaml:"bootstrap_admin_password" envconfig:"BOOTSTRAP_ADMIN_PASSWORD"`
	DefaultPhoneRegion     string        `yaml:"default_phone_region"     envconfig:"DEFAULT_PHONE_REGION"`
	LoginRateLimit         int           `yaml:"login_rate_limit"         envconfig:"LOGIN_RATE_LIMIT"`
	LoginRateWindow        time.Duration `yaml:"login_rate_window"        envconfig:"LOGIN_RATE_WINDOW"`
}

// Defaults returns the compiled in settings.
func Defaults() *Config {
	return &Config{
		DatabaseURL:          "file:campus.db?cache=shared",
		DatabaseDriver:       campus.DriverSQLite,
		TokenTTLMinutes:      480,
		TokenLeewaySeconds:   30,
		Issuer:               "go-campus",
		Audience:             []string{"campus-api"},
		APIPrefix:            "/api",
		ProjectName:          "Event Manager API",
		Listen:               ":8000",
		AllowedOrigins:       "*",
		LogLevel:             "info",
		RequireActiveAccount: true,
		BcryptCost:           campus.DefaultPasswordCost,
		MaxLoginAttempts:     campus.DefaultMaxLoginAttempts,
		LockoutPeriod:        campus.DefaultLockoutPeriod,
		DefaultPhoneRegion:   campus.DefaultPhoneRegion,
		LoginRateLimit:       20,
		LoginRateWindow:      time.Minute,
	}
}

// Load builds the configuration from defaults, the optional YAML file,
// a .env file in the working directory and the process environment.
// An empty configFile falls back to CAMPUS_CONFIG.
func Load(configFile string) (*Config, error) {
	cfg := Defaults()

	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG")
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if cfg.SigningKey == "" {
		cfg.SigningKey = os.Getenv(LegacySigningKeyEnv)
	}

	cfg.DatabaseDriver = campus.NormalizeDriver(cfg.DatabaseDriver)
	cfg.APIPrefix = "/" + strings.Trim(cfg.APIPrefix, "/")

	return cfg, nil
}

// Validate reports the first setting that would prevent the service from
// starting safely.
func (c *Config) Validate() error {
	if err := campus.ValidateSigningKey(c.SigningKey, c.AllowInsecureKey); err != nil {
		return err
	}
	if campus.NormalizeDriver(c.DatabaseDriver) == "" {
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("token_ttl_minutes must be positive")
	}
	if c.TokenLeewaySeconds < 0 {
		return fmt.Errorf("token_leeway_seconds cannot be negative")
	}
	if c.LockoutPeriod <= 0 {
		return fmt.Errorf("lockout_period must be positive")
	}
	if c.MaxLoginAttempts <= 0 {
		return fmt.Errorf("max_login_attempts must be positive")
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		return fmt.Errorf("login rate limit and window must be positive")
	}
	return nil
}

func (c *Config) GetSigningKey() string {
	return c.SigningKey
}

func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

func (c *Config) GetTokenLeeway() time.Duration {
	return time.Duration(c.TokenLeewaySeconds) * time.Second
}

func (c *Config) GetIssuer() string {
	return c.Issuer
}

func (c *Config) GetAudience() []string {
	return c.Audience
}

func (c *Config) GetAutoActivateSignups() bool {
	return c.AutoActivateSignups
}

func (c *Config) GetRequireActiveAccount() bool {
	return c.RequireActiveAccount
}

func (c *Config) GetBcryptCost() int {
	return c.BcryptCost
}

func (c *Config) GetMaxLoginAttempts() int {
	return c.MaxLoginAttempts
}

func (c *Config) GetLockoutPeriod() time.Duration {
	return c.LockoutPeriod
}

func (c *Config) GetDefaultPhoneRegion() string {
	return c.DefaultPhoneRegion
}

// AllowedOriginList splits AllowedOrigins on commas.
func (c *Config) AllowedOriginList() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

var _ campus.Config = (*Config)(nil)

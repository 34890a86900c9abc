package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	EnvProduction = "production"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	AppEnv   string `envconfig:"APP_ENV"   default:"development"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":4000"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// GRPCHealthAddr serves the gRPC health service; empty disables it.
	GRPCHealthAddr string `envconfig:"GRPC_HEALTH_ADDR" default:":50051"`

	StorageDriver     string        `envconfig:"STORAGE_DRIVER"       default:"postgres"`
	DatabaseURL       string        `envconfig:"DATABASE_URL"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS"    default:"25"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS"    default:"5"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`

	JWTSecret           string        `envconfig:"JWT_SECRET"`
	JWTExpiresIn        time.Duration `envconfig:"JWT_EXPIRES_IN"        default:"24h"`
	AdminInvitationCode string        `envconfig:"ADMIN_INVITATION_CODE"`

	LoginRateWindow  time.Duration `envconfig:"LOGIN_RATE_WINDOW"   default:"1m"`
	LoginRateMax     int           `envconfig:"LOGIN_RATE_MAX"      default:"5"`
	LoginRateMaxKeys int           `envconfig:"LOGIN_RATE_MAX_KEYS" default:"10000"`
	// TrustForwardedFor should only be set behind a proxy that rewrites X-Forwarded-For.
	TrustForwardedFor bool `envconfig:"TRUST_FORWARDED_FOR" default:"false"`

	GraphQLMaxDepth      int      `envconfig:"GRAPHQL_MAX_DEPTH"      default:"10"`
	GraphQLMaxComplexity int      `envconfig:"GRAPHQL_MAX_COMPLEXITY" default:"250"`
	CORSOrigins          []string `envconfig:"CORS_ORIGINS"           default:"http://localhost:3000,http://localhost:5173"`
	EnablePlayground     bool     `envconfig:"ENABLE_PLAYGROUND"      default:"true"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

var (
	config Config
	once   sync.Once
)

// LoadConfig reads an optional .env file and the environment once per process.
// Invalid configuration is fatal.
func LoadConfig(logger *logrus.Logger) *Config {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else if err == nil {
			logger.Info("Loaded configuration from .env file")
		}

		cfg, err := Load()
		if err != nil {
			logger.Fatalf("Failed to process configuration from environment variables: %v", err)
		}
		config = *cfg

		logger.Infof("Configuration loaded: Env=%s, HTTP Addr=%s, Storage=%s, LogLevel=%s",
			config.AppEnv, config.HTTPAddr, config.StorageDriver, config.LogLevel)
		if config.JWTSecret == "" {
			logger.Warn("Configuration: JWT_SECRET is not set, using the development secret")
		}
		if config.AdminInvitationCode == "" {
			logger.Info("Configuration: ADMIN_INVITATION_CODE is not set, admin registration is closed")
		}
	})
	return &config
}

// Load processes the environment without touching .env and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// PlaygroundEnabled is always false in production.
func (c *Config) PlaygroundEnabled() bool {
	return c.EnablePlayground && !c.IsProduction()
}

func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	switch c.StorageDriver {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres storage"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	for name, v := range map[string]time.Duration{
		"JWT_EXPIRES_IN":    c.JWTExpiresIn,
		"LOGIN_RATE_WINDOW": c.LoginRateWindow,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	for name, v := range map[string]int{
		"LOGIN_RATE_MAX":         c.LoginRateMax,
		"LOGIN_RATE_MAX_KEYS":    c.LoginRateMaxKeys,
		"GRAPHQL_MAX_DEPTH":      c.GraphQLMaxDepth,
		"GRAPHQL_MAX_COMPLEXITY": c.GraphQLMaxComplexity,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	return errors.Join(errs...)
}

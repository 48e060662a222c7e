package app

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"
)

const defaultAddr = "0.0.0.0:5000"

// Store drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverS3       = "s3"
)

// Config holds the complete application configuration, loadable from
// environment variables (BOTICA_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:5000" usage:"API server listen address"`
	ImageBaseURL string `default:"" usage:"Base URL prepended to relative product image paths" flag:"image-base-url"`
	Store        StoreConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StoreConfig selects and locates the document store.
type StoreConfig struct {
	Driver      string `default:"file" usage:"Store driver: file, postgres, redis, s3 or memory"`
	Path        string `default:"db.json" usage:"Document path for the file driver (.gz to compress)"`
	DatabaseURL string `usage:"PostgreSQL connection URL for the postgres driver (or DATABASE_URL)"`
	DocumentID  string `default:"default" usage:"Row id of the document for the postgres driver"`
	RedisURL    string `usage:"redis:// URL for the redis driver (or REDIS_URL)"`
	RedisKey    string `default:"botica:document" usage:"Key holding the document for the redis driver"`
	S3          S3Config
}

// S3Config locates the document object for the s3 driver.
type S3Config struct {
	Bucket    string `usage:"Bucket holding the document"`
	Key       string `default:"botica/db.json" usage:"Object key of the document (.gz to compress)"`
	Region    string `default:"us-east-1" usage:"Bucket region"`
	Endpoint  string `usage:"Custom endpoint for MinIO and other S3-compatible services"`
	AccessKey string `usage:"Static access key, empty uses the default AWS credential chain"`
	SecretKey string `usage:"Static secret key"`
}

// AuthConfig controls password hashing and bearer tokens.
type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET" usage:"HMAC secret for signing tokens (or JWT_SECRET)"`
	TokenTTL   time.Duration `default:"6h" usage:"Token lifetime"`
	BcryptCost int           `default:"10" usage:"bcrypt work factor"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window, 0 disables"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from flags, environment variables and YAML
// config files, then applies platform defaults and validates the result.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "BOTICA",
		Files:     []string{"config.yaml", "/etc/botica/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	}, os.Getenv)
}

func loadConfig(acfg aconfig.Config, getenv func(string) string) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, acfg).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults(getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the unprefixed variables hosting platforms set
// (PORT, DATABASE_URL, REDIS_URL, JWT_SECRET) onto the configuration.
func (c *Config) applyPlatformDefaults(getenv func(string) string) {
	if c.Store.DatabaseURL == "" {
		c.Store.DatabaseURL = getenv("DATABASE_URL")
	}
	if c.Store.RedisURL == "" {
		c.Store.RedisURL = getenv("REDIS_URL")
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = getenv("JWT_SECRET")
	}
	if port := getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT secret is required: set BOTICA_AUTH_JWT_SECRET or JWT_SECRET")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.Errorf("token TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return errors.Errorf("bcrypt cost %d outside %d..%d", c.Auth.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	return c.Store.Validate()
}

// Validate normalizes the driver name and checks the settings it needs.
func (s *StoreConfig) Validate() error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	switch s.Driver {
	case DriverFile:
		if s.Path == "" {
			return errors.New("store path is required for the file driver")
		}
	case DriverPostgres:
		if s.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres driver: set BOTICA_STORE_DATABASE_URL or DATABASE_URL")
		}
		if s.DocumentID == "" {
			return errors.New("document id is required for the postgres driver")
		}
	case DriverRedis:
		if s.RedisURL == "" {
			return errors.New("redis URL is required for the redis driver: set BOTICA_STORE_REDIS_URL or REDIS_URL")
		}
		if s.RedisKey == "" {
			return errors.New("redis key is required for the redis driver")
		}
	case DriverS3:
		if s.S3.Bucket == "" || s.S3.Key == "" {
			return errors.New("bucket and key are required for the s3 driver")
		}
	case DriverMemory:
	default:
		return errors.Errorf("unknown store driver %q", s.Driver)
	}
	return nil
}

// BindFlags registers store selection flags on fs for the command line tools.
// Defaults come from the same BOTICA_STORE_* variables the server reads.
func (s *StoreConfig) BindFlags(fs *flag.FlagSet, getenv func(string) string) {
	env := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}
	fs.StringVar(&s.Driver, "driver", env("BOTICA_STORE_DRIVER", DriverFile), "store driver: file, postgres, redis, s3 or memory")
	fs.StringVar(&s.Path, "path", env("BOTICA_STORE_PATH", "db.json"), "document path for the file driver")
	fs.StringVar(&s.DatabaseURL, "database-url", env("BOTICA_STORE_DATABASE_URL", getenv("DATABASE_URL")), "PostgreSQL connection URL")
	fs.StringVar(&s.DocumentID, "document-id", env("BOTICA_STORE_DOCUMENT_ID", "default"), "document row id for the postgres driver")
	fs.StringVar(&s.RedisURL, "redis-url", env("BOTICA_STORE_REDIS_URL", getenv("REDIS_URL")), "redis:// URL")
	fs.StringVar(&s.RedisKey, "redis-key", env("BOTICA_STORE_REDIS_KEY", "botica:document"), "document key for the redis driver")
	fs.StringVar(&s.S3.Bucket, "s3-bucket", getenv("BOTICA_STORE_S3_BUCKET"), "bucket for the s3 driver")
	fs.StringVar(&s.S3.Key, "s3-key", env("BOTICA_STORE_S3_KEY", "botica/db.json"), "object key for the s3 driver")
	fs.StringVar(&s.S3.Region, "s3-region", env("BOTICA_STORE_S3_REGION", "us-east-1"), "bucket region")
	fs.StringVar(&s.S3.Endpoint, "s3-endpoint", getenv("BOTICA_STORE_S3_ENDPOINT"), "custom S3 endpoint")
	s.S3.AccessKey = getenv("BOTICA_STORE_S3_ACCESS_KEY")
	s.S3.SecretKey = getenv("BOTICA_STORE_S3_SECRET_KEY")
}

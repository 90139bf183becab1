// Package config loads server settings from the environment, an optional
// config file and command-line flags, in rising order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	pkgstrings "pokedex/pkg/platform/strings"
)

// Keys double as environment variable names once upper-cased.
const (
	KeyPort                = "port"
	KeyStoreURL            = "store_url"
	KeyAllowedOrigins      = "allowed_origins"
	KeyRedisURL            = "redis_url"
	KeyCloudinaryURL       = "cloudinary_url"
	KeyCloudinaryCloudName = "cloudinary_cloud_name"
	KeyCloudinaryAPIKey    = "cloudinary_api_key"
	KeyCloudinaryAPISecret = "cloudinary_api_secret"
	KeyMediaFolder         = "media_folder"
	KeyMaxUploadBytes      = "max_upload_bytes"
	KeyPublicBaseURL       = "public_base_url"
	KeyLogLevel            = "log_level"
	KeyLogFormat           = "log_format"
	KeyShutdownTimeout     = "shutdown_timeout"
)

const (
	DefaultPort           = 4000
	DefaultStoreURL       = "memory://"
	DefaultAllowedOrigin  = "http://localhost:5173"
	DefaultMediaFolder    = "custom-pokemon"
	DefaultMaxUploadBytes = 5 << 20
)

// Config is the fully resolved server configuration.
type Config struct {
	Server Server
	Store  Store
	Redis  RedisConfig
	Media  Media
	CORS   CORS
	Log    Log
}

type Server struct {
	Port            int
	ShutdownTimeout time.Duration
}

// Addr is the listen address for Port on all interfaces.
func (s Server) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Store struct {
	URL string
}

// RedisConfig is optional; an empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Media struct {
	CloudinaryURL  string
	CloudName      string
	APIKey         string
	APISecret      string
	Folder         string
	MaxUploadBytes int64
	// PublicBaseURL prefixes addresses served by the in-process media store.
	PublicBaseURL string
}

type CORS struct {
	AllowedOrigins []string
}

type Log struct {
	Level  string
	Format string
}

// NewViper returns a viper instance with defaults set and environment
// lookup enabled.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyStoreURL, DefaultStoreURL)
	v.SetDefault(KeyAllowedOrigins, DefaultAllowedOrigin)
	v.SetDefault(KeyRedisURL, "")
	v.SetDefault(KeyCloudinaryURL, "")
	v.SetDefault(KeyCloudinaryCloudName, "")
	v.SetDefault(KeyCloudinaryAPIKey, "")
	v.SetDefault(KeyCloudinaryAPISecret, "")
	v.SetDefault(KeyMediaFolder, DefaultMediaFolder)
	v.SetDefault(KeyMaxUploadBytes, DefaultMaxUploadBytes)
	v.SetDefault(KeyPublicBaseURL, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyShutdownTimeout, 10*time.Second)
	v.AutomaticEnv()
	return v
}

// ReadFile merges a YAML/JSON/TOML config file into v. An empty path is a
// no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load resolves and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Server: Server{
			Port:            v.GetInt(KeyPort),
			ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
		},
		Store: Store{URL: strings.TrimSpace(v.GetString(KeyStoreURL))},
		Redis: RedisConfig{
			URL:          strings.TrimSpace(v.GetString(KeyRedisURL)),
			PoolSize:     10,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Media: Media{
			CloudinaryURL:  v.GetString(KeyCloudinaryURL),
			CloudName:      v.GetString(KeyCloudinaryCloudName),
			APIKey:         v.GetString(KeyCloudinaryAPIKey),
			APISecret:      v.GetString(KeyCloudinaryAPISecret),
			Folder:         v.GetString(KeyMediaFolder),
			MaxUploadBytes: v.GetInt64(KeyMaxUploadBytes),
			PublicBaseURL:  strings.TrimSuffix(v.GetString(KeyPublicBaseURL), "/"),
		},
		CORS: CORS{AllowedOrigins: stringList(v, KeyAllowedOrigins)},
		Log: Log{
			Level:  strings.ToLower(v.GetString(KeyLogLevel)),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
		},
	}
	if cfg.Store.URL == "" {
		cfg.Store.URL = DefaultStoreURL
	}
	if cfg.Media.PublicBaseURL == "" {
		cfg.Media.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	cfg.CORS.AllowedOrigins = pkgstrings.TrimSuffixAll(cfg.CORS.AllowedOrigins, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s must be between 1 and 65535, got %d", KeyPort, c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyShutdownTimeout))
	}
	if c.Media.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyMaxUploadBytes))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("%s must be json or text, got %q", KeyLogFormat, c.Log.Format))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%s must be debug, info, warn or error, got %q", KeyLogLevel, c.Log.Level))
	}
	return errors.Join(errs...)
}

// stringList reads a comma separated string (environment) or a list (config
// file) under key.
func stringList(v *viper.Viper, key string) []string {
	switch raw := v.Get(key).(type) {
	case string:
		return pkgstrings.SplitList(raw)
	case nil:
		return nil
	default:
		return pkgstrings.DedupeAndTrim(v.GetStringSlice(key))
	}
}

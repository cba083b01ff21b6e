// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App         AppConfig         `koanf:"app"`
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Redis       RedisConfig       `koanf:"redis"`
	JWT         JWTConfig         `koanf:"jwt"`
	Federation  FederationConfig  `koanf:"federation"`
	Storage     StorageConfig     `koanf:"storage"`
	Audit       AuditConfig       `koanf:"audit"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	Integration IntegrationConfig `koanf:"integration"`
	Admin       AdminConfig       `koanf:"admin"`
	RateLimit   RateLimitConfig   `koanf:"rate_limit"`
	CORS        CORSConfig        `koanf:"cors"`
	Log         LogConfig         `koanf:"log"`
	Otel        OtelConfig        `koanf:"otel"`
	Metrics     MetricsConfig     `koanf:"metrics"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// JWTConfig controls the signed session credential.
type JWTConfig struct {
	PrivateKeyPath    string        `koanf:"private_key_path"`
	PublicKeyPath     string        `koanf:"public_key_path"`
	AccessTokenExpire time.Duration `koanf:"access_token_expire"`
	SetupTokenExpire  time.Duration `koanf:"setup_token_expire"`
	Issuer            string        `koanf:"issuer"`
	Audience          string        `koanf:"audience"`
}

// FederationConfig describes the external enterprise identity provider whose
// signed assertions are accepted on the federated login endpoint.
type FederationConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Issuer         string        `koanf:"issuer"`
	Audience       string        `koanf:"audience"`
	JWKSURL        string        `koanf:"jwks_url"`
	JWKSRefresh    time.Duration `koanf:"jwks_refresh"`
	AcceptableSkew time.Duration `koanf:"acceptable_skew"`
	EmailClaim     string        `koanf:"email_claim"`
	NameClaim      string        `koanf:"name_claim"`
}

type StorageConfig struct {
	Enabled       bool     `koanf:"enabled"`
	Endpoint      string   `koanf:"endpoint"`
	AccessKey     string   `koanf:"access_key"`
	SecretKey     string   `koanf:"secret_key"`
	Bucket        string   `koanf:"bucket"`
	UseSSL        bool     `koanf:"use_ssl"`
	PublicURL     string   `koanf:"public_url"`
	MaxUploadSize int64    `koanf:"max_upload_size"`
	AllowedTypes  []string `koanf:"allowed_types"`
}

type AuditConfig struct {
	BufferSize   int           `koanf:"buffer_size"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type CatalogConfig struct {
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// IntegrationConfig holds the base64 32-byte key that seals per-tenant
// integration secrets. Integration routes stay unmounted without it.
type IntegrationConfig struct {
	EncryptionKey string `koanf:"encryption_key"`
}

type AdminConfig struct {
	OperatorKey string `koanf:"operator_key"`
}

type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	Window       time.Duration `koanf:"window"`
	Burst        int           `koanf:"burst"`
	AuthRequests int           `koanf:"auth_requests"`
	AuthBurst    int           `koanf:"auth_burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	out := &Config{}
	if err := k.Unmarshal("", out); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(out); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return out, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Tenant Platform",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire": "8h",
		"jwt.setup_token_expire":  "30m",
		"jwt.issuer":              "tenant-platform",
		"jwt.audience":            "tenant-platform-api",
		"jwt.private_key_path":    "keys/private.pem",
		"jwt.public_key_path":     "keys/public.pem",

		"federation.enabled":         false,
		"federation.jwks_refresh":    "15m",
		"federation.acceptable_skew": "30s",
		"federation.email_claim":     "email",
		"federation.name_claim":      "name",

		"storage.enabled":         false,
		"storage.use_ssl":         true,
		"storage.bucket":          "tenant-assets",
		"storage.max_upload_size": 2 * 1024 * 1024,
		"storage.allowed_types": []string{
			".png",
			".jpg",
			".jpeg",
			".svg",
			".ico",
			".webp",
		},

		"audit.buffer_size":   1024,
		"audit.write_timeout": "5s",

		"catalog.cache_ttl": "1m",

		"rate_limit.requests":      100,
		"rate_limit.window":        "1m",
		"rate_limit.burst":         20,
		"rate_limit.auth_requests": 10,
		"rate_limit.auth_burst":    5,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "tenant-platform",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_SETUP_TOKEN_EXPIRE":      "jwt.setup_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"FEDERATION_ENABLED":          "federation.enabled",
	"FEDERATION_ISSUER":           "federation.issuer",
	"FEDERATION_AUDIENCE":         "federation.audience",
	"FEDERATION_JWKS_URL":         "federation.jwks_url",
	"FEDERATION_JWKS_REFRESH":     "federation.jwks_refresh",
	"STORAGE_ENABLED":             "storage.enabled",
	"STORAGE_ENDPOINT":            "storage.endpoint",
	"STORAGE_ACCESS_KEY":          "storage.access_key",
	"STORAGE_SECRET_KEY":          "storage.secret_key",
	"STORAGE_BUCKET":              "storage.bucket",
	"STORAGE_USE_SSL":             "storage.use_ssl",
	"STORAGE_PUBLIC_URL":          "storage.public_url",
	"AUDIT_BUFFER_SIZE":           "audit.buffer_size",
	"CATALOG_CACHE_TTL":           "catalog.cache_ttl",
	"ADMIN_OPERATOR_KEY":          "admin.operator_key",
	"INTEGRATION_ENCRYPTION_KEY":  "integration.encryption_key",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"RATE_LIMIT_AUTH_REQUESTS":    "rate_limit.auth_requests",
	"RATE_LIMIT_AUTH_BURST":       "rate_limit.auth_burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"METRICS_ENABLED":             "metrics.enabled",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.JWT.AccessTokenExpire <= 0 || c.JWT.SetupTokenExpire <= 0 {
		return fmt.Errorf("jwt token lifetimes must be positive")
	}

	if c.JWT.SetupTokenExpire > c.JWT.AccessTokenExpire {
		return fmt.Errorf("jwt.setup_token_expire must not exceed jwt.access_token_expire")
	}

	if c.Federation.Enabled {
		if c.Federation.Issuer == "" {
			return fmt.Errorf("FEDERATION_ISSUER is required when federation is enabled")
		}
		if c.Federation.JWKSURL == "" {
			return fmt.Errorf("FEDERATION_JWKS_URL is required when federation is enabled")
		}
	}

	if c.Storage.Enabled {
		if c.Storage.Endpoint == "" {
			return fmt.Errorf("STORAGE_ENDPOINT is required when storage is enabled")
		}
		if c.Storage.Bucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required when storage is enabled")
		}
	}

	if c.Audit.BufferSize <= 0 {
		return fmt.Errorf("audit.buffer_size must be positive")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if c.Admin.OperatorKey != "" && len(c.Admin.OperatorKey) < 32 {
			return fmt.Errorf("ADMIN_OPERATOR_KEY must be at least 32 characters in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

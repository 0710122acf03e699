package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "cnes-dashboard/internal/common/errors"
)

const (
	DefaultTable          = "estabelecimentos_saude"
	DefaultPageSize       = 100
	DefaultLookupBaseURL  = "https://apidadosabertos.saude.gov.br"
	DefaultLookupTimeout  = 10000 // milliseconds
	DefaultBackendTimeout = 30000 // milliseconds

	DefaultCacheTTL           = 600 // seconds
	DefaultRelationalCacheTTL = 60  // seconds

	DefaultMaxResultWindow = 10000
)

var tableIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// Load reads configs/config.yaml (if present), merges config.<env>.yaml,
// then applies environment overrides. A missing file is not an error: every
// key has a default and can be set from the environment.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return build(v)
}

func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal even when no config file is present.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cnes-dashboard")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.registry_path", "")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15000)
	v.SetDefault("server.write_timeout", 45000)
	v.SetDefault("server.shutdown_timeout", 30000)

	v.SetDefault("backend.kind", BackendWarehouse)
	v.SetDefault("backend.driver", DriverPostgres)
	v.SetDefault("backend.table", DefaultTable)
	v.SetDefault("backend.timeout", DefaultBackendTimeout)
	v.SetDefault("backend.page_size", DefaultPageSize)

	v.SetDefault("database.postgres.url", "")
	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.max_connections", 25)
	v.SetDefault("database.postgres.max_idle", 5)
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.sqlite.path", "")
	v.SetDefault("database.bigquery.project_id", "")
	v.SetDefault("database.bigquery.location", "")
	v.SetDefault("database.elasticsearch.addresses", []string{})
	v.SetDefault("database.elasticsearch.username", "")
	v.SetDefault("database.elasticsearch.password", "")
	v.SetDefault("database.elasticsearch.index", "")
	v.SetDefault("database.elasticsearch.url", "")
	v.SetDefault("database.elasticsearch.max_result_window", DefaultMaxResultWindow)
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("cache.driver", CacheDriverMemory)
	v.SetDefault("cache.ttl", 0)
	v.SetDefault("cache.max_entries", 1024)
	v.SetDefault("cache.key_prefix", "cnes:")

	v.SetDefault("lookup.base_url", DefaultLookupBaseURL)
	v.SetDefault("lookup.timeout", DefaultLookupTimeout)

	v.SetDefault("credentials.gcp_credentials", "")
	v.SetDefault("credentials.gcp_credentials_file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig honours the conventional variable names deployments
// already use for secrets, on top of the CREDENTIALS_GCP_CREDENTIALS style
// names AutomaticEnv derives.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Credentials.GCPCredentials == "" {
		if val := os.Getenv("GCP_CREDENTIALS"); val != "" {
			cfg.Credentials.GCPCredentials = val
		}
	}
	if cfg.Credentials.GCPCredentialsFile == "" {
		if val := os.Getenv("GCP_CREDENTIALS_FILE"); val != "" {
			cfg.Credentials.GCPCredentialsFile = val
		}
	}
	if cfg.Database.Postgres.URL == "" {
		if val := os.Getenv("DATABASE_URL"); val != "" {
			cfg.Database.Postgres.URL = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Backend.Table == "" {
		cfg.Backend.Table = DefaultTable
	}
	if cfg.Backend.PageSize <= 0 {
		cfg.Backend.PageSize = DefaultPageSize
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = DefaultBackendTimeout
	}
	if cfg.Backend.Driver == "" {
		cfg.Backend.Driver = DriverPostgres
	}

	if cfg.Cache.TTL <= 0 {
		if cfg.Backend.Kind == BackendRelational {
			cfg.Cache.TTL = DefaultRelationalCacheTTL
		} else {
			cfg.Cache.TTL = DefaultCacheTTL
		}
	}
	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = CacheDriverMemory
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL != "" {
		cfg.Database.Elasticsearch.Addresses = []string{cfg.Database.Elasticsearch.URL}
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = cfg.Backend.Table
	}

	if cfg.Lookup.BaseURL == "" {
		cfg.Lookup.BaseURL = DefaultLookupBaseURL
	}
	cfg.Lookup.BaseURL = strings.TrimRight(cfg.Lookup.BaseURL, "/")
	if cfg.Lookup.Timeout <= 0 {
		cfg.Lookup.Timeout = DefaultLookupTimeout
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig checks structure only. Whether credentials are present is
// the credential provider's call, made once at startup.
func validateConfig(cfg *Config) error {
	switch cfg.Backend.Kind {
	case BackendWarehouse, BackendRelational:
		if cfg.Backend.Driver != DriverPostgres && cfg.Backend.Driver != DriverSQLite {
			return apperrors.NewConfigurationError(fmt.Sprintf("backend.driver %q is not supported", cfg.Backend.Driver))
		}
	case BackendBigQuery:
	case BackendElasticsearch:
		if len(cfg.Database.Elasticsearch.Addresses) == 0 {
			return apperrors.NewConfigurationError("database.elasticsearch.addresses or url is required")
		}
	default:
		return apperrors.NewConfigurationError(fmt.Sprintf("backend.kind %q is not supported", cfg.Backend.Kind))
	}

	if !tableIdentifier.MatchString(cfg.Backend.Table) {
		return apperrors.NewConfigurationError(fmt.Sprintf("backend.table %q is not a valid identifier", cfg.Backend.Table))
	}

	switch cfg.Cache.Driver {
	case CacheDriverMemory:
	case CacheDriverRedis:
		if cfg.Database.Redis.Address == "" {
			return apperrors.NewConfigurationError("database.redis.address is required when cache.driver is redis")
		}
	default:
		return apperrors.NewConfigurationError(fmt.Sprintf("cache.driver %q is not supported", cfg.Cache.Driver))
	}

	if !strings.HasPrefix(cfg.Lookup.BaseURL, "http://") && !strings.HasPrefix(cfg.Lookup.BaseURL, "https://") {
		return apperrors.NewConfigurationError(fmt.Sprintf("lookup.base_url %q must be an http(s) URL", cfg.Lookup.BaseURL))
	}

	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

func (c *Config) BackendTimeout() time.Duration {
	return GetDuration(c.Backend.Timeout)
}

func (c *Config) LookupTimeout() time.Duration {
	return GetDuration(c.Lookup.Timeout)
}

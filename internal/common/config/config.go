package config

import (
	"fmt"
	"net/url"
)

const (
	BackendWarehouse     = "warehouse"
	BackendBigQuery      = "bigquery"
	BackendRelational    = "relational"
	BackendElasticsearch = "elasticsearch"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Backend     BackendConfig     `mapstructure:"backend"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Lookup      LookupConfig      `mapstructure:"lookup"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	// RegistryPath points at a field-registry JSON for the record view.
	// Empty uses the built-in layout.
	RegistryPath string `mapstructure:"registry_path"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// BackendConfig selects where establishment rows come from.
// Driver only applies to the warehouse and relational kinds.
type BackendConfig struct {
	Kind     string `mapstructure:"kind"`
	Driver   string `mapstructure:"driver"`
	Table    string `mapstructure:"table"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
	PageSize int    `mapstructure:"page_size"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	SQLite        SQLiteConfig        `mapstructure:"sqlite"`
	BigQuery      BigQueryConfig      `mapstructure:"bigquery"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	URL            string `mapstructure:"url"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN prefers the URL form (DATABASE_URL) over the discrete fields.
func (p PostgresConfig) GetDSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// HasCredentials reports whether enough is set to attempt a connection.
func (p PostgresConfig) HasCredentials() bool {
	if p.URL != "" {
		u, err := url.Parse(p.URL)
		return err == nil && u.Host != ""
	}
	return p.Host != "" && p.Database != "" && p.User != ""
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type BigQueryConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Location  string `mapstructure:"location"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
	URL       string   `mapstructure:"url"`
	// MaxResultWindow mirrors the index setting of the same name.
	MaxResultWindow int `mapstructure:"max_result_window"`
}

func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Driver     string `mapstructure:"driver"`
	TTL        int    `mapstructure:"ttl"` // seconds
	MaxEntries int    `mapstructure:"max_entries"`
	KeyPrefix  string `mapstructure:"key_prefix"`
}

type LookupConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// CredentialsConfig holds the service-account secret for the warehouse,
// either inline (GCP_CREDENTIALS) or as a mounted file path.
type CredentialsConfig struct {
	GCPCredentials     string `mapstructure:"gcp_credentials"`
	GCPCredentialsFile string `mapstructure:"gcp_credentials_file"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

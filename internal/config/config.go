package config

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the docsync configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxUploadMB     int `yaml:"max_upload_mb"`
}

// DatabaseConfig holds record store connection settings.
type DatabaseConfig struct {
	Driver           string `yaml:"driver"` // postgres, sqlite (default: postgres)
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	Name             string `yaml:"name"`
	SSLMode          string `yaml:"sslmode"`
	Path             string `yaml:"path"` // sqlite only
	MaxOpenConns     int    `yaml:"max_open_conns"`
	MaxIdleConns     int    `yaml:"max_idle_conns"`
	ConnMaxLifeSec   int    `yaml:"conn_max_lifetime_sec"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds search index connection and layout settings.
type IndexConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	DB               int    `yaml:"db"`
	Name             string `yaml:"name"`
	Prefix           string `yaml:"prefix"`
	Language         string `yaml:"language"`
	ChunkSize        int    `yaml:"chunk_size"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// IngestionConfig holds file ingestion settings.
type IngestionConfig struct {
	DefaultSeparator   string `yaml:"default_separator"`
	TempDir            string `yaml:"temp_dir"`
	YandexBaseURL      string `yaml:"yandex_base_url"`
	DownloadTimeoutSec int    `yaml:"download_timeout_sec"`
	MaxDownloadMB      int    `yaml:"max_download_mb"` // 0 = unlimited
}

// ReconcileConfig holds the store/index reconciliation sweep settings.
type ReconcileConfig struct {
	Enabled     bool    `yaml:"enabled"`
	IntervalSec int     `yaml:"interval_sec"`
	PageSize    int     `yaml:"page_size"`
	RatePerSec  float64 `yaml:"rate_per_sec"` // 0 = unpaced
	Burst       int     `yaml:"burst"`
	VerifyText  bool    `yaml:"verify_text"`
}

// TelemetryConfig holds OpenTelemetry export settings. Empty endpoint disables export.
type TelemetryConfig struct {
	OTLPEndpoint string            `yaml:"otlp_endpoint"`
	Insecure     bool              `yaml:"insecure"`
	ServiceName  string            `yaml:"service_name"`
	Headers      map[string]string `yaml:"headers"`
}

// Addr returns the index host:port.
func (c IndexConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Interval returns the sweep interval.
func (c ReconcileConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSec) * time.Second
}

// Load reads config/<env>.yaml, see findConfigPath.
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse expands ${VAR} references, decodes YAML, fills defaults and
// validates the result.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad is Load for binaries: any error is fatal.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(fmt.Sprintf("config %q: %v", env, err))
	}
	return cfg
}

// GetEnv returns $ENV, or "local" when unset.
func GetEnv() string {
	return cmp.Or(os.Getenv("ENV"), "local")
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadMB <= 0 {
		c.HTTP.MaxUploadMB = 64
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Driver == "postgres" {
		if c.Database.Port <= 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Index.Port <= 0 {
		c.Index.Port = 6379
	}
	if c.Index.Name == "" {
		c.Index.Name = "documents"
	}
	if c.Index.Prefix == "" {
		c.Index.Prefix = c.Index.Name + ":"
	}
	if c.Index.ChunkSize <= 0 {
		c.Index.ChunkSize = 500
	}
	if c.Index.ReadinessTimeout <= 0 {
		c.Index.ReadinessTimeout = 10
	}

	if c.Ingestion.DefaultSeparator == "" {
		c.Ingestion.DefaultSeparator = ","
	}
	if c.Ingestion.TempDir == "" {
		c.Ingestion.TempDir = os.TempDir()
	}
	if c.Ingestion.YandexBaseURL == "" {
		c.Ingestion.YandexBaseURL = "https://cloud-api.yandex.net"
	}
	if c.Ingestion.DownloadTimeoutSec <= 0 {
		c.Ingestion.DownloadTimeoutSec = 300
	}

	if c.Reconcile.IntervalSec <= 0 {
		c.Reconcile.IntervalSec = 600
	}
	if c.Reconcile.PageSize <= 0 {
		c.Reconcile.PageSize = 500
	}
	if c.Reconcile.Burst <= 0 {
		c.Reconcile.Burst = 1
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "docsync"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	default:
		return fmt.Errorf("database.driver must be \"postgres\" or \"sqlite\", got %q", c.Database.Driver)
	}

	if c.Index.Host == "" {
		return fmt.Errorf("index.host is required")
	}
	if c.Index.Port > 65535 {
		return fmt.Errorf("index.port must be between 1 and 65535, got %d", c.Index.Port)
	}
	if n := len([]rune(c.Ingestion.DefaultSeparator)); n != 1 && c.Ingestion.DefaultSeparator != `\t` {
		return fmt.Errorf("ingestion.default_separator must be one character, got %q", c.Ingestion.DefaultSeparator)
	}
	if c.Reconcile.RatePerSec < 0 {
		return fmt.Errorf("reconcile.rate_per_sec must be non-negative, got %v", c.Reconcile.RatePerSec)
	}
	return nil
}

// findConfigPath returns the first existing <env>.yaml among $CONFIG_DIR,
// ./config and the config directory of the source tree. With none present
// it returns the ./config path so the read error names it.
func findConfigPath(env string) string {
	name := env + ".yaml"
	_, self, _, _ := runtime.Caller(0)

	dirs := []string{
		os.Getenv("CONFIG_DIR"),
		"config",
		filepath.Join(filepath.Dir(self), "..", "..", "config"),
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, name)
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path
		}
	}
	return filepath.Join("config", name)
}

// envRef matches ${NAME} and ${NAME:-fallback}.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// expandEnvVars substitutes environment references. Unset or empty variables
// take the fallback, or expand to nothing.
func expandEnvVars(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		m := envRef.FindSubmatch(ref)
		if v := os.Getenv(string(m[1])); v != "" {
			return []byte(v)
		}
		if len(m[2]) > 0 {
			return m[2][len(":-"):]
		}
		return nil
	})
}

// Package config loads and validates application configuration via Viper.
//
// The canonical config file is an INI-style file with a [mysql] section for
// database connection parameters and an [api] section for the source URL
// template, mirroring the deployment files this tool is driven by. Optional
// sections tune HTTP retry behavior, the storage backend, metrics, and
// logging. Every key can be overridden through the environment with the
// CDCETL_ prefix (e.g. CDCETL_MYSQL_PASSWORD).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs for a run.
type Config struct {
	MySQL   MySQLConfig
	API     APIConfig
	HTTP    HTTPConfig
	Storage StorageConfig
	Metrics MetricsConfig
	Logging LoggingConfig
}

// MySQLConfig holds connection parameters for the primary backend.
type MySQLConfig struct {
	Host     string
	User     string
	Password string
	Database string
	Port     int
}

// DSN renders the go-sql-driver connection string. parseTime is required so
// DATE columns scan into time.Time.
func (m MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		m.User, m.Password, m.Host, m.Port, m.Database)
}

// APIConfig describes the remote CSV endpoint.
type APIConfig struct {
	// BaseURL is a URL template containing {limit} and {offset} placeholders,
	// e.g. "https://data.cdc.gov/resource/n8mc-b4w4.csv?$limit={limit}&$offset={offset}".
	BaseURL string
}

// HTTPConfig controls fetch retry behavior. Retries is the total number of
// attempts per page; RetryWait is the fixed delay between attempts.
type HTTPConfig struct {
	TimeoutSeconds   int
	Retries          int
	RetryWaitSeconds int
}

// Timeout returns the per-request timeout as a duration.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// RetryWait returns the inter-attempt delay as a duration.
func (h HTTPConfig) RetryWait() time.Duration {
	return time.Duration(h.RetryWaitSeconds) * time.Second
}

// StorageConfig selects the storage backend. Kind "mysql" builds its DSN from
// the [mysql] section; other kinds ("postgres", "sqlite") take DSN directly.
type StorageConfig struct {
	Kind string
	DSN  string
}

// MetricsConfig selects the metrics backend ("pushgateway" or "none").
type MetricsConfig struct {
	Backend        string
	PushgatewayURL string
	Job            string
}

// LoggingConfig toggles the development (console) encoder.
type LoggingConfig struct {
	Development bool
}

// Load reads the config file at path and returns a validated Config. Missing
// required keys are reported as a single descriptive error so startup can
// abort before any component is constructed.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CDCETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		MySQL: MySQLConfig{
			Host:     v.GetString("mysql.host"),
			User:     v.GetString("mysql.user"),
			Password: v.GetString("mysql.password"),
			Database: v.GetString("mysql.database"),
			Port:     v.GetInt("mysql.port"),
		},
		API: APIConfig{
			BaseURL: v.GetString("api.base_url"),
		},
		HTTP: HTTPConfig{
			TimeoutSeconds:   v.GetInt("http.timeout_seconds"),
			Retries:          v.GetInt("http.retries"),
			RetryWaitSeconds: v.GetInt("http.retry_wait_seconds"),
		},
		Storage: StorageConfig{
			Kind: v.GetString("storage.kind"),
			DSN:  v.GetString("storage.dsn"),
		},
		Metrics: MetricsConfig{
			Backend:        v.GetString("metrics.backend"),
			PushgatewayURL: v.GetString("metrics.pushgateway_url"),
			Job:            v.GetString("metrics.job"),
		},
		Logging: LoggingConfig{
			Development: v.GetBool("logging.development"),
		},
	}

	if cfg.Storage.Kind == "mysql" && cfg.Storage.DSN == "" {
		cfg.Storage.DSN = cfg.MySQL.DSN()
	}

	if issues := Validate(cfg); len(issues) > 0 {
		return Config{}, fmt.Errorf("invalid configuration:\n%s", formatIssues(issues))
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.retries", 3)
	v.SetDefault("http.retry_wait_seconds", 2)
	v.SetDefault("storage.kind", "mysql")
	v.SetDefault("metrics.backend", "none")
	v.SetDefault("metrics.pushgateway_url", "http://localhost:9091")
	v.SetDefault("metrics.job", "cdcetl")
	v.SetDefault("logging.development", true)
}

func formatIssues(issues []Issue) string {
	lines := make([]string, 0, len(issues))
	for _, iss := range issues {
		lines = append(lines, "  "+iss.Error())
	}
	return strings.Join(lines, "\n")
}

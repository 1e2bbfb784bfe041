package config

import (
	"fmt"
	"strings"
)

// Issue describes a single validation finding. Path is a dotted path into the
// config (e.g. "mysql.host").
type Issue struct {
	Path    string
	Message string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// knownStorageKinds are the backends registered by internal/storage/all.
var knownStorageKinds = map[string]bool{
	"mysql":    true,
	"postgres": true,
	"sqlite":   true,
}

// Validate performs static validation of a Config and returns all findings.
// It does not mutate the config.
func Validate(c Config) []Issue {
	var issues []Issue

	add := func(path, format string, args ...any) {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.API.BaseURL) == "" {
		add("api.base_url", "must not be empty")
	} else {
		for _, ph := range []string{"{limit}", "{offset}"} {
			if !strings.Contains(c.API.BaseURL, ph) {
				add("api.base_url", "must contain the %s placeholder", ph)
			}
		}
	}

	switch {
	case strings.TrimSpace(c.Storage.Kind) == "":
		add("storage.kind", "must not be empty")
	case !knownStorageKinds[c.Storage.Kind]:
		add("storage.kind", "unknown backend %q", c.Storage.Kind)
	}

	if c.Storage.Kind == "mysql" {
		if c.MySQL.Host == "" {
			add("mysql.host", "must not be empty")
		}
		if c.MySQL.User == "" {
			add("mysql.user", "must not be empty")
		}
		if c.MySQL.Password == "" {
			add("mysql.password", "must not be empty")
		}
		if c.MySQL.Database == "" {
			add("mysql.database", "must not be empty")
		}
		if c.MySQL.Port <= 0 {
			add("mysql.port", "must be > 0")
		}
	} else if strings.TrimSpace(c.Storage.DSN) == "" {
		add("storage.dsn", "must not be empty for backend %q", c.Storage.Kind)
	}

	if c.HTTP.TimeoutSeconds <= 0 {
		add("http.timeout_seconds", "must be > 0")
	}
	if c.HTTP.Retries <= 0 {
		add("http.retries", "must be > 0")
	}
	if c.HTTP.RetryWaitSeconds < 0 {
		add("http.retry_wait_seconds", "must be >= 0")
	}

	switch c.Metrics.Backend {
	case "", "none", "pushgateway":
	default:
		add("metrics.backend", "unknown backend %q", c.Metrics.Backend)
	}
	if c.Metrics.Backend == "pushgateway" && strings.TrimSpace(c.Metrics.PushgatewayURL) == "" {
		add("metrics.pushgateway_url", "must not be empty when backend is pushgateway")
	}

	return issues
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Drivers the connection layer knows how to open. "auto" picks one from the
// connect string's URL scheme.
var Drivers = []string{"oracle", "postgres", "mysql", "sqlite", "auto"}

type Config struct {
	ConnectString string        // e.g. 192.168.1.11:1521/MYDATABASE.WORLD
	Username      string
	Password      string
	File          string        // SQL file holding the probe query
	Period        time.Duration // time between probe cycles
	Output        string        // CSV sink path
	Driver        string
	QueryTimeout  time.Duration // 0 disables
	Immediate     bool          // probe once right away instead of after one period

	LogDir          string
	StatusAddr      string // empty disables the status API
	SlackWebhook    string
	AlertCooldown   time.Duration
	AlertOnRecovery bool
}

func Default() Config {
	return Config{
		Period:          60 * time.Second,
		Output:          "out.csv",
		Driver:          "oracle",
		LogDir:          "logs",
		AlertCooldown:   10 * time.Minute,
		AlertOnRecovery: true,
	}
}

// Load reads a YAML file over the defaults. An empty path returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var raw fileConfig
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := raw.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays INTERROGATOR_* (and a few shared) environment variables.
// Malformed numbers are ignored and the previous value kept.
func ApplyEnv(cfg Config) Config {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	str("INTERROGATOR_CONNECT_STRING", &cfg.ConnectString)
	str("INTERROGATOR_USERNAME", &cfg.Username)
	str("INTERROGATOR_PASSWORD", &cfg.Password)
	str("INTERROGATOR_FILE", &cfg.File)
	str("INTERROGATOR_OUTPUT", &cfg.Output)
	str("INTERROGATOR_DRIVER", &cfg.Driver)
	str("INTERROGATOR_STATUS_ADDR", &cfg.StatusAddr)
	str("LOG_DIR", &cfg.LogDir)
	str("SLACK_WEBHOOK_URL", &cfg.SlackWebhook)

	if v := os.Getenv("INTERROGATOR_PERIOD"); v != "" {
		if d, err := parseSeconds(v); err == nil && d > 0 {
			cfg.Period = d
		}
	}
	if v := os.Getenv("INTERROGATOR_QUERY_TIMEOUT"); v != "" {
		if d, err := parseSeconds(v); err == nil && d >= 0 {
			cfg.QueryTimeout = d
		}
	}
	if v := os.Getenv("ALERT_COOLDOWN"); v != "" {
		if d, err := parseSeconds(v); err == nil && d >= 0 {
			cfg.AlertCooldown = d
		}
	}
	if v := os.Getenv("INTERROGATOR_IMMEDIATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Immediate = b
		}
	}
	if v := os.Getenv("ALERT_ON_RECOVERY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AlertOnRecovery = b
		}
	}
	return cfg
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var err error
	required := []struct{ name, val string }{
		{"connect string", c.ConnectString},
		{"username", c.Username},
		{"password", c.Password},
		{"SQL file", c.File},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			err = multierr.Append(err, fmt.Errorf("%s is required", r.name))
		}
	}
	if c.Period <= 0 {
		err = multierr.Append(err, fmt.Errorf("period must be positive, got %s", c.Period))
	}
	if c.QueryTimeout < 0 {
		err = multierr.Append(err, fmt.Errorf("query timeout must not be negative, got %s", c.QueryTimeout))
	}
	if strings.TrimSpace(c.Output) == "" {
		err = multierr.Append(err, errors.New("output path is required"))
	}
	if !knownDriver(c.Driver) {
		err = multierr.Append(err, fmt.Errorf("unknown driver %q (want one of %s)", c.Driver, strings.Join(Drivers, ", ")))
	}
	return err
}

// ReadQuery returns the whole contents of the SQL file. Empty files are
// rejected: probing with no statement would fail every cycle.
func ReadQuery(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read SQL file: %w", err)
	}
	q := strings.TrimSpace(string(b))
	// Drivers reject a trailing terminator on plain statements; PL/SQL
	// blocks need theirs.
	if !strings.HasSuffix(strings.ToUpper(q), "END;") {
		q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	}
	if q == "" {
		return "", fmt.Errorf("read SQL file: %s is empty", path)
	}
	return q, nil
}

func knownDriver(d string) bool {
	for _, k := range Drivers {
		if d == k {
			return true
		}
	}
	return false
}

// parseSeconds accepts a bare number of seconds (the historical flag form)
// or a Go duration string such as "1m30s".
func parseSeconds(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

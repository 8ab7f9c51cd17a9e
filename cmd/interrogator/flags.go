package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/interrogator/internal/config"
)

// probeFlags holds every command-line override. Flags only win over the
// config file and environment when they were set explicitly.
type probeFlags struct {
	ConfigPath      string
	ConnectString   string
	Username        string
	Password        string
	File            string
	PeriodSeconds   int
	Output          string
	Driver          string
	QueryTimeout    time.Duration
	Immediate       bool
	LogDir          string
	StatusAddr      string
	SlackWebhook    string
	AlertCooldown   time.Duration
	AlertOnRecovery bool
}

// AddFlags attaches the flags to cmd as persistent flags so subcommands
// share them.
func (f *probeFlags) AddFlags(cmd *cobra.Command) {
	d := config.Default()
	fs := cmd.PersistentFlags()
	fs.StringVar(&f.ConfigPath, "config", "", "optional YAML configuration file")
	fs.StringVarP(&f.ConnectString, "connect-string", "c", "", "connection string for the target database (e.g. 192.168.1.11:1521/MYDATABASE.WORLD)")
	fs.StringVarP(&f.Username, "username", "u", "", "user to connect as")
	fs.StringVarP(&f.Password, "password", "p", "", "password of that user")
	fs.StringVarP(&f.File, "file", "f", "", "SQL file containing the query to run")
	fs.IntVarP(&f.PeriodSeconds, "period", "i", int(d.Period/time.Second), "number of seconds between calls")
	fs.StringVarP(&f.Output, "output", "o", d.Output, "path of the output CSV file")
	fs.StringVarP(&f.Driver, "driver", "d", d.Driver, "database driver (oracle|postgres|mysql|sqlite|auto)")
	fs.DurationVar(&f.QueryTimeout, "query-timeout", d.QueryTimeout, "per-query deadline, 0 for none")
	fs.BoolVar(&f.Immediate, "immediate", d.Immediate, "run the first probe right away instead of after one period")
	fs.StringVar(&f.LogDir, "log-dir", d.LogDir, "directory for the diagnostic log file")
	fs.StringVar(&f.StatusAddr, "status-addr", d.StatusAddr, "serve /healthz, /api/status and /metrics on this address (empty disables)")
	fs.StringVar(&f.SlackWebhook, "slack-webhook", d.SlackWebhook, "Slack webhook for outage and recovery notices")
	fs.DurationVar(&f.AlertCooldown, "alert-cooldown", d.AlertCooldown, "minimum time between outage notices")
	fs.BoolVar(&f.AlertOnRecovery, "alert-on-recovery", d.AlertOnRecovery, "notify when the database recovers")
}

// Resolve layers defaults, the config file, the environment and then the
// explicitly set flags.
func (f *probeFlags) Resolve(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg = config.ApplyEnv(cfg)

	changed := cmd.Flags().Changed
	str := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	str("connect-string", &cfg.ConnectString, f.ConnectString)
	str("username", &cfg.Username, f.Username)
	str("password", &cfg.Password, f.Password)
	str("file", &cfg.File, f.File)
	str("output", &cfg.Output, f.Output)
	str("driver", &cfg.Driver, f.Driver)
	str("log-dir", &cfg.LogDir, f.LogDir)
	str("status-addr", &cfg.StatusAddr, f.StatusAddr)
	str("slack-webhook", &cfg.SlackWebhook, f.SlackWebhook)

	if changed("period") {
		cfg.Period = time.Duration(f.PeriodSeconds) * time.Second
	}
	if changed("query-timeout") {
		cfg.QueryTimeout = f.QueryTimeout
	}
	if changed("immediate") {
		cfg.Immediate = f.Immediate
	}
	if changed("alert-cooldown") {
		cfg.AlertCooldown = f.AlertCooldown
	}
	if changed("alert-on-recovery") {
		cfg.AlertOnRecovery = f.AlertOnRecovery
	}
	return cfg, cfg.Validate()
}

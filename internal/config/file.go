package config

import "time"

// fileConfig mirrors Config for YAML decoding. Durations are strings so both
// "90" (seconds) and "1m30s" work; pointers tell unset from false.
type fileConfig struct {
	ConnectString   string `yaml:"connect_string"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	File            string `yaml:"file"`
	Period          string `yaml:"period"`
	Output          string `yaml:"output"`
	Driver          string `yaml:"driver"`
	QueryTimeout    string `yaml:"query_timeout"`
	Immediate       *bool  `yaml:"immediate"`
	LogDir          string `yaml:"log_dir"`
	StatusAddr      string `yaml:"status_addr"`
	SlackWebhook    string `yaml:"slack_webhook"`
	AlertCooldown   string `yaml:"alert_cooldown"`
	AlertOnRecovery *bool  `yaml:"alert_on_recovery"`
}

func (f fileConfig) apply(cfg *Config) error {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.ConnectString, f.ConnectString)
	set(&cfg.Username, f.Username)
	set(&cfg.Password, f.Password)
	set(&cfg.File, f.File)
	set(&cfg.Output, f.Output)
	set(&cfg.Driver, f.Driver)
	set(&cfg.LogDir, f.LogDir)
	set(&cfg.StatusAddr, f.StatusAddr)
	set(&cfg.SlackWebhook, f.SlackWebhook)

	durations := []struct {
		dst *time.Duration
		v   string
	}{
		{&cfg.Period, f.Period},
		{&cfg.QueryTimeout, f.QueryTimeout},
		{&cfg.AlertCooldown, f.AlertCooldown},
	}
	for _, d := range durations {
		if d.v == "" {
			continue
		}
		v, err := parseSeconds(d.v)
		if err != nil {
			return err
		}
		*d.dst = v
	}

	if f.Immediate != nil {
		cfg.Immediate = *f.Immediate
	}
	if f.AlertOnRecovery != nil {
		cfg.AlertOnRecovery = *f.AlertOnRecovery
	}
	return nil
}

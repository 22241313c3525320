// Package config loads cyclerun settings from config.toml, CYCLERUN_* environment
// variables and built-in defaults, in that order of precedence reversed.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/cyclerun/internal/application"
	"github.com/bnema/cyclerun/internal/logging"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "CYCLERUN"
	configName = "config"
	configType = "toml"

	SourceTOML      = "toml"
	SourceTokenFile = "tokenfile"

	BackendFile   = "file"
	BackendTOML   = "toml"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	ActionHTTP = "http"
	ActionExec = "exec"
)

type Config struct {
	Accounts   AccountsConfig   `mapstructure:"accounts"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Executor   ExecutorConfig   `mapstructure:"executor"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Action     ActionConfig     `mapstructure:"action"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type AccountsConfig struct {
	Source      string `mapstructure:"source"`
	Path        string `mapstructure:"path"`
	TokenFile   string `mapstructure:"token_file"`
	ProxiesFile string `mapstructure:"proxies_file"`
}

type CheckpointConfig struct {
	Backend   string `mapstructure:"backend"`
	Dir       string `mapstructure:"dir"`
	Path      string `mapstructure:"path"`
	SQLiteDir string `mapstructure:"sqlite_dir"`
}

type ExecutorConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayMin  time.Duration `mapstructure:"retry_delay_min"`
	RetryDelayMax  time.Duration `mapstructure:"retry_delay_max"`
	CoolOffMin     time.Duration `mapstructure:"cool_off_min"`
	CoolOffMax     time.Duration `mapstructure:"cool_off_max"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
}

type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	IntervalJitter  time.Duration `mapstructure:"interval_jitter"`
	AccountDelayMin time.Duration `mapstructure:"account_delay_min"`
	AccountDelayMax time.Duration `mapstructure:"account_delay_max"`
	MaxCycles       int           `mapstructure:"max_cycles"`
}

type ActionConfig struct {
	Kind string           `mapstructure:"kind"`
	HTTP HTTPActionConfig `mapstructure:"http"`
	Exec ExecActionConfig `mapstructure:"exec"`
}

type HTTPActionConfig struct {
	URL             string            `mapstructure:"url"`
	Method          string            `mapstructure:"method"`
	Body            string            `mapstructure:"body"`
	CookieName      string            `mapstructure:"cookie_name"`
	UserAgent       string            `mapstructure:"user_agent"`
	Headers         map[string]string `mapstructure:"headers"`
	LoginPaths      []string          `mapstructure:"login_paths"`
	SuccessSelector string            `mapstructure:"success_selector"`
}

type ExecActionConfig struct {
	Command             []string `mapstructure:"command"`
	Dir                 string   `mapstructure:"dir"`
	AuthExpiredExitCode int      `mapstructure:"auth_expired_exit_code"`
	NothingToDoExitCode int      `mapstructure:"nothing_to_do_exit_code"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

// Load reads path when set, otherwise $HOME/.config/cyclerun/config.toml if it
// exists. The returned viper instance is shared with the repository constructors.
func Load(path string) (*Config, *viper.Viper, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve home directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, homeDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(DefaultDir(homeDir))
		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				return nil, nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.expandPaths(homeDir)

	// Repository constructors read paths from viper, so keep it in sync with the expanded values.
	v.Set("accounts.path", cfg.Accounts.Path)
	v.Set("checkpoint.path", cfg.Checkpoint.Path)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, v, nil
}

func DefaultDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", "cyclerun")
}

func setDefaults(v *viper.Viper, homeDir string) {
	dir := DefaultDir(homeDir)
	executor := application.DefaultExecutorConfig()
	scheduler := application.DefaultSchedulerConfig()

	v.SetDefault("accounts.source", SourceTOML)
	v.SetDefault("accounts.path", filepath.Join(dir, "accounts.toml"))
	v.SetDefault("accounts.token_file", "token.txt")
	v.SetDefault("accounts.proxies_file", "proxies.txt")

	v.SetDefault("checkpoint.backend", BackendFile)
	v.SetDefault("checkpoint.dir", filepath.Join(dir, "last_checkins"))
	v.SetDefault("checkpoint.path", filepath.Join(dir, "checkpoints.toml"))
	v.SetDefault("checkpoint.sqlite_dir", dir)

	v.SetDefault("executor.max_retries", executor.Retry.MaxAttempts)
	v.SetDefault("executor.retry_delay_min", executor.Retry.Delay.Min)
	v.SetDefault("executor.retry_delay_max", executor.Retry.Delay.Max)
	v.SetDefault("executor.cool_off_min", executor.Retry.CoolOff.Min)
	v.SetDefault("executor.cool_off_max", executor.Retry.CoolOff.Max)
	v.SetDefault("executor.attempt_timeout", executor.Retry.AttemptTimeout)
	v.SetDefault("executor.cooldown", executor.Cooldown)

	v.SetDefault("scheduler.interval", scheduler.Interval)
	v.SetDefault("scheduler.interval_jitter", scheduler.IntervalJitter)
	v.SetDefault("scheduler.account_delay_min", scheduler.AccountDelay.Min)
	v.SetDefault("scheduler.account_delay_max", scheduler.AccountDelay.Max)
	v.SetDefault("scheduler.max_cycles", 0)

	v.SetDefault("action.kind", ActionHTTP)
	v.SetDefault("action.http.url", "")
	v.SetDefault("action.http.method", "GET")
	v.SetDefault("action.http.body", "")
	v.SetDefault("action.http.cookie_name", "harbor-session")
	v.SetDefault("action.http.user_agent", "")
	v.SetDefault("action.http.login_paths", []string{"/onboarding/login", "/onboarding/confirm"})
	v.SetDefault("action.http.success_selector", "")
	v.SetDefault("action.exec.command", []string{})
	v.SetDefault("action.exec.dir", "")
	v.SetDefault("action.exec.auth_expired_exit_code", 77)
	v.SetDefault("action.exec.nothing_to_do_exit_code", 78)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatConsole)

	v.SetDefault("metrics.listen", "")
}

func (c *Config) expandPaths(homeDir string) {
	c.Accounts.Path = expandHome(c.Accounts.Path, homeDir)
	c.Accounts.TokenFile = expandHome(c.Accounts.TokenFile, homeDir)
	c.Accounts.ProxiesFile = expandHome(c.Accounts.ProxiesFile, homeDir)
	c.Checkpoint.Dir = expandHome(c.Checkpoint.Dir, homeDir)
	c.Checkpoint.Path = expandHome(c.Checkpoint.Path, homeDir)
	c.Checkpoint.SQLiteDir = expandHome(c.Checkpoint.SQLiteDir, homeDir)
}

func expandHome(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

func (c Config) Validate() error {
	var errs []error

	switch c.Accounts.Source {
	case SourceTOML, SourceTokenFile:
	default:
		errs = append(errs, fmt.Errorf("accounts.source must be %s or %s, got %q", SourceTOML, SourceTokenFile, c.Accounts.Source))
	}

	switch c.Checkpoint.Backend {
	case BackendFile, BackendTOML, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("checkpoint.backend must be one of file, toml, sqlite, memory, got %q", c.Checkpoint.Backend))
	}

	switch c.Action.Kind {
	case ActionHTTP, ActionExec:
	default:
		errs = append(errs, fmt.Errorf("action.kind must be %s or %s, got %q", ActionHTTP, ActionExec, c.Action.Kind))
	}

	if err := c.ExecutorConfig().Retry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("executor: %w", err))
	}
	if c.Executor.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("executor.cooldown must not be negative, got %s", c.Executor.Cooldown))
	}
	if err := c.SchedulerConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func (c Config) ExecutorConfig() application.ExecutorConfig {
	cfg := application.DefaultExecutorConfig()
	cfg.Cooldown = c.Executor.Cooldown
	cfg.Retry = application.RetryPolicy{
		MaxAttempts:    c.Executor.MaxRetries,
		Delay:          application.DelayRange{Min: c.Executor.RetryDelayMin, Max: c.Executor.RetryDelayMax},
		CoolOff:        application.DelayRange{Min: c.Executor.CoolOffMin, Max: c.Executor.CoolOffMax},
		AttemptTimeout: c.Executor.AttemptTimeout,
	}

	return cfg
}

func (c Config) SchedulerConfig() application.SchedulerConfig {
	return application.SchedulerConfig{
		Interval:       c.Scheduler.Interval,
		IntervalJitter: c.Scheduler.IntervalJitter,
		AccountDelay:   application.DelayRange{Min: c.Scheduler.AccountDelayMin, Max: c.Scheduler.AccountDelayMax},
		MaxCycles:      c.Scheduler.MaxCycles,
	}
}

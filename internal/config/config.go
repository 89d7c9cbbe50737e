// Package config loads backlog settings from backlog.yaml, BACKLOG_*
// environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. BACKLOG_PATHS_DATA.
const EnvPrefix = "BACKLOG"

// Config is the complete backlog tool configuration.
type Config struct {
	Paths PathsConfig `mapstructure:"paths"`
	UI    UIConfig    `mapstructure:"ui"`
	Log   LogConfig   `mapstructure:"log"`
	Dates DatesConfig `mapstructure:"dates"`
}

// PathsConfig locates the tracked files. Relative paths are resolved
// against Root.
type PathsConfig struct {
	// Root is the repository root, also the working directory for git.
	Root string `mapstructure:"root"`
	// Data holds backlog.csv, sprints.csv and changelog.csv.
	Data string `mapstructure:"data"`
	// Items holds the BACKLOG-NNN.md detail files.
	Items   string `mapstructure:"items"`
	Metrics string `mapstructure:"metrics"`
	// DashboardTemplate falls back to the built-in page when missing.
	DashboardTemplate string `mapstructure:"dashboard_template"`
	Architecture      string `mapstructure:"architecture"`
}

type UIConfig struct {
	// Theme is one of classic, neon, mono.
	Theme string `mapstructure:"theme"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatesConfig struct {
	// Workers bounds concurrent git lookups.
	Workers int `mapstructure:"workers"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Root:              ".",
			Data:              ".claude/plans/backlog/data",
			Items:             ".claude/plans/backlog/items",
			Metrics:           ".claude/metrics/tokens.csv",
			DashboardTemplate: ".claude/plans/backlog/dashboard.html",
			Architecture:      ".claude/skills/architecture/architecture.yaml",
		},
		UI:    UIConfig{Theme: "classic"},
		Log:   LogConfig{Level: "warn"},
		Dates: DatesConfig{Workers: 8},
	}
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("paths.root", d.Paths.Root)
	v.SetDefault("paths.data", d.Paths.Data)
	v.SetDefault("paths.items", d.Paths.Items)
	v.SetDefault("paths.metrics", d.Paths.Metrics)
	v.SetDefault("paths.dashboard_template", d.Paths.DashboardTemplate)
	v.SetDefault("paths.architecture", d.Paths.Architecture)

	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("dates.workers", d.Dates.Workers)
}

// New returns a viper instance with defaults, environment binding and, when
// found, the config file. file overrides the search path.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("backlog")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load unmarshals and validates v, then resolves relative paths.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	cfg.Resolve()
	return &cfg, nil
}

// Resolve joins relative paths onto Root.
func (c *Config) Resolve() {
	p := &c.Paths
	for _, s := range []*string{&p.Data, &p.Items, &p.Metrics, &p.DashboardTemplate, &p.Architecture} {
		if *s != "" && !filepath.IsAbs(*s) {
			*s = filepath.Join(p.Root, *s)
		}
	}
}

// BacklogRel is the backlog directory (the parent of Data) relative to
// Root, slash separated, as git expects it.
func (c *Config) BacklogRel() string {
	rel, err := filepath.Rel(c.Paths.Root, filepath.Dir(c.Paths.Data))
	if err != nil || strings.HasPrefix(rel, "..") {
		return ".claude/plans/backlog"
	}
	return filepath.ToSlash(rel)
}

// Dir is the per-user config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "backlog")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".backlog"
	}
	return filepath.Join(home, ".config", "backlog")
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jask/rowselect/internal/selection"
)

// Config holds application configuration.
type Config struct {
	Database  DatabaseConfig
	Selection SelectionConfig
	UI        UIConfig
	Log       LogConfig
}

// DatabaseConfig holds sqlite settings. Migrations, when set, is a directory of
// migration files used instead of the embedded set.
type DatabaseConfig struct {
	Path       string `validate:"required"`
	Migrations string
}

// SelectionConfig picks the grid and how rows are selected in it.
type SelectionConfig struct {
	Mode   string `validate:"oneof=single multiple range"`
	GridID string `mapstructure:"grid_id" validate:"required"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	BlockSize int `mapstructure:"block_size" validate:"min=1"`
	PageSize  int `mapstructure:"page_size" validate:"min=1"`
}

type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

// SelectionMode returns the parsed selection mode. Call after Validate.
func (c Config) SelectionMode() selection.Mode {
	m, _ := selection.ParseMode(c.Selection.Mode)
	return m
}

// LogLevel maps log.level onto slog.
func (c Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks field constraints and reports the first offending key.
func (c Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		f := fields[0]
		return fmt.Errorf("invalid config %s: failed %q (value %v)", strings.ToLower(f.Namespace()), f.Tag(), f.Value())
	}
	return fmt.Errorf("invalid config: %w", err)
}

func configDir() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "rowselect")
}

// Load reads configuration from file and env. Env var overrides use prefix ROWSELECT_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "rowselect", "rowselect.db"))
	v.SetDefault("database.migrations", "")
	v.SetDefault("selection.mode", "multiple")
	v.SetDefault("selection.grid_id", "default")
	v.SetDefault("ui.block_size", 100)
	v.SetDefault("ui.page_size", 20)
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("ROWSELECT_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ROWSELECT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Selection.Mode = strings.ToLower(c.Selection.Mode)
	c.Log.Level = strings.ToLower(c.Log.Level)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	path := os.Getenv("ROWSELECT_CONFIG")
	if path == "" {
		path = filepath.Join(configDir(), "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.migrations", cfg.Database.Migrations)
	v.Set("selection.mode", cfg.Selection.Mode)
	v.Set("selection.grid_id", cfg.Selection.GridID)
	v.Set("ui.block_size", cfg.UI.BlockSize)
	v.Set("ui.page_size", cfg.UI.PageSize)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

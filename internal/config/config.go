package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/spf13/viper"
)

const appName = "lazyadmin"

// Config holds all application configuration
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	UI         UIConfig         `mapstructure:"ui"`
	State      StateConfig      `mapstructure:"state"`
	Log        LogConfig        `mapstructure:"log"`
	DataSource DataSourceConfig `mapstructure:"datasource"`
	Server     ServerConfig     `mapstructure:"server"`
}

type GeneralConfig struct {
	DefaultEntity         string `mapstructure:"default_entity"`
	PageSize              int    `mapstructure:"page_size"`
	ConfirmDestructiveOps bool   `mapstructure:"confirm_destructive_ops"`
}

type UIConfig struct {
	Theme           string `mapstructure:"theme"`
	MouseEnabled    bool   `mapstructure:"mouse_enabled"`
	PanelWidthRatio int    `mapstructure:"panel_width_ratio"`
	MaxCellWidth    int    `mapstructure:"max_cell_width"`
}

type StateConfig struct {
	Persist bool   `mapstructure:"persist"`
	Dir     string `mapstructure:"dir"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type DataSourceConfig struct {
	Kind    string        `mapstructure:"kind"`
	Latency time.Duration `mapstructure:"latency"`
	// RelationConcurrency bounds parallel fetches of related items
	RelationConcurrency int                     `mapstructure:"relation_concurrency"`
	HTTP                HTTPConfig              `mapstructure:"http"`
	SQLite              SQLiteConfig            `mapstructure:"sqlite"`
	Postgres            models.ConnectionConfig `mapstructure:"postgres"`
}

type HTTPConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	RetryMax int           `mapstructure:"retry_max"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Data source kinds
const (
	KindMemory   = "memory"
	KindHTTP     = "http"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		General: GeneralConfig{
			DefaultEntity:         "users",
			PageSize:              25,
			ConfirmDestructiveOps: true,
		},
		UI: UIConfig{
			Theme:           "default",
			MouseEnabled:    true,
			PanelWidthRatio: 20,
			MaxCellWidth:    40,
		},
		State: StateConfig{
			Persist: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		DataSource: DataSourceConfig{
			Kind:                KindMemory,
			RelationConcurrency: 4,
			HTTP: HTTPConfig{
				BaseURL: "http://localhost:8080",
				Timeout: 30 * time.Second,
			},
			SQLite: SQLiteConfig{
				Path: "lazyadmin.db",
			},
			Postgres: models.ConnectionConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "prefer",
			},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("general.default_entity", d.General.DefaultEntity)
	v.SetDefault("general.page_size", d.General.PageSize)
	v.SetDefault("general.confirm_destructive_ops", d.General.ConfirmDestructiveOps)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("ui.panel_width_ratio", d.UI.PanelWidthRatio)
	v.SetDefault("ui.max_cell_width", d.UI.MaxCellWidth)
	v.SetDefault("state.persist", d.State.Persist)
	v.SetDefault("state.dir", d.State.Dir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("datasource.kind", d.DataSource.Kind)
	v.SetDefault("datasource.latency", d.DataSource.Latency)
	v.SetDefault("datasource.relation_concurrency", d.DataSource.RelationConcurrency)
	v.SetDefault("datasource.http.base_url", d.DataSource.HTTP.BaseURL)
	v.SetDefault("datasource.http.timeout", d.DataSource.HTTP.Timeout)
	v.SetDefault("datasource.http.retry_max", d.DataSource.HTTP.RetryMax)
	v.SetDefault("datasource.sqlite.path", d.DataSource.SQLite.Path)
	v.SetDefault("datasource.postgres.name", "")
	v.SetDefault("datasource.postgres.host", d.DataSource.Postgres.Host)
	v.SetDefault("datasource.postgres.port", d.DataSource.Postgres.Port)
	v.SetDefault("datasource.postgres.database", "")
	v.SetDefault("datasource.postgres.user", "")
	v.SetDefault("datasource.postgres.password", "")
	v.SetDefault("datasource.postgres.ssl_mode", d.DataSource.Postgres.SSLMode)
	v.SetDefault("datasource.postgres.use_keyring", false)
	v.SetDefault("server.addr", d.Server.Addr)
}

// Load reads configuration. An explicit file must exist; otherwise config.yaml
// is searched in the user config dir, "." and "./config", and a missing file
// is fine. A .env file in the working directory is loaded first, and
// LAZYADMIN_* environment variables override everything.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.State.Dir == "" {
		if dir, err := GetConfigPath(); err == nil {
			cfg.State.Dir = dir
		}
	}
	return &cfg, nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// StatePath returns the file holding persisted list views
func (c *Config) StatePath() string {
	return filepath.Join(c.State.Dir, "views.yaml")
}

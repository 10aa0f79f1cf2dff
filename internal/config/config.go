package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	CMS      CMSConfig      `mapstructure:"cms"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
}

type CMSConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	DocumentType string        `mapstructure:"document_type"`
	PageSize     int           `mapstructure:"page_size"`
	AccessToken  string        `mapstructure:"access_token"`
	PreviewRef   string        `mapstructure:"preview_ref"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	// AllowPrivateHosts lets cursors and endpoints point at localhost or private networks.
	AllowPrivateHosts bool `mapstructure:"allow_private_hosts"`
}

type DatabaseConfig struct {
	Path       string        `mapstructure:"path"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Revalidate time.Duration `mapstructure:"revalidate"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type UIConfig struct {
	Colors UIColors `mapstructure:"colors"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit     string `mapstructure:"quit"`
	Search   string `mapstructure:"search"`
	LoadMore string `mapstructure:"load_more"`
	Back     string `mapstructure:"back"`
}

// Preview reports whether the initial query should use a preview ref.
func (c *Config) Preview() bool {
	return c.CMS.PreviewRef != ""
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".trvl")

	return &Config{
		CMS: CMSConfig{
			Endpoint:     "https://spacetraveling.cdn.prismic.io/api/v2",
			DocumentType: "posts",
			PageSize:     2,
			HTTPTimeout:  30 * time.Second,
			UserAgent:    "trvl/1.0 (https://github.com/pders01/trvl)",
		},
		Database: DatabaseConfig{
			Path:       filepath.Join(dataDir, "seeds.db"),
			Timeout:    1 * time.Second,
			Revalidate: 10 * time.Minute,
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(dataDir, "trvl.log"),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF57B2",
				Secondary: "#4ECDC4",
				Accent:    "#FFB84D",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:     "q",
				Search:   "s",
				LoadMore: "l",
				Back:     "esc",
			},
		},
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("cms", cfg.CMS)
	v.SetDefault("database", cfg.Database)
	v.SetDefault("log", cfg.Log)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("keys", cfg.Keys)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "trvl")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TRVL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	fillDefaults(&config, cfg)
	expandPaths(&config)

	return &config, nil
}

// fillDefaults restores defaults for keys a partial config file left empty.
func fillDefaults(config, defaults *Config) {
	if config.CMS.Endpoint == "" {
		config.CMS.Endpoint = defaults.CMS.Endpoint
	}
	if config.CMS.DocumentType == "" {
		config.CMS.DocumentType = defaults.CMS.DocumentType
	}
	if config.CMS.PageSize <= 0 {
		config.CMS.PageSize = defaults.CMS.PageSize
	}
	if config.CMS.HTTPTimeout <= 0 {
		config.CMS.HTTPTimeout = defaults.CMS.HTTPTimeout
	}
	if config.CMS.UserAgent == "" {
		config.CMS.UserAgent = defaults.CMS.UserAgent
	}
	if config.Database.Path == "" {
		config.Database.Path = defaults.Database.Path
	}
	if config.Database.Timeout <= 0 {
		config.Database.Timeout = defaults.Database.Timeout
	}
	if config.Database.Revalidate <= 0 {
		config.Database.Revalidate = defaults.Database.Revalidate
	}
	if config.Log.Level == "" {
		config.Log.Level = defaults.Log.Level
	}
	if config.Log.File == "" {
		config.Log.File = defaults.Log.File
	}
	if config.Keys.Modifier == "" {
		config.Keys = defaults.Keys
	}
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings keep the TOML readable
	cmsCfg := map[string]interface{}{
		"endpoint":            config.CMS.Endpoint,
		"document_type":       config.CMS.DocumentType,
		"page_size":           config.CMS.PageSize,
		"access_token":        config.CMS.AccessToken,
		"preview_ref":         config.CMS.PreviewRef,
		"http_timeout":        config.CMS.HTTPTimeout.String(),
		"user_agent":          config.CMS.UserAgent,
		"allow_private_hosts": config.CMS.AllowPrivateHosts,
	}

	dbCfg := map[string]interface{}{
		"path":       config.Database.Path,
		"timeout":    config.Database.Timeout.String(),
		"revalidate": config.Database.Revalidate.String(),
	}

	logCfg := map[string]interface{}{
		"level": config.Log.Level,
		"file":  config.Log.File,
	}

	colors := config.UI.Colors
	uiCfg := map[string]interface{}{
		"colors": map[string]interface{}{
			"primary":   colors.Primary,
			"secondary": colors.Secondary,
			"accent":    colors.Accent,
			"text":      colors.Text,
			"muted":     colors.Muted,
			"error":     colors.Error,
			"success":   colors.Success,
		},
	}

	bindings := config.Keys.Bindings
	keysCfg := map[string]interface{}{
		"modifier": config.Keys.Modifier,
		"bindings": map[string]interface{}{
			"quit":      bindings.Quit,
			"search":    bindings.Search,
			"load_more": bindings.LoadMore,
			"back":      bindings.Back,
		},
	}

	v.Set("cms", cmsCfg)
	v.Set("database", dbCfg)
	v.Set("log", logCfg)
	v.Set("ui", uiCfg)
	v.Set("keys", keysCfg)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

// DefaultPath returns the location Load searches first when no path is given.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "trvl", "config.toml")
}

/*
Package config manages the TOML config for shelfserve.

	[search]
	min_query_len = 2
	max_suggestions = 8
	title_terms = 3
	author_terms = 3
	subject_terms = 2
	sample_ids = 3
	max_depth = 64

	[history]
	popular_count = 10

	[server]
	max_query_len = 120
	enable_metrics = false
	metrics_addr = ":9464"

	[catalog]
	path = ""
	watch = false

A file that fails to decode as a whole is parsed section by section so one
bad value does not throw away the rest.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Search  SearchConfig  `toml:"search"`
	History HistoryConfig `toml:"history"`
	Server  ServerConfig  `toml:"server"`
	Catalog CatalogConfig `toml:"catalog"`
}

// SearchConfig bounds typeahead work per keystroke.
type SearchConfig struct {
	MinQueryLen    int `toml:"min_query_len"`
	MaxSuggestions int `toml:"max_suggestions"`
	TitleTerms     int `toml:"title_terms"`
	AuthorTerms    int `toml:"author_terms"`
	SubjectTerms   int `toml:"subject_terms"`
	SampleIDs      int `toml:"sample_ids"`
	MaxDepth       int `toml:"max_depth"`
}

// HistoryConfig holds popularity tracker options.
type HistoryConfig struct {
	PopularCount int `toml:"popular_count"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxQueryLen   int    `toml:"max_query_len"`
	EnableMetrics bool   `toml:"enable_metrics"`
	MetricsAddr   string `toml:"metrics_addr"`
}

// CatalogConfig points at the catalog snapshot to serve.
type CatalogConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "shelfserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "shelfserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/shelfserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			MinQueryLen:    2,
			MaxSuggestions: 8,
			TitleTerms:     3,
			AuthorTerms:    3,
			SubjectTerms:   2,
			SampleIDs:      3,
			MaxDepth:       64,
		},
		History: HistoryConfig{
			PopularCount: 10,
		},
		Server: ServerConfig{
			MaxQueryLen:   120,
			EnableMetrics: false,
			MetricsAddr:   ":9464",
		},
		Catalog: CatalogConfig{},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.Sanitize()
	return config, nil
}

// tryPartialParse keeps every section that still decodes.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(tempConfig, "history"); ok {
		if val, ok := utils.ExtractInt64(section, "popular_count"); ok {
			config.History.PopularCount = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "catalog"); ok {
		if val, ok := utils.ExtractString(section, "path"); ok {
			config.Catalog.Path = val
		}
		if val, ok := utils.ExtractBool(section, "watch"); ok {
			config.Catalog.Watch = val
		}
	}
	config.Sanitize()
	return config, nil
}

func extractSearchConfig(data map[string]any, search *SearchConfig) {
	fields := map[string]*int{
		"min_query_len":   &search.MinQueryLen,
		"max_suggestions": &search.MaxSuggestions,
		"title_terms":     &search.TitleTerms,
		"author_terms":    &search.AuthorTerms,
		"subject_terms":   &search.SubjectTerms,
		"sample_ids":      &search.SampleIDs,
		"max_depth":       &search.MaxDepth,
	}
	for key, dst := range fields {
		if val, ok := utils.ExtractInt64(data, key); ok {
			*dst = val
		}
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_query_len"); ok {
		server.MaxQueryLen = val
	}
	if val, ok := utils.ExtractBool(data, "enable_metrics"); ok {
		server.EnableMetrics = val
	}
	if val, ok := utils.ExtractString(data, "metrics_addr"); ok {
		server.MetricsAddr = val
	}
}

// Sanitize puts non-positive bounds back to their defaults. It also runs on
// configs built in code, so a zero Config behaves like DefaultConfig.
func (c *Config) Sanitize() {
	def := DefaultConfig()
	bounds := []struct {
		val *int
		def int
	}{
		{&c.Search.MinQueryLen, def.Search.MinQueryLen},
		{&c.Search.MaxSuggestions, def.Search.MaxSuggestions},
		{&c.Search.SampleIDs, def.Search.SampleIDs},
		{&c.Search.MaxDepth, def.Search.MaxDepth},
		{&c.History.PopularCount, def.History.PopularCount},
		{&c.Server.MaxQueryLen, def.Server.MaxQueryLen},
	}
	for _, b := range bounds {
		if *b.val <= 0 {
			log.Warnf("Config value %d out of range, using default %d", *b.val, b.def)
			*b.val = b.def
		}
	}
	caps := []*int{&c.Search.TitleTerms, &c.Search.AuthorTerms, &c.Search.SubjectTerms}
	for _, n := range caps {
		if *n < 0 {
			*n = 0
		}
	}
	// a single zero cap turns that field off; all three at zero means unset
	if c.Search.TitleTerms == 0 && c.Search.AuthorTerms == 0 && c.Search.SubjectTerms == 0 {
		c.Search.TitleTerms = def.Search.TitleTerms
		c.Search.AuthorTerms = def.Search.AuthorTerms
		c.Search.SubjectTerms = def.Search.SubjectTerms
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

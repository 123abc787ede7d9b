// Package config loads GameDex configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoggingConfig controls log output.
type LoggingConfig struct {
	Format string `yaml:"format"` // "json" or "text"
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
}

// IGDBConfig holds IGDB provider credentials.
type IGDBConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Required     bool   `yaml:"required"`
}

// GiantBombConfig holds GiantBomb provider credentials.
type GiantBombConfig struct {
	APIKey   string `yaml:"api_key"`
	Required bool   `yaml:"required"`
}

// ProvidersConfig holds settings for all metadata providers.
type ProvidersConfig struct {
	IGDB      IGDBConfig      `yaml:"igdb"`
	GiantBomb GiantBombConfig `yaml:"giantbomb"`
}

// Config holds application configuration.
type Config struct {
	DBPath    string          `yaml:"db_path"`
	AutoSkip  bool            `yaml:"auto_skip"` // resolve without prompting; unmatched paths are skipped
	Logging   LoggingConfig   `yaml:"logging"`
	Providers ProvidersConfig `yaml:"providers"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		DBPath: "gamedex.db",
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
		Providers: ProvidersConfig{
			IGDB: IGDBConfig{Required: true},
		},
	}
}

// configPaths returns the list of paths to search for config file.
func configPaths() []string {
	paths := []string{
		".gamedex.yaml",
		".gamedex.yml",
	}

	// Check home config dir
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "gamedex", "config.yaml"),
			filepath.Join(home, ".config", "gamedex", "config.yml"),
			filepath.Join(home, ".gamedex.yaml"),
		)
	}

	return paths
}

// Load loads configuration from file or returns defaults.
// Priority: env GAMEDEX_CONFIG > search paths > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Check env for explicit config path
	if envPath := os.Getenv("GAMEDEX_CONFIG"); envPath != "" {
		if err := cfg.loadFromFile(envPath); err != nil {
			return nil, err
		}
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	// Search for config file
	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.loadFromFile(path); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnvOverrides() {
	if dbPath := os.Getenv("GAMEDEX_DB"); dbPath != "" {
		c.DBPath = dbPath
	}
	if key := os.Getenv("GAMEDEX_GIANTBOMB_KEY"); key != "" {
		c.Providers.GiantBomb.APIKey = key
	}
	if id := os.Getenv("GAMEDEX_IGDB_CLIENT_ID"); id != "" {
		c.Providers.IGDB.ClientID = id
	}
	if secret := os.Getenv("GAMEDEX_IGDB_CLIENT_SECRET"); secret != "" {
		c.Providers.IGDB.ClientSecret = secret
	}
}

// Validate checks provider settings. Exactly one provider must be marked
// required; it runs first and its resolved name seeds the others.
func (c *Config) Validate() error {
	required := 0
	if c.Providers.IGDB.Required {
		required++
	}
	if c.Providers.GiantBomb.Required {
		required++
	}
	if required != 1 {
		return fmt.Errorf("exactly one provider must be marked required, got %d", required)
	}
	return nil
}

// GetDBPath returns the database path, applying defaults.
func (c *Config) GetDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return "gamedex.db"
}

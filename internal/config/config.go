// Package config resolves server settings from defaults, an optional YAML
// file, .env files and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the servers and commands read.
type Config struct {
	Port         int    `yaml:"port"`
	DatabaseType string `yaml:"database_type"`
	DatabaseURL  string `yaml:"database_url"`

	TMDBAPIKey       string `yaml:"tmdb_api_key"`
	TMDBBaseURL      string `yaml:"tmdb_base_url"`
	TMDBImageBaseURL string `yaml:"tmdb_image_base_url"`

	// AnonKey gates the API server when set.
	AnonKey    string        `yaml:"backend_anon_key"`
	CachePath  string        `yaml:"cache_path"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:             3000,
		DatabaseType:     "sqlite",
		DatabaseURL:      "./data/movierank.db",
		TMDBBaseURL:      "https://api.themoviedb.org/3",
		TMDBImageBaseURL: "https://image.tmdb.org/t/p",
		CachePath:        "./data/storage.json",
		SessionTTL:       7 * 24 * time.Hour,
	}
}

// Load builds a Config. yamlPath may be empty. Missing env files are
// skipped; variables already set in the environment win over them.
func Load(yamlPath string, envFiles ...string) (Config, error) {
	cfg := Default()

	if yamlPath != "" {
		b, err := os.ReadFile(yamlPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", yamlPath, err)
		}
	}

	dotenv := map[string]string{}
	for _, f := range envFiles {
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vals {
			dotenv[k] = v
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid PORT env variable")
		}
		c.Port = port
	}
	if v, ok := lookup("SESSION_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return errors.New("invalid SESSION_TTL env variable")
		}
		c.SessionTTL = ttl
	}

	for key, dst := range map[string]*string{
		"DATABASE_TYPE":       &c.DatabaseType,
		"DATABASE_URL":        &c.DatabaseURL,
		"TMDB_API_KEY":        &c.TMDBAPIKey,
		"TMDB_BASE_URL":       &c.TMDBBaseURL,
		"TMDB_IMAGE_BASE_URL": &c.TMDBImageBaseURL,
		"BACKEND_ANON_KEY":    &c.AnonKey,
		"CACHE_PATH":          &c.CachePath,
	} {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate checks the settings a server needs.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type %q (use sqlite or postgres)", c.DatabaseType)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use --database-url or DATABASE_URL env)")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	return nil
}

// RequireCatalog checks that the catalog can be reached.
func (c Config) RequireCatalog() error {
	if c.TMDBAPIKey == "" {
		return errors.New("TMDB_API_KEY required")
	}
	return nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

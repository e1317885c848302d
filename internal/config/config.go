package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lherron/taxomobile/internal/taxon"
	"gopkg.in/yaml.v3"
)

// localDBPath is the project-local catalog used when it exists.
const localDBPath = ".taxomobile/catalog.db"

// Config represents the application configuration
type Config struct {
	DataDir        string `yaml:"data_dir"`
	ImageBase      string `yaml:"image_base"`
	ImageExt       string `yaml:"image_ext"`
	DBPath         string `yaml:"db_path"`
	LeafRule       string `yaml:"leaf_rule"`
	Strict         bool   `yaml:"strict"`
	LoadWorkers    int    `yaml:"load_workers"`
	LogLevel       string `yaml:"log_level"`
	Addr           string `yaml:"addr"`
	Token          string `yaml:"token"`
	RootFrontImage string `yaml:"root_front_image"`
	RootBackImage  string `yaml:"root_back_image"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		DataDir:        "data",
		ImageBase:      "data",
		ImageExt:       ".jpg",
		LeafRule:       string(taxon.LeafRuleSpecies),
		LoadWorkers:    4,
		LogLevel:       "info",
		Addr:           "127.0.0.1:7272",
		RootFrontImage: "data/linnaeus.jpg",
		RootBackImage:  "data/stuffed_linnaeus.jpeg",
	}
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. ~/.config/taxomobile/config.yaml (YAML)
func Load() (*Config, error) {
	cfg := Defaults()

	// godotenv.Load never overrides variables that are already set
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	if path := userConfigPath(); path != "" {
		if err := loadYAMLConfig(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		if _, err := os.Stat(localDBPath); err == nil {
			cfg.DBPath = localDBPath
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			cfg.DBPath = filepath.Join(homeDir, ".local", "share", "taxomobile", "catalog.db")
		}
	}

	return cfg, nil
}

// Validate rejects settings the builder cannot run with.
func (c *Config) Validate() error {
	if _, err := taxon.ParseLeafRule(c.LeafRule); err != nil {
		return err
	}
	if c.LoadWorkers <= 0 {
		return fmt.Errorf("load_workers must be positive, got %d", c.LoadWorkers)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}

// Rule returns the parsed leaf rule, defaulting to species-only.
func (c *Config) Rule() taxon.LeafRule {
	rule, err := taxon.ParseLeafRule(c.LeafRule)
	if err != nil {
		return taxon.LeafRuleSpecies
	}
	return rule
}

func applyEnv(cfg *Config) error {
	stringVars := []struct {
		key string
		dst *string
	}{
		{"TAXO_DATA_DIR", &cfg.DataDir},
		{"TAXO_IMAGE_BASE", &cfg.ImageBase},
		{"TAXO_IMAGE_EXT", &cfg.ImageExt},
		{"TAXO_LEAF_RULE", &cfg.LeafRule},
		{"TAXO_LOG_LEVEL", &cfg.LogLevel},
		{"TAXO_ADDR", &cfg.Addr},
		{"TAXO_ROOT_FRONT_IMAGE", &cfg.RootFrontImage},
		{"TAXO_ROOT_BACK_IMAGE", &cfg.RootBackImage},
	}
	for _, v := range stringVars {
		if val := os.Getenv(v.key); val != "" {
			*v.dst = val
		}
	}

	if dbPath := getEnvOrFile("TAXO_DB_PATH", "TAXO_DB_PATH_FILE"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if token := getEnvOrFile("TAXO_TOKEN", "TAXO_TOKEN_FILE"); token != "" {
		cfg.Token = token
	}

	if val := os.Getenv("TAXO_STRICT"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid TAXO_STRICT %q: %w", val, err)
		}
		cfg.Strict = b
	}
	if val := os.Getenv("TAXO_LOAD_WORKERS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid TAXO_LOAD_WORKERS %q: %w", val, err)
		}
		cfg.LoadWorkers = n
	}
	return nil
}

func userConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "taxomobile", "config.yaml")
}

// loadYAMLConfig overlays the YAML file at path onto cfg. A missing file is not an error.
func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to .env.local if found, empty string otherwise.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		if dir == homeDir {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds the configuration for a single AI provider.
type ProviderConfig struct {
	Name   string `yaml:"name"`
	ApiURL string `yaml:"api_url"`
	ApiKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// ScraperConfig holds general scraper settings.
type ScraperConfig struct {
	Workers   string `yaml:"workers"`
	Headless  bool   `yaml:"headless"`
	OutputDir string `yaml:"output_dir"`
	SitesFile string `yaml:"sites_file"`
}

// SearchConfig holds the Google Custom Search credentials and limits.
type SearchConfig struct {
	ApiKey             string `yaml:"api_key"`
	SearchEngineID     string `yaml:"search_engine_id"`
	MaxResults         int    `yaml:"max_results"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// Config is the complete structure for the config.yml file.
type Config struct {
	Scraper ScraperConfig `yaml:"scraper"`
	Search  SearchConfig  `yaml:"search"`
	Mapper  struct {
		PrimaryProvider   string           `yaml:"primary_provider"`
		FallbackProviders []string         `yaml:"fallback_providers"`
		Providers         []ProviderConfig `yaml:"providers"`
	} `yaml:"mapper"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// LoadConfig reads and parses config.yml, exiting on any failure.
func LoadConfig(filepath string) *Config {
	data, err := os.ReadFile(filepath)
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		log.Fatalf("Error unmarshalling config YAML: %v", err)
	}
	return &cfg
}

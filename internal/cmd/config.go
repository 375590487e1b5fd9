package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avisingh/spl-auction/internal/ledger"
	"github.com/avisingh/spl-auction/internal/mirror"
)

// Config is the full process configuration, assembled from environment
// variables and the optional rules file.
type Config struct {
	Port             string
	SeedDir          string
	StorePath        string
	RulesPath        string
	AdminPassword    string
	AutosaveInterval time.Duration
	Mirror           mirror.Config
}

func loadConfig() Config {
	feed := mirror.DefaultFeedConfig()
	feed.URL = getEnv("NATS_URL", feed.URL)

	return Config{
		Port:             getEnv("PORT", "8080"),
		SeedDir:          getEnv("SEED_DIR", "data"),
		StorePath:        getEnv("STORE_PATH", "spl-auction.db"),
		RulesPath:        getEnv("RULES_PATH", "rules.yaml"),
		AdminPassword:    getEnv("ADMIN_PASSWORD", "spl2025"),
		AutosaveInterval: time.Duration(getEnvAsInt("AUTOSAVE_SECONDS", 30)) * time.Second,
		Mirror: mirror.Config{
			Enabled:     getEnvAsBool("MIRROR_ENABLED", false),
			DatabaseURL: getEnv("DATABASE_URL", ""),
			Feed:        feed,
		},
	}
}

// loadRules reads the rules file, falling back to the defaults when the
// file does not exist. Overrides are partial: unset fields keep defaults.
func loadRules(path string) (ledger.Rules, error) {
	rules := ledger.DefaultRules()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return rules, nil
	}
	if err != nil {
		return rules, fmt.Errorf("failed to read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("failed to parse rules file: %w", err)
	}
	return rules, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

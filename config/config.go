// Package config loads service settings from the environment and the optional
// rule-table override file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ai-visibility/backend/analyzer"
)

// Config holds every runtime setting of the service.
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogDevelopment bool
	CORSOrigins    []string
	FetchTimeout   time.Duration
	RobotsTimeout  time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	StatsDir       string
	RulesFile      string
}

// LoadEnv loads .env.development, falling back to .env. Missing files are
// not an error; the process environment is used as is.
func LoadEnv() {
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8082"),
		GinMode:        getEnv("GIN_MODE", "release"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:4321")),
		StatsDir:       getEnv("STATS_DIR", "data"),
		RulesFile:      os.Getenv("RULES_FILE"),
		RateLimitBurst: 5,
	}

	var err error
	if cfg.LogDevelopment, err = parseBool("LOG_DEVELOPMENT", false); err != nil {
		return Config{}, err
	}
	if cfg.FetchTimeout, err = parseDuration("FETCH_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RobotsTimeout, err = parseDuration("ROBOTS_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRPS, err = parseFloat("RATE_LIMIT_RPS", 2); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if cfg.RateLimitBurst, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("parse RATE_LIMIT_BURST: %w", err)
		}
	}
	return cfg, nil
}

// LoadRules returns the default rule tables, overlaid with the YAML document
// at path when path is set. Keys absent from the file keep their defaults.
func LoadRules(path string) (analyzer.Rules, error) {
	rules := analyzer.DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return analyzer.Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return analyzer.Rules{}, fmt.Errorf("decode rules file: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return analyzer.Rules{}, err
	}
	return rules, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

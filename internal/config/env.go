// Package config loads engine configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadEnv loads environment variables from a .env file in the current or
// parent directories. Values already set in the environment win.
func LoadEnv() {
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, envPath := range envPaths {
		data, err := os.ReadFile(envPath)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
		break
	}
}

// GetEnv gets a string environment variable with a default.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable with a default.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvFloat gets a float environment variable with a default.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// Config is the assembled engine configuration, built once in main and
// passed down. Components never read the environment themselves.
type Config struct {
	DataDir         string
	DatabaseURL     string
	PlacesAPIKey    string
	PlacesBaseURL   string
	Jurisdiction    string
	ProviderQPS     float64
	ProviderTimeout time.Duration
	Host            string
	Port            int
}

// FromEnv assembles the configuration after LoadEnv.
func FromEnv() Config {
	LoadEnv()
	return Config{
		DataDir:         GetEnv("PREMISE_DATA_DIR", "data"),
		DatabaseURL:     GetEnv("PREMISE_DB_URL", ""),
		PlacesAPIKey:    GetEnv("PLACES_API_KEY", ""),
		PlacesBaseURL:   GetEnv("PLACES_BASE_URL", ""),
		Jurisdiction:    GetEnv("PREMISE_STATE", "CO"),
		ProviderQPS:     GetEnvFloat("PLACES_QPS", 1),
		ProviderTimeout: time.Duration(GetEnvInt("PLACES_TIMEOUT_SECONDS", 10)) * time.Second,
		Host:            GetEnv("PREMISE_HOST", "0.0.0.0"),
		Port:            GetEnvInt("PREMISE_PORT", 8080),
	}
}

// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// AppConfig holds every setting the service reads at startup. Optional
// integrations (workflow engine credentials, the extraction API key) may be
// empty; the service degrades to its fallback paths without them.
type AppConfig struct {
	Port        int
	DatabaseURL string

	// Remote workflow engine. Empty credentials mean the local fallback
	// processor handles every workflow.
	ConductorURL       string
	ConductorKeyID     string
	ConductorKeySecret string

	// GeminiAPIKey enables direct AI extraction when set.
	GeminiAPIKey string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

// Load reads the application configuration from environment variables.
// DATABASE_URL and the Cloudinary credentials are required; everything
// else has a default or is optional.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:                8080,
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		ConductorURL:        os.Getenv("CONDUCTOR_API_URL"),
		ConductorKeyID:      os.Getenv("CONDUCTOR_KEY_ID"),
		ConductorKeySecret:  os.Getenv("CONDUCTOR_KEY_SECRET"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %v", err)
		}
		cfg.Port = port
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required")
	}

	return cfg, nil
}

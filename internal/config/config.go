package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	defaultDBPath     = "./dev.db"
	defaultPort       = "8080"
	defaultEnv        = "development"
	defaultCORSOrigin = "*"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string

	CatalogPath   string
	CatalogStrict bool
	CORSOrigin    string

	GHL GHLConfig
}

// GHLConfig holds the CRM credentials and opportunity routing.
type GHLConfig struct {
	AccessToken string
	LocationID  string
	BaseURL     string
	PipelineID  string
	// Stages maps a pipeline key to its stage id.
	Stages map[string]string
}

// IsDev reports whether the server runs in local development mode.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "", "dev", "development", "local":
		return true
	}
	return false
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: production should use real env injection.
	if err := loadDotEnv(".env"); err != nil {
		log.Printf("warning: read .env: %v", err)
	}

	cfg := Config{
		Env:           os.Getenv("APP_ENV"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DBPath:        os.Getenv("DB_PATH"),
		Port:          os.Getenv("PORT"),
		CatalogPath:   os.Getenv("CATALOG_PATH"),
		CORSOrigin:    os.Getenv("CORS_ORIGIN"),
		GHL: GHLConfig{
			AccessToken: os.Getenv("GHL_ACCESS_TOKEN"),
			LocationID:  os.Getenv("GHL_LOCATION_ID"),
			BaseURL:     os.Getenv("GHL_BASE_URL"),
			PipelineID:  os.Getenv("GHL_PIPELINE_ID"),
			Stages: map[string]string{
				"setup":              os.Getenv("GHL_STAGE_ID_SETUP"),
				"migration":          os.Getenv("GHL_STAGE_ID_MIGRATION"),
				"monthly_management": os.Getenv("GHL_STAGE_ID_MONTHLY"),
			},
		},
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = defaultCORSOrigin
	}
	if v := os.Getenv("CATALOG_STRICT"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("warning: CATALOG_STRICT=%q is not a boolean, ignoring", v)
		}
		cfg.CatalogStrict = strict
	}

	if cfg.AdminEmail == "" {
		log.Print("warning: ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		log.Print("warning: ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		log.Print("warning: SESSION_SECRET is not set")
	}
	if cfg.GHL.AccessToken == "" {
		log.Print("warning: GHL_ACCESS_TOKEN is not set, quote submissions will fail")
	}
	if cfg.GHL.LocationID == "" {
		log.Print("warning: GHL_LOCATION_ID is not set, quote submissions will fail")
	}

	return cfg
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents runtime configuration for the service.
type Config struct {
	Port        string
	FrontendURL string

	SupabaseURL string
	SupabaseKey string
	Bucket      string

	Provider string
	Model    string
	APIKey   string
	BaseURL  string

	DBDriver string
	DBPath   string
	DBDSN    string
}

// Load reads configuration from the environment, consulting a .env file
// when one is present next to the binary.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		SupabaseURL: os.Getenv("SUPABASE_URL"),
		SupabaseKey: os.Getenv("SUPABASE_KEY"),
		Bucket:      getEnv("DOCCHAT_BUCKET", "documents"),
		Provider:    getEnv("DOCCHAT_PROVIDER", "openai"),
		Model:       getEnv("DOCCHAT_MODEL", "gpt-4"),
		APIKey:      getEnv("DOCCHAT_API_KEY", os.Getenv("OPENAI_API_KEY")),
		BaseURL:     os.Getenv("DOCCHAT_BASE_URL"),
		DBDriver:    getEnv("DOCCHAT_DB", "sqlite3"),
		DBPath:      getEnv("DOCCHAT_DB_PATH", "docchat.db"),
		DBDSN:       os.Getenv("DOCCHAT_DB_DSN"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing required variable in one pass.
func (c *Config) Validate() error {
	var missing []string
	if c.SupabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.SupabaseKey == "" {
		missing = append(missing, "SUPABASE_KEY")
	}
	if c.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY (or DOCCHAT_API_KEY)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

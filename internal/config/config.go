package config

import (
	"os"
	"strconv"
	"strings"

	"wiki-annotator/internal/domain"
)

const (
	StoreSQLite   = "sqlite"
	StoreSupabase = "supabase"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort     string
	LogLevel       string
	NotesStore     string
	DataDir        string
	SupabaseURL    string
	SupabaseKey    string
	DefaultUserID  string
	AllowedOrigins []string
	NotesAPIURL    string
	NotesAPIToken  string
	NotesAPIRate   float64
	ContainerClass string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:     getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		NotesStore:     strings.ToLower(getEnvOrDefault("NOTES_STORE", StoreSQLite)),
		DataDir:        getEnvOrDefault("DATA_DIR", "./data"),
		SupabaseURL:    getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:    getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		DefaultUserID:  getEnvOrDefault("DEFAULT_USER_ID", "local-reader"),
		AllowedOrigins: getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		NotesAPIURL:    getEnvOrDefault("NOTES_API_URL", "http://localhost:8080"),
		NotesAPIToken:  getEnvOrDefault("NOTES_API_TOKEN", ""),
		NotesAPIRate:   getEnvFloatOrDefault("NOTES_API_RATE", 10),
		ContainerClass: getEnvOrDefault("ANNOTATION_CONTAINER_CLASS", "wiki-content"),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetNotesStore returns the note store backend, "sqlite" or "supabase"
func (c *AppConfig) GetNotesStore() string {
	return c.NotesStore
}

// GetDataDir returns the directory holding the SQLite database
func (c *AppConfig) GetDataDir() string {
	return c.DataDir
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetDefaultUserID returns the user requests without a token act as.
// Empty means such requests are rejected.
func (c *AppConfig) GetDefaultUserID() string {
	return c.DefaultUserID
}

func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// GetNotesAPIURL returns the base URL the reader-side client talks to
func (c *AppConfig) GetNotesAPIURL() string {
	return c.NotesAPIURL
}

func (c *AppConfig) GetNotesAPIToken() string {
	return c.NotesAPIToken
}

// GetNotesAPIRate returns the client request budget per second
func (c *AppConfig) GetNotesAPIRate() float64 {
	return c.NotesAPIRate
}

// GetContainerClass returns the class of the annotatable element
func (c *AppConfig) GetContainerClass() string {
	return c.ContainerClass
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package domain

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetNotesStore() string
	GetDataDir() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetDefaultUserID() string
	GetAllowedOrigins() []string
	GetNotesAPIURL() string
	GetNotesAPIToken() string
	GetNotesAPIRate() float64
	GetContainerClass() string
}

package config

import (
	"fmt"

	"wiki-annotator/internal/domain"
	"wiki-annotator/internal/infra/supabase"
	"wiki-annotator/internal/repository"
	"wiki-annotator/internal/service"
	"wiki-annotator/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	SupabaseClient domain.SupabaseClient
	NoteRepository domain.NoteRepository
	NoteService    domain.NoteService
	AuthService    domain.AuthService

	close func() error
}

// NewContainer wires the server from environment configuration.
func NewContainer() (*Container, error) {
	cfg := NewConfig()
	return NewContainerWithConfig(cfg, logger.NewLogger(cfg.GetLogLevel()))
}

// NewContainerWithConfig wires the server for cfg. The SQLite store needs no
// external service; the Supabase store also validates tokens with Supabase Auth.
func NewContainerWithConfig(cfg domain.Config, appLogger domain.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: appLogger,
		close:  func() error { return nil },
	}

	switch cfg.GetNotesStore() {
	case StoreSQLite:
		repo, err := repository.NewSQLiteNoteRepository(cfg.GetDataDir(), appLogger)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite note store: %w", err)
		}
		c.NoteRepository = repo
		c.AuthService = service.NewLocalAuthService(appLogger)
		c.close = repo.Close
	case StoreSupabase:
		client := supabase.NewClient(cfg, appLogger)
		if err := client.Initialize(); err != nil {
			return nil, fmt.Errorf("initializing supabase: %w", err)
		}
		c.SupabaseClient = client
		c.NoteRepository = repository.NewSupabaseNoteRepository(client, appLogger)
		c.AuthService = service.NewAuthService(client, appLogger)
	default:
		return nil, fmt.Errorf("unknown NOTES_STORE %q", cfg.GetNotesStore())
	}

	c.NoteService = service.NewNoteService(c.NoteRepository, appLogger)
	return c, nil
}

// Close releases the note store.
func (c *Container) Close() error {
	return c.close()
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

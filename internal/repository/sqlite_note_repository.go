package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"wiki-annotator/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const noteColumns = `note_id, user_id, page_url, highlighted_text, note_content, position,
	highlight_colour, created_date, updated_date`

// SQLiteNoteRepository stores notes in a local SQLite database. The token
// arguments are ignored; rows are scoped by user id.
type SQLiteNoteRepository struct {
	db     *sql.DB
	logger domain.Logger
}

// NewSQLiteNoteRepository opens (or creates) notes.db in dataDir and applies
// pending migrations. Pass ":memory:" for an in-memory database.
func NewSQLiteNoteRepository(dataDir string, logger domain.Logger) (*SQLiteNoteRepository, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "notes.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection: an in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	r := &SQLiteNoteRepository{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("Note store opened", "dsn", dsn)
	return r, nil
}

func (r *SQLiteNoteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteNoteRepository) migrate() error {
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var applied int
		if err := r.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&applied); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := r.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

func (r *SQLiteNoteRepository) Create(ctx context.Context, note *domain.Note, token string) (*domain.Note, error) {
	now := time.Now().UTC()
	if note.CreatedDate.IsZero() {
		note.CreatedDate = now
	}
	note.UpdatedDate = note.CreatedDate

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (user_id, page_url, highlighted_text, note_content, position,
			highlight_colour, created_date, updated_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		note.UserID, note.PageURL, note.HighlightedText, note.NoteContent,
		note.Position, string(note.HighlightColour),
		formatTime(note.CreatedDate), formatTime(note.UpdatedDate),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read note id: %w", err)
	}
	return r.GetByID(ctx, note.UserID, id, token)
}

func (r *SQLiteNoteRepository) GetByID(ctx context.Context, userID string, noteID int64, token string) (*domain.Note, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE note_id = ? AND user_id = ?", noteID, userID)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return note, nil
}

func (r *SQLiteNoteRepository) ListByUser(ctx context.Context, userID string, token string) ([]*domain.Note, error) {
	return r.query(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE user_id = ? ORDER BY created_date DESC, note_id DESC",
		userID)
}

func (r *SQLiteNoteRepository) ListByPage(ctx context.Context, userID string, pageURL string, token string) ([]*domain.Note, error) {
	return r.query(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE user_id = ? AND page_url = ? ORDER BY note_id ASC",
		userID, pageURL)
}

func (r *SQLiteNoteRepository) Update(ctx context.Context, note *domain.Note, token string) (*domain.Note, error) {
	note.UpdatedDate = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE notes SET note_content = ?, highlight_colour = ?, updated_date = ?
		WHERE note_id = ? AND user_id = ?`,
		note.NoteContent, string(note.HighlightColour), formatTime(note.UpdatedDate),
		note.NoteID, note.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrNoteNotFound
	}
	return r.GetByID(ctx, note.UserID, note.NoteID, token)
}

func (r *SQLiteNoteRepository) Delete(ctx context.Context, userID string, noteID int64, token string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE note_id = ? AND user_id = ?", noteID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func (r *SQLiteNoteRepository) query(ctx context.Context, q string, args ...interface{}) ([]*domain.Note, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*domain.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(row rowScanner) (*domain.Note, error) {
	var (
		n                    domain.Note
		colour               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&n.NoteID, &n.UserID, &n.PageURL, &n.HighlightedText, &n.NoteContent,
		&n.Position, &colour, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	n.HighlightColour = domain.Color(colour)
	n.CreatedDate = parseTime(createdAt)
	n.UpdatedDate = parseTime(updatedAt)
	return &n, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

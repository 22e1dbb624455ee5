package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"wiki-annotator/internal/domain"
)

const notesTable = "notes"

// SupabaseNoteRepository implements domain.NoteRepository on a Supabase
// "notes" table. Row level security scopes rows by the caller's token.
type SupabaseNoteRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewSupabaseNoteRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.NoteRepository {
	return &SupabaseNoteRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func (r *SupabaseNoteRepository) client(token string) (*supabase.Client, error) {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to get client with token: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}
	return client, nil
}

func (r *SupabaseNoteRepository) Create(ctx context.Context, note *domain.Note, token string) (*domain.Note, error) {
	client, err := r.client(token)
	if err != nil {
		return nil, err
	}

	row := map[string]interface{}{
		"user_id":          note.UserID,
		"page_url":         note.PageURL,
		"highlighted_text": sanitizeText(note.HighlightedText),
		"note_content":     sanitizeText(note.NoteContent),
		"position":         note.Position,
		"highlight_colour": string(note.HighlightColour),
	}

	// Request "representation" so PostgREST returns the inserted row.
	data, _, err := client.From(notesTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return firstNote(data, "create")
}

func (r *SupabaseNoteRepository) GetByID(ctx context.Context, userID string, noteID int64, token string) (*domain.Note, error) {
	client, err := r.client(token)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(notesTable).
		Select("*", "", false).
		Eq("note_id", strconv.FormatInt(noteID, 10)).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return firstNote(data, "get")
}

func (r *SupabaseNoteRepository) ListByUser(ctx context.Context, userID string, token string) ([]*domain.Note, error) {
	client, err := r.client(token)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(notesTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_date", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return mapToNotes(data)
}

func (r *SupabaseNoteRepository) ListByPage(ctx context.Context, userID string, pageURL string, token string) ([]*domain.Note, error) {
	client, err := r.client(token)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(notesTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Eq("page_url", pageURL).
		Order("note_id", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list page notes: %w", err)
	}
	return mapToNotes(data)
}

func (r *SupabaseNoteRepository) Update(ctx context.Context, note *domain.Note, token string) (*domain.Note, error) {
	client, err := r.client(token)
	if err != nil {
		return nil, err
	}

	row := map[string]interface{}{
		"note_content":     sanitizeText(note.NoteContent),
		"highlight_colour": string(note.HighlightColour),
		"updated_date":     time.Now().UTC().Format(time.RFC3339),
	}
	data, _, err := client.From(notesTable).
		Update(row, "representation", "").
		Eq("note_id", strconv.FormatInt(note.NoteID, 10)).
		Eq("user_id", note.UserID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return firstNote(data, "update")
}

func (r *SupabaseNoteRepository) Delete(ctx context.Context, userID string, noteID int64, token string) error {
	client, err := r.client(token)
	if err != nil {
		return err
	}

	data, _, err := client.From(notesTable).
		Delete("representation", "").
		Eq("note_id", strconv.FormatInt(noteID, 10)).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if _, err := firstNote(data, "delete"); err != nil {
		return err
	}
	return nil
}

func firstNote(data []byte, op string) (*domain.Note, error) {
	notes, err := mapToNotes(data)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		if op == "create" {
			return nil, fmt.Errorf("failed to create note: empty response")
		}
		return nil, domain.ErrNoteNotFound
	}
	return notes[0], nil
}

func mapToNotes(data []byte) ([]*domain.Note, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	out := make([]*domain.Note, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapToNote(row))
	}
	return out, nil
}

func mapToNote(data map[string]interface{}) *domain.Note {
	n := &domain.Note{
		UserID:          getString(data, "user_id"),
		PageURL:         getString(data, "page_url"),
		HighlightedText: getString(data, "highlighted_text"),
		NoteContent:     getString(data, "note_content"),
		Position:        getString(data, "position"),
		HighlightColour: domain.Color(getString(data, "highlight_colour")),
		CreatedDate:     getTime(data, "created_date"),
		UpdatedDate:     getTime(data, "updated_date"),
	}

	switch v := data["note_id"].(type) {
	case float64:
		n.NoteID = int64(v)
	case int64:
		n.NoteID = v
	case int:
		n.NoteID = int64(v)
	case string:
		n.NoteID, _ = strconv.ParseInt(v, 10, 64)
	}
	if n.HighlightColour == "" {
		n.HighlightColour = domain.DefaultColor
	}
	return n
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func getTime(data map[string]interface{}, key string) time.Time {
	s := getString(data, key)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999", s); err == nil {
		return t
	}
	return time.Time{}
}

var reControl = regexp.MustCompile(`[\x00]`)

// sanitizeText removes characters that PostgreSQL rejects in text fields (notably NUL bytes).
func sanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = reControl.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\\u0000", "")
	return s
}

package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"wiki-annotator/internal/domain"
	apperrors "wiki-annotator/pkg/errors"
)

// MockLogger for testing
type MockLogger struct {
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{
		messages: []string{},
	}
}

func (m *MockLogger) Info(msg string, args ...interface{}) {
	m.messages = append(m.messages, "INFO: "+msg)
}

func (m *MockLogger) Error(msg string, err error, args ...interface{}) {
	if err != nil {
		msg += " - " + err.Error()
	}
	m.messages = append(m.messages, "ERROR: "+msg)
}

func (m *MockLogger) Debug(msg string, args ...interface{}) {
	m.messages = append(m.messages, "DEBUG: "+msg)
}

func (m *MockLogger) Warn(msg string, args ...interface{}) {
	m.messages = append(m.messages, "WARN: "+msg)
}

type mockNoteRepo struct {
	notes     []*domain.Note
	nextID    int64
	createErr error
}

func (m *mockNoteRepo) Create(ctx context.Context, note *domain.Note, token string) (*domain.Note, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	stored := *note
	stored.NoteID = m.nextID
	m.notes = append(m.notes, &stored)
	return &stored, nil
}

func (m *mockNoteRepo) GetByID(ctx context.Context, userID string, noteID int64, token string) (*domain.Note, error) {
	for _, n := range m.notes {
		if n.NoteID == noteID && n.UserID == userID {
			c := *n
			return &c, nil
		}
	}
	return nil, domain.ErrNoteNotFound
}

func (m *mockNoteRepo) ListByUser(ctx context.Context, userID string, token string) ([]*domain.Note, error) {
	var out []*domain.Note
	for i := len(m.notes) - 1; i >= 0; i-- {
		if m.notes[i].UserID == userID {
			out = append(out, m.notes[i])
		}
	}
	return out, nil
}

func (m *mockNoteRepo) ListByPage(ctx context.Context, userID string, pageURL string, token string) ([]*domain.Note, error) {
	var out []*domain.Note
	for _, n := range m.notes {
		if n.UserID == userID && n.PageURL == pageURL {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNoteRepo) Update(ctx context.Context, note *domain.Note, token string) (*domain.Note, error) {
	for i, n := range m.notes {
		if n.NoteID == note.NoteID && n.UserID == note.UserID {
			c := *note
			m.notes[i] = &c
			return &c, nil
		}
	}
	return nil, domain.ErrNoteNotFound
}

func (m *mockNoteRepo) Delete(ctx context.Context, userID string, noteID int64, token string) error {
	for i, n := range m.notes {
		if n.NoteID == noteID && n.UserID == userID {
			m.notes = append(m.notes[:i], m.notes[i+1:]...)
			return nil
		}
	}
	return domain.ErrNoteNotFound
}

func TestNoteService_SaveNote(t *testing.T) {
	repo := &mockNoteRepo{}
	svc := NewNoteService(repo, NewMockLogger())

	created, err := svc.SaveNote(context.Background(), "user-1", &domain.Note{
		PageURL:         " https://wiki.example/Fox ",
		HighlightedText: "brown fox",
	}, "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.UserID != "user-1" {
		t.Fatalf("expected user id to be set, got %q", created.UserID)
	}
	if created.PageURL != "https://wiki.example/Fox" {
		t.Fatalf("expected trimmed page url, got %q", created.PageURL)
	}
	if created.HighlightColour != domain.ColorYellow {
		t.Fatalf("expected default colour yellow, got %q", created.HighlightColour)
	}
}

func TestNoteService_SaveNoteValidation(t *testing.T) {
	svc := NewNoteService(&mockNoteRepo{}, NewMockLogger())

	tests := []struct {
		name string
		note *domain.Note
	}{
		{"nil note", nil},
		{"missing page", &domain.Note{HighlightedText: "x"}},
		{"missing text", &domain.Note{PageURL: "p", HighlightedText: "  "}},
		{"bad colour", &domain.Note{PageURL: "p", HighlightedText: "x", HighlightColour: "purple"}},
		{"bad position", &domain.Note{PageURL: "p", HighlightedText: "x", Position: "{"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveNote(context.Background(), "user-1", tt.note, "")
			if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if apperrors.GetStatusCode(err) != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", apperrors.GetStatusCode(err))
			}
		})
	}
}

func TestNoteService_SaveNoteRepositoryFailure(t *testing.T) {
	svc := NewNoteService(&mockNoteRepo{createErr: errors.New("db down")}, NewMockLogger())

	_, err := svc.SaveNote(context.Background(), "user-1", &domain.Note{PageURL: "p", HighlightedText: "x"}, "")
	if !apperrors.IsType(err, apperrors.ErrorTypeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestNoteService_UpdateNote(t *testing.T) {
	repo := &mockNoteRepo{}
	svc := NewNoteService(repo, NewMockLogger())
	ctx := context.Background()

	created, err := svc.SaveNote(ctx, "user-1", &domain.Note{PageURL: "p", HighlightedText: "x", NoteContent: "old"}, "")
	if err != nil {
		t.Fatalf("SaveNote: %v", err)
	}

	green := domain.ColorGreen
	updated, err := svc.UpdateNote(ctx, "user-1", created.NoteID, domain.NoteUpdate{HighlightColour: &green}, "")
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if updated.NoteContent != "old" {
		t.Fatalf("expected note content unchanged, got %q", updated.NoteContent)
	}
	if updated.HighlightColour != domain.ColorGreen {
		t.Fatalf("expected colour green, got %q", updated.HighlightColour)
	}

	content := "new"
	if _, err := svc.UpdateNote(ctx, "user-2", created.NoteID, domain.NoteUpdate{NoteContent: &content}, ""); !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Fatalf("expected not found for another user, got %v", err)
	}

	bad := domain.Color("purple")
	if _, err := svc.UpdateNote(ctx, "user-1", created.NoteID, domain.NoteUpdate{HighlightColour: &bad}, ""); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNoteService_DeleteNote(t *testing.T) {
	repo := &mockNoteRepo{}
	svc := NewNoteService(repo, NewMockLogger())
	ctx := context.Background()

	created, _ := svc.SaveNote(ctx, "user-1", &domain.Note{PageURL: "p", HighlightedText: "x"}, "")
	if err := svc.DeleteNote(ctx, "user-1", created.NoteID, ""); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if err := svc.DeleteNote(ctx, "user-1", created.NoteID, ""); !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNoteService_GroupNotesByPage(t *testing.T) {
	repo := &mockNoteRepo{}
	svc := NewNoteService(repo, NewMockLogger())
	ctx := context.Background()

	for _, page := range []string{"a", "b", "a"} {
		if _, err := svc.SaveNote(ctx, "user-1", &domain.Note{PageURL: page, HighlightedText: "x"}, ""); err != nil {
			t.Fatalf("SaveNote: %v", err)
		}
	}
	if _, err := svc.SaveNote(ctx, "user-2", &domain.Note{PageURL: "a", HighlightedText: "x"}, ""); err != nil {
		t.Fatalf("SaveNote: %v", err)
	}

	grouped, err := svc.GroupNotesByPage(ctx, "user-1", "")
	if err != nil {
		t.Fatalf("GroupNotesByPage: %v", err)
	}
	if grouped.TotalNotes != 3 {
		t.Fatalf("expected 3 notes, got %d", grouped.TotalNotes)
	}
	if len(grouped.NotesByPage["a"]) != 2 || len(grouped.NotesByPage["b"]) != 1 {
		t.Fatalf("unexpected grouping: %+v", grouped.NotesByPage)
	}
	if grouped.NotesByPage["a"][0].NoteID != 3 {
		t.Fatalf("expected newest note first, got %d", grouped.NotesByPage["a"][0].NoteID)
	}

	pageNotes, err := svc.ListPageNotes(ctx, "user-1", "a", "")
	if err != nil {
		t.Fatalf("ListPageNotes: %v", err)
	}
	if len(pageNotes) != 2 || pageNotes[0].NoteID != 1 {
		t.Fatalf("expected insertion order, got %+v", pageNotes)
	}
	if _, err := svc.ListPageNotes(ctx, "user-1", " ", ""); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Fatalf("expected validation error for empty url, got %v", err)
	}
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"wiki-annotator/internal/domain"
	apperrors "wiki-annotator/pkg/errors"

	"github.com/gorilla/mux"
)

type mockNoteService struct {
	saved     *domain.Note
	saveErr   error
	pageURL   string
	update    domain.NoteUpdate
	updatedID int64
	deletedID int64
	deleteErr error
	notes     []*domain.Note
}

func (m *mockNoteService) SaveNote(ctx context.Context, userID string, note *domain.Note, token string) (*domain.Note, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	note.NoteID = 7
	note.UserID = userID
	m.saved = note
	return note, nil
}

func (m *mockNoteService) ListNotes(ctx context.Context, userID string, token string) ([]*domain.Note, error) {
	return m.notes, nil
}

func (m *mockNoteService) ListPageNotes(ctx context.Context, userID string, pageURL string, token string) ([]*domain.Note, error) {
	m.pageURL = pageURL
	return m.notes, nil
}

func (m *mockNoteService) GroupNotesByPage(ctx context.Context, userID string, token string) (*domain.NotesByPage, error) {
	return &domain.NotesByPage{NotesByPage: map[string][]*domain.Note{}}, nil
}

func (m *mockNoteService) UpdateNote(ctx context.Context, userID string, noteID int64, update domain.NoteUpdate, token string) (*domain.Note, error) {
	m.updatedID = noteID
	m.update = update
	return &domain.Note{NoteID: noteID, UserID: userID}, nil
}

func (m *mockNoteService) DeleteNote(ctx context.Context, userID string, noteID int64, token string) error {
	m.deletedID = noteID
	return m.deleteErr
}

func withTestCaller(r *http.Request) *http.Request {
	return r.WithContext(withCaller(r.Context(), &domain.SupabaseUser{ID: "user-1"}, "tok"))
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return withTestCaller(req)
}

func TestNoteHandler_CreateNote(t *testing.T) {
	svc := &mockNoteService{}
	h := NewNoteHandler(svc, NewMockHandlerLogger())

	rr := httptest.NewRecorder()
	h.CreateNote(rr, formRequest(http.MethodPost, "/api/notes", url.Values{
		"pageUrl":         {"https://example.org/a"},
		"highlightedText": {"hello"},
		"noteContent":     {"n"},
		"highlightColor":  {"green"},
	}))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if svc.saved == nil || svc.saved.HighlightColour != domain.ColorGreen || svc.saved.UserID != "user-1" {
		t.Fatalf("unexpected saved note: %+v", svc.saved)
	}
	if !strings.Contains(rr.Body.String(), `"noteId":7`) {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestNoteHandler_CreateNoteValidationError(t *testing.T) {
	svc := &mockNoteService{saveErr: apperrors.NewValidationError("pageUrl is required")}
	h := NewNoteHandler(svc, NewMockHandlerLogger())

	rr := httptest.NewRecorder()
	h.CreateNote(rr, formRequest(http.MethodPost, "/api/notes", url.Values{}))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "pageUrl is required") {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestNoteHandler_RequiresCaller(t *testing.T) {
	h := NewNoteHandler(&mockNoteService{}, NewMockHandlerLogger())

	rr := httptest.NewRecorder()
	h.ListNotes(rr, httptest.NewRequest(http.MethodGet, "/api/notes", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestNoteHandler_ListReturnsEmptyArray(t *testing.T) {
	svc := &mockNoteService{}
	h := NewNoteHandler(svc, NewMockHandlerLogger())

	rr := httptest.NewRecorder()
	h.ListPageNotes(rr, withTestCaller(httptest.NewRequest(http.MethodGet, "/api/notes/page?url=https%3A%2F%2Fexample.org%2Fa%3Fb%3Dc", nil)))

	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %s", rr.Body.String())
	}
	if svc.pageURL != "https://example.org/a?b=c" {
		t.Fatalf("unexpected page url %q", svc.pageURL)
	}
}

func TestNoteHandler_UpdateNoteOptionalFields(t *testing.T) {
	svc := &mockNoteService{}
	h := NewNoteHandler(svc, NewMockHandlerLogger())

	req := mux.SetURLVars(formRequest(http.MethodPut, "/api/notes/12", url.Values{"noteContent": {""}}), map[string]string{"id": "12"})
	rr := httptest.NewRecorder()
	h.UpdateNote(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if svc.updatedID != 12 {
		t.Fatalf("expected note 12, got %d", svc.updatedID)
	}
	if svc.update.NoteContent == nil || *svc.update.NoteContent != "" {
		t.Fatalf("expected explicit empty note content")
	}
	if svc.update.HighlightColour != nil {
		t.Fatalf("expected color to stay unchanged")
	}
}

func TestNoteHandler_DeleteNote(t *testing.T) {
	svc := &mockNoteService{}
	h := NewNoteHandler(svc, NewMockHandlerLogger())

	rr := httptest.NewRecorder()
	h.DeleteNote(rr, mux.SetURLVars(withTestCaller(httptest.NewRequest(http.MethodDelete, "/api/notes/3", nil)), map[string]string{"id": "3"}))
	if rr.Code != http.StatusNoContent || svc.deletedID != 3 {
		t.Fatalf("expected 204 for note 3, got %d for %d", rr.Code, svc.deletedID)
	}

	svc.deleteErr = apperrors.NewNotFoundError("note not found")
	rr = httptest.NewRecorder()
	h.DeleteNote(rr, mux.SetURLVars(withTestCaller(httptest.NewRequest(http.MethodDelete, "/api/notes/3", nil)), map[string]string{"id": "3"}))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}

	rr = httptest.NewRecorder()
	h.DeleteNote(rr, mux.SetURLVars(withTestCaller(httptest.NewRequest(http.MethodDelete, "/api/notes/x", nil)), map[string]string{"id": "x"}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

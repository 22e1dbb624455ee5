package handler

import (
	"net/http"
	"strconv"

	"wiki-annotator/internal/domain"

	"github.com/gorilla/mux"
)

// NoteHandler handles note-related HTTP requests.
type NoteHandler struct {
	logger      domain.Logger
	noteService domain.NoteService
}

func NewNoteHandler(noteService domain.NoteService, logger domain.Logger) *NoteHandler {
	return &NoteHandler{
		logger:      logger,
		noteService: noteService,
	}
}

// CreateNote handles POST /api/notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	user, token, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form body")
		return
	}

	created, err := h.noteService.SaveNote(r.Context(), user.ID, &domain.Note{
		PageURL:         r.PostForm.Get("pageUrl"),
		HighlightedText: r.PostForm.Get("highlightedText"),
		NoteContent:     r.PostForm.Get("noteContent"),
		Position:        r.PostForm.Get("position"),
		HighlightColour: domain.Color(r.PostForm.Get("highlightColor")),
	}, token)
	if err != nil {
		h.logger.Error("Failed to create note", err, "user_id", user.ID)
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// ListNotes handles GET /api/notes
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	user, token, ok := h.caller(w, r)
	if !ok {
		return
	}

	notes, err := h.noteService.ListNotes(r.Context(), user.ID, token)
	if err != nil {
		h.logger.Error("Failed to list notes", err, "user_id", user.ID)
		writeAppError(w, err)
		return
	}
	if notes == nil {
		notes = make([]*domain.Note, 0)
	}
	writeJSON(w, http.StatusOK, notes)
}

// ListPageNotes handles GET /api/notes/page?url=...
func (h *NoteHandler) ListPageNotes(w http.ResponseWriter, r *http.Request) {
	user, token, ok := h.caller(w, r)
	if !ok {
		return
	}

	pageURL := r.URL.Query().Get("url")
	notes, err := h.noteService.ListPageNotes(r.Context(), user.ID, pageURL, token)
	if err != nil {
		h.logger.Error("Failed to list page notes", err, "user_id", user.ID, "page_url", pageURL)
		writeAppError(w, err)
		return
	}
	if notes == nil {
		notes = make([]*domain.Note, 0)
	}
	writeJSON(w, http.StatusOK, notes)
}

// ListNotesByPage handles GET /api/notes/by-page
func (h *NoteHandler) ListNotesByPage(w http.ResponseWriter, r *http.Request) {
	user, token, ok := h.caller(w, r)
	if !ok {
		return
	}

	grouped, err := h.noteService.GroupNotesByPage(r.Context(), user.ID, token)
	if err != nil {
		h.logger.Error("Failed to group notes", err, "user_id", user.ID)
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grouped)
}

// UpdateNote handles PUT /api/notes/{id}. Omitted fields stay unchanged.
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	user, token, ok := h.caller(w, r)
	if !ok {
		return
	}
	noteID, ok := noteIDFromPath(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form body")
		return
	}

	var update domain.NoteUpdate
	if values, ok := r.Form["noteContent"]; ok && len(values) > 0 {
		update.NoteContent = &values[0]
	}
	if values, ok := r.Form["highlightColor"]; ok && len(values) > 0 && values[0] != "" {
		color := domain.Color(values[0])
		update.HighlightColour = &color
	}

	updated, err := h.noteService.UpdateNote(r.Context(), user.ID, noteID, update, token)
	if err != nil {
		h.logger.Error("Failed to update note", err, "user_id", user.ID, "note_id", noteID)
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteNote handles DELETE /api/notes/{id}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user, token, ok := h.caller(w, r)
	if !ok {
		return
	}
	noteID, ok := noteIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.noteService.DeleteNote(r.Context(), user.ID, noteID, token); err != nil {
		h.logger.Error("Failed to delete note", err, "user_id", user.ID, "note_id", noteID)
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) caller(w http.ResponseWriter, r *http.Request) (*domain.SupabaseUser, string, bool) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return nil, "", false
	}
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return nil, "", false
	}
	return user, token, true
}

func noteIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Note ID is required")
		return 0, false
	}
	return id, true
}

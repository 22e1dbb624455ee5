package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiki-annotator/internal/domain"
	"wiki-annotator/pkg/errors"
)

func TestNotesClient_CreateNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/notes", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "https://wiki.example/Fox", r.PostForm.Get("pageUrl"))
		assert.Equal(t, "brown fox", r.PostForm.Get("highlightedText"))
		assert.Equal(t, "blue", r.PostForm.Get("highlightColor"))
		assert.Equal(t, `{"startOffset":10}`, r.PostForm.Get("position"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.Note{
			NoteID:          42,
			PageURL:         r.PostForm.Get("pageUrl"),
			HighlightedText: r.PostForm.Get("highlightedText"),
			HighlightColour: domain.ColorBlue,
		})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithToken("secret"))
	note, err := c.CreateNote(context.Background(), CreateNoteRequest{
		PageURL:         "https://wiki.example/Fox",
		HighlightedText: "brown fox",
		Position:        `{"startOffset":10}`,
		Color:           domain.ColorBlue,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), note.NoteID)
	assert.Equal(t, domain.ColorBlue, note.HighlightColour)
}

func TestNotesClient_ListPageNotesEscapesURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/notes/page", r.URL.Path)
		assert.Equal(t, "https://wiki.example/a b?x=1", r.URL.Query().Get("url"))
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]domain.Note{{NoteID: 1}, {NoteID: 2}})
	}))
	defer srv.Close()

	notes, err := New(srv.URL).ListPageNotes(context.Background(), "https://wiki.example/a b?x=1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, int64(1), notes[0].NoteID)
	assert.Equal(t, int64(2), notes[1].NoteID)
}

func TestNotesClient_UpdateAndDelete(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPut:
			require.NoError(t, r.ParseForm())
			json.NewEncoder(w).Encode(domain.Note{
				NoteID:          7,
				NoteContent:     r.PostForm.Get("noteContent"),
				HighlightColour: domain.Color(r.PostForm.Get("highlightColor")),
			})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	note, err := c.UpdateNote(context.Background(), 7, "edited", domain.ColorGreen)
	require.NoError(t, err)
	assert.Equal(t, "edited", note.NoteContent)
	assert.Equal(t, domain.ColorGreen, note.HighlightColour)

	require.NoError(t, c.DeleteNote(context.Background(), 7))
	assert.Equal(t, []string{"PUT /api/notes/7", "DELETE /api/notes/7"}, calls)
}

func TestNotesClient_MapsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "note not found"})
	}))
	defer srv.Close()

	err := New(srv.URL).DeleteNote(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	assert.Equal(t, http.StatusNotFound, errors.GetStatusCode(err))
	assert.Contains(t, err.Error(), "note not found")
}

func TestNotesClient_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).ListNotes(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
}

func TestNotesClient_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]domain.Note{})
	}))
	defer srv.Close()

	c := New(srv.URL, WithRateLimit(0.001))
	_, err := c.ListNotes(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.ListNotes(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
}

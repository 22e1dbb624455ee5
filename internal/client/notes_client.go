package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"wiki-annotator/internal/domain"
	"wiki-annotator/pkg/errors"
)

const notesPath = "/api/notes"

// CreateNoteRequest is the form body of a create call.
type CreateNoteRequest struct {
	PageURL         string
	HighlightedText string
	NoteContent     string
	Position        string
	Color           domain.Color
}

// NotesClient talks to the notes REST API.
type NotesClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*NotesClient)

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *NotesClient) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *NotesClient) { c.httpClient = hc }
}

// WithRateLimit caps outgoing requests per second. Zero or less disables it.
func WithRateLimit(perSecond float64) Option {
	return func(c *NotesClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func New(baseURL string, opts ...Option) *NotesClient {
	c := &NotesClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *NotesClient) CreateNote(ctx context.Context, req CreateNoteRequest) (*domain.Note, error) {
	form := url.Values{}
	form.Set("pageUrl", req.PageURL)
	form.Set("highlightedText", req.HighlightedText)
	form.Set("noteContent", req.NoteContent)
	form.Set("position", req.Position)
	form.Set("highlightColor", string(req.Color))

	resp, err := c.do(ctx, http.MethodPost, notesPath, form)
	if err != nil {
		return nil, err
	}
	var note domain.Note
	if err := decodeJSON(resp, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *NotesClient) UpdateNote(ctx context.Context, noteID int64, noteContent string, color domain.Color) (*domain.Note, error) {
	form := url.Values{}
	form.Set("noteContent", noteContent)
	form.Set("highlightColor", string(color))

	resp, err := c.do(ctx, http.MethodPut, notePath(noteID), form)
	if err != nil {
		return nil, err
	}
	var note domain.Note
	if err := decodeJSON(resp, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *NotesClient) DeleteNote(ctx context.Context, noteID int64) error {
	resp, err := c.do(ctx, http.MethodDelete, notePath(noteID), nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

// ListPageNotes returns the notes stored for pageURL in storage order.
func (c *NotesClient) ListPageNotes(ctx context.Context, pageURL string) ([]*domain.Note, error) {
	resp, err := c.do(ctx, http.MethodGet, notesPath+"/page?url="+url.QueryEscape(pageURL), nil)
	if err != nil {
		return nil, err
	}
	var notes []*domain.Note
	if err := decodeJSON(resp, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// ListNotes returns every note of the caller, newest first.
func (c *NotesClient) ListNotes(ctx context.Context) ([]*domain.Note, error) {
	resp, err := c.do(ctx, http.MethodGet, notesPath, nil)
	if err != nil {
		return nil, err
	}
	var notes []*domain.Note
	if err := decodeJSON(resp, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *NotesClient) do(ctx context.Context, method, path string, form url.Values) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.NewNetworkError("request throttled", err)
		}
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.NewInternalError("failed to build request", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(fmt.Sprintf("notes server not reachable at %s", c.baseURL), err)
	}
	return resp, nil
}

func notePath(noteID int64) string {
	return notesPath + "/" + strconv.FormatInt(noteID, 10)
}

// decodeJSON closes resp and decodes its body into v. A nil v only checks the status.
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.FromStatus(resp.StatusCode, fmt.Sprintf("server returned %d", resp.StatusCode))
		}
		return errors.FromStatus(resp.StatusCode, errorMessage(resp.StatusCode, data))
	}
	if v == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.NewProcessingError("failed to decode server response", err)
	}
	return nil
}

func errorMessage(status int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("server returned %d", status)
}

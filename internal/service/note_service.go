package service

import (
	"context"
	stderrors "errors"
	"strings"

	"wiki-annotator/internal/domain"
	"wiki-annotator/pkg/errors"
)

type NoteService struct {
	repo   domain.NoteRepository
	logger domain.Logger
}

func NewNoteService(repo domain.NoteRepository, logger domain.Logger) domain.NoteService {
	return &NoteService{
		repo:   repo,
		logger: logger,
	}
}

func (s *NoteService) SaveNote(ctx context.Context, userID string, note *domain.Note, token string) (*domain.Note, error) {
	if note == nil {
		return nil, errors.NewValidationError("note is required")
	}
	note.UserID = userID
	note.PageURL = strings.TrimSpace(note.PageURL)
	if note.PageURL == "" {
		return nil, errors.NewValidationError("pageUrl is required")
	}
	if strings.TrimSpace(note.HighlightedText) == "" {
		return nil, errors.NewValidationError("highlightedText is required")
	}
	color, err := domain.ParseColor(string(note.HighlightColour))
	if err != nil {
		return nil, errors.NewValidationError("invalid highlightColor", err.Error())
	}
	note.HighlightColour = color
	if note.Position != "" {
		if _, err := domain.ParsePosition(note.Position); err != nil {
			return nil, errors.NewValidationError("invalid position", err.Error())
		}
	}

	created, err := s.repo.Create(ctx, note, token)
	if err != nil {
		return nil, errors.NewInternalError("failed to save note", err)
	}
	s.logger.Info("Note created", "user_id", userID, "note_id", created.NoteID, "page_url", created.PageURL)
	return created, nil
}

func (s *NoteService) ListNotes(ctx context.Context, userID string, token string) ([]*domain.Note, error) {
	notes, err := s.repo.ListByUser(ctx, userID, token)
	if err != nil {
		return nil, errors.NewInternalError("failed to list notes", err)
	}
	return notes, nil
}

func (s *NoteService) ListPageNotes(ctx context.Context, userID string, pageURL string, token string) ([]*domain.Note, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return nil, errors.NewValidationError("url is required")
	}
	notes, err := s.repo.ListByPage(ctx, userID, pageURL, token)
	if err != nil {
		return nil, errors.NewInternalError("failed to list page notes", err)
	}
	return notes, nil
}

// GroupNotesByPage buckets the user's notes by page, newest first inside each page.
func (s *NoteService) GroupNotesByPage(ctx context.Context, userID string, token string) (*domain.NotesByPage, error) {
	notes, err := s.ListNotes(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	grouped := &domain.NotesByPage{
		NotesByPage: make(map[string][]*domain.Note),
		TotalNotes:  len(notes),
	}
	for _, n := range notes {
		grouped.NotesByPage[n.PageURL] = append(grouped.NotesByPage[n.PageURL], n)
	}
	return grouped, nil
}

func (s *NoteService) UpdateNote(ctx context.Context, userID string, noteID int64, update domain.NoteUpdate, token string) (*domain.Note, error) {
	note, err := s.repo.GetByID(ctx, userID, noteID, token)
	if err != nil {
		return nil, s.lookupError(err, noteID)
	}

	if update.NoteContent != nil {
		note.NoteContent = *update.NoteContent
	}
	if update.HighlightColour != nil {
		color, err := domain.ParseColor(string(*update.HighlightColour))
		if err != nil {
			return nil, errors.NewValidationError("invalid highlightColor", err.Error())
		}
		note.HighlightColour = color
	}

	updated, err := s.repo.Update(ctx, note, token)
	if err != nil {
		return nil, s.lookupError(err, noteID)
	}
	s.logger.Info("Note updated", "user_id", userID, "note_id", noteID)
	return updated, nil
}

func (s *NoteService) DeleteNote(ctx context.Context, userID string, noteID int64, token string) error {
	if err := s.repo.Delete(ctx, userID, noteID, token); err != nil {
		return s.lookupError(err, noteID)
	}
	s.logger.Info("Note deleted", "user_id", userID, "note_id", noteID)
	return nil
}

func (s *NoteService) lookupError(err error, noteID int64) error {
	if stderrors.Is(err, domain.ErrNoteNotFound) {
		return errors.NewNotFoundError("note not found")
	}
	s.logger.Error("Note lookup failed", err, "note_id", noteID)
	return errors.NewInternalError("failed to access note", err)
}

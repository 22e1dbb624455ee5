package annotator

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/net/html"

	"wiki-annotator/internal/anchor"
	"wiki-annotator/internal/domain"
	"wiki-annotator/internal/highlight"
	"wiki-annotator/internal/selection"
	"wiki-annotator/pkg/errors"
)

// ErrCancelled is returned when the reader declines a confirmation.
var ErrCancelled = stderrors.New("cancelled by user")

// Stats counts the annotations of a session.
type Stats struct {
	Total     int `json:"total"`
	Saved     int `json:"saved"`
	Unsaved   int `json:"unsaved"`
	WithNotes int `json:"withNotes"`
}

// Session is the annotation controller of one rendered document. The mutex
// guards the document tree and the annotation table; network calls run with
// it released and re-acquire it to apply their result.
type Session struct {
	mu sync.Mutex

	documentURL string
	codec       *anchor.Codec
	renderer    *highlight.Renderer
	tracker     *selection.Tracker
	persistence *PersistenceClient
	resolver    *Resolver
	notifier    Notifier
	confirmer   Confirmer
	logger      domain.Logger
	onClick     func(id string)
	onMenu      func(selection.Action)
	now         func() time.Time
	delay       time.Duration
	debouncer   *selection.Debouncer

	annotations map[string]*domain.Annotation
	order       []string
	failed      map[string]operation
	menu        selection.Action
	clicked     string
}

type Option func(*Session)

func WithCodec(c *anchor.Codec) Option {
	return func(s *Session) { s.codec = c }
}

func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

func WithConfirmer(c Confirmer) Option {
	return func(s *Session) { s.confirmer = c }
}

// WithClickHandler is called, outside the session lock, when a marker is clicked.
func WithClickHandler(fn func(id string)) Option {
	return func(s *Session) { s.onClick = fn }
}

// WithMenuHandler receives the action of every debounced selection event.
func WithMenuHandler(fn func(selection.Action)) Option {
	return func(s *Session) { s.onMenu = fn }
}

// WithSelectionDelay sets how long SelectionChanged waits for a burst of
// events to settle.
func WithSelectionDelay(d time.Duration) Option {
	return func(s *Session) { s.delay = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession binds a controller to container, the annotatable root of the
// document published at documentURL.
func NewSession(container *html.Node, documentURL string, api NotesAPI, logger domain.Logger, opts ...Option) *Session {
	s := &Session{
		documentURL: documentURL,
		codec:       anchor.NewCodec(),
		renderer:    highlight.NewRenderer(container),
		tracker:     selection.NewTracker(container),
		confirmer:   AlwaysConfirm,
		logger:      logger,
		now:         time.Now,
		delay:       selection.DefaultDelay,
		annotations: make(map[string]*domain.Annotation),
		failed:      make(map[string]operation),
		menu:        selection.Action{Kind: selection.ActionHide},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = NewLogNotifier(logger)
	}
	s.debouncer = selection.NewDebouncer(s.delay)
	s.persistence = NewPersistenceClient(api, s.notifier, logger)
	s.resolver = NewResolver(s.persistence, s.codec, s.renderer, logger)
	return s
}

// Container returns the annotatable root.
func (s *Session) Container() *html.Node {
	return s.renderer.Container()
}

// HandleSelection classifies a finished selection and updates the menu.
func (s *Session) HandleSelection(ev selection.Event) selection.Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.menu = s.tracker.Handle(ev)
	return s.menu
}

// SelectionChanged reports a selection gesture that may still be in progress.
// Only the last event of a burst is handled; its action goes to the menu handler.
func (s *Session) SelectionChanged(ev selection.Event) {
	s.debouncer.Trigger(func() {
		action := s.HandleSelection(ev)
		if s.onMenu != nil {
			s.onMenu(action)
		}
	})
}

// Close drops a selection event that has not been handled yet.
func (s *Session) Close() {
	s.debouncer.Stop()
}

// Menu returns the action menu currently shown.
func (s *Session) Menu() selection.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.menu
}

// CreateHighlight highlights the pending selection. The marker is rendered
// before the create request is sent and stays when it fails.
func (s *Session) CreateHighlight(ctx context.Context, color domain.Color, note string) (*domain.Annotation, error) {
	s.mu.Lock()
	a, err := s.createLocked(color, note)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	snapshot := a.Clone()
	s.mu.Unlock()

	id, err := s.persistence.Create(ctx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finish(a, opCreate, id, err)
}

// AddNote highlights the pending selection in the default color with a note.
func (s *Session) AddNote(ctx context.Context, note string) (*domain.Annotation, error) {
	return s.CreateHighlight(ctx, domain.DefaultColor, note)
}

func (s *Session) createLocked(color domain.Color, note string) (*domain.Annotation, error) {
	pending, ok := s.tracker.Pending()
	if !ok {
		return nil, s.reject("Select some text first.")
	}
	color, err := domain.ParseColor(string(color))
	if err != nil {
		return nil, s.reject("Unknown highlight color.")
	}

	container := s.renderer.Container()
	rng, err := s.codec.Trim(pending.Range, container)
	if err != nil {
		return nil, s.reject("This selection cannot be highlighted.")
	}
	desc, err := s.codec.Encode(rng, container)
	if err != nil {
		return nil, s.reject("This selection cannot be highlighted.")
	}

	id := NewLocalID()
	if _, err := s.renderer.Wrap(rng, highlight.Marker{
		ID:      id,
		Color:   color,
		Note:    note,
		OnClick: s.markerClicked,
	}); err != nil {
		if stderrors.Is(err, highlight.ErrOverlap) {
			return nil, s.reject("The selection overlaps an existing highlight.")
		}
		s.logger.Error("failed to render highlight", err, "document", s.documentURL)
		s.notifier.Notify(LevelError, "Failed to create highlight.")
		return nil, errors.NewProcessingError("failed to render highlight", err)
	}

	now := s.now()
	a := &domain.Annotation{
		LocalID:     id,
		DocumentURL: s.documentURL,
		Anchor:      desc,
		Color:       color,
		Note:        note,
		CreatedAt:   now,
		UpdatedAt:   now,
		SyncState:   domain.SyncPending,
	}
	s.annotations[id] = a
	s.order = append(s.order, id)
	s.tracker.Clear()
	s.menu = selection.Action{Kind: selection.ActionHide}

	s.logger.Info("highlight created", "annotation_id", id, "color", string(color), "quote", truncateQuote(desc.QuotedText))
	return a, nil
}

// EditAnnotation replaces the note and color of an annotation and syncs the
// change. An annotation never stored keeps the edit locally for the next retry.
func (s *Session) EditAnnotation(ctx context.Context, id, note string, color domain.Color) (*domain.Annotation, error) {
	s.mu.Lock()
	a, ok := s.annotations[id]
	if !ok {
		s.mu.Unlock()
		return nil, s.unknown(id)
	}
	color, err := domain.ParseColor(string(color))
	if err != nil {
		s.mu.Unlock()
		return nil, s.reject("Unknown highlight color.")
	}
	if a.SyncState == domain.SyncPending || a.SyncState == domain.SyncDeleting {
		s.mu.Unlock()
		return nil, s.reject("The highlight is still syncing.")
	}
	if s.failed[id] == opDelete {
		s.mu.Unlock()
		return nil, s.reject("The highlight is being deleted.")
	}

	a.Note = note
	a.Color = color
	a.UpdatedAt = s.now()
	s.renderer.Restyle(id, color, note)
	s.menu = selection.Action{Kind: selection.ActionHide}

	if a.ServerID == "" {
		s.mu.Unlock()
		return a.Clone(), nil
	}
	if err := a.Transition(domain.SyncPending); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	snapshot := a.Clone()
	s.mu.Unlock()

	err = s.persistence.Update(ctx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finish(a, opUpdate, "", err)
}

// DeleteAnnotation removes the marker right away and then deletes the stored
// note. A failed delete leaves the annotation in error without a marker.
func (s *Session) DeleteAnnotation(ctx context.Context, id string) error {
	s.mu.Lock()
	a, ok := s.annotations[id]
	if !ok {
		s.mu.Unlock()
		return s.unknown(id)
	}
	if !s.confirmer.Confirm("Delete this highlight?") {
		s.mu.Unlock()
		return ErrCancelled
	}
	if a.SyncState == domain.SyncPending || a.SyncState == domain.SyncDeleting {
		s.mu.Unlock()
		return s.reject("The highlight is still syncing.")
	}

	s.renderer.Unwrap(id)
	s.menu = selection.Action{Kind: selection.ActionHide}
	if a.ServerID == "" {
		s.drop(id)
		s.mu.Unlock()
		return nil
	}
	if err := a.Transition(domain.SyncDeleting); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := a.Clone()
	s.mu.Unlock()

	err := s.persistence.Delete(ctx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.finish(a, opDelete, "", err)
	return err
}

// Retry re-runs the failed operation of an annotation in error.
func (s *Session) Retry(ctx context.Context, id string) (*domain.Annotation, error) {
	s.mu.Lock()
	a, ok := s.annotations[id]
	if !ok {
		s.mu.Unlock()
		return nil, s.unknown(id)
	}
	if a.SyncState != domain.SyncError {
		s.mu.Unlock()
		return nil, errors.NewValidationError("nothing to retry", string(a.SyncState))
	}

	op := s.failed[id]
	if op == opUpdate && a.ServerID == "" {
		op = opCreate
	}
	next := domain.SyncPending
	if op == opDelete {
		next = domain.SyncDeleting
	}
	if err := a.Transition(next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	snapshot := a.Clone()
	s.mu.Unlock()

	var serverID string
	var err error
	switch op {
	case opUpdate:
		err = s.persistence.Update(ctx, snapshot)
	case opDelete:
		err = s.persistence.Delete(ctx, snapshot)
	default:
		op = opCreate
		serverID, err = s.persistence.Create(ctx, snapshot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finish(a, op, serverID, err)
}

// finish applies a completed request. Called with the lock held.
func (s *Session) finish(a *domain.Annotation, op operation, serverID string, err error) (*domain.Annotation, error) {
	if _, live := s.annotations[a.LocalID]; !live {
		s.logger.Debug("sync completed for removed annotation", "annotation_id", a.LocalID, "op", op.String())
		if err != nil {
			return nil, err
		}
		return a.Clone(), nil
	}

	if serr := s.persistence.settle(a, op, serverID, err); serr != nil {
		s.failed[a.LocalID] = op
		return a.Clone(), serr
	}
	delete(s.failed, a.LocalID)
	if op == opDelete {
		s.drop(a.LocalID)
	}
	return a.Clone(), nil
}

// Click forwards a click on n to the marker under it.
func (s *Session) Click(n *html.Node) bool {
	s.mu.Lock()
	s.clicked = ""
	handled := s.renderer.Click(n)
	id := s.clicked
	s.mu.Unlock()

	if handled && id != "" && s.onClick != nil {
		s.onClick(id)
	}
	return handled
}

// markerClicked runs inside renderer.Click with the lock held.
func (s *Session) markerClicked(id string) {
	s.clicked = id
	s.tracker.Clear()
	s.menu = selection.Action{Kind: selection.ActionEdit, AnnotationID: id}
}

// Restore fetches the stored annotations of the document and renders those
// that can be located.
func (s *Session) Restore(ctx context.Context) (ResolveReport, error) {
	annotations, err := s.resolver.Fetch(ctx, s.documentURL)
	if err != nil {
		s.logger.Error("failed to load annotations", err, "document", s.documentURL)
		s.notifier.Notify(LevelError, "Failed to load highlights.")
		return ResolveReport{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restored, report := s.resolver.Place(annotations, s.markerClicked)
	for _, a := range restored {
		s.annotations[a.LocalID] = a
		s.order = append(s.order, a.LocalID)
	}
	return report, nil
}

// ClearAll removes every marker and forgets every annotation locally. Stored
// notes are left untouched.
func (s *Session) ClearAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return 0, nil
	}
	if !s.confirmer.Confirm("Remove all highlights from this page?") {
		return 0, ErrCancelled
	}

	n := len(s.order)
	for _, id := range s.order {
		s.renderer.Unwrap(id)
	}
	s.annotations = make(map[string]*domain.Annotation)
	s.failed = make(map[string]operation)
	s.order = nil
	s.menu = selection.Action{Kind: selection.ActionHide}
	s.notifier.Notify(LevelInfo, "All highlights cleared.")
	return n, nil
}

// Get returns a copy of one annotation.
func (s *Session) Get(id string) (*domain.Annotation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.annotations[id]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// Annotations returns copies of the live annotations in creation order.
func (s *Session) Annotations() []*domain.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Annotation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.annotations[id].Clone())
	}
	return out
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	for _, a := range s.annotations {
		st.Total++
		if a.SyncState == domain.SyncSaved {
			st.Saved++
		} else {
			st.Unsaved++
		}
		if a.HasNote() {
			st.WithNotes++
		}
	}
	return st
}

// CheckIntegrity returns the ids whose rendered marker text no longer equals
// the quoted text. Whitespace is ignored in the comparison.
func (s *Session) CheckIntegrity() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var drifted []string
	for _, id := range s.order {
		a := s.annotations[id]
		if s.failed[id] == opDelete || a.SyncState == domain.SyncDeleting {
			continue
		}
		if stripSpace(s.renderer.Text(id)) != stripSpace(a.Anchor.QuotedText) {
			drifted = append(drifted, id)
		}
	}
	return drifted
}

// HTML renders the whole document the container belongs to.
func (s *Session) HTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := s.renderer.Container()
	for root.Parent != nil {
		root = root.Parent
	}
	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return "", errors.NewInternalError("failed to render document", err)
	}
	return sb.String(), nil
}

func (s *Session) drop(id string) {
	delete(s.annotations, id)
	delete(s.failed, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Session) reject(message string) error {
	s.notifier.Notify(LevelWarning, message)
	return errors.NewValidationError(message)
}

func (s *Session) unknown(id string) error {
	return errors.NewNotFoundError(domain.ErrAnnotationUnknown.Error() + ": " + id)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func truncateQuote(s string) string {
	r := []rune(s)
	if len(r) <= 50 {
		return s
	}
	return string(r[:50]) + "..."
}

package annotator

import (
	"context"
	stderrors "errors"

	"wiki-annotator/internal/anchor"
	"wiki-annotator/internal/domain"
	"wiki-annotator/internal/highlight"
)

// ResolveReport summarizes one restore pass.
type ResolveReport struct {
	Total       int `json:"total"`
	Restored    int `json:"restored"`
	Unresolved  int `json:"unresolved"`
	Overlapping int `json:"overlapping"`
	Failed      int `json:"failed"`
}

// Resolver relocates stored annotations inside a freshly rendered document.
type Resolver struct {
	persistence *PersistenceClient
	codec       *anchor.Codec
	renderer    *highlight.Renderer
	logger      domain.Logger
}

func NewResolver(persistence *PersistenceClient, codec *anchor.Codec, renderer *highlight.Renderer, logger domain.Logger) *Resolver {
	return &Resolver{
		persistence: persistence,
		codec:       codec,
		renderer:    renderer,
		logger:      logger,
	}
}

// Fetch lists the stored annotations of documentURL.
func (r *Resolver) Fetch(ctx context.Context, documentURL string) ([]*domain.Annotation, error) {
	return r.persistence.ListForDocument(ctx, documentURL)
}

// Place decodes and wraps annotations in storage order. A failure is logged
// and skipped; the rest are still placed.
func (r *Resolver) Place(annotations []*domain.Annotation, onClick func(id string)) ([]*domain.Annotation, ResolveReport) {
	report := ResolveReport{Total: len(annotations)}
	var restored []*domain.Annotation

	container := r.renderer.Container()
	for _, a := range annotations {
		rng, err := r.codec.Decode(a.Anchor, container)
		if err != nil {
			if stderrors.Is(err, anchor.ErrNotFound) {
				report.Unresolved++
				r.logger.Warn("annotation could not be located", "server_id", a.ServerID, "quote", a.Anchor.QuotedText)
			} else {
				report.Failed++
				r.logger.Error("annotation decode failed", err, "server_id", a.ServerID)
			}
			continue
		}

		if id, ok := r.renderer.Overlapping(rng); ok {
			report.Overlapping++
			r.logger.Warn("annotation overlaps a restored highlight", "server_id", a.ServerID, "overlaps", id)
			continue
		}

		if _, err := r.renderer.Wrap(rng, highlight.Marker{
			ID:      a.LocalID,
			Color:   a.Color,
			Note:    a.Note,
			OnClick: onClick,
		}); err != nil {
			if stderrors.Is(err, highlight.ErrOverlap) {
				report.Overlapping++
			} else {
				report.Failed++
			}
			r.logger.Error("annotation could not be rendered", err, "server_id", a.ServerID)
			continue
		}

		a.SyncState = domain.SyncSaved
		restored = append(restored, a)
		report.Restored++
	}

	r.logger.Info("annotations restored",
		"total", report.Total,
		"restored", report.Restored,
		"unresolved", report.Unresolved,
		"overlapping", report.Overlapping,
		"failed", report.Failed)
	return restored, report
}

// Package autosave decides what to persist and when, given edits that arrive
// from independent, uncoordinated editing surfaces with no shared submit
// event. An Orchestrator holds the last-known-good ideation snapshot for one
// (user, project) session and folds partial overrides into it before issuing
// a single whole-record upsert, so concurrent edits to different slices are
// never lost.
//
// Saves are serialized: one in-flight upsert at a time, later callers queue on
// the session lock. A failed upsert is logged and surfaced as a warning while
// the merged snapshot is kept, so the next save retries the same payload by
// resubmission rather than through a background queue.
package autosave

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
	"github.com/designthinkr/go-workshop-backend/internal/reconcile"
)

// Upserter persists a whole ideation record. *services.IdeationService
// satisfies it.
type Upserter interface {
	Upsert(ctx context.Context, userID, projectID string, b domain.Brainstorming, m domain.Matrix, s domain.Specs) (*domain.Ideation, error)
}

// Override is a partial update over the session snapshot. Nil fields mean
// "untouched": master save merges the override over the snapshot and never
// discards sibling slices.
type Override struct {
	Ideas          []reconcile.UINote
	Matrix         *reconcile.UIMatrix
	WinningConcept *domain.IdeaRef
	TechSpec       *reconcile.UISpecs
	IsFinished     *bool
}

// Orchestrator is the per-session autosave coordinator.
type Orchestrator struct {
	store     Upserter
	userID    string
	projectID string
	logger    zerolog.Logger

	mu   sync.Mutex
	snap reconcile.UIState
}

// New builds an Orchestrator seeded with the last-known-good snapshot,
// typically reconcile.ToUI of the freshly loaded record.
func New(store Upserter, userID, projectID string, initial reconcile.UIState) *Orchestrator {
	return &Orchestrator{
		store:     store,
		userID:    userID,
		projectID: projectID,
		logger: log.With().
			Str("project_id", projectID).
			Str("user_id", userID).
			Logger(),
		snap: initial,
	}
}

// MasterSave merges the override over the in-memory snapshot, persists the
// result, and keeps the merged snapshot either way: on failure the local view
// stays consistent and the next successful save carries the failed change.
func (o *Orchestrator) MasterSave(ctx context.Context, ov Override) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	merged := o.snap
	if ov.Ideas != nil {
		merged.Ideas = ov.Ideas
	}
	if ov.Matrix != nil {
		merged.Matrix = *ov.Matrix
	}
	if ov.WinningConcept != nil {
		merged.WinningConcept = ov.WinningConcept
	}
	if ov.TechSpec != nil {
		merged.TechSpec = *ov.TechSpec
	}
	if ov.IsFinished != nil {
		merged.IsFinished = *ov.IsFinished
		merged.MatrixVisible = *ov.IsFinished
	}
	o.snap = merged

	b, m, s := reconcile.FromUI(merged)
	if _, err := o.store.Upsert(ctx, o.userID, o.projectID, b, m, s); err != nil {
		o.logger.Warn().Err(err).Msg("autosave failed, keeping local snapshot for retry")
		return err
	}
	return nil
}

// FinishBrainstorming is the explicit trigger fired when the user closes the
// canvas: it saves the final note set and flips the gate that opens the
// matrix.
func (o *Orchestrator) FinishBrainstorming(ctx context.Context, ideas []reconcile.UINote) error {
	done := true
	return o.MasterSave(ctx, Override{Ideas: ideas, IsFinished: &done})
}

// SelectWinningIdea is the explicit trigger fired when the user picks the
// winning solution in the matrix.
func (o *Orchestrator) SelectWinningIdea(ctx context.Context, ref domain.IdeaRef) error {
	return o.MasterSave(ctx, Override{WinningConcept: &ref})
}

// SaveTechSpec is the explicit trigger fired when the generated or edited
// spec should be persisted.
func (o *Orchestrator) SaveTechSpec(ctx context.Context, spec reconcile.UISpecs) error {
	return o.MasterSave(ctx, Override{TechSpec: &spec})
}

// SaveDraft persists the current snapshot unchanged; used for manual "save
// draft" and navigate-away triggers.
func (o *Orchestrator) SaveDraft(ctx context.Context) error {
	return o.MasterSave(ctx, Override{})
}

// Snapshot returns a copy of the current in-memory snapshot.
func (o *Orchestrator) Snapshot() reconcile.UIState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snap
}

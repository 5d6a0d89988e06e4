// Package services – StageService
//
// This file implements StageService, the application-level component in front
// of the stage-data bag: membership-checked reads with checklist
// auto-verification, whole-stage replaces with optional optimistic
// concurrency, and single path mutations.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include project identifiers and the mutation shape.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
	"github.com/designthinkr/go-workshop-backend/internal/repo"
	"github.com/designthinkr/go-workshop-backend/internal/stagedoc"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StageService coordinates reads and writes of the per-project stage bag.
type StageService struct {
	DB *gorm.DB
}

// Get returns the full stage-data bag, the current phase, and the document
// version. Before returning it reconciles derived checklist items: when a
// persisted boolean disagrees with the value derived from the data, a set
// mutation heals it and the updated bag is returned. Healing is best-effort;
// a failed fix is logged and the stale flag survives until the next read.
func (s *StageService) Get(ctx context.Context, userID, projectID string) (map[string]any, domain.Phase, int64, error) {
	tr := otel.Tracer("services/StageService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if _, err := memberShare(ctx, s.DB, projectID, userID); err != nil {
		return nil, "", 0, err
	}
	bag, phase, version, err := repo.GetStageData(ctx, s.DB, projectID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", 0, ErrProjectNotFound
		}
		return nil, "", 0, err
	}

	for _, fix := range verifyChecklist(bag) {
		healed, v, err := repo.ApplyStageMutation(ctx, s.DB, projectID, fix.Ref, stagedoc.ActionSet, fix.Value)
		if err != nil {
			log.Warn().Err(err).
				Str("project_id", projectID).
				Str("stage", fix.Ref.Stage.String()).
				Str("field", fix.Ref.Field).
				Msg("checklist auto-verification failed")
			continue
		}
		bag, version = healed, v
	}
	return bag, phase, version, nil
}

// Replace swaps the whole sub-tree stageData.<stage>, upserting the key if
// absent. When expectVersion is non-nil it must match the stored document
// version; a nil expectVersion keeps the legacy last-write-wins behavior.
// Returns the full updated bag and the new version.
func (s *StageService) Replace(ctx context.Context, userID, projectID, stage string, data map[string]any, expectVersion *int64) (map[string]any, int64, error) {
	tr := otel.Tracer("services/StageService")
	ctx, span := tr.Start(ctx, "Replace",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("stage", stage),
		),
	)
	defer span.End()

	if !domain.Phase(stage).Valid() {
		return nil, 0, stagedoc.ErrInvalidStage
	}
	if _, err := memberShare(ctx, s.DB, projectID, userID); err != nil {
		return nil, 0, err
	}
	if data == nil {
		data = map[string]any{}
	}
	bag, version, err := repo.ReplaceStage(ctx, s.DB, projectID, stage, data, expectVersion)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, 0, ErrProjectNotFound
		case errors.Is(err, repo.ErrVersionConflict):
			return nil, 0, ErrVersionConflict
		}
		return nil, 0, err
	}
	return bag, version, nil
}

// Apply runs one path mutation (set, push, pull, update_in_array) against the
// project's bag and returns the entire updated document so the caller can
// resynchronize fully. Validation failures come back as stagedoc sentinel
// errors for the handler layer to map.
func (s *StageService) Apply(ctx context.Context, userID, projectID, stage, field, action string, value any) (map[string]any, int64, error) {
	tr := otel.Tracer("services/StageService")
	ctx, span := tr.Start(ctx, "Apply",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("stage", stage),
			attribute.String("field", field),
			attribute.String("action", action),
		),
	)
	defer span.End()

	act, err := stagedoc.ParseAction(action)
	if err != nil {
		return nil, 0, err
	}
	if _, err := memberShare(ctx, s.DB, projectID, userID); err != nil {
		return nil, 0, err
	}
	bag, version, err := repo.ApplyStageMutation(ctx, s.DB, projectID, stagedoc.NewRef(stage, field), act, value)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, ErrProjectNotFound
		}
		return nil, 0, err
	}
	return bag, version, nil
}

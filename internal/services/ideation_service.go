// Package services – IdeationService
//
// This file implements IdeationService, the application-level component that
// owns the strictly-shaped ideation record: default-empty reads, wholesale
// upserts with the disjoint-bucket invariant enforced, and generated spec
// artifacts backed by the external generative-text service.
//
// Observability: all public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
	"github.com/designthinkr/go-workshop-backend/internal/genai"
	"github.com/designthinkr/go-workshop-backend/internal/reconcile"
	"github.com/designthinkr/go-workshop-backend/internal/repo"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoWinningIdea is returned when spec generation is requested before a
// winning solution has been picked in the matrix.
var ErrNoWinningIdea = errors.New("no winning idea selected")

// SpecGenerator is the slice of genai.SpecWriter the service needs; narrowed
// for testability.
type SpecGenerator interface {
	GenerateRequirements(ctx context.Context, idea string, notes []string) (domain.Requirements, error)
	GenerateArchitecture(ctx context.Context, idea string, reqs domain.Requirements) (domain.Architecture, error)
}

// IdeationService coordinates the per-project ideation record.
type IdeationService struct {
	DB    *gorm.DB
	Specs SpecGenerator // optional; nil disables generation
}

// Get returns the project's ideation record, or the default-empty shape when
// none exists yet. Membership required.
func (s *IdeationService) Get(ctx context.Context, userID, projectID string) (*domain.Ideation, error) {
	tr := otel.Tracer("services/IdeationService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if _, err := memberShare(ctx, s.DB, projectID, userID); err != nil {
		return nil, err
	}
	rec, err := repo.GetIdeation(ctx, s.DB, projectID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.EmptyIdeation(projectID), nil
	}
	if err != nil {
		return nil, err
	}
	normalizeIdeation(rec)
	return rec, nil
}

// Upsert replaces the whole ideation record, creating it on first write. The
// matrix is deduplicated against the stored record first: an idea echoed in
// both its old and new bucket keeps the new one, so drag moves never leave an
// id in two buckets.
func (s *IdeationService) Upsert(ctx context.Context, userID, projectID string, b domain.Brainstorming, m domain.Matrix, specs domain.Specs) (*domain.Ideation, error) {
	tr := otel.Tracer("services/IdeationService")
	ctx, span := tr.Start(ctx, "Upsert",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if _, err := memberShare(ctx, s.DB, projectID, userID); err != nil {
		return nil, err
	}

	prev := domain.Matrix{}
	if stored, err := repo.GetIdeation(ctx, s.DB, projectID); err == nil {
		prev = stored.Matrix
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	m = reconcile.DedupeMatrix(m, prev)

	rec, err := repo.UpsertIdeation(ctx, s.DB, projectID, b, m, specs)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	normalizeIdeation(rec)
	return rec, nil
}

// GenerateSpecs asks the generative service for requirement lists and an
// architecture sketch for the winning idea, persists them, and returns the
// updated record. An upstream failure degrades to the empty spec shape with a
// warning instead of blocking the workflow; nothing is persisted in that case.
func (s *IdeationService) GenerateSpecs(ctx context.Context, userID, projectID string) (*domain.Ideation, error) {
	tr := otel.Tracer("services/IdeationService")
	ctx, span := tr.Start(ctx, "GenerateSpecs",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if _, err := memberShare(ctx, s.DB, projectID, userID); err != nil {
		return nil, err
	}
	rec, err := repo.GetIdeation(ctx, s.DB, projectID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNoWinningIdea
		}
		return nil, err
	}
	normalizeIdeation(rec)

	if rec.Matrix.WinningSolution == nil || s.Specs == nil {
		return nil, ErrNoWinningIdea
	}
	idea, notes := winningIdeaText(rec)
	if idea == "" {
		return nil, ErrNoWinningIdea
	}

	reqs, err := s.Specs.GenerateRequirements(ctx, idea, notes)
	if err == nil {
		var arch domain.Architecture
		arch, err = s.Specs.GenerateArchitecture(ctx, idea, reqs)
		if err == nil {
			rec, err = repo.UpsertIdeation(ctx, s.DB, projectID, rec.Brainstorming, rec.Matrix, domain.Specs{
				Requirements: reqs,
				Architecture: arch,
			})
			if err != nil {
				return nil, err
			}
			normalizeIdeation(rec)
			return rec, nil
		}
	}

	// Upstream outage: degrade to the empty shape so the workshop can move on.
	log.Warn().Err(err).
		Str("project_id", projectID).
		Msg("spec generation failed, serving empty fallback")
	rec.Specs = domain.Specs{
		Requirements: domain.Requirements{Functional: []string{}, NonFunctional: []string{}},
	}
	return rec, nil
}

// winningIdeaText resolves the winning reference to its note content and
// collects the remaining note texts as prompt context.
func winningIdeaText(rec *domain.Ideation) (idea string, notes []string) {
	winID := rec.Matrix.WinningSolution.ID
	notes = make([]string, 0, len(rec.Brainstorming.Notes))
	for _, n := range rec.Brainstorming.Notes {
		if n.ID == winID {
			idea = n.Content
			continue
		}
		if n.Content != "" {
			notes = append(notes, n.Content)
		}
	}
	return idea, notes
}

// normalizeIdeation replaces nil lists with empty ones so every read serves
// the full default shape.
func normalizeIdeation(rec *domain.Ideation) {
	if rec.Brainstorming.Notes == nil {
		rec.Brainstorming.Notes = []domain.Note{}
	}
	if rec.Matrix.QuickWins == nil {
		rec.Matrix.QuickWins = []domain.IdeaRef{}
	}
	if rec.Matrix.MajorProjects == nil {
		rec.Matrix.MajorProjects = []domain.IdeaRef{}
	}
	if rec.Matrix.FillIns == nil {
		rec.Matrix.FillIns = []domain.IdeaRef{}
	}
	if rec.Matrix.ThanklessTasks == nil {
		rec.Matrix.ThanklessTasks = []domain.IdeaRef{}
	}
	if rec.Specs.Requirements.Functional == nil {
		rec.Specs.Requirements.Functional = []string{}
	}
	if rec.Specs.Requirements.NonFunctional == nil {
		rec.Specs.Requirements.NonFunctional = []string{}
	}
}

// Compile-time check that the real generator satisfies the narrowed interface.
var _ SpecGenerator = (*genai.SpecWriter)(nil)

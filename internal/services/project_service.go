// Package services – ProjectService
//
// This file implements ProjectService, the application-level component that
// owns the workshop project lifecycle: creation with an implicit owner grant,
// membership-scoped listing, the monotonic phase sequence, sharing, and
// deletion with its external-artifact cleanup hook.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include project/user identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
	"github.com/designthinkr/go-workshop-backend/internal/repo"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultProjectTitle is the placeholder used when a project is created
// without a title. Placeholder titles are eligible for auto-generation from
// the first chat turn (see MessageService).
const defaultProjectTitle = "New project"

// BlobDeleter removes externally stored artifacts for a project. The file
// manager owns uploads; project deletion only needs the cleanup hook. Failures
// are logged, never fatal: the rows are already gone.
type BlobDeleter interface {
	DeleteProjectBlobs(ctx context.Context, projectID string) error
}

// ProjectService coordinates project records, phase transitions, and shares.
type ProjectService struct {
	DB    *gorm.DB
	Blobs BlobDeleter // optional

	// MaxTitleRunes bounds user-supplied titles; 0 means the default of 120.
	MaxTitleRunes int
}

// Create inserts a new project owned by userID. Empty titles fall back to a
// placeholder; overlong titles are rejected.
func (s *ProjectService) Create(ctx context.Context, userID, title string) (*domain.Project, error) {
	tr := otel.Tracer("services/ProjectService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultProjectTitle
	}
	if max := s.maxTitle(); utf8.RuneCountInString(title) > max {
		return nil, ErrTitleTooLong
	}
	return repo.CreateProject(ctx, s.DB, userID, title)
}

// Get returns a project if userID is a member, mapping missing rows and
// missing grants alike to ErrProjectNotFound so non-members cannot probe for
// existence.
func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	tr := otel.Tracer("services/ProjectService")
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
	p, err := repo.GetProject(ctx, s.DB, projectID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	return p, err
}

// ListPage returns paginated projects visible to userID, newest first.
func (s *ProjectService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Project, int64, error) {
	tr := otel.Tracer("services/ProjectService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountProjects(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Project{}, 0, nil
	}
	items, err := repo.ListProjectsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// AdvancePhase moves the project one step forward in the fixed sequence.
// Requesting the current phase is an idempotent no-op; anything other than the
// immediate next phase is rejected. The store never advances a phase on its
// own.
func (s *ProjectService) AdvancePhase(ctx context.Context, userID, projectID string, target domain.Phase) (*domain.Project, error) {
	tr := otel.Tracer("services/ProjectService")
	ctx, span := tr.Start(ctx, "AdvancePhase",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("phase.target", target.String()),
		),
	)
	defer span.End()

	if !target.Valid() {
		return nil, ErrInvalidPhase
	}
	if _, err := memberShare(ctx, s.DB, projectID, userID); err != nil {
		return nil, err
	}
	p, err := repo.GetProject(ctx, s.DB, projectID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	if target == p.Phase {
		return p, nil
	}
	next, ok := p.Phase.Next()
	if !ok || target != next {
		return nil, ErrPhaseNotNext
	}
	if err := repo.UpdateProjectPhase(ctx, s.DB, projectID, target); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	p.Phase = target
	return p, nil
}

// Share grants targetUser a permission on the project. Owner-only.
func (s *ProjectService) Share(ctx context.Context, userID, projectID, targetUser, permission string) (*domain.ProjectShare, error) {
	tr := otel.Tracer("services/ProjectService")
	ctx, span := tr.Start(ctx, "Share",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("share.user", targetUser),
		),
	)
	defer span.End()

	if permission != domain.PermissionBasic && permission != domain.PermissionOwner {
		return nil, ErrInvalidPermission
	}
	if targetUser == "" {
		return nil, ErrInvalidPermission
	}
	if err := ownerShare(ctx, s.DB, projectID, userID); err != nil {
		return nil, err
	}
	return repo.UpsertShare(ctx, s.DB, projectID, targetUser, permission)
}

// Delete removes a project and everything hanging off it. Owner-only. Blob
// cleanup is best-effort: a failing external store must not resurrect the
// deleted rows.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	tr := otel.Tracer("services/ProjectService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if err := ownerShare(ctx, s.DB, projectID, userID); err != nil {
		return err
	}
	if err := repo.DeleteProject(ctx, s.DB, projectID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	if s.Blobs != nil {
		if err := s.Blobs.DeleteProjectBlobs(ctx, projectID); err != nil {
			log.Warn().Err(err).
				Str("project_id", projectID).
				Msg("blob cleanup failed after project delete")
		}
	}
	return nil
}

func (s *ProjectService) maxTitle() int {
	if s.MaxTitleRunes > 0 {
		return s.MaxTitleRunes
	}
	return 120
}

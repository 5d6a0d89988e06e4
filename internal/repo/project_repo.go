// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Project
// model and its stage-data bag.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence, the single-document stage mutations, and query composition.
//
// Error semantics:
//   - When a project is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - ReplaceStage returns ErrVersionConflict when the caller supplies a
//     stale document version.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
	"github.com/designthinkr/go-workshop-backend/internal/stagedoc"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrVersionConflict is returned by ReplaceStage when the expected document
// version does not match the stored one (a concurrent whole-stage replace won
// the race).
var ErrVersionConflict = errors.New("stage data version conflict")

// CreateProject inserts a new Project owned by userID together with the
// implicit owner share, in one transaction. The stage-data bag starts empty;
// phase sub-trees are created lazily by the first mutation that addresses them.
func CreateProject(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Project, error) {
	p := &domain.Project{
		ID:        uuid.NewString(),
		CreatedBy: userID,
		Title:     title,
		Phase:     domain.PhaseEmpathize,
		StageData: datatypes.JSONMap{},
		CreatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		share := &domain.ProjectShare{
			ID:         uuid.NewString(),
			ProjectID:  p.ID,
			UserID:     userID,
			Permission: domain.PermissionOwner,
			CreatedAt:  p.CreatedAt,
		}
		return tx.Create(share).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProject fetches a project by ID, or ErrNotFound.
func GetProject(ctx context.Context, db *gorm.DB, id string) (*domain.Project, error) {
	var p domain.Project
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// memberScope narrows a projects query to rows userID can see: projects they
// created plus projects shared with them.
func memberScope(db *gorm.DB, userID string) *gorm.DB {
	return db.Where(
		"created_by = ? OR id IN (?)",
		userID,
		db.Session(&gorm.Session{NewDB: true}).
			Model(&domain.ProjectShare{}).
			Select("project_id").
			Where("user_id = ?", userID),
	)
}

// CountProjects returns the number of projects visible to userID.
func CountProjects(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := memberScope(db.WithContext(ctx).Model(&domain.Project{}), userID).
		Count(&total).Error
	return total, err
}

// ListProjectsPage returns a page of projects visible to userID, ordered by
// creation time descending. The caller computes offset and limit.
func ListProjectsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Project, error) {
	var out []domain.Project
	err := memberScope(db.WithContext(ctx), userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateProjectPhase stores a new phase value. The monotonic-advance rule is
// enforced by the service layer; the repo only persists. Returns ErrNotFound
// when no row matches.
func UpdateProjectPhase(ctx context.Context, db *gorm.DB, id string, phase domain.Phase) error {
	res := db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("id = ?", id).
		Update("phase", phase)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteProject soft-deletes a project and its dependent records (messages,
// shares, ideation) in one transaction. External artifacts (uploaded blobs)
// are the caller's concern.
func DeleteProject(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&domain.Project{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("project_id = ?", id).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&domain.ProjectShare{}).Error; err != nil {
			return err
		}
		return tx.Where("project_id = ?", id).Delete(&domain.Ideation{}).Error
	})
}

// GetStageData returns the full stage-data bag plus the current phase and
// document version, or ErrNotFound.
func GetStageData(ctx context.Context, db *gorm.DB, id string) (datatypes.JSONMap, domain.Phase, int64, error) {
	p, err := GetProject(ctx, db, id)
	if err != nil {
		return nil, "", 0, err
	}
	if p.StageData == nil {
		p.StageData = datatypes.JSONMap{}
	}
	return p.StageData, p.Phase, p.Version, nil
}

// ReplaceStage swaps the whole sub-tree stageData.<stage> for data, upserting
// the key if absent, and bumps the document version. When expectVersion is
// non-nil it must match the stored version or ErrVersionConflict is returned;
// a nil expectVersion preserves the legacy last-write-wins behavior.
//
// The returned bag is the full updated document, so the caller can
// resynchronize instead of trusting its optimistic copy.
func ReplaceStage(ctx context.Context, db *gorm.DB, id, stage string, data map[string]any, expectVersion *int64) (datatypes.JSONMap, int64, error) {
	var (
		bag     datatypes.JSONMap
		version int64
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := GetProject(ctx, tx, id)
		if err != nil {
			return err
		}
		if expectVersion != nil && *expectVersion != p.Version {
			return ErrVersionConflict
		}
		if p.StageData == nil {
			p.StageData = datatypes.JSONMap{}
		}
		p.StageData[stage] = data
		version = p.Version + 1
		bag = p.StageData
		return tx.Model(&domain.Project{}).
			Where("id = ?", id).
			Updates(map[string]any{"stage_data": p.StageData, "version": version}).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return bag, version, nil
}

// ApplyStageMutation runs one path mutation against the project's bag inside
// a transaction: load, mutate via stagedoc, store with a version bump, and
// return the entire updated bag. Validation errors from stagedoc pass through
// unchanged so the service layer can map them.
func ApplyStageMutation(ctx context.Context, db *gorm.DB, id string, ref stagedoc.Ref, action stagedoc.Action, value any) (datatypes.JSONMap, int64, error) {
	var (
		bag     datatypes.JSONMap
		version int64
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := GetProject(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.StageData == nil {
			p.StageData = datatypes.JSONMap{}
		}
		if err := stagedoc.Apply(p.StageData, ref, action, value); err != nil {
			return err
		}
		version = p.Version + 1
		bag = p.StageData
		return tx.Model(&domain.Project{}).
			Where("id = ?", id).
			Updates(map[string]any{"stage_data": p.StageData, "version": version}).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return bag, version, nil
}

// GetShare returns the grant userID holds on projectID, or ErrNotFound.
func GetShare(ctx context.Context, db *gorm.DB, projectID, userID string) (*domain.ProjectShare, error) {
	var s domain.ProjectShare
	err := db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListShares returns all grants on projectID, oldest first.
func ListShares(ctx context.Context, db *gorm.DB, projectID string) ([]domain.ProjectShare, error) {
	var out []domain.ProjectShare
	err := db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// UpsertShare grants userID the given permission on projectID, updating the
// permission if a grant already exists.
func UpsertShare(ctx context.Context, db *gorm.DB, projectID, userID, permission string) (*domain.ProjectShare, error) {
	var s domain.ProjectShare
	err := db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&s).Error
	switch {
	case err == nil:
		if s.Permission == permission {
			return &s, nil
		}
		s.Permission = permission
		if err := db.WithContext(ctx).Model(&s).Update("permission", permission).Error; err != nil {
			return nil, err
		}
		return &s, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		s = domain.ProjectShare{
			ID:         uuid.NewString(),
			ProjectID:  projectID,
			UserID:     userID,
			Permission: permission,
			CreatedAt:  time.Now().UTC(),
		}
		if err := db.WithContext(ctx).Create(&s).Error; err != nil {
			return nil, err
		}
		return &s, nil
	default:
		return nil, err
	}
}

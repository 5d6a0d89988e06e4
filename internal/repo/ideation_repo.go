// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Ideation
// record, the strictly-shaped 1:1 sibling of a project.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
)

// GetIdeation fetches the ideation record for projectID, or ErrNotFound when
// the project has not written one yet. Serving the default-empty shape in
// that case is the service layer's job.
func GetIdeation(ctx context.Context, db *gorm.DB, projectID string) (*domain.Ideation, error) {
	var rec domain.Ideation
	err := db.WithContext(ctx).Where("project_id = ?", projectID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertIdeation stores the full {brainstorming, matrix, specs} document for
// projectID, creating the record on first write. The whole body is replaced;
// partial merges happen client-side before the call (master save).
func UpsertIdeation(ctx context.Context, db *gorm.DB, projectID string, b domain.Brainstorming, m domain.Matrix, s domain.Specs) (*domain.Ideation, error) {
	var out *domain.Ideation
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec domain.Ideation
		err := tx.Where("project_id = ?", projectID).First(&rec).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec = domain.Ideation{
				ID:            uuid.NewString(),
				ProjectID:     projectID,
				Brainstorming: b,
				Matrix:        m,
				Specs:         s,
				CreatedAt:     time.Now().UTC(),
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			rec.Brainstorming = b
			rec.Matrix = m
			rec.Specs = s
			// Save rewrites every column so the JSON serializer fields are
			// replaced wholesale, matching the upsert contract.
			if err := tx.Save(&rec).Error; err != nil {
				return err
			}
		}
		out = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

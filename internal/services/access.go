package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
	"github.com/designthinkr/go-workshop-backend/internal/repo"
)

// memberShare resolves the caller's grant on a project. A missing grant maps
// to ErrProjectNotFound so non-members cannot probe for project existence;
// the creator always holds the implicit owner grant written at creation.
func memberShare(ctx context.Context, db *gorm.DB, projectID, userID string) (*domain.ProjectShare, error) {
	share, err := repo.GetShare(ctx, db, projectID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return share, nil
}

// ownerShare is memberShare plus the owner-permission check.
func ownerShare(ctx context.Context, db *gorm.DB, projectID, userID string) error {
	share, err := memberShare(ctx, db, projectID, userID)
	if err != nil {
		return err
	}
	if share.Permission != domain.PermissionOwner {
		return ErrForbidden
	}
	return nil
}

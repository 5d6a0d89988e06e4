// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the append-only
// Message list of a project.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
)

// AppendMessage inserts a new chat turn. Messages are append-only; there is
// deliberately no update or reorder helper.
func AppendMessage(ctx context.Context, db *gorm.DB, projectID, sender, text string) (*domain.Message, error) {
	m := &domain.Message{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	return m, db.WithContext(ctx).Create(m).Error
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(ctx context.Context, db *gorm.DB, projectID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM messages WHERE project_id = ? AND deleted_at IS NULL", projectID).
		Scan(&total).Error
	return total, err
}

// LatestMessage returns the most recent turn of a project's conversation, or
// ErrNotFound when the conversation is empty. Used by the idempotency replay
// path of the message POST endpoint.
func LatestMessage(ctx context.Context, db *gorm.DB, projectID string) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessagesPage returns a paginated slice in chronological order
// (CreatedAt ASC, ID ASC as a deterministic tiebreak).
func ListMessagesPage(ctx context.Context, db *gorm.DB, projectID string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

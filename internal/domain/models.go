// Package domain defines the persistence models for workshop projects, chat
// messages, sharing grants, and the ideation record. These types are mapped
// with GORM and form the core data layer of the design-thinking coach backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project represents one workshop session owned by a user. All mutable state
// for the five phases lives in the StageData bag; the separate Ideation record
// (see ideation.go) is updated independently.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - CreatedBy: identifier of the project owner; indexed for retrieval.
//   - Title: human-readable project title.
//   - Phase: current position in the fixed phase sequence (see phase.go).
//   - StageData: free-form per-phase nested mapping ("the bag"); each phase
//     owns its own sub-tree under its phase key.
//   - Version: per-document write counter used for optimistic concurrency on
//     whole-stage replaces. Path-level mutations bump it but never require it.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Project struct {
	ID        string            `json:"id"         gorm:"type:char(36);primaryKey"`
	CreatedBy string            `json:"created_by" gorm:"type:varchar(64);not null;index:idx_user_projects"`
	Title     string            `json:"title"      gorm:"type:varchar(255);not null;default:'New project'"`
	Phase     Phase             `json:"phase"      gorm:"type:varchar(16);not null;default:'empathize'"`
	StageData datatypes.JSONMap `json:"stage_data" gorm:"type:json"`
	Version   int64             `json:"version"    gorm:"not null;default:0"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt gorm.DeletedAt    `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Project.
func (Project) TableName() string { return "projects" }

// Message is one turn of the coach chat attached to a project. The message
// list is append-only; messages are never edited or reordered.
type Message struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	ProjectID string         `json:"project_id" gorm:"type:char(36);not null;index:idx_project_msgs,priority:1"`
	Sender    string         `json:"sender"     gorm:"type:varchar(16);not null;check:sender IN ('user','coach')"`
	Text      string         `json:"text"       gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_project_msgs,priority:2"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	// Project is the parent session. Messages are cascade-deleted with it.
	Project Project `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Share permission levels.
const (
	PermissionBasic = "basic"
	PermissionOwner = "owner"
)

// ProjectShare grants a user access to a project. A user holds at most one
// grant per project (enforced by unique index). The creating user always has
// an implicit owner grant, written at project creation.
type ProjectShare struct {
	ID         string         `json:"id"         gorm:"type:char(36);primaryKey"`
	ProjectID  string         `json:"project_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_share_project_user"`
	UserID     string         `json:"user_id"    gorm:"type:varchar(64);not null;index;uniqueIndex:ux_share_project_user"`
	Permission string         `json:"permission" gorm:"type:varchar(16);not null;check:permission IN ('basic','owner')"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	Project Project `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ProjectShare.
func (ProjectShare) TableName() string { return "project_shares" }

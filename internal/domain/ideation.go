package domain

import (
	"time"

	"gorm.io/gorm"
)

// Note is one sticky note on the brainstorming canvas, in wire shape. The
// client-generated ID is the only stable handle; position and styling are
// free-form canvas state.
type Note struct {
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Color    string  `json:"color,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
}

// IdeaRef points at a brainstormed note by id. Matrix buckets and the winning
// solution hold references, never copies of the note payload.
type IdeaRef struct {
	ID string `json:"id"`
}

// Brainstorming holds the canvas notes plus the boolean gate that unlocks the
// prioritization matrix in the UI.
type Brainstorming struct {
	Notes      []Note `json:"notes"`
	IsFinished bool   `json:"isFinished"`
}

// Matrix is the 2x2 prioritization matrix in wire shape: four named buckets
// plus an optional winning solution. Buckets are disjoint; an idea id appears
// in at most one bucket at a time.
type Matrix struct {
	QuickWins       []IdeaRef `json:"quickWins"`
	MajorProjects   []IdeaRef `json:"majorProjects"`
	FillIns         []IdeaRef `json:"fillIns"`
	ThanklessTasks  []IdeaRef `json:"thanklessTasks"`
	WinningSolution *IdeaRef  `json:"winningSolution"`
}

// Requirements are the generated functional / non-functional requirement lists.
type Requirements struct {
	Functional    []string `json:"functional"`
	NonFunctional []string `json:"nonFunctional"`
}

// Architecture captures the four free-text architecture fields. The wire key
// for the storage layer is "db" (the UI calls it "database"; the reconcile
// package owns that renaming).
type Architecture struct {
	Frontend string `json:"frontend"`
	Backend  string `json:"backend"`
	DB       string `json:"db"`
	DataFlow string `json:"dataFlow"`
}

// Specs is the generated technical spec artifact.
type Specs struct {
	Requirements Requirements `json:"requirements"`
	Architecture Architecture `json:"architecture"`
}

// Ideation is the strictly-shaped sibling record of a project, holding
// brainstorming, matrix, and spec artifacts. It is created lazily on the first
// ideation-phase write (upsert semantics) and deleted with its project.
type Ideation struct {
	ID            string         `json:"id"            gorm:"type:char(36);primaryKey"`
	ProjectID     string         `json:"project_id"    gorm:"type:char(36);not null;uniqueIndex"`
	Brainstorming Brainstorming  `json:"brainstorming" gorm:"serializer:json"`
	Matrix        Matrix         `json:"matrix"        gorm:"serializer:json"`
	Specs         Specs          `json:"specs"         gorm:"serializer:json"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	Project Project `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Ideation.
func (Ideation) TableName() string { return "ideations" }

// EmptyIdeation returns the default-empty shape served when no record exists
// yet. Lists are non-nil so clients always see the four buckets.
func EmptyIdeation(projectID string) *Ideation {
	return &Ideation{
		ProjectID:     projectID,
		Brainstorming: Brainstorming{Notes: []Note{}},
		Matrix: Matrix{
			QuickWins:      []IdeaRef{},
			MajorProjects:  []IdeaRef{},
			FillIns:        []IdeaRef{},
			ThanklessTasks: []IdeaRef{},
		},
		Specs: Specs{
			Requirements: Requirements{Functional: []string{}, NonFunctional: []string{}},
		},
	}
}

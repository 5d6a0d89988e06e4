package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
)

func TestGetIdeation_MissingIsNotFound(t *testing.T) {
	db := fullDB(t)
	if _, err := GetIdeation(context.Background(), db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertIdeation_CreateOnFirstWriteThenReplace(t *testing.T) {
	db := fullDB(t)
	ctx := context.Background()
	p, _ := CreateProject(ctx, db, "u1", "t")

	b := domain.Brainstorming{
		Notes:      []domain.Note{{ID: "n1", Content: "voice control", X: 10, Y: 20, Color: "yellow"}},
		IsFinished: false,
	}
	m := domain.Matrix{QuickWins: []domain.IdeaRef{{ID: "n1"}}}

	rec, err := UpsertIdeation(ctx, db, p.ID, b, m, domain.Specs{})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if rec.ID == "" || rec.ProjectID != p.ID {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// Reload and verify the serialized JSON columns round-trip.
	got, err := GetIdeation(ctx, db, p.ID)
	if err != nil {
		t.Fatalf("GetIdeation: %v", err)
	}
	if len(got.Brainstorming.Notes) != 1 || got.Brainstorming.Notes[0].Content != "voice control" {
		t.Fatalf("brainstorming round-trip mismatch: %+v", got.Brainstorming)
	}
	if len(got.Matrix.QuickWins) != 1 || got.Matrix.QuickWins[0].ID != "n1" {
		t.Fatalf("matrix round-trip mismatch: %+v", got.Matrix)
	}

	// Second upsert replaces wholesale (simulates a drag from quickWins to
	// majorProjects: the new body no longer lists n1 under quickWins).
	m2 := domain.Matrix{MajorProjects: []domain.IdeaRef{{ID: "n1"}}}
	b.IsFinished = true
	if _, err := UpsertIdeation(ctx, db, p.ID, b, m2, domain.Specs{
		Architecture: domain.Architecture{DB: "sqlite"},
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err = GetIdeation(ctx, db, p.ID)
	if err != nil {
		t.Fatalf("GetIdeation after replace: %v", err)
	}
	if got.ID != rec.ID {
		t.Fatalf("upsert created a second row: %q vs %q", got.ID, rec.ID)
	}
	if len(got.Matrix.QuickWins) != 0 || len(got.Matrix.MajorProjects) != 1 {
		t.Fatalf("idea should live only in majorProjects: %+v", got.Matrix)
	}
	if !got.Brainstorming.IsFinished || got.Specs.Architecture.DB != "sqlite" {
		t.Fatalf("sibling slices not replaced: %+v %+v", got.Brainstorming, got.Specs)
	}
}

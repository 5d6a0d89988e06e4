package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
	"github.com/designthinkr/go-workshop-backend/internal/stagedoc"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func fullDB(t *testing.T) *gorm.DB {
	t.Helper()
	return newRepoDB(t,
		&domain.Project{}, &domain.Message{}, &domain.ProjectShare{},
		&domain.Ideation{}, &domain.Idempotency{},
	)
}

func TestCreateProject_WritesOwnerShare(t *testing.T) {
	db := fullDB(t)

	p, err := CreateProject(context.Background(), db, "u1", "Commuter pain points")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.ID == "" || p.CreatedBy != "u1" || p.Phase != domain.PhaseEmpathize {
		t.Fatalf("unexpected project fields: %+v", p)
	}

	share, err := GetShare(context.Background(), db, p.ID, "u1")
	if err != nil {
		t.Fatalf("GetShare: %v", err)
	}
	if share.Permission != domain.PermissionOwner {
		t.Fatalf("creator grant should be owner, got %q", share.Permission)
	}
}

func TestCreateProject_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if p, err := CreateProject(context.Background(), db, "u1", "t"); err == nil || p != nil {
		t.Fatalf("expected error creating without table, got p=%v err=%v", p, err)
	}
}

func TestListProjectsPage_IncludesSharedProjects(t *testing.T) {
	db := fullDB(t)
	ctx := context.Background()

	mine, err := CreateProject(ctx, db, "u1", "Mine")
	if err != nil {
		t.Fatalf("create mine: %v", err)
	}
	theirs, err := CreateProject(ctx, db, "u2", "Theirs")
	if err != nil {
		t.Fatalf("create theirs: %v", err)
	}
	if _, err := UpsertShare(ctx, db, theirs.ID, "u1", domain.PermissionBasic); err != nil {
		t.Fatalf("share: %v", err)
	}

	total, err := CountProjects(ctx, db, "u1")
	if err != nil {
		t.Fatalf("CountProjects: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 visible projects, got %d", total)
	}

	page, err := ListProjectsPage(ctx, db, "u1", 0, 10)
	if err != nil {
		t.Fatalf("ListProjectsPage: %v", err)
	}
	ids := map[string]bool{}
	for _, p := range page {
		ids[p.ID] = true
	}
	if !ids[mine.ID] || !ids[theirs.ID] {
		t.Fatalf("expected both projects, got %#v", ids)
	}
}

func TestUpdateProjectPhase(t *testing.T) {
	db := fullDB(t)
	ctx := context.Background()

	p, _ := CreateProject(ctx, db, "u1", "t")
	if err := UpdateProjectPhase(ctx, db, p.ID, domain.PhaseDefine); err != nil {
		t.Fatalf("UpdateProjectPhase: %v", err)
	}
	got, _ := GetProject(ctx, db, p.ID)
	if got.Phase != domain.PhaseDefine {
		t.Fatalf("phase not persisted: %q", got.Phase)
	}

	if err := UpdateProjectPhase(ctx, db, "missing", domain.PhaseDefine); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyStageMutation_PushThenGetRoundtrip(t *testing.T) {
	db := fullDB(t)
	ctx := context.Background()
	p, _ := CreateProject(ctx, db, "u1", "t")

	persona := map[string]any{"id": "p1", "name": "Ana"}
	bag, version, err := ApplyStageMutation(ctx, db, p.ID,
		stagedoc.NewRef("empathize", "personas"), stagedoc.ActionPush, persona)
	if err != nil {
		t.Fatalf("ApplyStageMutation: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}
	if got := bag["empathize"].(map[string]any)["personas"].([]any); len(got) != 1 {
		t.Fatalf("push not reflected in returned bag: %#v", bag)
	}

	// A fresh read must show the same content under the same path.
	reloaded, _, v, err := GetStageData(ctx, db, p.ID)
	if err != nil {
		t.Fatalf("GetStageData: %v", err)
	}
	if v != 1 {
		t.Fatalf("reloaded version = %d, want 1", v)
	}
	personas := reloaded["empathize"].(map[string]any)["personas"].([]any)
	if len(personas) != 1 || personas[0].(map[string]any)["name"] != "Ana" {
		t.Fatalf("round-trip mismatch: %#v", personas)
	}
}

func TestApplyStageMutation_UpdateInArrayRenames(t *testing.T) {
	db := fullDB(t)
	ctx := context.Background()
	p, _ := CreateProject(ctx, db, "u1", "t")

	ref := stagedoc.NewRef("empathize", "personas")
	if _, _, err := ApplyStageMutation(ctx, db, p.ID, ref, stagedoc.ActionPush,
		map[string]any{"id": "p1", "name": "Ana"}); err != nil {
		t.Fatalf("push: %v", err)
	}

	bag, _, err := ApplyStageMutation(ctx, db, p.ID, ref, stagedoc.ActionUpdateInArray,
		map[string]any{"id": "p1", "fieldToUpdate": "name", "newValue": "Ana R."})
	if err != nil {
		t.Fatalf("update_in_array: %v", err)
	}
	personas := bag["empathize"].(map[string]any)["personas"].([]any)
	if len(personas) != 1 {
		t.Fatalf("rename duplicated the persona: %#v", personas)
	}
	if personas[0].(map[string]any)["name"] != "Ana R." {
		t.Fatalf("rename not applied: %#v", personas[0])
	}
}

func TestApplyStageMutation_ValidationPassthrough(t *testing.T) {
	db := fullDB(t)
	ctx := context.Background()
	p, _ := CreateProject(ctx, db, "u1", "t")

	_, _, err := ApplyStageMutation(ctx, db, p.ID,
		stagedoc.NewRef("bogus", "personas"), stagedoc.ActionSet, "x")
	if !errors.Is(err, stagedoc.ErrInvalidStage) {
		t.Fatalf("expected ErrInvalidStage, got %v", err)
	}

	_, _, err = ApplyStageMutation(ctx, db, "missing",
		stagedoc.NewRef("empathize", "personas"), stagedoc.ActionSet, "x")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceStage_VersionConflict(t *testing.T) {
	db := fullDB(t)
	ctx := context.Background()
	p, _ := CreateProject(ctx, db, "u1", "t")

	data := map[string]any{"checklist": map[string]any{"wrotePov": true}}
	_, v1, err := ReplaceStage(ctx, db, p.ID, "define", data, nil)
	if err != nil {
		t.Fatalf("ReplaceStage: %v", err)
	}
	if v1 != 1 {
		t.Fatalf("expected version 1, got %d", v1)
	}

	// Matching version succeeds.
	bag, v2, err := ReplaceStage(ctx, db, p.ID, "define", map[string]any{"x": 1}, &v1)
	if err != nil {
		t.Fatalf("ReplaceStage with matching version: %v", err)
	}
	if v2 != 2 || bag["define"].(map[string]any)["x"] == nil {
		t.Fatalf("unexpected result: v=%d bag=%#v", v2, bag)
	}

	// Stale version is rejected.
	stale := int64(0)
	if _, _, err := ReplaceStage(ctx, db, p.ID, "define", data, &stale); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestDeleteProject_CascadesDependents(t *testing.T) {
	db := fullDB(t)
	ctx := context.Background()
	p, _ := CreateProject(ctx, db, "u1", "t")

	if _, err := AppendMessage(ctx, db, p.ID, "user", "hi"); err != nil {
		t.Fatalf("seed message: %v", err)
	}
	if _, err := UpsertIdeation(ctx, db, p.ID, domain.Brainstorming{}, domain.Matrix{}, domain.Specs{}); err != nil {
		t.Fatalf("seed ideation: %v", err)
	}

	if err := DeleteProject(ctx, db, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}

	if _, err := GetProject(ctx, db, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("project should be gone, got %v", err)
	}
	if _, err := GetIdeation(ctx, db, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ideation should be gone, got %v", err)
	}
	if n, err := CountMessages(ctx, db, p.ID); err != nil || n != 0 {
		t.Fatalf("messages should be gone, n=%d err=%v", n, err)
	}
	if _, err := GetShare(ctx, db, p.ID, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("share should be gone, got %v", err)
	}

	if err := DeleteProject(ctx, db, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestUpsertShare_UpdatesPermission(t *testing.T) {
	db := fullDB(t)
	ctx := context.Background()
	p, _ := CreateProject(ctx, db, "u1", "t")

	s, err := UpsertShare(ctx, db, p.ID, "u2", domain.PermissionBasic)
	if err != nil {
		t.Fatalf("UpsertShare: %v", err)
	}
	if s.Permission != domain.PermissionBasic {
		t.Fatalf("unexpected grant: %+v", s)
	}

	s2, err := UpsertShare(ctx, db, p.ID, "u2", domain.PermissionOwner)
	if err != nil {
		t.Fatalf("UpsertShare update: %v", err)
	}
	if s2.ID != s.ID || s2.Permission != domain.PermissionOwner {
		t.Fatalf("expected permission upgrade on same row: %+v", s2)
	}

	shares, err := ListShares(ctx, db, p.ID)
	if err != nil {
		t.Fatalf("ListShares: %v", err)
	}
	if len(shares) != 2 { // creator + u2
		t.Fatalf("expected 2 grants, got %d", len(shares))
	}
}

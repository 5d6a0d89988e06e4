package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_test_%d.db", time.Now().UnixNano()))
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

	if err := db.AutoMigrate(
		&domain.Project{}, &domain.Message{}, &domain.ProjectShare{},
		&domain.Ideation{}, &domain.Idempotency{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestProjectService_Create_Defaults(t *testing.T) {
	svc := &ProjectService{DB: newServiceDB(t)}

	p, err := svc.Create(context.Background(), "u1", "   ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Title != defaultProjectTitle {
		t.Fatalf("blank title should fall back to placeholder, got %q", p.Title)
	}
	if p.Phase != domain.PhaseEmpathize {
		t.Fatalf("new project should start in empathize, got %q", p.Phase)
	}
}

func TestProjectService_Create_TitleTooLong(t *testing.T) {
	svc := &ProjectService{DB: newServiceDB(t), MaxTitleRunes: 5}

	if _, err := svc.Create(context.Background(), "u1", "much too long"); !errors.Is(err, ErrTitleTooLong) {
		t.Fatalf("expected ErrTitleTooLong, got %v", err)
	}
}

func TestProjectService_Get_HidesForeignProjects(t *testing.T) {
	db := newServiceDB(t)
	svc := &ProjectService{DB: db}
	ctx := context.Background()

	p, _ := svc.Create(ctx, "u1", "t")

	if _, err := svc.Get(ctx, "u1", p.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	// Non-member sees not-found, never forbidden: no existence probing.
	if _, err := svc.Get(ctx, "intruder", p.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestProjectService_AdvancePhase(t *testing.T) {
	db := newServiceDB(t)
	svc := &ProjectService{DB: db}
	ctx := context.Background()

	p, _ := svc.Create(ctx, "u1", "t")

	// Same phase: idempotent no-op.
	if _, err := svc.AdvancePhase(ctx, "u1", p.ID, domain.PhaseEmpathize); err != nil {
		t.Fatalf("idempotent advance: %v", err)
	}

	// Skipping ahead is rejected.
	if _, err := svc.AdvancePhase(ctx, "u1", p.ID, domain.PhaseIdeate); !errors.Is(err, ErrPhaseNotNext) {
		t.Fatalf("expected ErrPhaseNotNext, got %v", err)
	}

	// One step forward works.
	got, err := svc.AdvancePhase(ctx, "u1", p.ID, domain.PhaseDefine)
	if err != nil || got.Phase != domain.PhaseDefine {
		t.Fatalf("advance to define: %+v, %v", got, err)
	}

	// Moving backwards is rejected.
	if _, err := svc.AdvancePhase(ctx, "u1", p.ID, domain.PhaseEmpathize); !errors.Is(err, ErrPhaseNotNext) {
		t.Fatalf("expected ErrPhaseNotNext going backwards, got %v", err)
	}

	// Garbage phase.
	if _, err := svc.AdvancePhase(ctx, "u1", p.ID, "polish"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}
}

func TestProjectService_Share_OwnerOnly(t *testing.T) {
	db := newServiceDB(t)
	svc := &ProjectService{DB: db}
	ctx := context.Background()

	p, _ := svc.Create(ctx, "u1", "t")

	share, err := svc.Share(ctx, "u1", p.ID, "u2", domain.PermissionBasic)
	if err != nil || share.Permission != domain.PermissionBasic {
		t.Fatalf("Share: %+v, %v", share, err)
	}

	// Basic members cannot re-share.
	if _, err := svc.Share(ctx, "u2", p.ID, "u3", domain.PermissionBasic); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Permission outside the allowed set.
	if _, err := svc.Share(ctx, "u1", p.ID, "u3", "admin"); !errors.Is(err, ErrInvalidPermission) {
		t.Fatalf("expected ErrInvalidPermission, got %v", err)
	}
}

type blobRecorder struct {
	deleted []string
	err     error
}

func (b *blobRecorder) DeleteProjectBlobs(_ context.Context, projectID string) error {
	b.deleted = append(b.deleted, projectID)
	return b.err
}

func TestProjectService_Delete_CallsBlobCleanup(t *testing.T) {
	db := newServiceDB(t)
	blobs := &blobRecorder{}
	svc := &ProjectService{DB: db, Blobs: blobs}
	ctx := context.Background()

	p, _ := svc.Create(ctx, "u1", "t")

	if err := svc.Delete(ctx, "u1", p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(blobs.deleted) != 1 || blobs.deleted[0] != p.ID {
		t.Fatalf("blob cleanup not invoked: %v", blobs.deleted)
	}
	if _, err := svc.Get(ctx, "u1", p.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("project should be gone, got %v", err)
	}
}

func TestProjectService_Delete_BlobFailureIsNonFatal(t *testing.T) {
	db := newServiceDB(t)
	svc := &ProjectService{DB: db, Blobs: &blobRecorder{err: errors.New("s3 down")}}
	ctx := context.Background()

	p, _ := svc.Create(ctx, "u1", "t")
	if err := svc.Delete(ctx, "u1", p.ID); err != nil {
		t.Fatalf("blob failure should not fail the delete: %v", err)
	}
}

func TestProjectService_ListPage(t *testing.T) {
	db := newServiceDB(t)
	svc := &ProjectService{DB: db}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, "u1", fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	items, total, err := svc.ListPage(ctx, "u1", 1, 2)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("total=%d len=%d", total, len(items))
	}

	// Pagination defaults kick in for nonsense values.
	items, total, err = svc.ListPage(ctx, "u1", -2, 0)
	if err != nil || total != 3 || len(items) != 3 {
		t.Fatalf("defaulted page: total=%d len=%d err=%v", total, len(items), err)
	}

	// Strangers see nothing.
	if _, total, _ := svc.ListPage(ctx, "nobody", 1, 10); total != 0 {
		t.Fatalf("expected empty listing, got %d", total)
	}
}

func TestProjectService_Create_TrimsTitle(t *testing.T) {
	svc := &ProjectService{DB: newServiceDB(t)}

	p, err := svc.Create(context.Background(), "u1", "  Commuter pain points  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if strings.HasPrefix(p.Title, " ") || strings.HasSuffix(p.Title, " ") {
		t.Fatalf("title not trimmed: %q", p.Title)
	}
}

package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
)

func TestIdempotency_CreateGetAndExpiry(t *testing.T) {
	db := newRepoDB(t, &domain.Idempotency{})
	ctx := context.Background()

	rec, err := CreateIdempotency(ctx, db, "u1", "proj1", "k1", 200, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ID == "" || rec.Status != 200 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "u1", "proj1", "k1", time.Now().UTC())
	if err != nil || got == nil {
		t.Fatalf("GetIdempotency: %v", err)
	}

	// Expired records are invisible.
	if _, err := GetIdempotency(ctx, db, "u1", "proj1", "k1", time.Now().UTC().Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired record, got %v", err)
	}

	// Empty project id short-circuits.
	if _, err := GetIdempotency(ctx, db, "u1", "", "k1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty project id, got %v", err)
	}
}

func TestIdempotency_DuplicateKey(t *testing.T) {
	db := newRepoDB(t, &domain.Idempotency{})
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "proj1", "k1", 200, time.Hour); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "u1", "proj1", "k1", 200, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testGorm(t *testing.T) *Gorm {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	g := NewGorm(db)
	if err := g.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return g
}

func TestGormLookup(t *testing.T) {
	g := testGorm(t)
	ctx := context.Background()

	err := g.Seed(ctx, Principal{
		ID:           "agent-1",
		Email:        "Alice@Example.com",
		Name:         "Alice",
		PasswordHash: "$argon2id$stub",
		Status:       StatusActive,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	p, err := g.ByID(ctx, "agent-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Email != "alice@example.com" {
		t.Fatalf("email not normalized on seed: %q", p.Email)
	}
	if p.Status != StatusActive {
		t.Fatalf("status %v", p.Status)
	}

	if _, err := g.ByEmail(ctx, "  ALICE@example.com "); err != nil {
		t.Fatalf("normalized email lookup: %v", err)
	}

	if _, err := g.ByID(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("absent id: got %v", err)
	}
	if _, err := g.ByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("absent email: got %v", err)
	}
}

func TestGormDuplicateEmailRejected(t *testing.T) {
	g := testGorm(t)
	ctx := context.Background()

	seed := Principal{ID: "agent-1", Email: "alice@example.com", PasswordHash: "h"}
	if err := g.Seed(ctx, seed); err != nil {
		t.Fatal(err)
	}
	seed.ID = "agent-2"
	if err := g.Seed(ctx, seed); err == nil {
		t.Fatal("duplicate email accepted")
	}
}

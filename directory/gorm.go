package directory

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// principalRow is the GORM mapping of the principals table owned by the
// application layer. This package only ever reads it.
type principalRow struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string
	PasswordHash string `gorm:"not null"`
	Status       uint8  `gorm:"not null;default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (principalRow) TableName() string { return "principals" }

// Gorm resolves principals from a SQL database through GORM.
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps an open *gorm.DB.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// Migrate creates the principals table. Intended for tests and bootstrap;
// production schemas are managed by the application's migrations.
func (g *Gorm) Migrate() error {
	return g.db.AutoMigrate(&principalRow{})
}

// ByID implements Directory.
func (g *Gorm) ByID(ctx context.Context, id string) (Principal, error) {
	var row principalRow
	err := g.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Principal{}, ErrNotFound
		}
		return Principal{}, err
	}
	return row.principal(), nil
}

// ByEmail implements Directory.
func (g *Gorm) ByEmail(ctx context.Context, email string) (Principal, error) {
	var row principalRow
	err := g.db.WithContext(ctx).First(&row, "email = ?", normalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Principal{}, ErrNotFound
		}
		return Principal{}, err
	}
	return row.principal(), nil
}

// Seed inserts a principal. Test and bootstrap helper.
func (g *Gorm) Seed(ctx context.Context, p Principal) error {
	row := principalRow{
		ID:           p.ID,
		Email:        normalizeEmail(p.Email),
		Name:         p.Name,
		PasswordHash: p.PasswordHash,
		Status:       uint8(p.Status),
		CreatedAt:    p.CreatedAt,
	}
	return g.db.WithContext(ctx).Create(&row).Error
}

func (r principalRow) principal() Principal {
	return Principal{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		Status:       Status(r.Status),
		CreatedAt:    r.CreatedAt,
	}
}

// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage implements all of them on one *sqlite.DB.
package repository

import (
	"context"

	"github.com/sakif/field-report/internal/model"
)

type UserRepository interface {
	// Create inserts a new user. It returns apperror.ErrConflict when the
	// username is already taken, including when a concurrent login won the race.
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*model.User, error)
	UpdateTokenHash(ctx context.Context, userID, tokenHash string) error
}

type AttendanceRepository interface {
	CreateAttendance(ctx context.Context, a *model.Attendance) error
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	// UpdateAvailability applies every update in one transaction. A store
	// fault on any entry rolls back the whole batch.
	UpdateAvailability(ctx context.Context, userID string, updates []model.AvailabilityUpdate) ([]model.AvailabilityResult, error)
}

type PromoRepository interface {
	CreatePromo(ctx context.Context, p *model.Promo) error
}

type ReportRepository interface {
	CreateReport(ctx context.Context, r *model.Report) error
}

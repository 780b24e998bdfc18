package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/field-report/internal/model"
	"github.com/sakif/field-report/internal/repository"
)

var (
	_ repository.AttendanceRepository = (*DB)(nil)
	_ repository.ProductRepository    = (*DB)(nil)
	_ repository.PromoRepository      = (*DB)(nil)
	_ repository.ReportRepository     = (*DB)(nil)
)

// CreateAttendance appends an attendance row and fills in ID and Timestamp.
func (db *DB) CreateAttendance(ctx context.Context, a *model.Attendance) error {
	a.ID = xid.New().String()
	a.Timestamp = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO attendance (id, user_id, status, reason, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID,
		a.UserID,
		a.Status,
		nullString(a.Reason),
		a.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting attendance for user %s: %w", a.UserID, err)
	}
	return nil
}

// CreateProduct inserts a single product report and fills in ID and CreatedAt.
func (db *DB) CreateProduct(ctx context.Context, p *model.Product) error {
	p.ID = xid.New().String()
	p.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO product (id, user_id, store_name, product_name, barcode, is_available, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.UserID,
		p.StoreName,
		p.ProductName,
		nullString(p.Barcode),
		nullBool(p.IsAvailable),
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting product for user %s: %w", p.UserID, err)
	}
	return nil
}

// UpdateAvailability sets is_available and moves created_at forward for each
// product matched on (user_id, id).
//
// All statements run in one transaction: an error on any entry rolls back the
// entries already applied, so the caller sees either the whole batch or none
// of it. An entry that matches no row is not an error; it comes back with
// Updated=false.
func (db *DB) UpdateAvailability(ctx context.Context, userID string, updates []model.AvailabilityUpdate) ([]model.AvailabilityResult, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning availability update: %w", err)
	}
	// Rollback after Commit is a no-op returning sql.ErrTxDone.
	defer tx.Rollback()

	now := time.Now().UTC()
	results := make([]model.AvailabilityResult, 0, len(updates))

	for i, u := range updates {
		res, err := tx.ExecContext(ctx,
			`UPDATE product SET is_available = ?, created_at = ?
			 WHERE id = ? AND user_id = ?`,
			u.IsAvailable, now, u.ProductID, userID,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: updating product %s (entry %d): %w", u.ProductID, i, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("sqlite: updating product %s (entry %d): %w", u.ProductID, i, err)
		}
		results = append(results, model.AvailabilityResult{ProductID: u.ProductID, Updated: n > 0})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing availability update: %w", err)
	}
	return results, nil
}

// CreatePromo inserts a promo report and fills in ID and CreatedAt.
func (db *DB) CreatePromo(ctx context.Context, p *model.Promo) error {
	p.ID = xid.New().String()
	p.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO promo (id, user_id, store_name, product_name, product_price, promo_price, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.UserID,
		p.StoreName,
		p.ProductName,
		p.ProductPrice,
		p.PromoPrice,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting promo for user %s: %w", p.UserID, err)
	}
	return nil
}

// CreateReport stores a generic report. Data is written as TEXT, byte for
// byte what the client sent.
func (db *DB) CreateReport(ctx context.Context, r *model.Report) error {
	r.ID = xid.New().String()
	r.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO reports (id, user_id, context, data, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.ID,
		r.UserID,
		r.Context,
		string(r.Data),
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting %s report for user %s: %w", r.Context, r.UserID, err)
	}
	return nil
}

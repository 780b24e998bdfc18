package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/field-report/internal/apperror"
	"github.com/sakif/field-report/internal/model"
	"github.com/sakif/field-report/internal/repository"
)

// MaxBatchProducts bounds one availability batch so a single request cannot
// hold the write transaction open indefinitely.
const MaxBatchProducts = 500

// ProductInput is a single product-availability submission.
// Barcode and IsAvailable are optional.
type ProductInput struct {
	StoreName   string
	ProductName string
	Barcode     *string
	IsAvailable *bool
}

// AvailabilityInput is one entry of a batch update. Both fields are
// required; IsAvailable is a pointer so "false" and "missing" differ.
type AvailabilityInput struct {
	ProductID   string
	IsAvailable *bool
}

// PromoInput is a promo submission. Prices are pointers so a missing price
// and a zero price produce distinct messages.
type PromoInput struct {
	StoreName    string
	ProductName  string
	ProductPrice *float64
	PromoPrice   *float64
}

// ReportService validates and stores field reports. Every report belongs to
// the authenticated user passed in by the handler.
type ReportService struct {
	attendance repository.AttendanceRepository
	products   repository.ProductRepository
	promos     repository.PromoRepository
	reports    repository.ReportRepository
	logger     *slog.Logger
}

// NewReportService creates a ReportService. In production all four
// repositories are the same *sqlite.DB.
func NewReportService(
	attendance repository.AttendanceRepository,
	products repository.ProductRepository,
	promos repository.PromoRepository,
	reports repository.ReportRepository,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		attendance: attendance,
		products:   products,
		promos:     promos,
		reports:    reports,
		logger:     logger,
	}
}

// SubmitAttendance appends an attendance row. Status is free text but must
// not be blank; a blank reason is stored as NULL.
func (s *ReportService) SubmitAttendance(ctx context.Context, userID, status string, reason *string) (*model.Attendance, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, apperror.ValidationFailed("status", "status wajib diisi")
	}

	a := &model.Attendance{
		UserID: userID,
		Status: status,
		Reason: optionalString(reason),
	}
	if err := s.attendance.CreateAttendance(ctx, a); err != nil {
		return nil, fmt.Errorf("service/report: storing attendance: %w", err)
	}

	s.logger.Info("attendance stored",
		slog.String("userID", userID),
		slog.String("status", a.Status),
	)
	return a, nil
}

// SubmitProduct stores a single product-availability report.
func (s *ReportService) SubmitProduct(ctx context.Context, userID string, in ProductInput) (*model.Product, error) {
	storeName := strings.TrimSpace(in.StoreName)
	productName := strings.TrimSpace(in.ProductName)
	if storeName == "" {
		return nil, apperror.ValidationFailed("store_name", "store_name dan product_name wajib")
	}
	if productName == "" {
		return nil, apperror.ValidationFailed("product_name", "store_name dan product_name wajib")
	}

	p := &model.Product{
		UserID:      userID,
		StoreName:   storeName,
		ProductName: productName,
		Barcode:     optionalString(in.Barcode),
		IsAvailable: in.IsAvailable,
	}
	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("service/report: storing product: %w", err)
	}

	s.logger.Info("product report stored",
		slog.String("userID", userID),
		slog.String("productID", p.ID),
	)
	return p, nil
}

// UpdateAvailability validates every entry first, then applies the batch
// atomically. Per-entry results say which product ids matched a product
// owned by userID.
//
// BATCH SEMANTICS:
//
//	[{"product_id":"a","is_available":false},   → {"product_id":"a","updated":true}
//	 {"product_id":"zz","is_available":true}]    → {"product_id":"zz","updated":false}
//
//  1. Validation runs over the whole list before any write, so a bad entry
//     at position 300 rejects the request with nothing applied.
//  2. The repository runs all UPDATEs in one transaction. A store fault on
//     any entry rolls back the ones before it.
//  3. An id that is unknown or belongs to another user is not a fault. It
//     matches zero rows and reports updated=false; the rest still commit.
func (s *ReportService) UpdateAvailability(ctx context.Context, userID string, in []AvailabilityInput) ([]model.AvailabilityResult, error) {
	if len(in) == 0 {
		return nil, apperror.ValidationFailed("products", "daftar produk tidak boleh kosong")
	}
	if len(in) > MaxBatchProducts {
		return nil, apperror.ValidationFailed("products",
			fmt.Sprintf("maksimal %d produk per permintaan", MaxBatchProducts))
	}

	updates := make([]model.AvailabilityUpdate, 0, len(in))
	for i, item := range in {
		id := strings.TrimSpace(item.ProductID)
		if id == "" {
			return nil, apperror.ValidationFailed(fmt.Sprintf("products[%d].product_id", i),
				fmt.Sprintf("product_id wajib diisi (item %d)", i))
		}
		if item.IsAvailable == nil {
			return nil, apperror.ValidationFailed(fmt.Sprintf("products[%d].is_available", i),
				fmt.Sprintf("is_available wajib diisi (item %d)", i))
		}
		updates = append(updates, model.AvailabilityUpdate{ProductID: id, IsAvailable: *item.IsAvailable})
	}

	results, err := s.products.UpdateAvailability(ctx, userID, updates)
	if err != nil {
		return nil, fmt.Errorf("service/report: updating availability (%d items): %w", len(updates), err)
	}

	s.logger.Info("product availability updated",
		slog.String("userID", userID),
		slog.Int("items", len(results)),
	)
	return results, nil
}

// SubmitPromo stores a promo report.
//
// All four fields are required and both prices must be greater than zero.
// A price of 0 is rejected like a missing one.
func (s *ReportService) SubmitPromo(ctx context.Context, userID string, in PromoInput) (*model.Promo, error) {
	storeName := strings.TrimSpace(in.StoreName)
	productName := strings.TrimSpace(in.ProductName)

	switch {
	case storeName == "":
		return nil, apperror.ValidationFailed("store_name", "Semua field wajib diisi")
	case productName == "":
		return nil, apperror.ValidationFailed("product_name", "Semua field wajib diisi")
	case in.ProductPrice == nil:
		return nil, apperror.ValidationFailed("product_price", "Semua field wajib diisi")
	case in.PromoPrice == nil:
		return nil, apperror.ValidationFailed("promo_price", "Semua field wajib diisi")
	case *in.ProductPrice <= 0:
		return nil, apperror.ValidationFailed("product_price", "product_price harus lebih dari 0")
	case *in.PromoPrice <= 0:
		return nil, apperror.ValidationFailed("promo_price", "promo_price harus lebih dari 0")
	}

	p := &model.Promo{
		UserID:       userID,
		StoreName:    storeName,
		ProductName:  productName,
		ProductPrice: *in.ProductPrice,
		PromoPrice:   *in.PromoPrice,
	}
	if err := s.promos.CreatePromo(ctx, p); err != nil {
		return nil, fmt.Errorf("service/report: storing promo: %w", err)
	}

	s.logger.Info("promo report stored",
		slog.String("userID", userID),
		slog.String("promoID", p.ID),
	)
	return p, nil
}

// SubmitReport stores an opaque payload under reportContext.
//
// claimedUserID is the user_id from the request body. It must name the
// authenticated user; a body cannot file reports on someone else's behalf.
// data may be any JSON value except null; it is stored as sent, minus
// surrounding whitespace.
func (s *ReportService) SubmitReport(ctx context.Context, userID, reportContext, claimedUserID string, data json.RawMessage) (*model.Report, error) {
	reportContext = strings.TrimSpace(reportContext)
	claimedUserID = strings.TrimSpace(claimedUserID)

	if reportContext == "" {
		return nil, apperror.ValidationFailed("context", "context wajib diisi")
	}
	if claimedUserID == "" {
		return nil, apperror.ValidationFailed("user_id", "user_id dan report_data wajib")
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, apperror.ValidationFailed("report_data", "user_id dan report_data wajib")
	}
	if claimedUserID != userID {
		return nil, apperror.Forbidden("user_id tidak sesuai dengan token")
	}

	r := &model.Report{
		UserID:  userID,
		Context: reportContext,
		Data:    json.RawMessage(trimmed),
	}
	if err := s.reports.CreateReport(ctx, r); err != nil {
		return nil, fmt.Errorf("service/report: storing %s report: %w", reportContext, err)
	}

	s.logger.Info("report stored",
		slog.String("userID", userID),
		slog.String("context", reportContext),
		slog.String("reportID", r.ID),
	)
	return r, nil
}

// optionalString maps nil or blank input to nil, otherwise a trimmed copy.
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/field-report/internal/apperror"
	"github.com/sakif/field-report/internal/auth"
	"github.com/sakif/field-report/internal/model"
	"github.com/sakif/field-report/internal/service"
)

// ReportService is the part of service.ReportService the handler needs.
type ReportService interface {
	SubmitAttendance(ctx context.Context, userID, status string, reason *string) (*model.Attendance, error)
	SubmitProduct(ctx context.Context, userID string, in service.ProductInput) (*model.Product, error)
	UpdateAvailability(ctx context.Context, userID string, in []service.AvailabilityInput) ([]model.AvailabilityResult, error)
	SubmitPromo(ctx context.Context, userID string, in service.PromoInput) (*model.Promo, error)
	SubmitReport(ctx context.Context, userID, reportContext, claimedUserID string, data json.RawMessage) (*model.Report, error)
}

// ReportHandler serves the /v1/report endpoints. Every route is mounted
// behind auth.RequireAuth, so the authenticated user is in the context.
type ReportHandler struct {
	reports ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(reports ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// ----- request bodies -----

type attendanceRequest struct {
	Status string  `json:"status"`
	Reason *string `json:"reason"`
}

type productRequest struct {
	StoreName   string  `json:"store_name"`
	ProductName string  `json:"product_name"`
	Barcode     *string `json:"barcode"`
	IsAvailable *bool   `json:"is_available"`
}

type availabilityRequest struct {
	ProductID   string `json:"product_id"`
	IsAvailable *bool  `json:"is_available"`
}

type promoRequest struct {
	StoreName    string   `json:"store_name"`
	ProductName  string   `json:"product_name"`
	ProductPrice *float64 `json:"product_price"`
	PromoPrice   *float64 `json:"promo_price"`
}

type reportRequest struct {
	UserID     string          `json:"user_id"`
	ReportData json.RawMessage `json:"report_data"`
}

// currentUser returns the user set by auth.RequireAuth, writing a 401 when
// the route was mounted without it.
func (h *ReportHandler) currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(h.logger, w, r, apperror.Unauthorized("Token diperlukan"))
		return nil, false
	}
	return user, true
}

// HandleAttendance records an attendance report.
//
// HTTP: POST /v1/report/attendance
// REQUEST BODY: {"status": "present", "reason": "optional"}
func (h *ReportHandler) HandleAttendance(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req attendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	a, err := h.reports.SubmitAttendance(r.Context(), user.ID, req.Status, req.Reason)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	writeSuccess(w, "Attendance berhasil", a)
}

// HandleSubmitProduct accepts two body shapes:
//
//	{"store_name": "...", "product_name": "...", "barcode": "...", "is_available": true}
//	[{"product_id": "...", "is_available": false}, ...]
//
// The object form inserts one product report and returns the row. The array
// form updates availability of the caller's existing products in one
// transaction and returns [{"product_id": "...", "updated": true}, ...].
//
// HTTP: POST /v1/report/submit-product
func (h *ReportHandler) HandleSubmitProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	switch trimmed := bytes.TrimSpace(raw); {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []availabilityRequest
		if err := json.Unmarshal(trimmed, &items); err != nil {
			respondError(h.logger, w, r, apperror.ValidationFailed("body", "Body JSON tidak valid"))
			return
		}
		in := make([]service.AvailabilityInput, len(items))
		for i, item := range items {
			in[i] = service.AvailabilityInput{ProductID: item.ProductID, IsAvailable: item.IsAvailable}
		}

		results, err := h.reports.UpdateAvailability(r.Context(), user.ID, in)
		if err != nil {
			respondError(h.logger, w, r, err)
			return
		}
		writeSuccess(w, "Update produk berhasil", results)

	case len(trimmed) > 0 && trimmed[0] == '{':
		var req productRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			respondError(h.logger, w, r, apperror.ValidationFailed("body", "Body JSON tidak valid"))
			return
		}

		p, err := h.reports.SubmitProduct(r.Context(), user.ID, service.ProductInput{
			StoreName:   req.StoreName,
			ProductName: req.ProductName,
			Barcode:     req.Barcode,
			IsAvailable: req.IsAvailable,
		})
		if err != nil {
			respondError(h.logger, w, r, err)
			return
		}
		writeSuccess(w, "Product report berhasil", p)

	default:
		respondError(h.logger, w, r,
			apperror.ValidationFailed("body", "Body harus berupa objek produk atau daftar produk"))
	}
}

// HandleSubmitPromo records a promo price report.
//
// HTTP: POST /v1/report/submit-promo
// REQUEST BODY: {"store_name", "product_name", "product_price", "promo_price"}
func (h *ReportHandler) HandleSubmitPromo(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req promoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	p, err := h.reports.SubmitPromo(r.Context(), user.ID, service.PromoInput{
		StoreName:    req.StoreName,
		ProductName:  req.ProductName,
		ProductPrice: req.ProductPrice,
		PromoPrice:   req.PromoPrice,
	})
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	writeSuccess(w, "Promo report berhasil", p)
}

// HandleReport stores a schema-less report under the {context} path segment.
//
// HTTP: POST /v1/report/{context}
// REQUEST BODY: {"user_id": "<caller's id>", "report_data": <any JSON>}
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req reportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	rep, err := h.reports.SubmitReport(r.Context(), user.ID, chi.URLParam(r, "context"), req.UserID, req.ReportData)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	writeSuccess(w, "Report berhasil", rep)
}

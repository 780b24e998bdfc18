package model

import (
	"encoding/json"
	"time"
)

// Attendance is one check-in style report. Rows are append-only; the same
// user may report several times a day.
type Attendance struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"user_id"   db:"user_id"`
	Status    string    `json:"status"    db:"status"`
	Reason    *string   `json:"reason"    db:"reason"` // nil when not given
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Product is a product-availability report for one store.
//
// Barcode and IsAvailable are nullable: a single submission may omit them.
// CreatedAt is the time availability was last reported, so batch updates
// move it forward.
type Product struct {
	ID          string    `json:"id"           db:"id"`
	UserID      string    `json:"user_id"      db:"user_id"`
	StoreName   string    `json:"store_name"   db:"store_name"`
	ProductName string    `json:"product_name" db:"product_name"`
	Barcode     *string   `json:"barcode"      db:"barcode"`
	IsAvailable *bool     `json:"is_available" db:"is_available"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
}

// AvailabilityUpdate is one entry of a batch availability update.
type AvailabilityUpdate struct {
	ProductID   string `json:"product_id"`
	IsAvailable bool   `json:"is_available"`
}

// AvailabilityResult reports whether a batch entry matched a product owned
// by the caller.
type AvailabilityResult struct {
	ProductID string `json:"product_id"`
	Updated   bool   `json:"updated"`
}

// Promo is a promotional price observed in a store.
type Promo struct {
	ID           string    `json:"id"            db:"id"`
	UserID       string    `json:"user_id"       db:"user_id"`
	StoreName    string    `json:"store_name"    db:"store_name"`
	ProductName  string    `json:"product_name"  db:"product_name"`
	ProductPrice float64   `json:"product_price" db:"product_price"`
	PromoPrice   float64   `json:"promo_price"   db:"promo_price"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
}

// Report is a schema-less report filed under a free-form context such as
// "competitor" or "display". Data is stored exactly as the client sent it.
type Report struct {
	ID        string          `json:"id"         db:"id"`
	UserID    string          `json:"user_id"    db:"user_id"`
	Context   string          `json:"context"    db:"context"`
	Data      json.RawMessage `json:"data"       db:"data"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

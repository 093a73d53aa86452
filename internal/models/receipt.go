package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt statuses. A receipt moves pending -> booked exactly once.
const (
	ReceiptStatusPending = "pending"
	ReceiptStatusBooked  = "booked"
)

type Receipt struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Vendor      string          `json:"vendor" db:"vendor"`
	InvoiceDate time.Time       `json:"invoice_date" db:"invoice_date"`
	Total       decimal.Decimal `json:"total" db:"total"`
	Vat         decimal.Decimal `json:"vat" db:"vat"`
	Currency    string          `json:"currency" db:"currency"`
	Status      string          `json:"status" db:"status"`
	RawText     *string         `json:"raw_text" db:"raw_text"`
	FileKey     *string         `json:"file_key" db:"file_key"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at" db:"updated_at"`
	CreatedBy   *uuid.UUID      `json:"created_by" db:"created_by"`

	// Booking is attached by the repository when one exists.
	Booking *Booking `json:"booking,omitempty" db:"-"`
}

// IsBooked reports whether the receipt completed its one and only transition.
func (r *Receipt) IsBooked() bool {
	return r.Status == ReceiptStatusBooked && r.Booking != nil
}

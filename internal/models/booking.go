package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking records a successful ledger transaction for one receipt.
// At most one booking exists per receipt; the voucher id never changes
// once written.
type Booking struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ReceiptID uuid.UUID `json:"receipt_id" db:"receipt_id"`
	VoucherID string    `json:"voucher_id" db:"voucher_id"`
	BookedAt  time.Time `json:"booked_at" db:"booked_at"`
}

package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"receiptdesk/internal/models"
)

// Corrections carries user-supplied overrides for a receipt's extracted
// fields. Every field is optional; unknown JSON keys are dropped by
// decoding. A field that is blank or fails to parse is skipped on its own,
// it never blocks the other corrections or the booking itself.
type Corrections struct {
	Vendor      *string `json:"vendor"`
	InvoiceDate *string `json:"invoiceDate"`
	Total       *string `json:"total"`
	Vat         *string `json:"vat"`
	Currency    *string `json:"currency"`
	RawText     *string `json:"rawText"`
}

// Apply merges the corrections onto the receipt in place.
func (c *Corrections) Apply(receipt *models.Receipt) {
	if c == nil {
		return
	}

	if c.Vendor != nil && strings.TrimSpace(*c.Vendor) != "" {
		receipt.Vendor = *c.Vendor
	}

	if c.InvoiceDate != nil {
		if parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*c.InvoiceDate)); err == nil {
			receipt.InvoiceDate = parsed
		}
	}

	if c.Total != nil {
		if parsed, err := decimal.NewFromString(strings.TrimSpace(*c.Total)); err == nil {
			receipt.Total = parsed
		}
	}

	if c.Vat != nil {
		if parsed, err := decimal.NewFromString(strings.TrimSpace(*c.Vat)); err == nil {
			receipt.Vat = parsed
		}
	}

	if c.Currency != nil && strings.TrimSpace(*c.Currency) != "" {
		receipt.Currency = *c.Currency
	}

	if c.RawText != nil {
		receipt.RawText = c.RawText
	}
}

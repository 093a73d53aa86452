package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"receiptdesk/internal/models"
)

func baseReceipt() *models.Receipt {
	rawText := "original text"
	return &models.Receipt{
		Vendor:      "Original Vendor",
		InvoiceDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Total:       decimal.RequireFromString("10.00"),
		Vat:         decimal.RequireFromString("1.90"),
		Currency:    "EUR",
		RawText:     &rawText,
	}
}

func strPtr(s string) *string { return &s }

func TestCorrections_ApplyValidFields(t *testing.T) {
	receipt := baseReceipt()

	corrections := &Corrections{
		Vendor:      strPtr("New Vendor"),
		InvoiceDate: strPtr("2025-04-20"),
		Total:       strPtr("42.50"),
		Vat:         strPtr("6.79"),
		Currency:    strPtr("USD"),
		RawText:     strPtr("new text"),
	}
	corrections.Apply(receipt)

	assert.Equal(t, "New Vendor", receipt.Vendor)
	assert.Equal(t, time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC), receipt.InvoiceDate)
	assert.Equal(t, "42.50", receipt.Total.StringFixed(2))
	assert.Equal(t, "6.79", receipt.Vat.StringFixed(2))
	assert.Equal(t, "USD", receipt.Currency)
	assert.Equal(t, "new text", *receipt.RawText)
}

func TestCorrections_UnparsableValuesLeaveFieldsUnchanged(t *testing.T) {
	receipt := baseReceipt()

	corrections := &Corrections{
		InvoiceDate: strPtr("not-a-date"),
		Total:       strPtr("forty-two"),
		Vat:         strPtr(""),
	}
	corrections.Apply(receipt)

	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), receipt.InvoiceDate)
	assert.Equal(t, "10.00", receipt.Total.StringFixed(2))
	assert.Equal(t, "1.90", receipt.Vat.StringFixed(2))
}

func TestCorrections_BadFieldDoesNotBlockValidField(t *testing.T) {
	receipt := baseReceipt()

	corrections := &Corrections{
		InvoiceDate: strPtr("not-a-date"),
		Total:       strPtr("42.50"),
	}
	corrections.Apply(receipt)

	assert.Equal(t, "42.50", receipt.Total.StringFixed(2))
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), receipt.InvoiceDate)
}

func TestCorrections_BlankVendorAndCurrencySkipped(t *testing.T) {
	receipt := baseReceipt()

	corrections := &Corrections{
		Vendor:   strPtr("   "),
		Currency: strPtr(""),
	}
	corrections.Apply(receipt)

	assert.Equal(t, "Original Vendor", receipt.Vendor)
	assert.Equal(t, "EUR", receipt.Currency)
}

func TestCorrections_NilIsANoOp(t *testing.T) {
	receipt := baseReceipt()
	var corrections *Corrections
	corrections.Apply(receipt)

	assert.Equal(t, "Original Vendor", receipt.Vendor)
	assert.Equal(t, "10.00", receipt.Total.StringFixed(2))
}

func TestCorrections_UnknownJSONKeysIgnored(t *testing.T) {
	payload := `{"total":"42.50","bogusKey":"whatever","anotherOne":123}`

	var corrections Corrections
	err := json.Unmarshal([]byte(payload), &corrections)
	assert.NoError(t, err)

	receipt := baseReceipt()
	corrections.Apply(receipt)

	assert.Equal(t, "42.50", receipt.Total.StringFixed(2))
	assert.Equal(t, "Original Vendor", receipt.Vendor)
}

func TestCorrections_RawTextMayBeSetToEmpty(t *testing.T) {
	receipt := baseReceipt()

	corrections := &Corrections{RawText: strPtr("")}
	corrections.Apply(receipt)

	assert.NotNil(t, receipt.RawText)
	assert.Equal(t, "", *receipt.RawText)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"receiptdesk/internal/caching"
	"receiptdesk/internal/models"
	"receiptdesk/internal/repositories"
)

// ErrReceiptNotFound is surfaced when a booking request names an unknown
// receipt id.
var ErrReceiptNotFound = errors.New("receipt not found")

// BookingServiceInterface drives the receipt state machine: a receipt is
// booked at most once, and repeated requests return the same voucher id.
type BookingServiceInterface interface {
	BookReceipt(ctx context.Context, receiptID uuid.UUID, corrections *Corrections) (string, error)
}

type bookingService struct {
	receiptRepo  repositories.ReceiptRepository
	ledgerClient LedgerClient
	cacheSvc     caching.CacheService
}

func NewBookingService(receiptRepo repositories.ReceiptRepository, ledgerClient LedgerClient, cacheSvc caching.CacheService) BookingServiceInterface {
	return &bookingService{
		receiptRepo:  receiptRepo,
		ledgerClient: ledgerClient,
		cacheSvc:     cacheSvc,
	}
}

// BookReceipt loads the receipt, applies corrections, requests a voucher
// from the ledger and persists the transition as one transactional unit.
//
// Already-booked receipts short-circuit to the existing voucher id without
// touching the ledger again, so client retries after a timeout can never
// create a duplicate voucher. A ledger failure leaves the receipt pending
// and bookable; nothing is persisted, including the staged corrections.
func (s *bookingService) BookReceipt(ctx context.Context, receiptID uuid.UUID, corrections *Corrections) (string, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrReceiptNotFound
		}
		return "", fmt.Errorf("failed to load receipt %s: %w", receiptID, err)
	}

	if receipt.IsBooked() {
		return receipt.Booking.VoucherID, nil
	}

	corrections.Apply(receipt)
	now := time.Now().UTC()
	receipt.UpdatedAt = &now

	rawText := ""
	if receipt.RawText != nil {
		rawText = *receipt.RawText
	}

	voucherID, err := s.ledgerClient.CreateVoucher(ctx, VoucherRequest{
		Vendor:   receipt.Vendor,
		Date:     receipt.InvoiceDate.Format("2006-01-02"),
		Total:    receipt.Total,
		Vat:      receipt.Vat,
		Currency: receipt.Currency,
		RawText:  rawText,
	})
	if err != nil {
		log.Printf("Ledger booking failed for receipt %s: %v", receipt.ID, err)
		return "", err
	}

	receipt.Status = models.ReceiptStatusBooked
	booking := &models.Booking{
		ID:        uuid.New(),
		ReceiptID: receipt.ID,
		VoucherID: voucherID,
		BookedAt:  now,
	}

	if err := s.receiptRepo.Book(ctx, receipt, booking); err != nil {
		if errors.Is(err, repositories.ErrDuplicateBooking) {
			// A concurrent request won the race past the short-circuit.
			// The store's unique constraint rejected our booking; the
			// winner's voucher is the answer for both callers.
			return s.resolveExistingBooking(ctx, receiptID)
		}
		return "", fmt.Errorf("failed to persist booking for receipt %s: %w", receipt.ID, err)
	}

	if err := s.cacheSvc.InvalidateReceipts(ctx); err != nil {
		log.Printf("Failed to invalidate receipt cache after booking: %v", err)
	}

	return voucherID, nil
}

func (s *bookingService) resolveExistingBooking(ctx context.Context, receiptID uuid.UUID) (string, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, receiptID)
	if err != nil {
		return "", fmt.Errorf("failed to re-read receipt %s after booking conflict: %w", receiptID, err)
	}
	if receipt.Booking == nil {
		return "", fmt.Errorf("booking conflict for receipt %s but no booking found on re-read", receiptID)
	}
	return receipt.Booking.VoucherID, nil
}

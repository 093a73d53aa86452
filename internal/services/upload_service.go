package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"receiptdesk/internal/caching"
	"receiptdesk/internal/models"
	"receiptdesk/internal/repositories"
)

// DefaultVendor is used whenever extraction cannot name one.
const DefaultVendor = "Uploaded Receipt"

// UploadServiceInterface turns an uploaded file into a pending receipt.
// The upload always succeeds when the file is storable; OCR unavailability
// just means the receipt starts out with defaults.
type UploadServiceInterface interface {
	Ingest(ctx context.Context, filename string, size int64, reader io.Reader, createdBy *uuid.UUID) (*models.Receipt, error)
}

type uploadService struct {
	receiptRepo repositories.ReceiptRepository
	storage     MinioService
	ocrClient   OCRClient
	cacheSvc    caching.CacheService
}

func NewUploadService(receiptRepo repositories.ReceiptRepository, storage MinioService, ocrClient OCRClient, cacheSvc caching.CacheService) UploadServiceInterface {
	return &uploadService{
		receiptRepo: receiptRepo,
		storage:     storage,
		ocrClient:   ocrClient,
		cacheSvc:    cacheSvc,
	}
}

func (s *uploadService) Ingest(ctx context.Context, filename string, size int64, reader io.Reader, createdBy *uuid.UUID) (*models.Receipt, error) {
	// Random object name keeps uploads collision-proof while the original
	// extension is preserved for content-type detection.
	objectName := uuid.NewString() + filepath.Ext(filename)

	if err := s.storage.UploadReceiptFile(ctx, objectName, reader, size); err != nil {
		return nil, fmt.Errorf("failed to store uploaded file: %w", err)
	}

	result := s.ocrClient.Extract(ctx, objectName)
	if result == nil {
		log.Printf("OCR extraction unavailable for %s, falling back to defaults", objectName)
	}

	now := time.Now().UTC()
	receipt := &models.Receipt{
		ID:          uuid.New(),
		Vendor:      DefaultVendor,
		InvoiceDate: now.Truncate(24 * time.Hour),
		Total:       decimal.Zero,
		Vat:         decimal.Zero,
		Currency:    "EUR",
		Status:      models.ReceiptStatusPending,
		FileKey:     &objectName,
		CreatedAt:   now,
		CreatedBy:   createdBy,
	}

	if result != nil {
		if result.Vendor != "" {
			receipt.Vendor = result.Vendor
		}
		receipt.InvoiceDate = result.InvoiceDate
		receipt.Total = result.Total
		receipt.Vat = result.Vat
		receipt.Currency = result.Currency
		if result.RawText != "" {
			rawText := result.RawText
			receipt.RawText = &rawText
		}
	}

	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		return nil, fmt.Errorf("failed to create receipt: %w", err)
	}

	if err := s.cacheSvc.InvalidateReceipts(ctx); err != nil {
		log.Printf("Failed to invalidate receipt cache after upload: %v", err)
	}

	return receipt, nil
}

package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"receiptdesk/internal/caching"
	"receiptdesk/internal/models"
	"receiptdesk/internal/repositories"
)

const receiptListCacheTTL = 30 * time.Second

// ReceiptServiceInterface exposes read access to receipts for the
// presentation layer.
type ReceiptServiceInterface interface {
	List(ctx context.Context, status string, page, pageSize int) ([]*models.Receipt, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
}

type receiptService struct {
	receiptRepo repositories.ReceiptRepository
	cacheSvc    caching.CacheService
}

func NewReceiptService(receiptRepo repositories.ReceiptRepository, cacheSvc caching.CacheService) ReceiptServiceInterface {
	return &receiptService{
		receiptRepo: receiptRepo,
		cacheSvc:    cacheSvc,
	}
}

func (s *receiptService) List(ctx context.Context, status string, page, pageSize int) ([]*models.Receipt, error) {
	cached, err := s.cacheSvc.GetReceiptPage(ctx, status, page, pageSize)
	if err != nil {
		log.Printf("Receipt cache read failed: %v", err)
	}
	if cached != nil {
		return cached, nil
	}

	offset := (page - 1) * pageSize
	receipts, err := s.receiptRepo.List(ctx, status, pageSize, offset)
	if err != nil {
		return nil, err
	}

	if err := s.cacheSvc.SetReceiptPage(ctx, status, page, pageSize, receipts, receiptListCacheTTL); err != nil {
		log.Printf("Receipt cache write failed: %v", err)
	}

	return receipts, nil
}

func (s *receiptService) Get(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}
	return receipt, nil
}

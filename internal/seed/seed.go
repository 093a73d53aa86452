package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"receiptdesk/internal/models"
	"receiptdesk/internal/repositories"
)

const (
	demoUsername = "demo"
	demoPassword = "demo123!"
)

// Run creates the demo user and a handful of sample receipts so a fresh
// environment is immediately usable. It is idempotent: existing rows are
// left alone.
func Run(ctx context.Context, userRepo repositories.UserRepository, receiptRepo repositories.ReceiptRepository) error {
	demoUser, err := userRepo.GetByUsername(ctx, demoUsername)
	if errors.Is(err, repositories.ErrUserNotFound) {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
		if hashErr != nil {
			return fmt.Errorf("failed to hash demo password: %w", hashErr)
		}
		demoUser = &models.User{
			ID:           uuid.New(),
			Username:     demoUsername,
			DisplayName:  "Demo User",
			PasswordHash: string(hash),
			CreatedAt:    time.Now().UTC(),
		}
		if err := userRepo.Create(ctx, demoUser); err != nil {
			return fmt.Errorf("failed to create demo user: %w", err)
		}
		log.Println("Created demo user")
	} else if err != nil {
		return fmt.Errorf("failed to look up demo user: %w", err)
	}

	samples := []struct {
		vendor  string
		date    time.Time
		total   string
		vat     string
		status  string
		rawText string
	}{
		{
			vendor:  "Demo Supermarket GmbH",
			date:    time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			total:   "23.85",
			vat:     "19.00",
			status:  models.ReceiptStatusBooked,
			rawText: "Demo Supermarket GmbH\nRechnung 2025-01-15\nGesamt 23,85 EUR\nMwSt 19%",
		},
		{
			vendor:  "Office Depot AG",
			date:    time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC),
			total:   "89.90",
			vat:     "19.00",
			status:  models.ReceiptStatusPending,
			rawText: "Office Depot AG\nRechnung 2025-01-16\nGesamt 89,90 EUR\nMwSt 19%",
		},
		{
			vendor:  "Bäckerei Sonnig",
			date:    time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC),
			total:   "5.40",
			vat:     "7.00",
			status:  models.ReceiptStatusPending,
			rawText: "Bäckerei Sonnig\nRechnung 2025-01-17\nGesamt 5,40 EUR\nMwSt 7%",
		},
	}

	for _, sample := range samples {
		if _, err := receiptRepo.FindByVendorAndDate(ctx, sample.vendor, sample.date); err == nil {
			continue
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to check existing seed receipt: %w", err)
		}

		total, _ := decimal.NewFromString(sample.total)
		vat, _ := decimal.NewFromString(sample.vat)
		rawText := sample.rawText

		receipt := &models.Receipt{
			ID:          uuid.New(),
			Vendor:      sample.vendor,
			InvoiceDate: sample.date,
			Total:       total,
			Vat:         vat,
			Currency:    "EUR",
			Status:      models.ReceiptStatusPending,
			RawText:     &rawText,
			CreatedAt:   time.Now().UTC(),
			CreatedBy:   &demoUser.ID,
		}

		if err := receiptRepo.Create(ctx, receipt); err != nil {
			return fmt.Errorf("failed to create seed receipt %q: %w", sample.vendor, err)
		}

		if sample.status == models.ReceiptStatusBooked {
			now := time.Now().UTC()
			receipt.Status = models.ReceiptStatusBooked
			receipt.UpdatedAt = &now
			booking := &models.Booking{
				ID:        uuid.New(),
				ReceiptID: receipt.ID,
				VoucherID: "demo-voucher-001",
				BookedAt:  now,
			}
			if err := receiptRepo.Book(ctx, receipt, booking); err != nil {
				return fmt.Errorf("failed to book seed receipt %q: %w", sample.vendor, err)
			}
		}

		log.Printf("Seeded receipt %q", sample.vendor)
	}

	return nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"receiptdesk/internal/models"
)

// Database is the subset of pgxpool.Pool the repositories use. pgxmock
// satisfies it in tests.
type Database interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ErrNotFound is returned when a receipt id is unknown to the store.
var ErrNotFound = errors.New("receipt not found")

// ErrDuplicateBooking is returned when the unique constraint on
// bookings.receipt_id rejects a second booking. The orchestrator resolves
// it by re-reading the winner.
var ErrDuplicateBooking = errors.New("booking already exists for receipt")

type ReceiptRepository interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	List(ctx context.Context, status string, limit, offset int) ([]*models.Receipt, error)
	// Book persists the corrected receipt fields, the status flip and the
	// booking row as one transaction.
	Book(ctx context.Context, receipt *models.Receipt, booking *models.Booking) error
	CountByStatus(ctx context.Context, status string) (int, error)
	FindByVendorAndDate(ctx context.Context, vendor string, invoiceDate time.Time) (*models.Receipt, error)
}

type receiptRepo struct {
	db Database
}

func NewReceiptRepo(db Database) ReceiptRepository {
	return &receiptRepo{db: db}
}

const receiptColumns = `r.id, r.vendor, r.invoice_date, r.total, r.vat, r.currency, r.status,
		       r.raw_text, r.file_key, r.created_at, r.updated_at, r.created_by,
		       b.id, b.voucher_id, b.booked_at`

func (r *receiptRepo) Create(ctx context.Context, receipt *models.Receipt) error {
	query := `
		INSERT INTO receipts (id, vendor, invoice_date, total, vat, currency, status, raw_text, file_key, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		receipt.ID, receipt.Vendor, receipt.InvoiceDate, receipt.Total, receipt.Vat,
		receipt.Currency, receipt.Status, receipt.RawText, receipt.FileKey,
		receipt.CreatedAt, receipt.UpdatedAt, receipt.CreatedBy)
	return err
}

func scanReceiptRow(row pgx.Row) (*models.Receipt, error) {
	receipt := &models.Receipt{}
	var bookingID *uuid.UUID
	var voucherID *string
	var bookedAt *time.Time

	err := row.Scan(&receipt.ID, &receipt.Vendor, &receipt.InvoiceDate, &receipt.Total,
		&receipt.Vat, &receipt.Currency, &receipt.Status, &receipt.RawText,
		&receipt.FileKey, &receipt.CreatedAt, &receipt.UpdatedAt, &receipt.CreatedBy,
		&bookingID, &voucherID, &bookedAt)
	if err != nil {
		return nil, err
	}

	if bookingID != nil {
		receipt.Booking = &models.Booking{
			ID:        *bookingID,
			ReceiptID: receipt.ID,
			VoucherID: *voucherID,
			BookedAt:  *bookedAt,
		}
	}
	return receipt, nil
}

func (r *receiptRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	query := `
		SELECT ` + receiptColumns + `
		FROM receipts r
		LEFT JOIN bookings b ON b.receipt_id = r.id
		WHERE r.id = $1
	`
	receipt, err := scanReceiptRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return receipt, nil
}

func (r *receiptRepo) List(ctx context.Context, status string, limit, offset int) ([]*models.Receipt, error) {
	query := `
		SELECT ` + receiptColumns + `
		FROM receipts r
		LEFT JOIN bookings b ON b.receipt_id = r.id
	`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE r.status = $1 ORDER BY r.created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, status, limit, offset)
	} else {
		query += ` ORDER BY r.created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []*models.Receipt
	for rows.Next() {
		receipt, err := scanReceiptRow(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}

func (r *receiptRepo) Book(ctx context.Context, receipt *models.Receipt, booking *models.Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin booking transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	updateQuery := `
		UPDATE receipts
		SET vendor = $1, invoice_date = $2, total = $3, vat = $4, currency = $5, raw_text = $6, status = $7, updated_at = $8
		WHERE id = $9
	`
	tag, err := tx.Exec(ctx, updateQuery,
		receipt.Vendor, receipt.InvoiceDate, receipt.Total, receipt.Vat,
		receipt.Currency, receipt.RawText, receipt.Status, receipt.UpdatedAt, receipt.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	insertQuery := `
		INSERT INTO bookings (id, receipt_id, voucher_id, booked_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, insertQuery, booking.ID, booking.ReceiptID, booking.VoucherID, booking.BookedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBooking
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *receiptRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM receipts WHERE status = $1`, status).Scan(&count)
	return count, err
}

// FindByVendorAndDate is used by the seeder to keep seeding idempotent.
func (r *receiptRepo) FindByVendorAndDate(ctx context.Context, vendor string, invoiceDate time.Time) (*models.Receipt, error) {
	query := `
		SELECT ` + receiptColumns + `
		FROM receipts r
		LEFT JOIN bookings b ON b.receipt_id = r.id
		WHERE r.vendor = $1 AND r.invoice_date = $2
	`
	receipt, err := scanReceiptRow(r.db.QueryRow(ctx, query, vendor, invoiceDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return receipt, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

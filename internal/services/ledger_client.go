package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"receiptdesk/internal/config"
)

// ErrLedgerFailed covers every ledger-side failure: non-2xx responses,
// blank voucher ids, malformed payloads and transport faults. Retrying is
// the caller's decision, never the client's.
var ErrLedgerFailed = errors.New("ledger rejected or unreachable")

// VoucherRequest is the payload for voucher creation at the ledger.
type VoucherRequest struct {
	Vendor   string          `json:"vendor"`
	Date     string          `json:"date"`
	Total    decimal.Decimal `json:"total"`
	Vat      decimal.Decimal `json:"vat"`
	Currency string          `json:"currency"`
	RawText  string          `json:"rawText"`
}

// LedgerClient books a receipt at the external accounting service. A single
// attempt per call, timeout bounded by the underlying transport.
type LedgerClient interface {
	CreateVoucher(ctx context.Context, req VoucherRequest) (string, error)
}

type ledgerClient struct {
	config     config.LedgerConfig
	httpClient *http.Client
}

func NewLedgerClient(cfg config.LedgerConfig) LedgerClient {
	return &ledgerClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type voucherResponse struct {
	VoucherID string `json:"voucherId"`
}

func (c *ledgerClient) CreateVoucher(ctx context.Context, payload VoucherRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIBase+"/api/v1/vouchers", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Cancellation belongs to the caller; everything else is a
		// ledger failure.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Printf("Failed to call ledger service: %v", err)
		return "", ErrLedgerFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("Ledger service returned status %d", resp.StatusCode)
		return "", ErrLedgerFailed
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Failed to read ledger response: %v", err)
		return "", ErrLedgerFailed
	}

	var parsed voucherResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Printf("Unable to decode ledger payload: %v", err)
		return "", ErrLedgerFailed
	}

	if strings.TrimSpace(parsed.VoucherID) == "" {
		log.Printf("Ledger response carried no voucher id")
		return "", ErrLedgerFailed
	}

	return parsed.VoucherID, nil
}

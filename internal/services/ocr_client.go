package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"receiptdesk/internal/config"
)

// ExtractResult is the structured guess the OCR service makes for an
// uploaded receipt image.
type ExtractResult struct {
	Vendor      string
	InvoiceDate time.Time
	Total       decimal.Decimal
	Vat         decimal.Decimal
	Currency    string
	RawText     string
}

// OCRClient attempts structured extraction for a stored receipt file.
// Extract returns nil whenever the service is unavailable in any way;
// it never propagates a transport or parse fault to the caller.
type OCRClient interface {
	Extract(ctx context.Context, objectName string) *ExtractResult
}

type ocrClient struct {
	config     config.OCRConfig
	httpClient *http.Client
	storage    MinioService
}

func NewOCRClient(cfg config.OCRConfig, storage MinioService) OCRClient {
	return &ocrClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		storage: storage,
	}
}

// ocrResponse mirrors the extraction endpoint's JSON payload. The invoice
// date arrives as a string and may be unparsable independently of the rest.
type ocrResponse struct {
	Vendor      string  `json:"vendor"`
	InvoiceDate string  `json:"invoiceDate"`
	Total       float64 `json:"total"`
	Vat         float64 `json:"vat"`
	Currency    *string `json:"currency"`
	RawText     *string `json:"rawText"`
}

func (c *ocrClient) Extract(ctx context.Context, objectName string) *ExtractResult {
	file, err := c.storage.GetReceiptFile(ctx, objectName)
	if err != nil {
		log.Printf("OCR extract called with missing object %s: %v", objectName, err)
		return nil
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", objectName)
	if err != nil {
		log.Printf("Failed to build OCR request for %s: %v", objectName, err)
		return nil
	}
	if _, err := io.Copy(part, file); err != nil {
		log.Printf("Failed to read stored object %s: %v", objectName, err)
		return nil
	}
	if err := writer.Close(); err != nil {
		log.Printf("Failed to finalize OCR request for %s: %v", objectName, err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIBase+"/ocr/extract", &body)
	if err != nil {
		log.Printf("Failed to create OCR request: %v", err)
		return nil
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Failed to call OCR service: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("OCR service returned status %d", resp.StatusCode)
		return nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Failed to read OCR response: %v", err)
		return nil
	}

	var parsed ocrResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		log.Printf("Unable to decode OCR payload: %v", err)
		return nil
	}

	invoiceDate, err := time.Parse("2006-01-02", parsed.InvoiceDate)
	if err != nil {
		// A bad date does not fail the whole extraction.
		log.Printf("Unable to parse invoice date %q, falling back to today", parsed.InvoiceDate)
		invoiceDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	currency := "EUR"
	if parsed.Currency != nil && *parsed.Currency != "" {
		currency = *parsed.Currency
	}
	rawText := ""
	if parsed.RawText != nil {
		rawText = *parsed.RawText
	}

	return &ExtractResult{
		Vendor:      parsed.Vendor,
		InvoiceDate: invoiceDate,
		Total:       decimal.NewFromFloat(parsed.Total),
		Vat:         decimal.NewFromFloat(parsed.Vat),
		Currency:    currency,
		RawText:     rawText,
	}
}

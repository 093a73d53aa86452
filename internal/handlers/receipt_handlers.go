package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"receiptdesk/internal/common"
	"receiptdesk/internal/models"
	"receiptdesk/internal/services"
)

const presignedURLExpiry = 15 * time.Minute

// ReceiptHandlers handles HTTP requests for receipts
type ReceiptHandlers struct {
	receiptService services.ReceiptServiceInterface
	minioSvc       services.MinioService
}

func NewReceiptHandlers(receiptService services.ReceiptServiceInterface, minioSvc services.MinioService) *ReceiptHandlers {
	return &ReceiptHandlers{
		receiptService: receiptService,
		minioSvc:       minioSvc,
	}
}

// ReceiptResponse is the public projection of a receipt.
type ReceiptResponse struct {
	ID          string  `json:"id"`
	Vendor      string  `json:"vendor"`
	InvoiceDate string  `json:"invoiceDate"`
	Total       string  `json:"total"`
	Vat         string  `json:"vat"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
	RawText     *string `json:"rawText"`
	FileURL     *string `json:"fileUrl"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   *string `json:"updatedAt"`
	VoucherID   *string `json:"voucherId"`
}

func (h *ReceiptHandlers) toResponse(c echo.Context, receipt *models.Receipt) ReceiptResponse {
	return buildReceiptResponse(c, h.minioSvc, receipt)
}

func buildReceiptResponse(c echo.Context, minioSvc services.MinioService, receipt *models.Receipt) ReceiptResponse {
	resp := ReceiptResponse{
		ID:          receipt.ID.String(),
		Vendor:      receipt.Vendor,
		InvoiceDate: receipt.InvoiceDate.Format("2006-01-02"),
		Total:       receipt.Total.StringFixed(2),
		Vat:         receipt.Vat.StringFixed(2),
		Currency:    receipt.Currency,
		Status:      receipt.Status,
		RawText:     receipt.RawText,
		CreatedAt:   receipt.CreatedAt.UTC().Format(time.RFC3339),
	}

	if receipt.UpdatedAt != nil {
		updated := receipt.UpdatedAt.UTC().Format(time.RFC3339)
		resp.UpdatedAt = &updated
	}
	if receipt.Booking != nil {
		voucher := receipt.Booking.VoucherID
		resp.VoucherID = &voucher
	}
	if receipt.FileKey != nil {
		url, err := minioSvc.GetPresignedURL(c.Request().Context(), *receipt.FileKey, presignedURLExpiry)
		if err != nil {
			log.Printf("Failed to presign file URL for receipt %s: %v", receipt.ID, err)
		} else {
			resp.FileURL = &url
		}
	}

	return resp
}

// ListReceipts handles GET /receipts
func (h *ReceiptHandlers) ListReceipts(c echo.Context) error {
	ctx := c.Request().Context()

	status := c.QueryParam("status")
	if status != "" && status != models.ReceiptStatusPending && status != models.ReceiptStatusBooked {
		// Unknown status filters behave as no filter, like the original list endpoint.
		status = ""
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))
	page, pageSize = common.ClampPage(page, pageSize)

	receipts, err := h.receiptService.List(ctx, status, page, pageSize)
	if err != nil {
		return common.SendServerError(c, "Failed to list receipts")
	}

	responses := make([]ReceiptResponse, 0, len(receipts))
	for _, receipt := range receipts {
		responses = append(responses, h.toResponse(c, receipt))
	}

	return c.JSON(http.StatusOK, responses)
}

// GetReceipt handles GET /receipts/:id
func (h *ReceiptHandlers) GetReceipt(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	receipt, err := h.receiptService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrReceiptNotFound) {
			return common.SendNotFoundError(c, "receipt")
		}
		return common.SendServerError(c, "Failed to load receipt")
	}

	resp := h.toResponse(c, receipt)
	return c.JSON(http.StatusOK, resp)
}

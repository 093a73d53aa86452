package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"receiptdesk/internal/common"
	"receiptdesk/internal/services"
)

// BookingHandlers handles booking requests from the presentation layer
type BookingHandlers struct {
	bookingService services.BookingServiceInterface
}

func NewBookingHandlers(bookingService services.BookingServiceInterface) *BookingHandlers {
	return &BookingHandlers{bookingService: bookingService}
}

// BookReceiptRequest names the receipt and carries optional corrections.
type BookReceiptRequest struct {
	ReceiptID   string                `json:"receiptId"`
	Corrections *services.Corrections `json:"corrections"`
}

// BookReceiptResponse carries the ledger voucher identifier.
type BookReceiptResponse struct {
	VoucherID string `json:"voucherId"`
}

// BookReceipt handles POST /book
func (h *BookingHandlers) BookReceipt(c echo.Context) error {
	ctx := c.Request().Context()

	var req BookReceiptRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	receiptID, err := common.ValidateUUID(req.ReceiptID, "receiptId")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	voucherID, err := h.bookingService.BookReceipt(ctx, receiptID, req.Corrections)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReceiptNotFound):
			return common.SendNotFoundError(c, "receipt")
		case errors.Is(err, services.ErrLedgerFailed):
			return common.SendGatewayError(c, "Failed to book receipt")
		default:
			return common.SendServerError(c, "Failed to book receipt")
		}
	}

	return c.JSON(http.StatusOK, BookReceiptResponse{VoucherID: voucherID})
}

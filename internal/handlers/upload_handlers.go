package handlers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"receiptdesk/internal/common"
	"receiptdesk/internal/services"
)

const maxUploadBytes = 10 << 20 // 10MB

// UploadHandlers handles receipt file uploads
type UploadHandlers struct {
	uploadService services.UploadServiceInterface
	minioSvc      services.MinioService
}

func NewUploadHandlers(uploadService services.UploadServiceInterface, minioSvc services.MinioService) *UploadHandlers {
	return &UploadHandlers{
		uploadService: uploadService,
		minioSvc:      minioSvc,
	}
}

// UploadReceipt handles POST /upload
func (h *UploadHandlers) UploadReceipt(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return common.SendClientError(c, "File is required")
	}
	if fileHeader.Size == 0 {
		return common.SendClientError(c, "File is empty")
	}
	if fileHeader.Size > maxUploadBytes {
		return common.SendClientError(c, "File exceeds the 10MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return common.SendServerError(c, "Failed to read uploaded file")
	}
	defer file.Close()

	receipt, err := h.uploadService.Ingest(ctx, fileHeader.Filename, fileHeader.Size, file, &userID)
	if err != nil {
		log.Printf("Failed to ingest upload %s: %v", fileHeader.Filename, err)
		return common.SendServerError(c, "Failed to store receipt")
	}

	return c.JSON(http.StatusOK, buildReceiptResponse(c, h.minioSvc, receipt))
}

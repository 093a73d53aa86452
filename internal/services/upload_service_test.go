package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"receiptdesk/internal/models"
)

type MockOCRClient struct {
	mock.Mock
}

func (m *MockOCRClient) Extract(ctx context.Context, objectName string) *ExtractResult {
	args := m.Called(ctx, objectName)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*ExtractResult)
}

type UploadServiceTestSuite struct {
	suite.Suite
	mockRepo    *MockReceiptRepository
	mockStorage *MockMinioService
	mockOCR     *MockOCRClient
	mockCache   *MockCacheService
	service     UploadServiceInterface
	ctx         context.Context
	userID      uuid.UUID
}

func (suite *UploadServiceTestSuite) SetupTest() {
	suite.mockRepo = &MockReceiptRepository{}
	suite.mockStorage = &MockMinioService{}
	suite.mockOCR = &MockOCRClient{}
	suite.mockCache = &MockCacheService{}
	suite.service = NewUploadService(suite.mockRepo, suite.mockStorage, suite.mockOCR, suite.mockCache)
	suite.ctx = context.Background()
	suite.userID = uuid.New()

	suite.mockRepo.Test(suite.T())
	suite.mockStorage.Test(suite.T())
	suite.mockOCR.Test(suite.T())
	suite.mockCache.Test(suite.T())
}

func (suite *UploadServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockStorage.AssertExpectations(suite.T())
	suite.mockOCR.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func TestUploadServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UploadServiceTestSuite))
}

func (suite *UploadServiceTestSuite) TestIngest_OCRUnavailable_UsesDefaults() {
	content := strings.NewReader("image-bytes")

	suite.mockStorage.On("UploadReceiptFile", suite.ctx, mock.MatchedBy(func(name string) bool {
		return strings.HasSuffix(name, ".jpg")
	}), content, int64(11)).Return(nil)

	suite.mockOCR.On("Extract", suite.ctx, mock.AnythingOfType("string")).Return(nil)

	suite.mockRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Receipt")).
		Return(nil).
		Run(func(args mock.Arguments) {
			receipt := args.Get(1).(*models.Receipt)
			assert.Equal(suite.T(), DefaultVendor, receipt.Vendor)
			assert.True(suite.T(), receipt.Total.Equal(decimal.Zero))
			assert.True(suite.T(), receipt.Vat.Equal(decimal.Zero))
			assert.Equal(suite.T(), "EUR", receipt.Currency)
			assert.Equal(suite.T(), models.ReceiptStatusPending, receipt.Status)
			assert.Nil(suite.T(), receipt.RawText)
			assert.NotNil(suite.T(), receipt.FileKey)
			assert.Equal(suite.T(), &suite.userID, receipt.CreatedBy)
		})

	suite.mockCache.On("InvalidateReceipts", suite.ctx).Return(nil)

	receipt, err := suite.service.Ingest(suite.ctx, "lunch.jpg", 11, content, &suite.userID)

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), receipt)
	assert.Equal(suite.T(), models.ReceiptStatusPending, receipt.Status)
}

func (suite *UploadServiceTestSuite) TestIngest_OCRSuccess_AppliesExtraction() {
	content := strings.NewReader("image-bytes")
	extracted := &ExtractResult{
		Vendor:      "ACME GmbH",
		InvoiceDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Total:       decimal.RequireFromString("42.50"),
		Vat:         decimal.RequireFromString("6.79"),
		Currency:    "CHF",
		RawText:     "ACME GmbH Rechnung",
	}

	suite.mockStorage.On("UploadReceiptFile", suite.ctx, mock.AnythingOfType("string"), content, int64(11)).Return(nil)
	suite.mockOCR.On("Extract", suite.ctx, mock.AnythingOfType("string")).Return(extracted)

	suite.mockRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Receipt")).
		Return(nil).
		Run(func(args mock.Arguments) {
			receipt := args.Get(1).(*models.Receipt)
			assert.Equal(suite.T(), "ACME GmbH", receipt.Vendor)
			assert.Equal(suite.T(), extracted.InvoiceDate, receipt.InvoiceDate)
			assert.Equal(suite.T(), "42.50", receipt.Total.StringFixed(2))
			assert.Equal(suite.T(), "CHF", receipt.Currency)
			assert.Equal(suite.T(), "ACME GmbH Rechnung", *receipt.RawText)
		})

	suite.mockCache.On("InvalidateReceipts", suite.ctx).Return(nil)

	receipt, err := suite.service.Ingest(suite.ctx, "invoice.pdf", 11, content, &suite.userID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ReceiptStatusPending, receipt.Status)
}

func (suite *UploadServiceTestSuite) TestIngest_ObjectNamePreservesExtension() {
	content := strings.NewReader("image-bytes")

	var objectName string
	suite.mockStorage.On("UploadReceiptFile", suite.ctx, mock.AnythingOfType("string"), content, int64(11)).
		Return(nil).
		Run(func(args mock.Arguments) {
			objectName = args.Get(1).(string)
		})
	suite.mockOCR.On("Extract", suite.ctx, mock.AnythingOfType("string")).Return(nil)
	suite.mockRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Receipt")).Return(nil)
	suite.mockCache.On("InvalidateReceipts", suite.ctx).Return(nil)

	_, err := suite.service.Ingest(suite.ctx, "scan.pdf", 11, content, nil)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), strings.HasSuffix(objectName, ".pdf"))
	// The stem must be a parseable UUID, not the user-supplied name.
	stem := strings.TrimSuffix(objectName, ".pdf")
	_, parseErr := uuid.Parse(stem)
	assert.NoError(suite.T(), parseErr)
}

func (suite *UploadServiceTestSuite) TestIngest_StorageFailureAbortsUpload() {
	content := strings.NewReader("image-bytes")

	suite.mockStorage.On("UploadReceiptFile", suite.ctx, mock.AnythingOfType("string"), content, int64(11)).
		Return(errors.New("bucket unreachable"))

	_, err := suite.service.Ingest(suite.ctx, "lunch.jpg", 11, content, &suite.userID)

	assert.Error(suite.T(), err)
	suite.mockRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
	suite.mockOCR.AssertNotCalled(suite.T(), "Extract", mock.Anything, mock.Anything)
}

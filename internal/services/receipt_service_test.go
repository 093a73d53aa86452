package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"receiptdesk/internal/models"
	"receiptdesk/internal/repositories"
)

type ReceiptServiceTestSuite struct {
	suite.Suite
	receiptRepo *MockReceiptRepository
	cacheSvc    *MockCacheService
	service     ReceiptServiceInterface
	ctx         context.Context
}

func (suite *ReceiptServiceTestSuite) SetupTest() {
	suite.receiptRepo = new(MockReceiptRepository)
	suite.cacheSvc = new(MockCacheService)
	suite.service = NewReceiptService(suite.receiptRepo, suite.cacheSvc)
	suite.ctx = context.Background()
}

func TestReceiptServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReceiptServiceTestSuite))
}

func (suite *ReceiptServiceTestSuite) TestList_CacheHitSkipsStore() {
	cached := []*models.Receipt{pendingReceipt()}
	suite.cacheSvc.On("GetReceiptPage", suite.ctx, "pending", 1, 50).Return(cached, nil)

	receipts, err := suite.service.List(suite.ctx, "pending", 1, 50)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), cached, receipts)
	suite.receiptRepo.AssertNotCalled(suite.T(), "List")
}

func (suite *ReceiptServiceTestSuite) TestList_CacheMissReadsStoreAndFillsCache() {
	stored := []*models.Receipt{pendingReceipt()}
	suite.cacheSvc.On("GetReceiptPage", suite.ctx, "", 2, 50).Return(nil, nil)
	suite.receiptRepo.On("List", suite.ctx, "", 50, 50).Return(stored, nil)
	suite.cacheSvc.On("SetReceiptPage", suite.ctx, "", 2, 50, stored, mock.AnythingOfType("time.Duration")).Return(nil)

	receipts, err := suite.service.List(suite.ctx, "", 2, 50)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), stored, receipts)
	suite.cacheSvc.AssertExpectations(suite.T())
}

func (suite *ReceiptServiceTestSuite) TestList_CacheFailureFallsThroughToStore() {
	stored := []*models.Receipt{pendingReceipt()}
	suite.cacheSvc.On("GetReceiptPage", suite.ctx, "", 1, 50).Return(nil, errors.New("redis down"))
	suite.receiptRepo.On("List", suite.ctx, "", 50, 0).Return(stored, nil)
	suite.cacheSvc.On("SetReceiptPage", suite.ctx, "", 1, 50, stored, mock.AnythingOfType("time.Duration")).Return(errors.New("redis down"))

	receipts, err := suite.service.List(suite.ctx, "", 1, 50)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), stored, receipts)
}

func (suite *ReceiptServiceTestSuite) TestList_StoreError() {
	storeErr := errors.New("connection reset")
	suite.cacheSvc.On("GetReceiptPage", suite.ctx, "", 1, 50).Return(nil, nil)
	suite.receiptRepo.On("List", suite.ctx, "", 50, 0).Return(nil, storeErr)

	_, err := suite.service.List(suite.ctx, "", 1, 50)
	assert.ErrorIs(suite.T(), err, storeErr)
}

func (suite *ReceiptServiceTestSuite) TestGet_MapsNotFound() {
	id := uuid.New()
	suite.receiptRepo.On("GetByID", suite.ctx, id).Return(nil, repositories.ErrNotFound)

	_, err := suite.service.Get(suite.ctx, id)
	assert.ErrorIs(suite.T(), err, ErrReceiptNotFound)
}

func (suite *ReceiptServiceTestSuite) TestGet_ReturnsReceipt() {
	receipt := pendingReceipt()
	suite.receiptRepo.On("GetByID", suite.ctx, receipt.ID).Return(receipt, nil)

	got, err := suite.service.Get(suite.ctx, receipt.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), receipt, got)
}

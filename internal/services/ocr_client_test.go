package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"receiptdesk/internal/config"
)

type MockMinioService struct {
	mock.Mock
}

func (m *MockMinioService) UploadReceiptFile(ctx context.Context, objectName string, reader io.Reader, objectSize int64) error {
	args := m.Called(ctx, objectName, reader, objectSize)
	return args.Error(0)
}

func (m *MockMinioService) GetReceiptFile(ctx context.Context, objectName string) (io.ReadCloser, error) {
	args := m.Called(ctx, objectName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockMinioService) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockMinioService) EnsureBucketExists(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockMinioService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newTestOCRClient(baseURL string, storage MinioService) OCRClient {
	return NewOCRClient(config.OCRConfig{
		APIBase:        baseURL,
		TimeoutSeconds: 2,
	}, storage)
}

func storedObject(storage *MockMinioService, objectName, content string) {
	storage.On("GetReceiptFile", mock.Anything, objectName).
		Return(io.NopCloser(strings.NewReader(content)), nil)
}

func TestOCRClient_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ocr/extract", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")

		file, _, err := r.FormFile("file")
		assert.NoError(t, err)
		body, _ := io.ReadAll(file)
		assert.Equal(t, "image-bytes", string(body))

		w.Write([]byte(`{"vendor":"ACME GmbH","invoiceDate":"2025-03-10","total":42.5,"vat":6.79,"currency":"EUR","rawText":"ACME GmbH Rechnung"}`))
	}))
	defer server.Close()

	storage := &MockMinioService{}
	storedObject(storage, "abc.jpg", "image-bytes")

	result := newTestOCRClient(server.URL, storage).Extract(context.Background(), "abc.jpg")

	assert.NotNil(t, result)
	assert.Equal(t, "ACME GmbH", result.Vendor)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), result.InvoiceDate)
	assert.Equal(t, "42.50", result.Total.StringFixed(2))
	assert.Equal(t, "6.79", result.Vat.StringFixed(2))
	assert.Equal(t, "EUR", result.Currency)
	assert.Equal(t, "ACME GmbH Rechnung", result.RawText)
}

func TestOCRClient_MissingObjectIsUnavailable(t *testing.T) {
	storage := &MockMinioService{}
	storage.On("GetReceiptFile", mock.Anything, "gone.jpg").
		Return(nil, errors.New("object does not exist"))

	result := newTestOCRClient("http://localhost:1", storage).Extract(context.Background(), "gone.jpg")

	assert.Nil(t, result)
}

func TestOCRClient_NonSuccessStatusIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	storage := &MockMinioService{}
	storedObject(storage, "abc.jpg", "image-bytes")

	result := newTestOCRClient(server.URL, storage).Extract(context.Background(), "abc.jpg")

	assert.Nil(t, result)
}

func TestOCRClient_MalformedPayloadIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer server.Close()

	storage := &MockMinioService{}
	storedObject(storage, "abc.jpg", "image-bytes")

	result := newTestOCRClient(server.URL, storage).Extract(context.Background(), "abc.jpg")

	assert.Nil(t, result)
}

func TestOCRClient_TransportFaultIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	storage := &MockMinioService{}
	storedObject(storage, "abc.jpg", "image-bytes")

	result := newTestOCRClient(server.URL, storage).Extract(context.Background(), "abc.jpg")

	assert.Nil(t, result)
}

func TestOCRClient_BadDateFallsBackToToday(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"vendor":"ACME GmbH","invoiceDate":"10.03.2025","total":42.5,"vat":6.79}`))
	}))
	defer server.Close()

	storage := &MockMinioService{}
	storedObject(storage, "abc.jpg", "image-bytes")

	result := newTestOCRClient(server.URL, storage).Extract(context.Background(), "abc.jpg")

	assert.NotNil(t, result)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	assert.Equal(t, today, result.InvoiceDate)
	// Missing currency defaults, extraction still succeeds.
	assert.Equal(t, "EUR", result.Currency)
	assert.Equal(t, "", result.RawText)
}

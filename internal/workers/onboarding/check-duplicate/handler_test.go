// internal/workers/onboarding/check-duplicate/handler_test.go
package checkduplicate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "client-onboarding/internal/common/errors"
	"client-onboarding/internal/common/logger"
	"client-onboarding/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindFolders(ctx context.Context, query string) ([]models.DriveItem, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DriveItem), args.Error(1)
}

func (m *MockStore) Upload(ctx context.Context, content io.Reader, size int64, fileName, folder string) (string, error) {
	args := m.Called(ctx, content, size, fileName, folder)
	return args.String(0), args.Error(1)
}

func (m *MockStore) ListChildren(ctx context.Context, folder string) ([]models.DriveItem, error) {
	args := m.Called(ctx, folder)
	return nil, args.Error(1)
}

func (m *MockStore) ListDrives(ctx context.Context) ([]models.Drive, error) {
	args := m.Called(ctx)
	return nil, args.Error(1)
}

func createTestHandler(t *testing.T, store *MockStore) *Handler {
	return NewHandler(LoadConfig(), store, logger.NewTestLogger(t))
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/check-duplicate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ==========================
// Tests
// ==========================

func TestServeHTTP_Exists(t *testing.T) {
	store := new(MockStore)
	store.On("FindFolders", mock.Anything, "Acme").Return([]models.DriveItem{
		{Name: "Acme_2025-01-01", CreatedDate: "2025-01-01T08:00:00Z", WebURL: "https://x/Acme_2025-01-01", IsFolder: true},
	}, nil).Once()

	rec := post(createTestHandler(t, store), `{"clientName":"Acme"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"exists": true,
		"message": "Client \"Acme\" already exists in SharePoint",
		"existingFolders": [{"name":"Acme_2025-01-01","createdDate":"2025-01-01T08:00:00Z","webUrl":"https://x/Acme_2025-01-01"}]
	}`, rec.Body.String())
	store.AssertExpectations(t)
}

func TestServeHTTP_NotExists(t *testing.T) {
	store := new(MockStore)
	store.On("FindFolders", mock.Anything, "Beta").Return([]models.DriveItem{}, nil)

	rec := post(createTestHandler(t, store), `{"clientName":"Beta"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exists":false,"message":"Client does not exist"}`, rec.Body.String())
}

func TestServeHTTP_RequestContextPassedThrough(t *testing.T) {
	noDeadline := mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return !ok
	})
	store := new(MockStore)
	store.On("FindFolders", noDeadline, "Acme").Return([]models.DriveItem{}, nil).Once()

	rec := post(createTestHandler(t, store), `{"clientName":"Acme"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestServeHTTP_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{}`, `{"error":"Client name is required"}`},
		{"empty name", `{"clientName":""}`, `{"error":"Client name is required"}`},
		{"blank name", `{"clientName":"  "}`, `{"error":"Client name is required"}`},
		{"non-string name", `{"clientName":7}`, `{"error":"Client name is required"}`},
		{"malformed json", `{"clientName":`, `{"error":"Invalid JSON body"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			rec := post(createTestHandler(t, store), tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
			store.AssertNotCalled(t, "FindFolders", mock.Anything, mock.Anything)
		})
	}
}

func TestServeHTTP_StoreError(t *testing.T) {
	store := new(MockStore)
	store.On("FindFolders", mock.Anything, "Acme").Return(nil, errors.New("token expired"))

	rec := post(createTestHandler(t, store), `{"clientName":"Acme"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Error checking for duplicate client: token expired"}`, rec.Body.String())
}

func TestServeHTTP_StoreErrorHidden(t *testing.T) {
	store := new(MockStore)
	store.On("FindFolders", mock.Anything, "Acme").
		Return(nil, apperrors.NewStoreUnavailableError("find folders", errors.New("secret detail")))
	h := createTestHandler(t, store)
	h.config.ExposeErrorDetails = false

	rec := post(h, `{"clientName":"Acme"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")
	assert.Contains(t, rec.Body.String(), "STORE_UNAVAILABLE")
}

func TestExecute_RequiresName(t *testing.T) {
	_, err := createTestHandler(t, new(MockStore)).Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrBadRequest))
}

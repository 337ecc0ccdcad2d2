package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/stwalsh4118/hoadues/internal/errors"
	"github.com/stwalsh4118/hoadues/internal/logger"
	"github.com/stwalsh4118/hoadues/internal/middleware"
	"github.com/stwalsh4118/hoadues/internal/models"
	"github.com/stwalsh4118/hoadues/internal/services"
)

// MockAccountService is a mock implementation of AccountService for testing
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccount(ctx context.Context, q services.AccountQuery) (*models.AccountSnapshot, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccountSnapshot), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, filters services.AccountFilters) ([]models.AccountSnapshot, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccountSnapshot), args.Error(1)
}

func (m *MockAccountService) ListCommunications(ctx context.Context, parcelID string) ([]models.Communication, error) {
	args := m.Called(ctx, parcelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Communication), args.Error(1)
}

func (m *MockAccountService) ListConfig(ctx context.Context) ([]models.ConfigEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConfigEntry), args.Error(1)
}

// MockNoticeService is a mock implementation of NoticeService for testing
type MockNoticeService struct {
	mock.Mock
}

func (m *MockNoticeService) CreateDuesNoticeBatch(ctx context.Context, req services.NoticeBatchRequest) (int, error) {
	args := m.Called(ctx, req)
	return args.Int(0), args.Error(1)
}

// MockMaintenanceService is a mock implementation of MaintenanceService for testing
type MockMaintenanceService struct {
	mock.Mock
}

func (m *MockMaintenanceService) UpdateProperty(ctx context.Context, parcelID string, patch models.PropertyPatch, actor string) (*models.Property, error) {
	args := m.Called(ctx, parcelID, patch, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockMaintenanceService) UpdateOwner(ctx context.Context, parcelID string, ownerID int, patch models.OwnerPatch, actor string) (*models.Owner, error) {
	args := m.Called(ctx, parcelID, ownerID, patch, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Owner), args.Error(1)
}

func (m *MockMaintenanceService) UpdateAssessment(ctx context.Context, parcelID, assessmentID string, update models.AssessmentUpdate, actor string) (*models.Assessment, error) {
	args := m.Called(ctx, parcelID, assessmentID, update, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assessment), args.Error(1)
}

// setupTestRouter creates a test router with the request ID and logger middleware.
func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Nop()))
	return router
}

// testAPI bundles a router wired to mocked services.
type testAPI struct {
	router      *gin.Engine
	accounts    *MockAccountService
	notices     *MockNoticeService
	maintenance *MockMaintenanceService
}

func newTestAPI() *testAPI {
	api := &testAPI{
		router:      setupTestRouter(),
		accounts:    new(MockAccountService),
		notices:     new(MockNoticeService),
		maintenance: new(MockMaintenanceService),
	}
	RegisterAPIRoutes(api.router.Group("/api/v1"),
		NewAccountHandler(api.accounts),
		NewNoticeHandler(api.notices),
		NewMaintenanceHandler(api.maintenance),
	)
	return api
}

// do sends a request, setting the actor header when actor is not empty.
func (a *testAPI) do(method, path, actor string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		req.Header.Set(middleware.ActorHeader, actor)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[apierrors.ErrorResponse](t, w).Error.Code
}

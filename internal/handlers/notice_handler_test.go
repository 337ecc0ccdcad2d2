package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/stwalsh4118/hoadues/internal/errors"
	"github.com/stwalsh4118/hoadues/internal/services"
)

func TestNoticeHandler_CreateDuesNotices(t *testing.T) {
	// Arrange
	api := newTestAPI()
	api.notices.On("CreateDuesNoticeBatch", mock.Anything, services.NoticeBatchRequest{
		Actor:    "treasurer",
		TestMode: true,
	}).Return(12, nil)

	// Act
	w := api.do(http.MethodPost, "/api/v1/notices/dues", "treasurer", CreateDuesNoticesRequest{TestMode: true})

	// Assert
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 12, decodeBody[CreateDuesNoticesResponse](t, w).Created)
	api.notices.AssertExpectations(t)
}

func TestNoticeHandler_CreateDuesNotices_EmptyBody(t *testing.T) {
	api := newTestAPI()
	api.notices.On("CreateDuesNoticeBatch", mock.Anything, services.NoticeBatchRequest{Actor: "treasurer"}).Return(0, nil)

	w := api.do(http.MethodPost, "/api/v1/notices/dues", "treasurer", nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	api.notices.AssertExpectations(t)
}

func TestNoticeHandler_CreateDuesNotices_RequiresActor(t *testing.T) {
	api := newTestAPI()

	w := api.do(http.MethodPost, "/api/v1/notices/dues", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	api.notices.AssertNotCalled(t, "CreateDuesNoticeBatch", mock.Anything, mock.Anything)
}

func TestNoticeHandler_CreateDuesNotices_PartialBatch(t *testing.T) {
	api := newTestAPI()
	api.notices.On("CreateDuesNoticeBatch", mock.Anything, mock.Anything).
		Return(3, fmt.Errorf("%w: communication c-4: bus down", services.ErrPublishFailed))

	w := api.do(http.MethodPost, "/api/v1/notices/dues", "treasurer", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	response := decodeBody[apierrors.ErrorResponse](t, w)
	assert.Contains(t, response.Error.Message, "3 notices")
}

func TestNoticeHandler_CreateDuesNotices_MissingTestParcel(t *testing.T) {
	api := newTestAPI()
	api.notices.On("CreateDuesNoticeBatch", mock.Anything, mock.Anything).
		Return(0, fmt.Errorf("failed to list delinquent accounts: %w", services.ErrInvalidConfig))

	w := api.do(http.MethodPost, "/api/v1/notices/dues", "treasurer", CreateDuesNoticesRequest{TestMode: true})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apierrors.ErrInternalServer, errorCode(t, w))
}

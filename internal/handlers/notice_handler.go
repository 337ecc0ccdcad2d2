package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/stwalsh4118/hoadues/internal/errors"
	"github.com/stwalsh4118/hoadues/internal/middleware"
	"github.com/stwalsh4118/hoadues/internal/services"
)

// NoticeHandler starts dues notice campaigns.
type NoticeHandler struct {
	service services.NoticeService
}

// NewNoticeHandler creates a new NoticeHandler instance.
func NewNoticeHandler(service services.NoticeService) *NoticeHandler {
	return &NoticeHandler{
		service: service,
	}
}

// CreateDuesNoticesRequest is the optional body of the dues notice endpoint.
type CreateDuesNoticesRequest struct {
	TestMode bool `json:"testMode"`
}

// CreateDuesNoticesResponse reports how many notices were queued.
type CreateDuesNoticesResponse struct {
	Created int `json:"created"`
}

// CreateDuesNotices handles POST /api/v1/notices/dues.
// Notices are queued for the dispatcher, so success is 202 Accepted.
func (h *NoticeHandler) CreateDuesNotices(c *gin.Context) {
	var req CreateDuesNoticesRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err, "Invalid request body")
		return
	}

	created, err := h.service.CreateDuesNoticeBatch(c.Request.Context(), services.NoticeBatchRequest{
		Actor:    middleware.GetActor(c),
		TestMode: req.TestMode,
	})
	if err != nil {
		if created > 0 {
			// Part of the batch is already queued; tell the caller how much
			apierrors.ServiceUnavailable(c, fmt.Sprintf("Batch stopped after %d notices were queued", created), err)
			return
		}
		serviceError(c, err, "Failed to create dues notices")
		return
	}

	c.JSON(http.StatusAccepted, CreateDuesNoticesResponse{Created: created})
}

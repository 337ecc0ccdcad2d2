package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/stwalsh4118/hoadues/internal/errors"
	"github.com/stwalsh4118/hoadues/internal/middleware"
	"github.com/stwalsh4118/hoadues/internal/models"
	"github.com/stwalsh4118/hoadues/internal/services"
)

// AccountHandler serves the read side: account snapshots, communications and config.
type AccountHandler struct {
	service services.AccountService
}

// NewAccountHandler creates a new AccountHandler instance.
func NewAccountHandler(service services.AccountService) *AccountHandler {
	return &AccountHandler{
		service: service,
	}
}

// GetAccountRequest represents the query parameters of the single account endpoint.
type GetAccountRequest struct {
	OwnerID    int    `form:"ownerId" binding:"omitempty,gte=1"`
	FiscalYear string `form:"fy" binding:"max=10"`
	SaleDate   string `form:"saleDate" binding:"max=20"`
}

// ListAccountsRequest represents the filters of the account list endpoint.
type ListAccountsRequest struct {
	DuesOwed          bool `form:"duesOwed"`
	SkipEmail         bool `form:"skipEmail"`
	CurrentYearPaid   bool `form:"currYearPaid"`
	CurrentYearUnpaid bool `form:"currYearUnpaid"`
	TestMode          bool `form:"testEmail"`
}

// AccountResponse wraps a single account snapshot.
type AccountResponse struct {
	Account *models.AccountSnapshot `json:"account"`
}

// AccountListResponse is the response of the account list endpoint.
type AccountListResponse struct {
	Accounts []models.AccountSnapshot `json:"accounts"`
	Count    int                      `json:"count"`
}

// CommunicationListResponse is the response of the communications endpoint.
type CommunicationListResponse struct {
	Communications []models.Communication `json:"communications"`
	Count          int                    `json:"count"`
}

// ConfigListResponse is the response of the config endpoint.
type ConfigListResponse struct {
	Config []models.ConfigEntry `json:"config"`
}

// GetAccount handles GET /api/v1/accounts/:parcelId.
func (h *AccountHandler) GetAccount(c *gin.Context) {
	var req GetAccountRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err, "Invalid query parameters")
		return
	}

	snapshot, err := h.service.GetAccount(c.Request.Context(), services.AccountQuery{
		ParcelID:   c.Param("parcelId"),
		OwnerID:    req.OwnerID,
		FiscalYear: req.FiscalYear,
		SaleDate:   req.SaleDate,
	})
	if err != nil {
		serviceError(c, err, "Failed to load account")
		return
	}
	if snapshot.Property == nil {
		apierrors.NotFound(c, "Property not found")
		return
	}

	c.JSON(http.StatusOK, AccountResponse{Account: snapshot})
}

// ListAccounts handles GET /api/v1/accounts.
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	var req ListAccountsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err, "Invalid query parameters")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Listing accounts", map[string]interface{}{
			"dues_owed":   req.DuesOwed,
			"skip_email":  req.SkipEmail,
			"curr_paid":   req.CurrentYearPaid,
			"curr_unpaid": req.CurrentYearUnpaid,
			"test_mode":   req.TestMode,
		})
	}

	accounts, err := h.service.ListAccounts(c.Request.Context(), services.AccountFilters(req))
	if err != nil {
		serviceError(c, err, "Failed to list accounts")
		return
	}

	c.JSON(http.StatusOK, AccountListResponse{
		Accounts: accounts,
		Count:    len(accounts),
	})
}

// ListCommunications handles GET /api/v1/accounts/:parcelId/communications.
func (h *AccountHandler) ListCommunications(c *gin.Context) {
	comms, err := h.service.ListCommunications(c.Request.Context(), c.Param("parcelId"))
	if err != nil {
		serviceError(c, err, "Failed to list communications")
		return
	}

	c.JSON(http.StatusOK, CommunicationListResponse{
		Communications: comms,
		Count:          len(comms),
	})
}

// ListConfig handles GET /api/v1/config.
func (h *AccountHandler) ListConfig(c *gin.Context) {
	entries, err := h.service.ListConfig(c.Request.Context())
	if err != nil {
		serviceError(c, err, "Failed to list config")
		return
	}

	c.JSON(http.StatusOK, ConfigListResponse{Config: entries})
}

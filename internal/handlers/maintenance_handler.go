package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stwalsh4118/hoadues/internal/middleware"
	"github.com/stwalsh4118/hoadues/internal/models"
	"github.com/stwalsh4118/hoadues/internal/services"
)

// MaintenanceHandler serves operator edits of properties, owners and assessments.
type MaintenanceHandler struct {
	service services.MaintenanceService
}

// NewMaintenanceHandler creates a new MaintenanceHandler instance.
func NewMaintenanceHandler(service services.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{
		service: service,
	}
}

// OwnerURI identifies one owner record.
type OwnerURI struct {
	ParcelID string `uri:"parcelId" binding:"required"`
	OwnerID  int    `uri:"ownerId" binding:"required,gte=1"`
}

// AssessmentURI identifies one assessment record.
type AssessmentURI struct {
	ParcelID     string `uri:"parcelId" binding:"required"`
	AssessmentID string `uri:"assessmentId" binding:"required"`
}

// PropertyResponse wraps an updated property.
type PropertyResponse struct {
	Property *models.Property `json:"property"`
}

// OwnerResponse wraps an updated owner. Warning is set when the owner was
// saved but the property still shows the old owner details.
type OwnerResponse struct {
	Owner   *models.Owner `json:"owner"`
	Warning string        `json:"warning,omitempty"`
}

// AssessmentResponse wraps an updated assessment.
type AssessmentResponse struct {
	Assessment *models.Assessment `json:"assessment"`
}

// UpdateProperty handles PATCH /api/v1/properties/:parcelId.
func (h *MaintenanceHandler) UpdateProperty(c *gin.Context) {
	var patch models.PropertyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	property, err := h.service.UpdateProperty(c.Request.Context(), c.Param("parcelId"), patch, middleware.GetActor(c))
	if err != nil {
		serviceError(c, err, "Failed to update property")
		return
	}

	c.JSON(http.StatusOK, PropertyResponse{Property: property})
}

// UpdateOwner handles PATCH /api/v1/properties/:parcelId/owners/:ownerId.
func (h *MaintenanceHandler) UpdateOwner(c *gin.Context) {
	var uri OwnerURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindError(c, err, "Invalid owner id")
		return
	}
	var patch models.OwnerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	owner, err := h.service.UpdateOwner(c.Request.Context(), uri.ParcelID, uri.OwnerID, patch, middleware.GetActor(c))
	if errors.Is(err, services.ErrPropertyStale) {
		if log := middleware.GetLogger(c); log != nil {
			log.Warn("Owner saved, property not refreshed", map[string]interface{}{
				"parcel_id": uri.ParcelID,
				"owner_id":  uri.OwnerID,
			})
		}
		c.JSON(http.StatusOK, OwnerResponse{
			Owner:   owner,
			Warning: "Owner saved but the property record was not updated; retry the change to refresh it",
		})
		return
	}
	if err != nil {
		serviceError(c, err, "Failed to update owner")
		return
	}

	c.JSON(http.StatusOK, OwnerResponse{Owner: owner})
}

// UpdateAssessment handles PUT /api/v1/properties/:parcelId/assessments/:assessmentId.
func (h *MaintenanceHandler) UpdateAssessment(c *gin.Context) {
	var uri AssessmentURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindError(c, err, "Invalid assessment id")
		return
	}
	var update models.AssessmentUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	assessment, err := h.service.UpdateAssessment(c.Request.Context(), uri.ParcelID, uri.AssessmentID, update, middleware.GetActor(c))
	if err != nil {
		serviceError(c, err, "Failed to update assessment")
		return
	}

	c.JSON(http.StatusOK, AssessmentResponse{Assessment: assessment})
}

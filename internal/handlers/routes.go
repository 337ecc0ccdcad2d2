package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/stwalsh4118/hoadues/internal/middleware"
)

// RegisterAPIRoutes mounts the dues API under v1. Writes require an actor.
func RegisterAPIRoutes(v1 *gin.RouterGroup, accounts *AccountHandler, notices *NoticeHandler, maintenance *MaintenanceHandler) {
	v1.GET("/config", accounts.ListConfig)

	acct := v1.Group("/accounts")
	{
		acct.GET("", accounts.ListAccounts)
		acct.GET("/:parcelId", accounts.GetAccount)
		acct.GET("/:parcelId/communications", accounts.ListCommunications)
	}

	writes := v1.Group("", middleware.RequireActor())
	{
		writes.POST("/notices/dues", notices.CreateDuesNotices)

		props := writes.Group("/properties/:parcelId")
		props.PATCH("", maintenance.UpdateProperty)
		props.PATCH("/owners/:ownerId", maintenance.UpdateOwner)
		props.PUT("/assessments/:assessmentId", maintenance.UpdateAssessment)
	}
}

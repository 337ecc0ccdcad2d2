package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/stwalsh4118/hoadues/internal/errors"
	"github.com/stwalsh4118/hoadues/internal/repository"
	"github.com/stwalsh4118/hoadues/internal/services"
)

// bindError answers a request whose body or query could not be bound.
func bindError(c *gin.Context, err error, message string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, message, nil)
}

// serviceError maps a service or store error to its HTTP response.
// message is used for the unexpected cases.
func serviceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrAccountNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, repository.ErrConflict):
		apierrors.Conflict(c, "The record was changed or already exists")
	case errors.Is(err, repository.ErrThrottled), errors.Is(err, services.ErrPublishFailed):
		apierrors.ServiceUnavailable(c, "Temporarily unavailable, retry later", err)
	default:
		apierrors.InternalServerError(c, message, err)
	}
}
